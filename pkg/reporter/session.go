package reporter

import (
	"context"
	"fmt"
	"io"

	"github.com/chainguard-dev/clog"

	"github.com/dkoosis/labreport/pkg/notebook"
)

// Session drives one reporter through one run.
type Session struct {
	ctx     context.Context
	opts    Options
	name    string
	rep     Reporter
	started bool
	seq     int
}

// NewSession selects the reporter for opts. It fails before any output is
// produced when the format is unknown.
func NewSession(ctx context.Context, opts Options) (*Session, error) {
	return newSession(ctx, defaultRegistry, opts)
}

// NewSession selects the reporter for opts from r.
func (r *Registry) NewSession(ctx context.Context, opts Options) (*Session, error) {
	return newSession(ctx, r, opts)
}

func newSession(ctx context.Context, reg *Registry, opts Options) (*Session, error) {
	if opts.Reporter == "" {
		opts.Reporter = Console
	}
	rep, err := reg.Generate(opts)
	if err != nil {
		return nil, err
	}
	clog.FromContext(ctx).Debugf("selected %s reporter (incremental=%t)", opts.Reporter, rep.Incremental())
	return &Session{ctx: ctx, opts: opts, name: opts.Reporter, rep: rep}, nil
}

// Reporter returns the reporter driven by s.
func (s *Session) Reporter() Reporter { return s.rep }

// Begin starts the run. Calling it more than once is a no-op.
func (s *Session) Begin(plan int) error {
	if s.started {
		return nil
	}
	if err := s.ctx.Err(); err != nil {
		return err
	}
	s.started = true
	if err := s.rep.Start(s.ctx, plan); err != nil {
		return formatting(s.name, err)
	}
	return s.flushIncremental()
}

// Record delivers one completed test. Results without an ID get the next
// run sequence number.
func (s *Session) Record(r notebook.TestResult) error {
	if err := s.Begin(0); err != nil {
		return err
	}
	if err := s.ctx.Err(); err != nil {
		return err
	}
	s.seq++
	if r.ID == 0 {
		r.ID = s.seq
	}
	if err := s.rep.Test(s.ctx, r); err != nil {
		return formatting(s.name, err)
	}
	return s.flushIncremental()
}

// Finish renders the run. With a sink the report is written and flushed,
// on every path. Without a sink the report is returned in Result.Output.
func (s *Session) Finish(nb *notebook.Notebook) (res Result, err error) {
	if nb == nil {
		nb = &notebook.Notebook{}
	}
	if s.opts.Output != nil {
		defer func() {
			if ferr := flush(s.opts.Output); ferr != nil && err == nil {
				err = fmt.Errorf("flushing %s report: %w", s.name, ferr)
			}
		}()
	}
	if err := s.Begin(0); err != nil {
		return Result{}, err
	}
	if err := nb.Validate(); err != nil {
		return Result{}, formatting(s.name, err)
	}

	out, err := s.rep.End(s.ctx, nb)
	if err != nil {
		return Result{}, formatting(s.name, err)
	}
	res.Code = ExitCode(nb)

	log := clog.FromContext(s.ctx)
	log.Debugf("%s reporter finished: %d events, %d bytes, exit code %d", s.name, s.seq, len(out), res.Code)

	if s.opts.Output == nil {
		res.Output = out
		return res, nil
	}
	if out != "" {
		if _, err := io.WriteString(s.opts.Output, out); err != nil {
			return res, fmt.Errorf("writing %s report: %w", s.name, err)
		}
	}
	return res, nil
}

func (s *Session) flushIncremental() error {
	if !s.rep.Incremental() || s.opts.Output == nil {
		return nil
	}
	if err := flush(s.opts.Output); err != nil {
		return fmt.Errorf("flushing %s report: %w", s.name, err)
	}
	return nil
}

// Report renders a finished notebook: it replays every test in order
// through a new session started with plan 0, then finishes it.
func Report(ctx context.Context, nb *notebook.Notebook, opts Options) (Result, error) {
	return report(ctx, defaultRegistry, nb, opts)
}

// Report renders a finished notebook with a reporter from r.
func (r *Registry) Report(ctx context.Context, nb *notebook.Notebook, opts Options) (Result, error) {
	return report(ctx, r, nb, opts)
}

func report(ctx context.Context, reg *Registry, nb *notebook.Notebook, opts Options) (Result, error) {
	s, err := newSession(ctx, reg, opts)
	if err != nil {
		return Result{}, err
	}
	if nb == nil {
		nb = &notebook.Notebook{}
	}
	if err := nb.Validate(); err != nil {
		return Result{}, formatting(s.name, err)
	}
	if err := s.Begin(0); err != nil {
		return Result{}, err
	}
	for _, r := range nb.All() {
		if err := s.Record(r); err != nil {
			return Result{}, err
		}
	}
	return s.Finish(nb)
}
