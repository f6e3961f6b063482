package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/chainguard-dev/clog"
	"golang.org/x/term"

	"github.com/dkoosis/labreport/internal/config"
	"github.com/dkoosis/labreport/internal/detect"
	"github.com/dkoosis/labreport/internal/metrics"
	"github.com/dkoosis/labreport/pkg/coverage"
	"github.com/dkoosis/labreport/pkg/notebook"
	"github.com/dkoosis/labreport/pkg/reporter"
	"github.com/dkoosis/labreport/pkg/testjson"
)

const peekSize = 4096

// render reads the run from stdin and writes the report. It returns the
// pipeline's exit code; a non-nil error means exitError. The output file is
// created only once the input and the reporter name have been accepted.
func (a *app) render(ctx context.Context, flags config.CliFlags) (code int, err error) {
	cfg, err := config.Resolve(ctx, flags, a.env)
	if err != nil {
		return exitError, err
	}
	ctx = clog.WithLogger(ctx, newLogger(a.stderr, cfg.Debug))
	log := clog.FromContext(ctx)
	if cfg.ConfigFile != "" {
		log.Debugf("loaded config file %s", cfg.ConfigFile)
	}

	opts := reporter.Options{
		Reporter:       cfg.Reporter,
		Level:          cfg.Level,
		Coverage:       cfg.Coverage,
		CoverageGlobal: cfg.CoverageGlobal,
		NoColor:        cfg.NoColor,
		Theme:          cfg.Theme,
	}
	if isTTYWriter(a.stdout) && (cfg.Output == "" || cfg.Output == "-") {
		opts.Width, _ = termSize(a.stdout)
	} else if cfg.Sources[config.KeyNoColor] == config.SourceDefault {
		opts.NoColor = true
	}
	if _, err := reporter.Generate(opts); err != nil {
		return exitError, err
	}

	br := bufio.NewReaderSize(a.stdin, 64*1024)
	peeked, _ := br.Peek(peekSize)
	if len(peeked) == 0 {
		return exitError, errors.New("no input on stdin")
	}
	format := detect.Sniff(peeked)
	log.Debugf("detected input format %s", format)

	var profile *notebook.CoverageReport
	if cfg.CoverProfile != "" {
		if profile, err = readProfile(cfg.CoverProfile); err != nil {
			return exitError, err
		}
	}

	var nb *notebook.Notebook
	switch format {
	case detect.Notebook:
		if nb, err = decodeNotebook(br, profile); err != nil {
			return exitError, err
		}
	case detect.GoTestJSON:
		// streamed once the sink is open
	default:
		return exitError, errors.New("unrecognized input format: expected a notebook document or go test -json")
	}

	out, closeOut, err := a.openOutput(cfg.Output)
	if err != nil {
		return exitError, err
	}
	defer func() {
		if cerr := closeOut(); cerr != nil && err == nil {
			code, err = exitError, cerr
		}
	}()
	opts.Output = out

	var res reporter.Result
	if nb != nil {
		res, err = reporter.Report(ctx, nb, opts)
	} else {
		nb, res, err = streamGoTest(ctx, br, profile, opts)
	}
	if err != nil {
		return exitError, err
	}

	if cfg.MetricsTextfile != "" {
		m := metrics.New()
		m.Observe(nb)
		if err := m.WriteTextfile(cfg.MetricsTextfile); err != nil {
			return exitError, err
		}
		log.Debugf("wrote metrics to %s", cfg.MetricsTextfile)
	}
	return res.Code, nil
}

// decodeNotebook reads a notebook document and applies the cover profile.
func decodeNotebook(r io.Reader, profile *notebook.CoverageReport) (*notebook.Notebook, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading stdin: %w", err)
	}
	var nb notebook.Notebook
	if err := json.Unmarshal(data, &nb); err != nil {
		return nil, fmt.Errorf("decoding notebook: %w", err)
	}
	if profile != nil {
		nb.Coverage = profile
	}
	if err := nb.Validate(); err != nil {
		return nil, fmt.Errorf("decoding notebook: %w", err)
	}
	return &nb, nil
}

// streamGoTest forwards each completed test to the reporter while go test
// is still running.
func streamGoTest(ctx context.Context, r io.Reader, profile *notebook.CoverageReport, opts reporter.Options) (*notebook.Notebook, reporter.Result, error) {
	session, err := reporter.NewSession(ctx, opts)
	if err != nil {
		return nil, reporter.Result{}, err
	}
	if err := session.Begin(0); err != nil {
		return nil, reporter.Result{}, err
	}

	collector := testjson.NewCollector(ctx, session.Record)
	malformed, err := testjson.Stream(ctx, r, collector.Process)
	if err != nil {
		return nil, reporter.Result{}, err
	}
	log := clog.FromContext(ctx)
	if malformed > 0 {
		log.Warnf("skipped %d malformed lines", malformed)
	}

	nb, err := collector.Notebook()
	if err != nil {
		return nil, reporter.Result{}, err
	}
	if profile != nil {
		nb.Coverage = profile
	}
	stats := testjson.ComputeStats(collector.Results())
	log.Debugf("parsed %d packages (%d failed, %d build errors)", stats.Packages, stats.FailedPkgs, stats.BuildErrors)

	res, err := session.Finish(nb)
	return nb, res, err
}

func readProfile(path string) (*notebook.CoverageReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening cover profile: %w", err)
	}
	defer f.Close()
	return coverage.ReadProfile(f)
}

// openOutput returns the report sink. The returned writer is buffered; the
// reporter session flushes it. The close function flushes and closes the
// file and reports the first error.
func (a *app) openOutput(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return bufio.NewWriter(a.stdout), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	w := bufio.NewWriter(f)
	return w, func() error {
		ferr := w.Flush()
		cerr := f.Close()
		if ferr != nil {
			return fmt.Errorf("writing output file: %w", ferr)
		}
		if cerr != nil {
			return fmt.Errorf("closing output file: %w", cerr)
		}
		return nil
	}, nil
}

func newLogger(w io.Writer, debug bool) *clog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return clog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func isTTYWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func termSize(w io.Writer) (width, height int) {
	if f, ok := w.(*os.File); ok {
		if width, height, err := term.GetSize(int(f.Fd())); err == nil {
			return width, height
		}
	}
	return 80, 24
}
