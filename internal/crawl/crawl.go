// Package crawl runs the acquisition loop: every symbol is tried against the
// configured adapters in preference order and the first usable table is exported.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"stockdaq/internal/apperror"
	"stockdaq/internal/export"
	"stockdaq/internal/provider"
)

// Kind classifies the outcome of one symbol/adapter attempt.
type Kind int

const (
	KindOK Kind = iota
	// KindRetryable failures move on to the next adapter.
	KindRetryable
	// KindSymbolFailed failures skip the remaining adapters for the symbol.
	KindSymbolFailed
	// KindFatal failures abort the run.
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindRetryable:
		return "retryable"
	case KindSymbolFailed:
		return "symbol_failed"
	case KindFatal:
		return "fatal"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Result is the outcome of one attempt.
type Result struct {
	Symbol     string
	Adapter    string
	Kind       Kind
	Err        error
	Rows       int
	Partitions int
	Last       time.Time // newest stored timestamp
}

// Limiter blocks until the next vendor call may start. *rate.Limiter satisfies it.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Mirror receives every partition file whose content changed.
type Mirror interface {
	Put(ctx context.Context, key, path string) error
}

// Config is the part of the application configuration the loop needs.
type Config struct {
	Root      string
	Structure []string
	Frequency provider.Frequency
	Download  provider.Options
	Export    export.Options
}

// Acquirer drives the loop. It is not safe for concurrent use: partition
// files are read-modify-written without locking.
type Acquirer struct {
	cfg      Config
	adapters []provider.Adapter
	limiter  Limiter
	mirror   Mirror
	now      func() time.Time
}

// New creates an Acquirer. mirror may be nil.
func New(cfg Config, adapters []provider.Adapter, limiter Limiter, mirror Mirror) *Acquirer {
	return &Acquirer{cfg: cfg, adapters: adapters, limiter: limiter, mirror: mirror, now: time.Now}
}

// PathPrefix builds the directory of one symbol from the ordered file structure.
// "data" ends the walk; the partition file names start there.
func PathPrefix(root string, structure []string, symbol string, f provider.Frequency) (string, error) {
	parts := []string{root}
	for _, s := range structure {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "data":
			return filepath.Join(parts...) + string(filepath.Separator), nil
		case "frequency":
			parts = append(parts, string(f))
		case "symbol":
			parts = append(parts, symbol)
		default:
			return "", apperror.New(apperror.InvalidConfig, "%q structure not available (use: symbol, frequency, data)", s)
		}
	}
	return filepath.Join(parts...) + string(filepath.Separator), nil
}

// classify maps an adapter or export error to a Kind.
func classify(err error) Kind {
	switch code := apperror.CodeOf(err); {
	case err == nil:
		return KindOK
	case apperror.IsRetryable(code):
		return KindRetryable
	case code == apperror.SchemaMismatch:
		return KindSymbolFailed
	default:
		return KindFatal
	}
}

// downloadOptions resumes from the stored progress unless "from" is configured.
func (a *Acquirer) downloadOptions(last time.Time, ok bool) provider.Options {
	opts := make(provider.Options, len(a.cfg.Download)+1)
	for k, v := range a.cfg.Download {
		opts[k] = v
	}
	if ok && opts.Get("from", "") == "" {
		opts["from"] = last.Format(time.DateOnly)
	}
	return opts
}

// Attempt downloads symbol from ad and exports the result.
func (a *Acquirer) Attempt(ctx context.Context, symbol string, ad provider.Adapter, opts provider.Options) Result {
	r := Result{Symbol: symbol, Adapter: ad.Name()}
	fail := func(err error) Result {
		r.Err, r.Kind = err, classify(err)
		return r
	}

	if err := a.limiter.Wait(ctx); err != nil {
		r.Err, r.Kind = err, KindFatal
		return r
	}
	raw, err := ad.Download(ctx, symbol, a.cfg.Frequency, opts)
	if err != nil {
		if ctx.Err() != nil {
			r.Err, r.Kind = ctx.Err(), KindFatal
			return r
		}
		return fail(err)
	}
	table, err := ad.Format(raw)
	if err != nil {
		return fail(err)
	}
	if len(table) == 0 {
		return fail(apperror.New(apperror.NoData, "%s %s: empty table", ad.Name(), symbol))
	}

	dir, err := PathPrefix(a.cfg.Root, a.cfg.Structure, symbol, a.cfg.Frequency)
	if err != nil {
		return fail(err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		r.Err, r.Kind = fmt.Errorf("create %s: %w", dir, err), KindFatal
		return r
	}
	eo := a.cfg.Export
	eo.Prefix = dir + eo.Prefix
	report, err := export.Export(table, eo)
	r.Partitions = len(report.Saved)
	r.Rows = report.Rows()
	if err != nil {
		r.Err, r.Kind = err, KindFatal
		return r
	}
	r.Last, _ = report.LastWritten()
	a.mirrorFiles(ctx, symbol, report.Written())
	return r
}

func (a *Acquirer) mirrorFiles(ctx context.Context, symbol string, paths []string) {
	if a.mirror == nil {
		return
	}
	for _, p := range paths {
		key, err := filepath.Rel(a.cfg.Root, p)
		if err != nil {
			key = filepath.Base(p)
		}
		if err := a.mirror.Put(ctx, filepath.ToSlash(key), p); err != nil {
			slog.Warn("mirror upload failed", "symbol", symbol, "path", p, "error", err)
		}
	}
}

// Summary describes one run.
type Summary struct {
	RunID     string
	Started   time.Time
	Finished  time.Time
	Results   []Result // every attempt, in order
	Succeeded []string
	Failed    []string
	Rows      int
}

// Run acquires every symbol once. Retryable failures fall through to the next
// adapter; schema mismatches skip the symbol; anything else stops the run and is
// returned together with the partial summary.
func (a *Acquirer) Run(ctx context.Context, symbols []string) (Summary, error) {
	s := Summary{RunID: uuid.New().String(), Started: a.now()}
	log := slog.With("run_id", s.RunID)
	if len(a.adapters) == 0 {
		return s, apperror.New(apperror.InvalidConfig, "no adapters configured")
	}

	progressPath := filepath.Join(a.cfg.Root, progressFile)
	progress := LoadProgress(progressPath)
	var failed []failedEntry
	defer func() {
		s.Finished = a.now()
		if err := progress.Save(); err != nil {
			log.Warn("could not write progress", "path", progressPath, "error", err)
		}
		if len(s.Succeeded) > 0 || len(failed) > 0 {
			if err := writeRunReport(a.cfg.Root, s.RunID, s.Succeeded, failed); err != nil {
				log.Warn("could not write run report", "error", err)
			}
		}
	}()

	hb := newCounters(len(symbols))
	hctx, stop := context.WithCancel(ctx)
	defer stop()
	go runHeartbeat(hctx, heartbeatInterval, hb, log)

	log.Info("acquisition started", "symbols", len(symbols), "adapters", len(a.adapters), "frequency", a.cfg.Frequency)
	for _, symbol := range symbols {
		last, ok := progress.Last(symbol, a.cfg.Frequency)
		opts := a.downloadOptions(last, ok)

		done := false
		var reasons []string
		for _, ad := range a.adapters {
			r := a.Attempt(ctx, symbol, ad, opts)
			s.Results = append(s.Results, r)
			s.Rows += r.Rows
			attrs := []any{"symbol", symbol, "adapter", r.Adapter, "kind", r.Kind.String()}

			switch r.Kind {
			case KindOK:
				log.Info("symbol stored", append(attrs, "rows", r.Rows, "partitions", r.Partitions)...)
				if !r.Last.IsZero() {
					progress.Update(symbol, a.cfg.Frequency, r.Last)
				}
				done = true
			case KindRetryable:
				log.Error("acquisition failed, trying next adapter", append(attrs, "error", r.Err)...)
				reasons = append(reasons, r.Adapter+": "+r.Err.Error())
				continue
			case KindSymbolFailed:
				log.Error("acquisition failed, skipping symbol", append(attrs, "error", r.Err)...)
				reasons = append(reasons, r.Adapter+": "+r.Err.Error())
			default:
				log.Error("acquisition aborted", append(attrs, "error", r.Err)...)
				failed = append(failed, failedEntry{Symbol: symbol, Adapter: r.Adapter, Kind: r.Kind.String(), Reason: r.Err.Error()})
				s.Failed = appendUnique(s.Failed, symbol)
				hb.add(false, r.Rows)
				return s, fmt.Errorf("symbol %s via %s: %w", symbol, r.Adapter, r.Err)
			}
			break
		}

		if done {
			s.Succeeded = appendUnique(s.Succeeded, symbol)
			hb.add(true, s.Results[len(s.Results)-1].Rows)
			continue
		}
		s.Failed = appendUnique(s.Failed, symbol)
		failed = append(failed, failedEntry{Symbol: symbol, Reason: strings.Join(reasons, "; ")})
		hb.add(false, 0)
	}

	log.Info("acquisition finished", "success", len(s.Succeeded), "failed", len(s.Failed), "rows", s.Rows)
	if len(failed) > 0 {
		log.Info("failed symbols", "count", len(failed), "reasons", joinFailedReasons(failed))
	}
	return s, nil
}

// Errors joins the errors of every failed attempt.
func (s Summary) Errors() error {
	var errs []error
	for _, r := range s.Results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s/%s: %w", r.Symbol, r.Adapter, r.Err))
		}
	}
	return errors.Join(errs...)
}
