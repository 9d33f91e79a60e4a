package expiry

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/wasilibs/go-re2"

	"github.com/aatumaykin/trash-expiry/internal/logger"
	"github.com/aatumaykin/trash-expiry/internal/trash"
)

// Locator finds the trash directories to process.
type Locator interface {
	Locate() ([]trash.Directory, []error)
}

// Source enumerates the items of one trash directory.
type Source interface {
	Items(dir trash.Directory) iter.Seq2[trash.Item, error]
}

// Remover permanently deletes an item.
type Remover interface {
	Delete(item trash.Item) error
}

// Options configure an Engine.
type Options struct {
	Thresholds Thresholds
	// Protect patterns are matched against the original path of expired items.
	Protect []*re2.Regexp
	// DryRun classifies and reports without deleting anything.
	DryRun bool
	// Metrics, when set, observes every pass.
	Metrics *Metrics
	// Warnings are recovered configuration problems added to every report.
	Warnings []error
}

// Engine runs expiry passes.
type Engine struct {
	locator Locator
	source  Source
	remover Remover
	prune   func(trash.Directory) (int, error)
	opts    Options
	log     *logger.Logger
}

// NewEngine creates an engine. A nil log discards output.
func NewEngine(locator Locator, source Source, remover Remover, opts Options, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.Discard()
	}
	return &Engine{
		locator: locator,
		source:  source,
		remover: remover,
		prune:   trash.PruneDirectorySizes,
		opts:    opts,
		log:     log,
	}
}

// Entry is a classified item, as produced by List.
type Entry struct {
	Directory trash.Directory
	Item      trash.Item
	Class     Class
	Age       time.Duration
}

// Run performs one pass: locate directories, classify every item, warn about
// items close to expiry and delete expired ones. Directories are processed in
// locator order and items in enumeration order; a failure on one item never
// stops the others. ctx is checked between items.
func (e *Engine) Run(ctx context.Context, now time.Time) *Report {
	started := time.Now()
	report := NewReport(now)
	report.DryRun = e.opts.DryRun
	report.AddError(e.opts.Warnings...)

	log := e.log.With(logger.Field{Key: "run_id", Value: report.RunID})
	log.Info("expiry pass started",
		logger.Field{Key: "warn_after_days", Value: Days(e.opts.Thresholds.WarnAfter)},
		logger.Field{Key: "delete_after_days", Value: Days(e.opts.Thresholds.DeleteAfter)},
		logger.Field{Key: "dry_run", Value: e.opts.DryRun})

	dirs, errs := e.locator.Locate()
	for _, err := range errs {
		log.Warn("trash directory unavailable", logger.Field{Key: "error", Value: err})
	}
	report.AddError(errs...)

	for _, dir := range dirs {
		if ctx.Err() != nil {
			break
		}
		e.processDirectory(ctx, log, now, dir, report)
	}
	if err := ctx.Err(); err != nil {
		report.AddError(fmt.Errorf("expiry pass interrupted: %w", err))
		log.Warn("expiry pass interrupted", logger.Field{Key: "error", Value: err})
	}

	report.Duration = time.Since(started)
	summarize(log, report)

	if m := e.opts.Metrics; m != nil {
		m.Observe(report)
		if err := m.WriteTextfile(); err != nil {
			log.Error("failed to export metrics", err)
		}
	}

	return report
}

func (e *Engine) processDirectory(ctx context.Context, log *logger.Logger, now time.Time, dir trash.Directory, report *Report) {
	report.Directories++
	dlog := log.With(logger.Field{Key: "trash_dir", Value: dir.Path})
	dlog.Debug("processing trash directory", logger.Field{Key: "kind", Value: dir.Kind})

	deleted := 0
	for item, err := range e.source.Items(dir) {
		if ctx.Err() != nil {
			break
		}
		if err != nil {
			report.AddError(err)
			dlog.Warn("skipping trash entry", logger.Field{Key: "error", Value: err})
			continue
		}
		report.Scanned++
		if e.handle(dlog, now, item, report) {
			deleted++
		}
	}

	if deleted == 0 {
		return
	}
	pruned, err := e.prune(dir)
	if err != nil {
		dlog.Warn("failed to prune directorysizes", logger.Field{Key: "error", Value: err})
		return
	}
	if pruned > 0 {
		dlog.Debug("pruned directorysizes", logger.Field{Key: "entries", Value: pruned})
	}
}

// handle acts on one item and reports whether it was deleted.
func (e *Engine) handle(log *logger.Logger, now time.Time, item trash.Item, report *Report) bool {
	class, age := Classify(now, item, e.opts.Thresholds)
	report.count(class)

	fields := []logger.Field{
		{Key: "path", Value: item.ContentPath},
		{Key: "original_path", Value: item.OriginalPath},
	}

	switch class {
	case ClassUnknown:
		report.AddError(fmt.Errorf("%s: %w", item.InfoPath, item.DateErr))
		log.Warn("deletion date unparsable, keeping item",
			append(fields, logger.Field{Key: "error", Value: item.DateErr})...)
		return false

	case ClassWarn:
		log.Warn("trashed item will be deleted soon",
			append(fields,
				logger.Field{Key: "age_days", Value: Days(age)},
				logger.Field{Key: "delete_in_days", Value: Days(e.opts.Thresholds.DeleteAfter - age)})...)
		return false

	case ClassExpired:
		fields = append(fields, logger.Field{Key: "age_days", Value: Days(age)})
		if e.protected(item) {
			report.Protected++
			log.Info("expired item is protected, keeping", fields...)
			return false
		}
		if e.opts.DryRun {
			log.Info("would delete expired item", fields...)
			return false
		}
		if err := e.remover.Delete(item); err != nil {
			report.AddError(err)
			log.Error("failed to delete expired item", err, fields...)
			return false
		}
		report.Deleted++
		log.Info("deleted expired item", fields...)
		return true

	default:
		log.Debug("trashed item is fresh",
			append(fields, logger.Field{Key: "age_days", Value: Days(age)})...)
		return false
	}
}

func (e *Engine) protected(item trash.Item) bool {
	for _, re := range e.opts.Protect {
		if re.MatchString(item.OriginalPath) {
			return true
		}
	}
	return false
}

// List classifies every item without acting on it.
func (e *Engine) List(ctx context.Context, now time.Time) ([]Entry, []error) {
	dirs, errs := e.locator.Locate()
	var entries []Entry
	for _, dir := range dirs {
		for item, err := range e.source.Items(dir) {
			if ctx.Err() != nil {
				return entries, append(errs, ctx.Err())
			}
			if err != nil {
				errs = append(errs, err)
				continue
			}
			class, age := Classify(now, item, e.opts.Thresholds)
			entries = append(entries, Entry{Directory: dir, Item: item, Class: class, Age: age})
		}
	}
	return entries, errs
}

func summarize(log *logger.Logger, r *Report) {
	fields := []logger.Field{
		{Key: "directories", Value: r.Directories},
		{Key: "scanned", Value: r.Scanned},
		{Key: "fresh", Value: r.Fresh},
		{Key: "warned", Value: r.Warned},
		{Key: "expired", Value: r.Expired},
		{Key: "deleted", Value: r.Deleted},
		{Key: "protected", Value: r.Protected},
		{Key: "unknown", Value: r.Unknown},
		{Key: "errors", Value: len(r.Errors)},
		{Key: "duration_ms", Value: r.Duration.Milliseconds()},
	}
	if r.Failed() {
		for kind, n := range r.ErrorsByKind() {
			fields = append(fields, logger.Field{Key: "errors_" + kind, Value: n})
		}
		log.Warn("expiry pass finished with errors", fields...)
		return
	}
	log.Info("expiry pass finished", fields...)
}
