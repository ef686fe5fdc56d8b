// Package compiler turns validated service records into a compact catalog.
//
// The pipeline is fail-closed at catalog granularity: if any record has a
// validation error, a duplicate id, or would overflow the provider index, no
// catalog is produced and every failure is reported at once.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/atlas/internal/domain"
	"github.com/MrSnakeDoc/atlas/internal/logger"
	"github.com/MrSnakeDoc/atlas/internal/validator"
)

// ErrEmptyCatalog is returned when there is nothing to compile.
var ErrEmptyCatalog = errors.New("no service records to compile")

// RecordMapper converts a validated source record to its typed form.
type RecordMapper interface {
	MapRecord(src domain.SourceRecord) (*domain.ServiceRecord, error)
}

// Compiler runs the full pipeline. It is safe for concurrent use; each
// successful compilation gets the next database version.
type Compiler struct {
	log     logger.Logger
	mapper  RecordMapper
	now     func() time.Time
	workers int

	mu   sync.Mutex
	last *domain.DatabaseVersion
}

// New creates a compiler using all available CPUs for the per-record stages.
func New(log logger.Logger, mapper RecordMapper) *Compiler {
	return &Compiler{
		log:     log,
		mapper:  mapper,
		now:     time.Now,
		workers: runtime.GOMAXPROCS(0),
	}
}

// WithClock replaces the time source used for versioning.
func (c *Compiler) WithClock(now func() time.Time) *Compiler {
	c.now = now
	return c
}

// WithWorkers bounds the per-record stages to n goroutines. n < 1 keeps the
// default.
func (c *Compiler) WithWorkers(n int) *Compiler {
	if n > 0 {
		c.workers = n
	}
	return c
}

// SetPrevious seeds versioning with the version of an already published
// catalog, so the next compilation continues its sequence.
func (c *Compiler) SetPrevious(v domain.DatabaseVersion) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil || c.last.Less(v) {
		c.last = &v
	}
}

// Compile validates, maps, orders and encodes srcs.
//
// Returned errors are either a *domain.CompileError (bad input, nothing was
// produced), a *domain.InvariantError (compiler defect), ErrEmptyCatalog, or a
// context error.
func (c *Compiler) Compile(ctx context.Context, srcs []domain.SourceRecord) (*domain.Catalog, error) {
	start := time.Now()

	if len(srcs) == 0 {
		return nil, ErrEmptyCatalog
	}
	if len(srcs) > domain.MaxServiceCount {
		return nil, fmt.Errorf("catalog has %d records, max %d", len(srcs), domain.MaxServiceCount)
	}

	reports, err := c.validateAll(ctx, srcs)
	if err != nil {
		return nil, err
	}

	failures, warnings := collect(srcs, reports)
	failures = append(failures, duplicates(srcs)...)
	if len(failures) > 0 {
		return nil, &domain.CompileError{Failures: failures}
	}
	for _, w := range warnings {
		c.log.Warn("service record warning",
			logger.String("id", w.RecordID),
			logger.String("source", w.Source),
			logger.String("warning", w.Message),
		)
	}

	recs := make([]*domain.ServiceRecord, len(srcs))
	for i, src := range srcs {
		rec, err := c.mapper.MapRecord(src)
		if err != nil {
			return nil, domain.NewInvariantError("map", src.ID(), "validated record does not map: %v", err)
		}
		recs[i] = rec
	}

	SortCanonical(recs)

	dict, err := BuildProviders(recs)
	if err != nil {
		var re domain.RecordError
		if errors.As(err, &re) {
			return nil, &domain.CompileError{Failures: []domain.RecordError{re}}
		}
		return nil, err
	}

	services, err := c.encodeAll(ctx, recs, dict)
	if err != nil {
		return nil, err
	}

	now := c.now()
	cat := &domain.Catalog{
		ID:         uuid.New(),
		Version:    c.nextVersion(now),
		CompiledAt: now.UTC(),
		Services:   services,
		Providers:  dict.Names(),
		Warnings:   warnings,
	}

	c.log.Info("catalog compiled",
		logger.String("version", cat.Version.String()),
		logger.Int("services", len(cat.Services)),
		logger.Int("providers", len(cat.Providers)),
		logger.Int("warnings", len(cat.Warnings)),
		logger.Duration("duration", time.Since(start)),
	)

	return cat, nil
}

func (c *Compiler) validateAll(ctx context.Context, srcs []domain.SourceRecord) ([]validator.Report, error) {
	reports := make([]validator.Report, len(srcs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i := range srcs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			reports[i] = validator.Validate(srcs[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func (c *Compiler) encodeAll(ctx context.Context, recs []*domain.ServiceRecord, dict *domain.ProviderDictionary) ([]domain.CompiledService, error) {
	services := make([]domain.CompiledService, len(recs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, rec := range recs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			idx, ok := dict.Index(rec.Provider)
			if !ok {
				return domain.NewInvariantError("encode", rec.ID, "provider %q missing from dictionary", rec.Provider)
			}
			compact, err := Encode(rec, Classify(rec), idx)
			if err != nil {
				return err
			}
			services[i] = domain.CompiledService{
				ID:       rec.ID,
				Source:   rec.Source,
				Provider: rec.Provider,
				Record:   compact,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return services, nil
}

func (c *Compiler) nextVersion(now time.Time) domain.DatabaseVersion {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := domain.NextVersion(c.last, now)
	c.last = &v
	return v
}

// collect flattens validation reports in input order.
func collect(srcs []domain.SourceRecord, reports []validator.Report) ([]domain.RecordError, []domain.Diagnostic) {
	var (
		failures []domain.RecordError
		warnings []domain.Diagnostic
	)
	for i, r := range reports {
		id, source := srcs[i].ID(), srcs[i].Source
		for _, msg := range r.Errors {
			failures = append(failures, domain.RecordError{
				RecordID: id,
				Source:   source,
				Err:      fmt.Errorf("%w: %s", domain.ErrInvalidRecord, msg),
			})
		}
		for _, msg := range r.Warnings {
			warnings = append(warnings, domain.Diagnostic{RecordID: id, Source: source, Message: msg})
		}
	}
	return failures, warnings
}

// duplicates reports every record reusing an id already seen earlier.
func duplicates(srcs []domain.SourceRecord) []domain.RecordError {
	var out []domain.RecordError
	seen := make(map[string]string, len(srcs))
	for _, src := range srcs {
		id := src.ID()
		if id == "" {
			continue
		}
		if first, ok := seen[id]; ok {
			out = append(out, domain.RecordError{
				RecordID: id,
				Source:   src.Source,
				Err:      fmt.Errorf("%w: already defined in %s", domain.ErrDuplicateID, first),
			})
			continue
		}
		seen[id] = src.Source
	}
	return out
}
