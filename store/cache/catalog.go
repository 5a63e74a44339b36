package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"github.com/warp/tuition-engine/factory"
	"github.com/warp/tuition-engine/metrics"
	"github.com/warp/tuition-engine/tuition"
)

// DefaultTTL applies when none is configured.
const DefaultTTL = 5 * time.Minute

const (
	keyPrefix = "tuition:program:"
	keyList   = "tuition:programs"
)

// Catalog caches programs from an inner catalog. Entries are stored in the
// catalog JSON contract. Cache failures are logged and fall through to the
// inner catalog; they never fail a lookup.
type Catalog struct {
	inner   tuition.ProgramCatalog
	repo    Repository
	ttl     time.Duration
	factory *factory.ProgramFactory
	metrics *metrics.Metrics
	logger  *slog.Logger
}

var _ tuition.WritableCatalog = (*Catalog)(nil)

type Option func(*Catalog)

func WithTTL(ttl time.Duration) Option {
	return func(c *Catalog) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Catalog) { c.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Catalog) { c.logger = l }
}

func NewCatalog(inner tuition.ProgramCatalog, repo Repository, opts ...Option) *Catalog {
	c := &Catalog{
		inner:   inner,
		repo:    repo,
		ttl:     DefaultTTL,
		factory: factory.NewProgramFactory(tuition.DefaultCurrency),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Catalog) GetProgram(ctx context.Context, id tuition.ProgramID) (*tuition.Program, error) {
	key := keyPrefix + string(id)
	if raw, ok := c.lookup(ctx, key); ok {
		if p, err := c.factory.ParseProgram([]byte(raw)); err == nil {
			return p, nil
		}
		c.logger.Warn("discarding unreadable cache entry", "key", key)
	}

	p, err := c.inner.GetProgram(ctx, id)
	if err != nil {
		return nil, err
	}
	if raw, err := factory.MarshalProgram(*p); err == nil {
		c.store(ctx, key, string(raw))
	}
	return p, nil
}

func (c *Catalog) ListPrograms(ctx context.Context) ([]tuition.Program, error) {
	if raw, ok := c.lookup(ctx, keyList); ok {
		if programs, err := c.factory.ParsePrograms([]byte(raw)); err == nil {
			return programs, nil
		}
		c.logger.Warn("discarding unreadable cache entry", "key", keyList)
	}

	programs, err := c.inner.ListPrograms(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]factory.ProgramJSON, 0, len(programs))
	for _, p := range programs {
		records = append(records, factory.ToJSON(p))
	}
	if raw, err := json.Marshal(records); err == nil {
		c.store(ctx, keyList, string(raw))
	}
	return programs, nil
}

// SaveProgram writes through to the inner catalog and drops stale entries.
func (c *Catalog) SaveProgram(ctx context.Context, p tuition.Program) error {
	w, ok := c.inner.(tuition.ProgramWriter)
	if !ok {
		return tuition.ErrReadOnlyCatalog
	}
	if err := w.SaveProgram(ctx, p); err != nil {
		return err
	}
	c.invalidate(ctx, p.ID)
	return nil
}

// DeleteProgram deletes from the inner catalog and drops stale entries.
func (c *Catalog) DeleteProgram(ctx context.Context, id tuition.ProgramID) error {
	w, ok := c.inner.(tuition.ProgramWriter)
	if !ok {
		return tuition.ErrReadOnlyCatalog
	}
	if err := w.DeleteProgram(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}

func (c *Catalog) lookup(ctx context.Context, key string) (string, bool) {
	raw, ok, err := c.repo.Get(ctx, key)
	switch {
	case err != nil:
		c.metrics.CacheLookup(metrics.CacheError)
		c.logger.Warn("cache get failed", "key", key, "error", err)
		return "", false
	case ok:
		c.metrics.CacheLookup(metrics.CacheHit)
		return raw, true
	default:
		c.metrics.CacheLookup(metrics.CacheMiss)
		return "", false
	}
}

func (c *Catalog) store(ctx context.Context, key, value string) {
	if err := c.repo.Set(ctx, key, value, c.ttl); err != nil {
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

func (c *Catalog) invalidate(ctx context.Context, id tuition.ProgramID) {
	if err := c.repo.Delete(ctx, keyPrefix+string(id), keyList); err != nil {
		c.logger.Warn("cache invalidate failed", "program", id, "error", errors.Cause(err))
	}
}
