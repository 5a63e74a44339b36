package cache_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/tuition-engine/metrics"
	"github.com/warp/tuition-engine/store/cache"
	"github.com/warp/tuition-engine/tuition"
	"github.com/warp/tuition-engine/tuition/store"
)

func pen(s string) tuition.Amount { return tuition.MustAmount(s, tuition.CurrencyPEN) }

func ingSistemas() tuition.Program {
	return tuition.Program{
		ID:                 "ing-sistemas",
		Name:               "Ingeniería de Sistemas",
		DurationSemesters:  4,
		TuitionPerSemester: pen("3000.00"),
		TotalCost:          pen("14600.00"),
		AdditionalFees: []tuition.Fee{
			{Label: "Matrícula", Amount: pen("300.00")},
			{Label: "Biblioteca", Amount: pen("200.00")},
			{Label: "Laboratorio", Amount: pen("150.00")},
		},
	}
}

// countingCatalog counts calls to the wrapped catalog.
type countingCatalog struct {
	tuition.ProgramCatalog
	gets  atomic.Int32
	lists atomic.Int32
}

func (c *countingCatalog) GetProgram(ctx context.Context, id tuition.ProgramID) (*tuition.Program, error) {
	c.gets.Add(1)
	return c.ProgramCatalog.GetProgram(ctx, id)
}

func (c *countingCatalog) ListPrograms(ctx context.Context) ([]tuition.Program, error) {
	c.lists.Add(1)
	return c.ProgramCatalog.ListPrograms(ctx)
}

// failingRepo always errors.
type failingRepo struct{}

func (failingRepo) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("connection refused")
}
func (failingRepo) Set(context.Context, string, string, time.Duration) error {
	return errors.New("connection refused")
}
func (failingRepo) Delete(context.Context, ...string) error { return errors.New("connection refused") }

// =============================================================================
// READ-THROUGH
// =============================================================================

func TestCatalog_SecondLookupHitsCache(t *testing.T) {
	// GIVEN: A cached catalog over a counting inner catalog
	// WHEN: Fetching the same program twice
	// THEN: The inner catalog is asked once and both results match
	inner := &countingCatalog{ProgramCatalog: store.NewMemoryWith(ingSistemas())}
	m := metrics.New(prometheus.NewRegistry())
	c := cache.NewCatalog(inner, cache.NewMemoryCache(), cache.WithMetrics(m))
	ctx := context.Background()

	first, err := c.GetProgram(ctx, "ing-sistemas")
	require.NoError(t, err)
	second, err := c.GetProgram(ctx, "ing-sistemas")
	require.NoError(t, err)

	assert.Equal(t, int32(1), inner.gets.Load())
	assert.Equal(t, first.Name, second.Name)
	assert.True(t, second.SemesterTotal().Equal(pen("3650")))
	require.Len(t, second.AdditionalFees, 3)
	assert.Equal(t, "Matrícula", second.AdditionalFees[0].Label)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues(metrics.CacheMiss)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues(metrics.CacheHit)))
}

func TestCatalog_ListCached(t *testing.T) {
	inner := &countingCatalog{ProgramCatalog: store.NewMemoryWith(ingSistemas())}
	c := cache.NewCatalog(inner, cache.NewMemoryCache())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		programs, err := c.ListPrograms(ctx)
		require.NoError(t, err)
		require.Len(t, programs, 1)
	}
	assert.Equal(t, int32(1), inner.lists.Load())
}

func TestCatalog_NotFoundIsNotCached(t *testing.T) {
	inner := &countingCatalog{ProgramCatalog: store.NewMemory()}
	repo := cache.NewMemoryCache()
	c := cache.NewCatalog(inner, repo)

	_, err := c.GetProgram(context.Background(), "nope")
	assert.True(t, errors.Is(err, tuition.ErrProgramNotFound))
	assert.Equal(t, 0, repo.Len())
}

func TestCatalog_ExpiredEntryRefetched(t *testing.T) {
	inner := &countingCatalog{ProgramCatalog: store.NewMemoryWith(ingSistemas())}
	repo := cache.NewMemoryCache()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.SetClock(func() time.Time { return now })
	c := cache.NewCatalog(inner, repo, cache.WithTTL(time.Minute))
	ctx := context.Background()

	_, err := c.GetProgram(ctx, "ing-sistemas")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = c.GetProgram(ctx, "ing-sistemas")
	require.NoError(t, err)

	assert.Equal(t, int32(2), inner.gets.Load())
}

func TestCatalog_RepositoryFailureFallsThrough(t *testing.T) {
	// GIVEN: A cache backend that is down
	// THEN: Lookups still succeed from the inner catalog
	m := metrics.New(prometheus.NewRegistry())
	c := cache.NewCatalog(store.NewMemoryWith(ingSistemas()), failingRepo{}, cache.WithMetrics(m))

	p, err := c.GetProgram(context.Background(), "ing-sistemas")
	require.NoError(t, err)
	assert.Equal(t, tuition.ProgramID("ing-sistemas"), p.ID)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues(metrics.CacheError)))
}

// =============================================================================
// WRITES
// =============================================================================

func TestCatalog_SaveInvalidates(t *testing.T) {
	mem := store.NewMemoryWith(ingSistemas())
	c := cache.NewCatalog(mem, cache.NewMemoryCache())
	ctx := context.Background()

	_, err := c.GetProgram(ctx, "ing-sistemas")
	require.NoError(t, err)

	updated := ingSistemas()
	updated.DurationSemesters = 5
	require.NoError(t, c.SaveProgram(ctx, updated))

	got, err := c.GetProgram(ctx, "ing-sistemas")
	require.NoError(t, err)
	assert.Equal(t, 5, got.DurationSemesters)

	require.NoError(t, c.DeleteProgram(ctx, "ing-sistemas"))
	_, err = c.GetProgram(ctx, "ing-sistemas")
	assert.True(t, errors.Is(err, tuition.ErrProgramNotFound))
}

func TestCatalog_ReadOnlyInner(t *testing.T) {
	inner := &countingCatalog{ProgramCatalog: store.NewMemory()}
	c := cache.NewCatalog(inner, cache.NewMemoryCache())

	err := c.SaveProgram(context.Background(), ingSistemas())
	assert.True(t, errors.Is(err, tuition.ErrReadOnlyCatalog))
}

// =============================================================================
// MEMORY REPOSITORY
// =============================================================================

func TestMemoryCache_GetSetDelete(t *testing.T) {
	repo := cache.NewMemoryCache()
	ctx := context.Background()

	_, ok, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Set(ctx, "k", "v", 0))
	v, ok, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	require.NoError(t, repo.Delete(ctx, "k"))
	_, ok, _ = repo.Get(ctx, "k")
	assert.False(t, ok)
}
