package rebuild

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/careersearch/core"
	"github.com/poiesic/careersearch/storage"
	"github.com/poiesic/careersearch/storage/badger"
)

func newTestRepositories(t *testing.T) *storage.Repositories {
	t.Helper()
	repos, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		repos.Close()
		backend.Close()
	})
	return repos
}

func seedInstitutes(t *testing.T, repo storage.InstituteRepository, n int) {
	t.Helper()
	batch := make([]*core.Institute, 0, n)
	for i := 0; i < n; i++ {
		batch = append(batch, &core.Institute{
			PublicID: fmt.Sprintf("inst-%03d", i),
			Name:     fmt.Sprintf("Institute %03d", i),
			Slug:     fmt.Sprintf("institute-%03d", i),
		})
	}
	require.NoError(t, repo.PutInstitutes(context.Background(), batch...))
}

func fastConfig() *Config {
	return &Config{
		BatchSize:      4,
		ReportInterval: 4,
		MaxRetries:     2,
		RetryDelay:     time.Millisecond,
		PoolSize:       2,
	}
}

func newTestRebuilder(t *testing.T, repos *storage.Repositories, opts ...Option) *Rebuilder {
	t.Helper()
	opts = append([]Option{WithConfig(fastConfig()), WithRunRepository(repos.RebuildRuns)}, opts...)
	r, err := NewRebuilder(repos.Institutes, repos.Suggestions, opts...)
	require.NoError(t, err)
	t.Cleanup(r.Release)
	return r
}

type countingReloader struct {
	calls atomic.Int32
	err   error
}

func (c *countingReloader) Reload(context.Context) error {
	c.calls.Add(1)
	return c.err
}

// flakySuggestions fails the first failures inserts.
type flakySuggestions struct {
	storage.SuggestionRepository
	mu       sync.Mutex
	failures int
}

func (f *flakySuggestions) AddSuggestions(ctx context.Context, s ...*core.Suggestion) ([]*core.Suggestion, error) {
	f.mu.Lock()
	if f.failures > 0 {
		f.failures--
		f.mu.Unlock()
		return nil, errors.New("transient store error")
	}
	f.mu.Unlock()
	return f.SuggestionRepository.AddSuggestions(ctx, s...)
}

type brokenDelete struct {
	storage.SuggestionRepository
}

func (brokenDelete) DeleteAll(context.Context) (int, error) {
	return 0, errors.New("database unavailable")
}

func TestNewRebuilder_RequiresRepositories(t *testing.T) {
	repos := newTestRepositories(t)

	_, err := NewRebuilder(nil, repos.Suggestions)
	assert.ErrorIs(t, err, ErrInstituteRepositoryRequired)

	_, err = NewRebuilder(repos.Institutes, nil)
	assert.ErrorIs(t, err, ErrSuggestionRepositoryRequired)
}

func TestRebuild_TwoInstitutes(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()
	require.NoError(t, repos.Institutes.PutInstitutes(ctx,
		&core.Institute{PublicID: "p1", Name: "Delhi Tech", Slug: "delhi-tech", Location: core.Location{City: "Delhi"}},
		&core.Institute{PublicID: "p2", Name: "Mumbai Arts", Slug: "mumbai-arts", Location: core.Location{City: "Mumbai"}},
	))

	result, err := newTestRebuilder(t, repos).Run(ctx, core.RebuildTriggerAdmin)
	require.NoError(t, err)
	assert.Equal(t, 2, result.InstitutesProcessed)
	assert.Equal(t, 2, result.SuggestionsCreated)
	assert.NotEmpty(t, result.RunID)

	list, err := repos.Suggestions.ListSuggestions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, s := range list {
		assert.Equal(t, core.SuggestionTypeInstitute, s.Type)
	}
}

func TestRebuild_Idempotent(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()
	require.NoError(t, repos.Institutes.PutInstitutes(ctx, &core.Institute{
		PublicID: "p1", Name: "Delhi Tech", Slug: "delhi-tech",
		Programmes: []core.Programme{{Name: "B.Tech", Courses: []core.Course{{Name: "CSE"}, {Name: "ECE"}}}},
	}))

	r := newTestRebuilder(t, repos)
	first, err := r.Run(ctx, core.RebuildTriggerCLI)
	require.NoError(t, err)
	second, err := r.Run(ctx, core.RebuildTriggerCLI)
	require.NoError(t, err)

	assert.Equal(t, 4, first.SuggestionsCreated)
	assert.Equal(t, first.SuggestionsCreated, second.SuggestionsCreated)
	assert.Equal(t, 4, second.SuggestionsDeleted)

	count, err := repos.Suggestions.CountSuggestions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count, "second run must not duplicate suggestions")
}

func TestRebuild_ZeroInstitutes(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	// Stale suggestions from an earlier state must still be removed
	_, err := repos.Suggestions.AddSuggestions(ctx, &core.Suggestion{Name: "Old", Type: core.SuggestionTypeInstitute, PublicID: "gone"})
	require.NoError(t, err)

	var progress bytes.Buffer
	result, err := newTestRebuilder(t, repos, WithProgress(&progress)).Run(ctx, core.RebuildTriggerAdmin)
	require.NoError(t, err)
	assert.Zero(t, result.InstitutesProcessed)
	assert.Zero(t, result.SuggestionsCreated)
	assert.Equal(t, 1, result.SuggestionsDeleted)
	assert.Contains(t, progress.String(), "No institutes found")

	count, err := repos.Suggestions.CountSuggestions(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRebuild_SkipsMalformedInstitutes(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()
	seedInstitutes(t, repos.Institutes, 9)

	// The repository validates names, so wrap it to smuggle in a malformed record
	institutes := &extraInstitute{
		InstituteRepository: repos.Institutes,
		extra:               &core.Institute{PublicID: "zzz", Name: "", Slug: "zzz"},
	}
	r, err := NewRebuilder(institutes, repos.Suggestions, WithConfig(fastConfig()))
	require.NoError(t, err)
	defer r.Release()

	result, err := r.Run(ctx, core.RebuildTriggerCLI)
	require.NoError(t, err)
	assert.Equal(t, 10, result.InstitutesProcessed)
	assert.Equal(t, 1, result.InstitutesSkipped)
	assert.Equal(t, 9, result.SuggestionsCreated)
}

type extraInstitute struct {
	storage.InstituteRepository
	extra *core.Institute
}

func (e *extraInstitute) ListInstitutes(ctx context.Context) ([]*core.Institute, error) {
	list, err := e.InstituteRepository.ListInstitutes(ctx)
	return append(list, e.extra), err
}

func (e *extraInstitute) CountInstitutes(ctx context.Context) (int, error) {
	n, err := e.InstituteRepository.CountInstitutes(ctx)
	return n + 1, err
}

func TestRebuild_ReloadsAfterSuccess(t *testing.T) {
	repos := newTestRepositories(t)
	seedInstitutes(t, repos.Institutes, 3)

	reloader := &countingReloader{}
	_, err := newTestRebuilder(t, repos, WithReloader(reloader)).Run(context.Background(), core.RebuildTriggerAdmin)
	require.NoError(t, err)
	assert.Equal(t, int32(1), reloader.calls.Load())
}

func TestRebuild_ReloadFailure(t *testing.T) {
	repos := newTestRepositories(t)
	seedInstitutes(t, repos.Institutes, 3)

	reloader := &countingReloader{err: errors.New("engine offline")}
	result, err := newTestRebuilder(t, repos, WithReloader(reloader)).Run(context.Background(), core.RebuildTriggerAdmin)
	assert.ErrorIs(t, err, ErrReloadFailed)
	assert.Equal(t, 3, result.SuggestionsCreated, "store was rebuilt even though reload failed")
}

func TestRebuild_RetriesTransientInsertErrors(t *testing.T) {
	repos := newTestRepositories(t)
	seedInstitutes(t, repos.Institutes, 3)

	flaky := &flakySuggestions{SuggestionRepository: repos.Suggestions, failures: 1}
	r, err := NewRebuilder(repos.Institutes, flaky, WithConfig(fastConfig()))
	require.NoError(t, err)
	defer r.Release()

	result, err := r.Run(context.Background(), core.RebuildTriggerCLI)
	require.NoError(t, err)
	assert.Equal(t, 3, result.SuggestionsCreated)
}

func TestRebuild_StoreFailureIsRecorded(t *testing.T) {
	repos := newTestRepositories(t)
	seedInstitutes(t, repos.Institutes, 2)

	reloader := &countingReloader{}
	var observed error
	r, err := NewRebuilder(repos.Institutes, brokenDelete{repos.Suggestions},
		WithConfig(fastConfig()),
		WithRunRepository(repos.RebuildRuns),
		WithReloader(reloader),
		WithOnComplete(func(_ *Result, err error) { observed = err }),
	)
	require.NoError(t, err)
	defer r.Release()

	_, err = r.Run(context.Background(), core.RebuildTriggerAdmin)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database unavailable")
	assert.Equal(t, err, observed)
	assert.Zero(t, reloader.calls.Load(), "a failed rebuild must not reload the engine")

	run, err := repos.RebuildRuns.LatestRebuildRun(context.Background())
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.False(t, run.Succeeded())
	assert.Contains(t, run.Error, "database unavailable")
}

func TestRebuild_RecordsRun(t *testing.T) {
	repos := newTestRepositories(t)
	seedInstitutes(t, repos.Institutes, 5)

	result, err := newTestRebuilder(t, repos).Run(context.Background(), core.RebuildTriggerSchedule)
	require.NoError(t, err)

	run, err := repos.RebuildRuns.LatestRebuildRun(context.Background())
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, result.RunID, run.ID)
	assert.Equal(t, core.RebuildTriggerSchedule, run.Trigger)
	assert.Equal(t, 5, run.SuggestionsCreated)
	assert.True(t, run.Succeeded())
}

func TestRebuild_ConcurrentRunsAreSerialized(t *testing.T) {
	repos := newTestRepositories(t)
	seedInstitutes(t, repos.Institutes, 20)
	r := newTestRebuilder(t, repos)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Run(context.Background(), core.RebuildTriggerAdmin)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	count, err := repos.Suggestions.CountSuggestions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 20, count)

	runs, err := repos.RebuildRuns.ListRebuildRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, runs, 4)
}

func TestRebuild_SameNamedProgrammesStayDistinct(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepositories(t)
	require.NoError(t, repos.Institutes.PutInstitutes(ctx, &core.Institute{
		PublicID: "p1",
		Name:     "Delhi Tech",
		Slug:     "delhi-tech",
		Programmes: []core.Programme{
			{Name: "Engineering", Level: "UG", Courses: []core.Course{{Name: "Computer Science"}}},
			{Name: "Engineering", Level: "PG", Courses: []core.Course{{Name: "Computer Science"}, {Name: "Computer Science"}}},
		},
	}))

	result, err := newTestRebuilder(t, repos).Run(ctx, core.RebuildTriggerCLI)
	require.NoError(t, err)
	assert.Equal(t, 6, result.SuggestionsCreated)

	stored, err := repos.Suggestions.CountSuggestions(ctx)
	require.NoError(t, err)
	assert.Equal(t, result.SuggestionsCreated, stored)

	suggestions, err := repos.Suggestions.GetSuggestionsByPublicID(ctx, "p1")
	require.NoError(t, err)
	byType := map[core.SuggestionType]int{}
	for _, s := range suggestions {
		byType[s.Type]++
	}
	assert.Equal(t, map[core.SuggestionType]int{
		core.SuggestionTypeInstitute: 1,
		core.SuggestionTypeProgram:   2,
		core.SuggestionTypeCourse:    3,
	}, byType)
}
