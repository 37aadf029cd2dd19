package snapshot

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/careersearch/core"
	"github.com/poiesic/careersearch/populate"
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

func seeded(t *testing.T) *storage.Repositories {
	t.Helper()
	ctx := context.Background()
	repos := newTestRepositories(t)
	institutes := []*core.Institute{
		{PublicID: "p1", Name: "Delhi Tech", Slug: "delhi-tech", Location: core.Location{City: "Delhi"},
			Programmes: []core.Programme{{Name: "B.Tech", Courses: []core.Course{{Name: "CSE", Exams: []string{"JEE"}}}}}},
		{PublicID: "p2", Name: "Mumbai Arts", Slug: "mumbai-arts", Location: core.Location{City: "Mumbai"}},
	}
	require.NoError(t, repos.Institutes.PutInstitutes(ctx, institutes...))
	suggestions, _ := populate.NewPopulator().PopulateAll(institutes)
	_, err := repos.Suggestions.AddSuggestions(ctx, suggestions...)
	require.NoError(t, err)
	return repos
}

func TestExportImport_RoundTrip(t *testing.T) {
	ctx := context.Background()
	src := seeded(t)

	var buf bytes.Buffer
	exported, err := Export(ctx, &buf, src.Institutes, src.Suggestions)
	require.NoError(t, err)
	assert.Len(t, exported.Institutes, 2)
	assert.Len(t, exported.Suggestions, 4)
	assert.Equal(t, MagicBytes, buf.String()[:4])

	imported, err := Import(ctx, &buf)
	require.NoError(t, err)
	assert.Len(t, imported.Institutes, 2)
	assert.Len(t, imported.Suggestions, 4)
	assert.WithinDuration(t, exported.ExportedAt, imported.ExportedAt, 0)

	dst := newTestRepositories(t)
	require.NoError(t, Restore(ctx, imported, dst.Institutes, dst.Suggestions))

	inst, err := dst.Institutes.GetInstituteBySlug(ctx, "delhi-tech")
	require.NoError(t, err)
	assert.Equal(t, []string{"JEE"}, inst.Programmes[0].Courses[0].Exams)

	want, err := src.Suggestions.ListSuggestions(ctx)
	require.NoError(t, err)
	got, err := dst.Suggestions.ListSuggestions(ctx)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	ids := make(map[core.ID]bool)
	for _, s := range want {
		ids[s.ID] = true
	}
	for _, s := range got {
		assert.True(t, ids[s.ID], "suggestion IDs survive a round trip")
	}
}

func TestRestore_ReplacesSuggestions(t *testing.T) {
	ctx := context.Background()
	dst := seeded(t)

	snap := &Snapshot{
		Suggestions: []*core.Suggestion{{Name: "Only", Type: core.SuggestionTypeInstitute, PublicID: "x"}},
	}
	require.NoError(t, Restore(ctx, snap, dst.Institutes, dst.Suggestions))

	count, err := dst.Suggestions.CountSuggestions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Institutes are upserted, never removed
	n, err := dst.Institutes.CountInstitutes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRead_RejectsGarbage(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte("definitely not a snapshot file")))
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = Read(bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestRead_RejectsNewerVersion(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHeader(&buf))
	raw := buf.Bytes()
	raw[4] = 9 // little-endian version low byte

	_, err := Read(bytes.NewReader(raw))
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestImport_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Import(ctx, bytes.NewReader(nil))
	assert.ErrorIs(t, err, context.Canceled)
}
