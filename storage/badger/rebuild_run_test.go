package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/careersearch/core"
)

func TestRebuildRunRepository_Latest(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	latest, err := repos.RebuildRuns.LatestRebuildRun(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i, id := range []string{"run-a", "run-b", "run-c"} {
		run := &core.RebuildRun{
			ID:        id,
			Trigger:   core.RebuildTriggerCLI,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repos.RebuildRuns.SaveRebuildRun(ctx, run))
	}

	latest, err = repos.RebuildRuns.LatestRebuildRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "run-c", latest.ID)

	runs, err := repos.RebuildRuns.ListRebuildRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-c", runs[0].ID)
	assert.Equal(t, "run-b", runs[1].ID)
}

func TestRebuildRunRepository_SaveReplaces(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	run := &core.RebuildRun{ID: "run-a", StartedAt: time.Now().UTC()}
	require.NoError(t, repos.RebuildRuns.SaveRebuildRun(ctx, run))

	run.FinishedAt = run.StartedAt.Add(time.Second)
	run.SuggestionsCreated = 7
	require.NoError(t, repos.RebuildRuns.SaveRebuildRun(ctx, run))

	runs, err := repos.RebuildRuns.ListRebuildRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 7, runs[0].SuggestionsCreated)
	assert.True(t, runs[0].Succeeded())
}
