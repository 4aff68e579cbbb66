package ranking

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guezito-dev/gigachads/internal/db"
)

// Requires a disposable Postgres, e.g. DATABASE_URL=postgres://localhost/gigachads_test
func TestStoreRoundTrip(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()

	pg, err := db.Open(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pg.Close)

	store := NewStore(pg.Pool())
	art := Ranker{Weights: DefaultWeights}.Rank(newTally(Stats{VouchesGiven: 3}), time.Now().Truncate(time.Second))
	id := time.Now().UnixNano()

	require.NoError(t, store.SaveRun(ctx, id, art))
	require.NoError(t, store.SaveRun(ctx, id, art), "saving twice is a no-op")

	got, err := store.GetRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 30, got.Ranking[0].Stats.TotalScore)

	runs, err := store.ListRuns(ctx, 100)
	require.NoError(t, err)
	assert.NotEmpty(t, runs)

	_, err = store.GetRun(ctx, -1)
	assert.ErrorIs(t, err, ErrRunNotFound)
}
