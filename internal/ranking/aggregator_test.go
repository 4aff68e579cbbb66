package ranking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guezito-dev/gigachads/internal/ethos"
	"github.com/guezito-dev/gigachads/internal/roster"
)

// feedStub serves canned feeds per profile identifier.
type feedStub struct {
	mu     sync.Mutex
	feeds  map[int64][]ethos.Activity
	fail   map[int64]bool
	calls  []int64
	active int
	peak   int
	delay  time.Duration
}

func (f *feedStub) ProfileActivities(ctx context.Context, profileID int64, _ int) ([]ethos.Activity, error) {
	f.mu.Lock()
	f.calls = append(f.calls, profileID)
	f.active++
	f.peak = max(f.peak, f.active)
	f.mu.Unlock()

	time.Sleep(f.delay)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.active--
	if f.fail[profileID] {
		return nil, fmt.Errorf("%w: %w", ethos.ErrTransientFetch, errors.New("connection reset by peer"))
	}
	return f.feeds[profileID], nil
}

func member(id int64, username string) ethos.User {
	return ethos.User{ID: id, ProfileID: &id, Username: username}
}

func act(typ ethos.ActivityType, author, subject int64, at time.Time) ethos.Activity {
	return ethos.Activity{Type: typ, AuthorProfileID: author, SubjectProfileID: subject, CreatedAt: at}
}

func scoreOf(t *testing.T, tally *Tally, profileID int64) *MemberScore {
	t.Helper()
	for _, s := range tally.Scores {
		if s.ProfileID() == profileID {
			return s
		}
	}
	t.Fatalf("profile %d not in tally", profileID)
	return nil
}

func TestAggregateCountsOnlyMemberInteractions(t *testing.T) {
	day := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	snap := roster.NewSnapshot([]ethos.User{
		member(1, "alice"),
		member(2, "bob"),
		{ID: 3, Username: "noprofile"},
	}, day)

	stub := &feedStub{feeds: map[int64][]ethos.Activity{
		1: {
			act(ethos.ActivityReview, 1, 2, day),                 // given to member
			act(ethos.ActivityVouch, 2, 1, day.Add(time.Hour)),   // received from member
			act(ethos.ActivityReview, 1, 500, day),               // outsider subject
			act(ethos.ActivityReview, 500, 1, day),               // outsider author
			act(ethos.ActivityVouch, 1, 1, day.Add(2*time.Hour)), // self reference
			act(ethos.ActivityAttestation, 2, 1, day),            // tracked, not scored
		},
		2: {
			act(ethos.ActivityReview, 1, 2, day),
			act(ethos.ActivityVouch, 2, 1, day.Add(time.Hour)),
		},
	}}

	tally, err := NewAggregator(stub, 50, 1, 0).Aggregate(context.Background(), snap)
	require.NoError(t, err)

	assert.Equal(t, 3, tally.TotalMembers)
	assert.Equal(t, 1, tally.Excluded)
	require.Len(t, tally.Scores, 2)
	assert.ElementsMatch(t, []int64{1, 2}, stub.calls, "users without a profile are never fetched")

	alice := scoreOf(t, tally, 1)
	assert.Equal(t, Stats{ReviewsGiven: 1, VouchesReceived: 1, AttestationsReceived: 1}, alice.Stats)
	assert.True(t, alice.LastActivity.Equal(day.Add(2*time.Hour)), "self references still count as activity")

	bob := scoreOf(t, tally, 2)
	assert.Equal(t, Stats{ReviewsReceived: 1, VouchesGiven: 1}, bob.Stats)
}

func TestAggregateFailedFeedLeavesZeroCounters(t *testing.T) {
	now := time.Now()
	snap := roster.NewSnapshot([]ethos.User{member(1, "alice"), member(2, "bob")}, now)
	stub := &feedStub{
		feeds: map[int64][]ethos.Activity{2: {act(ethos.ActivityVouch, 2, 1, now)}},
		fail:  map[int64]bool{1: true},
	}

	tally, err := NewAggregator(stub, 50, 1, 0).Aggregate(context.Background(), snap)
	require.NoError(t, err)
	assert.Equal(t, 1, tally.FailedFeeds)

	assert.Equal(t, Stats{}, scoreOf(t, tally, 1).Stats)
	assert.True(t, scoreOf(t, tally, 1).LastActivity.IsZero())
	assert.Equal(t, 1, scoreOf(t, tally, 2).Stats.VouchesGiven)

	art := Ranker{Weights: DefaultWeights}.Rank(tally, now)
	assert.Equal(t, 1, art.Metadata.UsersWithActivity)
}

func TestAggregateBatches(t *testing.T) {
	users := make([]ethos.User, 7)
	for i := range users {
		users[i] = member(int64(i+1), "m")
	}
	stub := &feedStub{delay: 20 * time.Millisecond}

	agg := NewAggregator(stub, 50, 3, time.Millisecond)
	var progress [][2]int
	agg.OnProgress = func(done, total int) { progress = append(progress, [2]int{done, total}) }

	tally, err := agg.Aggregate(context.Background(), roster.NewSnapshot(users, time.Now()))
	require.NoError(t, err)

	assert.Len(t, tally.Scores, 7)
	assert.Len(t, stub.calls, 7)
	assert.LessOrEqual(t, stub.peak, 3)
	assert.Equal(t, [][2]int{{3, 7}, {6, 7}, {7, 7}}, progress)
}

func TestAggregateFailureDoesNotCancelBatchSiblings(t *testing.T) {
	now := time.Now()
	users := []ethos.User{member(1, "a"), member(2, "b"), member(3, "c")}
	stub := &feedStub{
		feeds: map[int64][]ethos.Activity{
			1: {act(ethos.ActivityVouch, 1, 3, now)},
			3: {act(ethos.ActivityReview, 3, 1, now)},
		},
		fail:  map[int64]bool{2: true},
		delay: 10 * time.Millisecond,
	}

	tally, err := NewAggregator(stub, 50, 3, 0).Aggregate(context.Background(), roster.NewSnapshot(users, now))
	require.NoError(t, err)

	assert.Equal(t, 1, tally.FailedFeeds)
	assert.Equal(t, 1, scoreOf(t, tally, 1).Stats.VouchesGiven)
	assert.Equal(t, 1, scoreOf(t, tally, 3).Stats.ReviewsGiven)
	assert.Len(t, stub.calls, 3)
}

func TestAggregateStopsOnCancel(t *testing.T) {
	users := []ethos.User{member(1, "a"), member(2, "b"), member(3, "c")}
	stub := &feedStub{}

	ctx, cancel := context.WithCancel(context.Background())
	agg := NewAggregator(stub, 50, 1, time.Hour)
	agg.OnProgress = func(int, int) { cancel() }

	_, err := agg.Aggregate(ctx, roster.NewSnapshot(users, time.Now()))
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, stub.calls, 1)
}
