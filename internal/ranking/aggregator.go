package ranking

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/guezito-dev/gigachads/internal/ethos"
	"github.com/guezito-dev/gigachads/internal/roster"
)

// Tally is the outcome of one aggregation pass
type Tally struct {
	TotalMembers int            // users in the snapshot
	Excluded     int            // users without a profile identifier
	FailedFeeds  int            // members whose feed fetch failed, scored as empty
	Scores       []*MemberScore // eligible members, snapshot order
}

// Aggregator fetches every eligible member's activity feed and tallies
// interactions between members
type Aggregator struct {
	fetcher    ethos.ActivityFetcher
	feedLimit  int
	batchSize  int
	batchDelay time.Duration

	// OnProgress, when set, is called after every batch.
	OnProgress func(done, total int)
}

// NewAggregator creates an aggregator. A batch size of 1 fetches sequentially
// with batchDelay between members.
func NewAggregator(fetcher ethos.ActivityFetcher, feedLimit, batchSize int, batchDelay time.Duration) *Aggregator {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Aggregator{
		fetcher:    fetcher,
		feedLimit:  feedLimit,
		batchSize:  batchSize,
		batchDelay: batchDelay,
	}
}

// Aggregate tallies the snapshot. Members without a profile identifier are
// counted in Excluded and never scored. A fetch failing with
// ethos.ErrTransientFetch is logged, counted in FailedFeeds and leaves that
// member at zero. The only error returned is context cancellation.
func (a *Aggregator) Aggregate(ctx context.Context, snap *roster.Snapshot) (*Tally, error) {
	tally := &Tally{
		TotalMembers: len(snap.Users),
		Scores:       make([]*MemberScore, 0, len(snap.Users)),
	}

	// Built once before any fetch starts, read-only afterwards
	members := make(map[int64]struct{}, len(snap.Users))
	for i := range snap.Users {
		user := snap.Users[i]
		if !user.HasProfile() {
			tally.Excluded++
			continue
		}
		members[*user.ProfileID] = struct{}{}
		tally.Scores = append(tally.Scores, &MemberScore{User: user})
	}
	isMember := func(profileID int64) bool {
		_, ok := members[profileID]
		return ok
	}

	total := len(tally.Scores)
	for start := 0; start < total; start += a.batchSize {
		if start > 0 && a.batchDelay > 0 {
			select {
			case <-time.After(a.batchDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		end := min(start+a.batchSize, total)

		// Each goroutine owns exactly one MemberScore and one failed slot
		batch := tally.Scores[start:end]
		failed := make([]bool, len(batch))
		var wg sync.WaitGroup
		for i, score := range batch {
			wg.Add(1)
			go func() {
				defer wg.Done()
				failed[i] = a.tallyMember(ctx, score, isMember)
			}()
		}
		wg.Wait()

		for _, f := range failed {
			if f {
				tally.FailedFeeds++
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if a.OnProgress != nil {
			a.OnProgress(end, total)
		}
	}

	return tally, nil
}

// tallyMember applies one member's feed and reports whether the fetch failed.
// A cancelled run is not a feed failure.
func (a *Aggregator) tallyMember(ctx context.Context, score *MemberScore, isMember func(int64) bool) bool {
	activities, err := a.fetcher.ProfileActivities(ctx, score.ProfileID(), a.feedLimit)
	if err == nil {
		score.Apply(activities, isMember)
		return false
	}
	if ctx.Err() != nil {
		return false
	}

	attrs := []any{
		"username", score.User.Username,
		"profile_id", score.ProfileID(),
		"error", err,
	}
	if errors.Is(err, ethos.ErrTransientFetch) {
		slog.Warn("Failed to fetch activities, counting as empty feed", attrs...)
	} else {
		slog.Error("Unexpected activity fetch error, counting as empty feed", attrs...)
	}
	return true
}
