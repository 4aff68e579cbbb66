package widget

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/guezito-dev/gigachads/internal/ethos"
	"github.com/guezito-dev/gigachads/internal/ranking"
)

// Layout selects how a feed is rendered
type Layout int

const (
	LayoutCards Layout = iota
	LayoutMarquee
)

// FeedSpec parameterizes one activity widget
type FeedSpec struct {
	Name       string
	Types      []ethos.ActivityType
	TopN       int // ranked members whose feeds are fetched
	MaxItems   int
	BatchSize  int
	BatchDelay time.Duration
	TodayOnly  bool
	Layout     Layout
	Container  string // default container element id
	Empty      string
}

var (
	ReviewsFeed = FeedSpec{
		Name:       "reviews",
		Types:      []ethos.ActivityType{ethos.ActivityReview},
		TopN:       10,
		MaxItems:   8,
		BatchSize:  1,
		BatchDelay: 300 * time.Millisecond,
		Layout:     LayoutCards,
		Container:  "reviewsContainer",
		Empty:      "No recent reviews found between Giga Chads.",
	}

	VouchesFeed = FeedSpec{
		Name:       "vouches",
		Types:      []ethos.ActivityType{ethos.ActivityVouch},
		TopN:       10,
		MaxItems:   5,
		BatchSize:  1,
		BatchDelay: 300 * time.Millisecond,
		Layout:     LayoutCards,
		Container:  "vouchesList",
		Empty:      "No recent vouches found between Giga Chads.",
	}

	ActivityFeed = FeedSpec{
		Name:       "activity",
		Types:      []ethos.ActivityType{ethos.ActivityVouch, ethos.ActivityReview},
		TopN:       15,
		MaxItems:   20,
		BatchSize:  5,
		BatchDelay: 200 * time.Millisecond,
		TodayOnly:  true,
		Layout:     LayoutMarquee,
		Container:  "activityContainer",
		Empty:      "No activities found between Giga Chads today.",
	}
)

// Feeds lists the built-in widgets by name.
var Feeds = map[string]FeedSpec{
	ReviewsFeed.Name:  ReviewsFeed,
	VouchesFeed.Name:  VouchesFeed,
	ActivityFeed.Name: ActivityFeed,
}

// Item is an interaction between two ranked members, ready to render
type Item struct {
	ethos.Activity
	Author  *ranking.UserInfo
	Subject *ranking.UserInfo
}

// Pipeline gathers recent member-to-member activity for the widgets
type Pipeline struct {
	fetcher   ethos.ActivityFetcher
	feedLimit int

	now      func() time.Time
	location *time.Location // calendar used by the same-day filter
}

// NewPipeline creates a pipeline. fetcher is normally an ethos.CachedFetcher
// so repeated renders reuse member feeds within the cache TTL.
func NewPipeline(fetcher ethos.ActivityFetcher, feedLimit int) *Pipeline {
	return &Pipeline{
		fetcher:   fetcher,
		feedLimit: feedLimit,
		now:       time.Now,
		location:  time.Local,
	}
}

// Recent fetches the feeds of the top ranked members and returns their
// interactions with each other, newest first. A member whose feed cannot be
// fetched contributes nothing. Only context cancellation is returned.
func (p *Pipeline) Recent(ctx context.Context, art *ranking.Artifact, spec FeedSpec) ([]Item, error) {
	members := art.Members()
	top := art.Top(spec.TopN)
	batchSize := max(spec.BatchSize, 1)

	feeds := make([][]ethos.Activity, len(top))
	for start := 0; start < len(top); start += batchSize {
		if start > 0 && spec.BatchDelay > 0 {
			select {
			case <-time.After(spec.BatchDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		end := min(start+batchSize, len(top))
		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			user := top[i].User
			if user.ProfileID == 0 {
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				activities, err := p.fetcher.ProfileActivities(ctx, user.ProfileID, p.feedLimit)
				if err != nil {
					if ctx.Err() == nil {
						slog.Warn("Failed to fetch widget feed",
							"widget", spec.Name,
							"username", user.Username,
							"error", err,
						)
					}
					return
				}
				feeds[i] = activities
			}()
		}
		wg.Wait()

		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	now := p.now().In(p.location)
	seen := make(map[string]struct{})
	var items []Item
	for _, feed := range feeds {
		for _, activity := range feed {
			key := activity.Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			if !activity.Involves() || !slices.Contains(spec.Types, activity.Type) {
				continue
			}
			author, subject := members[activity.AuthorProfileID], members[activity.SubjectProfileID]
			if author == nil || subject == nil {
				continue
			}
			if spec.TodayOnly && !sameDay(activity.CreatedAt.In(p.location), now) {
				continue
			}
			items = append(items, Item{Activity: activity, Author: author, Subject: subject})
		}
	}

	slices.SortStableFunc(items, func(a, b Item) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if spec.MaxItems > 0 && len(items) > spec.MaxItems {
		items = items[:spec.MaxItems]
	}
	return items, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
