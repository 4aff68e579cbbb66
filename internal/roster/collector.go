package roster

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/guezito-dev/gigachads/internal/ethos"
)

// UserLister returns one page of a category's members
type UserLister interface {
	GetCategoryUsers(ctx context.Context, categoryID, limit, offset int) ([]ethos.User, error)
}

// Collector pages through a category's member list
type Collector struct {
	lister     UserLister
	categoryID int
	pageSize   int
	pageDelay  time.Duration

	// OnPage, when set, is called after every page with the running total.
	OnPage func(collected int)
}

// NewCollector creates a collector for one category
func NewCollector(lister UserLister, categoryID, pageSize int, pageDelay time.Duration) *Collector {
	return &Collector{
		lister:     lister,
		categoryID: categoryID,
		pageSize:   pageSize,
		pageDelay:  pageDelay,
	}
}

// Collect fetches every member of the category. It stops at the first page
// shorter than the page size. Any failed page aborts the run with
// ethos.ErrFatalFetch and no partial result.
func (c *Collector) Collect(ctx context.Context) ([]ethos.User, error) {
	all := []ethos.User{}
	offset := 0

	for {
		users, err := c.lister.GetCategoryUsers(ctx, c.categoryID, c.pageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("%w: category %d offset %d: %w", ethos.ErrFatalFetch, c.categoryID, offset, err)
		}

		all = append(all, users...)
		slog.Debug("Fetched member page", "category_id", c.categoryID, "offset", offset, "page", len(users), "total", len(all))
		if c.OnPage != nil {
			c.OnPage(len(all))
		}

		if len(users) < c.pageSize {
			break
		}
		offset += c.pageSize

		// Pause between pages to stay under the API rate limit
		select {
		case <-time.After(c.pageDelay):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", ethos.ErrFatalFetch, ctx.Err())
		}
	}

	return all, nil
}

// Snapshot is the persisted result of a collection run
type Snapshot struct {
	TotalCount int          `json:"totalCount"`
	FetchedAt  time.Time    `json:"fetchedAt"`
	Users      []ethos.User `json:"users"`
}

// NewSnapshot wraps users fetched at the given time
func NewSnapshot(users []ethos.User, fetchedAt time.Time) *Snapshot {
	return &Snapshot{
		TotalCount: len(users),
		FetchedAt:  fetchedAt.UTC(),
		Users:      users,
	}
}

// ProfileCounts returns how many users have and lack a profile identifier.
func (s *Snapshot) ProfileCounts() (with, without int) {
	for i := range s.Users {
		if s.Users[i].HasProfile() {
			with++
		} else {
			without++
		}
	}
	return with, without
}
