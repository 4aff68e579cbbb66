package widget

import (
	"cmp"
	"slices"
	"strings"

	"github.com/guezito-dev/gigachads/internal/ranking"
)

// Sort orders
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// column is a sortable ranking table column
type column struct {
	Key     string
	Title   string
	compare func(a, b *ranking.Entry) int
	desc    bool // default order when first selected
}

var columns = []column{
	{Key: "rank", Title: "Rank", compare: func(a, b *ranking.Entry) int { return cmp.Compare(a.Rank, b.Rank) }},
	{Key: "name", Title: "Name", compare: func(a, b *ranking.Entry) int {
		return cmp.Compare(strings.ToLower(a.User.DisplayName), strings.ToLower(b.User.DisplayName))
	}},
	{Key: "vouchesGiven", Title: "Vouches Given", desc: true, compare: func(a, b *ranking.Entry) int {
		return cmp.Compare(a.Stats.VouchesGiven, b.Stats.VouchesGiven)
	}},
	{Key: "reviewsGiven", Title: "Reviews Given", desc: true, compare: func(a, b *ranking.Entry) int {
		return cmp.Compare(a.Stats.ReviewsGiven, b.Stats.ReviewsGiven)
	}},
	{Key: "vouchesReceived", Title: "Vouches Received", desc: true, compare: func(a, b *ranking.Entry) int {
		return cmp.Compare(a.Stats.VouchesReceived, b.Stats.VouchesReceived)
	}},
	{Key: "reviewsReceived", Title: "Reviews Received", desc: true, compare: func(a, b *ranking.Entry) int {
		return cmp.Compare(a.Stats.ReviewsReceived, b.Stats.ReviewsReceived)
	}},
	{Key: "totalScore", Title: "Score", desc: true, compare: func(a, b *ranking.Entry) int {
		return cmp.Compare(a.Stats.TotalScore, b.Stats.TotalScore)
	}},
}

func findColumn(key string) column {
	for _, c := range columns {
		if c.Key == key {
			return c
		}
	}
	return columns[0]
}

// normalizeSort resolves unknown keys to rank and empty orders to the
// column's default order.
func normalizeSort(key, order string) (string, string) {
	col := findColumn(key)
	switch order {
	case OrderAsc, OrderDesc:
	default:
		order = OrderAsc
		if col.desc {
			order = OrderDesc
		}
	}
	return col.Key, order
}

// SortRanking returns a re-sorted copy of entries. Ties keep ranking order.
func SortRanking(entries []ranking.Entry, key, order string) []ranking.Entry {
	key, order = normalizeSort(key, order)
	col := findColumn(key)

	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b ranking.Entry) int {
		c := col.compare(&a, &b)
		if order == OrderDesc {
			return -c
		}
		return c
	})
	return sorted
}
