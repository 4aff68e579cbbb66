package widget

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guezito-dev/gigachads/internal/ethos"
	"github.com/guezito-dev/gigachads/internal/ranking"
)

func newTestRenderer(t *testing.T, now time.Time) *Renderer {
	t.Helper()
	r, err := NewRenderer("https://app.ethos.network/activity")
	require.NoError(t, err)
	r.now = func() time.Time { return now }
	return r
}

func TestTimeAgo(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cases := map[time.Duration]string{
		0:                    "0s ago",
		42 * time.Second:     "42s ago",
		5 * time.Minute:      "5m ago",
		3 * time.Hour:        "3h ago",
		12 * 24 * time.Hour:  "12d ago",
		125 * 24 * time.Hour: "4mo ago",
		-time.Minute:         "0s ago",
	}
	for age, want := range cases {
		assert.Equal(t, want, TimeAgo(now.Add(-age), now), age.String())
	}
}

func TestSortRanking(t *testing.T) {
	art := testArtifact(3)
	art.Ranking[0].Stats.VouchesGiven = 1
	art.Ranking[1].Stats.VouchesGiven = 4
	art.Ranking[2].Stats.VouchesGiven = 1

	sorted := SortRanking(art.Ranking, "vouchesGiven", "")
	assert.Equal(t, []int{2, 1, 3}, ranks(sorted), "desc by default, ties keep rank order")

	sorted = SortRanking(art.Ranking, "vouchesGiven", OrderAsc)
	assert.Equal(t, []int{1, 3, 2}, ranks(sorted))

	sorted = SortRanking(art.Ranking, "bogus", "sideways")
	assert.Equal(t, []int{1, 2, 3}, ranks(sorted))
	assert.Equal(t, []int{1, 2, 3}, ranks(art.Ranking), "input is not mutated")
}

func ranks(entries []ranking.Entry) []int {
	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = e.Rank
	}
	return out
}

func TestTableRendersMedalsAndTooltip(t *testing.T) {
	art := testArtifact(4)
	art.Ranking[0].Stats = ranking.Stats{ReviewsReceived: 3, ReviewsGiven: 1, VouchesGiven: 2, TotalScore: 25}
	art.Ranking[3].User.DisplayName = `<script>alert(1)</script>`

	var buf bytes.Buffer
	require.NoError(t, newTestRenderer(t, time.Now()).Table(&buf, art, "", "", "leaderboard"))
	html := buf.String()

	assert.Contains(t, html, `id="leaderboard"`)
	assert.Contains(t, html, "🥇")
	assert.Contains(t, html, "🥈")
	assert.Contains(t, html, "🥉")
	assert.Contains(t, html, `<td class="rank">4</td>`)
	assert.Contains(t, html, "Reviews received 3×1")
	assert.Contains(t, html, "= 25")
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "container=leaderboard&amp;order=desc&amp;sort=rank", "active column toggles its order")
}

func TestFeedCards(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	art := testArtifact(2)
	members := art.Members()

	vouch := Item{
		Activity: ethos.Activity{Type: ethos.ActivityVouch, ID: "77", AuthorProfileID: 1, SubjectProfileID: 2, CreatedAt: now.Add(-5 * time.Minute), StakeETH: 0.05},
		Author:   members[1],
		Subject:  members[2],
	}

	var buf bytes.Buffer
	require.NoError(t, newTestRenderer(t, now).Feed(&buf, VouchesFeed, []Item{vouch}, VouchesFeed.Container))
	html := buf.String()
	assert.Contains(t, html, `id="vouchesList"`)
	assert.Contains(t, html, "0.050 ETH")
	assert.Contains(t, html, "5m ago")
	assert.Contains(t, html, "https://app.ethos.network/activity/vouch/77")
	assert.Contains(t, html, cardAvatarPlaceholder)

	buf.Reset()
	require.NoError(t, newTestRenderer(t, now).Feed(&buf, ReviewsFeed, nil, "reviews"))
	assert.Contains(t, buf.String(), "No recent reviews found between Giga Chads.")
}

func TestFeedMarqueeShuffles(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	members := testArtifact(2).Members()
	items := []Item{
		{Activity: ethos.Activity{Type: ethos.ActivityReview, Comment: "first " + strings.Repeat("x", 50), Rating: 5, AuthorProfileID: 1, SubjectProfileID: 2, CreatedAt: now}, Author: members[1], Subject: members[2]},
		{Activity: ethos.Activity{Type: ethos.ActivityVouch, Comment: "second", AuthorProfileID: 2, SubjectProfileID: 1, CreatedAt: now}, Author: members[2], Subject: members[1]},
	}

	r := newTestRenderer(t, now)
	r.shuffle = func(n int, swap func(i, j int)) { swap(0, n-1) }

	var buf bytes.Buffer
	require.NoError(t, r.Feed(&buf, ActivityFeed, items, "activityContainer"))
	html := buf.String()

	assert.Less(t, strings.Index(html, "second"), strings.Index(html, "first"))
	assert.Contains(t, html, "first "+strings.Repeat("x", 34)+"...")
	assert.Contains(t, html, "Positive review")
	assert.Equal(t, "review", string(items[0].Type), "caller slice is not reordered")

	buf.Reset()
	require.NoError(t, r.Feed(&buf, ActivityFeed, nil, "activityContainer"))
	assert.Contains(t, buf.String(), "No activities found between Giga Chads today.")
}

func TestErrorPanel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newTestRenderer(t, time.Now()).Error(&buf, "Failed to load activities. Please try again later.", "reviewsContainer"))
	assert.Contains(t, buf.String(), `<div class="error">Failed to load activities. Please try again later.</div>`)
}
