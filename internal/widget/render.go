package widget

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"math/rand/v2"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/guezito-dev/gigachads/internal/ethos"
	"github.com/guezito-dev/gigachads/internal/ranking"
)

//go:embed templates/*.html
var templatesFS embed.FS

const (
	cardAvatarPlaceholder    = "https://via.placeholder.com/46"
	marqueeAvatarPlaceholder = "https://via.placeholder.com/24"
)

// Renderer produces the HTML fragments served to the embedding pages
type Renderer struct {
	tmpl            *template.Template
	activityBaseURL string

	now     func() time.Time
	shuffle func(n int, swap func(i, j int))
}

// NewRenderer parses the embedded templates. activityBaseURL prefixes card
// links, e.g. https://app.ethos.network/activity.
func NewRenderer(activityBaseURL string) (*Renderer, error) {
	r := &Renderer{
		activityBaseURL: strings.TrimRight(activityBaseURL, "/"),
		now:             time.Now,
		shuffle:         rand.Shuffle,
	}

	tmpl, err := template.New("widget").Funcs(template.FuncMap{
		"timeAgo":  func(t time.Time) string { return TimeAgo(t, r.now()) },
		"medal":    medal,
		"eth":      func(v float64) string { return strconv.FormatFloat(v, 'f', 3, 64) },
		"truncate": truncate,
		"orAvatar": func(src, fallback string) string {
			if src == "" {
				return fallback
			}
			return src
		},
		"activityURL": r.activityURL,
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse widget templates: %w", err)
	}
	r.tmpl = tmpl
	return r, nil
}

type tableHeader struct {
	Title  string
	Href   string
	Active bool
	Order  string
}

type tableRow struct {
	ranking.Entry
	Tooltip string
}

type tableView struct {
	Container string
	Headers   []tableHeader
	Rows      []tableRow
	Scoring   ranking.Weights
}

// Table renders the full ranking sorted by key and order.
func (r *Renderer) Table(w io.Writer, art *ranking.Artifact, key, order, container string) error {
	key, order = normalizeSort(key, order)

	view := tableView{Container: container, Scoring: art.Metadata.Scoring}
	for _, col := range columns {
		next := OrderAsc
		if col.desc {
			next = OrderDesc
		}
		active := col.Key == key
		if active {
			next = OrderAsc
			if order == OrderAsc {
				next = OrderDesc
			}
		}
		q := url.Values{"sort": {col.Key}, "order": {next}, "container": {container}}
		view.Headers = append(view.Headers, tableHeader{
			Title:  col.Title,
			Href:   "?" + q.Encode(),
			Active: active,
			Order:  order,
		})
	}

	for _, entry := range SortRanking(art.Ranking, key, order) {
		view.Rows = append(view.Rows, tableRow{Entry: entry, Tooltip: scoreBreakdown(entry.Stats, art.Metadata.Scoring)})
	}
	return r.tmpl.ExecuteTemplate(w, "table.html", view)
}

type feedView struct {
	Container   string
	Items       []Item
	Empty       string
	Placeholder string
}

// Feed renders items with the feed's layout. The marquee shows items in a
// random order.
func (r *Renderer) Feed(w io.Writer, spec FeedSpec, items []Item, container string) error {
	view := feedView{Container: container, Items: items, Empty: spec.Empty}

	if spec.Layout == LayoutMarquee {
		shuffled := append([]Item(nil), items...)
		r.shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		view.Items = shuffled
		view.Placeholder = marqueeAvatarPlaceholder
		return r.tmpl.ExecuteTemplate(w, "marquee.html", view)
	}

	view.Placeholder = cardAvatarPlaceholder
	return r.tmpl.ExecuteTemplate(w, "cards.html", view)
}

// Error renders the static error panel.
func (r *Renderer) Error(w io.Writer, message, container string) error {
	return r.tmpl.ExecuteTemplate(w, "error.html", struct{ Container, Message string }{container, message})
}

func (r *Renderer) activityURL(a ethos.Activity) string {
	if a.ID == "" || r.activityBaseURL == "" {
		return "#"
	}
	return r.activityBaseURL + "/" + string(a.Type) + "/" + url.PathEscape(a.ID)
}

// TimeAgo formats the age of t relative to now: 42s, 5m, 3h, 12d or 4mo ago.
func TimeAgo(t, now time.Time) string {
	secs := int64(now.Sub(t) / time.Second)
	switch {
	case secs < 60:
		return fmt.Sprintf("%ds ago", max(secs, 0))
	case secs < 3600:
		return fmt.Sprintf("%dm ago", secs/60)
	case secs < 86400:
		return fmt.Sprintf("%dh ago", secs/3600)
	case secs < 30*86400:
		return fmt.Sprintf("%dd ago", secs/86400)
	default:
		return fmt.Sprintf("%dmo ago", secs/(30*86400))
	}
}

func medal(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	}
	return strconv.Itoa(rank)
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + "..."
}

func scoreBreakdown(s ranking.Stats, w ranking.Weights) string {
	return fmt.Sprintf(
		"Vouches given %d×%d + Reviews given %d×%d + Vouches received %d×%d + Reviews received %d×%d = %d",
		s.VouchesGiven, w.VouchGiven,
		s.ReviewsGiven, w.ReviewGiven,
		s.VouchesReceived, w.VouchReceived,
		s.ReviewsReceived, w.ReviewReceived,
		s.TotalScore,
	)
}
