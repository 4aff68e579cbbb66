package ranking

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/guezito-dev/gigachads/internal/ethos"
	"github.com/guezito-dev/gigachads/internal/jsonfile"
)

// Artifact is the persisted ranking consumed by every widget. Field names and
// nesting are a fixed contract.
type Artifact struct {
	Metadata Metadata `json:"metadata"`
	Ranking  []Entry  `json:"ranking"`
}

// Metadata summarizes an aggregation run
type Metadata struct {
	GeneratedAt       time.Time `json:"generatedAt"`
	TotalGigachads    int       `json:"totalGigachads"`
	ActiveUsers       int       `json:"activeUsers"`
	ExcludedUsers     int       `json:"excludedUsers"`
	UsersWithActivity int       `json:"usersWithActivity"`
	TotalInteractions int       `json:"totalInteractions"`
	Scoring           Weights   `json:"scoring"`
}

// Entry is one ranked member
type Entry struct {
	Rank         int             `json:"rank"`
	User         UserInfo        `json:"user"`
	Stats        Stats           `json:"stats"`
	LastActivity ethos.Timestamp `json:"lastActivity"`
}

// UserInfo is the public identity of a ranked member
type UserInfo struct {
	ID             int64  `json:"id"`
	Username       string `json:"username"`
	DisplayName    string `json:"displayName"`
	AvatarURL      string `json:"avatarUrl"`
	ProfileID      int64  `json:"profileId"`
	PrimaryAddress string `json:"primaryAddress"`
	ProfileURL     string `json:"profileUrl"`
	TwitterURL     string `json:"twitterUrl"`
}

// Ranker turns a tally into an artifact
type Ranker struct {
	Weights        Weights
	ProfileBaseURL string // e.g. https://app.ethos.network/profile/x
	TwitterBaseURL string // e.g. https://x.com
}

// Rank scores every member, sorts by total score descending and assigns
// 1-based ranks. Members with equal scores keep their snapshot order.
func (r Ranker) Rank(tally *Tally, now time.Time) *Artifact {
	scored := make([]Entry, 0, len(tally.Scores))
	for _, ms := range tally.Scores {
		stats := ms.Stats
		stats.TotalScore = r.Weights.Score(stats)

		scored = append(scored, Entry{
			User:         r.userInfo(&ms.User),
			Stats:        stats,
			LastActivity: ethos.NewTimestamp(ms.LastActivity),
		})
	}

	slices.SortStableFunc(scored, func(a, b Entry) int {
		return b.Stats.TotalScore - a.Stats.TotalScore
	})

	meta := Metadata{
		GeneratedAt:    now.UTC(),
		TotalGigachads: tally.TotalMembers,
		ActiveUsers:    len(tally.Scores),
		ExcludedUsers:  tally.Excluded,
		Scoring:        r.Weights,
	}
	for i := range scored {
		scored[i].Rank = i + 1
		if scored[i].Stats.TotalScore > 0 {
			meta.UsersWithActivity++
		}
		meta.TotalInteractions += scored[i].Stats.Interactions()
	}

	return &Artifact{Metadata: meta, Ranking: scored}
}

func (r Ranker) userInfo(u *ethos.User) UserInfo {
	info := UserInfo{
		ID:             u.ID,
		Username:       u.Username,
		DisplayName:    u.Name(),
		AvatarURL:      u.AvatarURL,
		PrimaryAddress: u.PrimaryAddress,
	}
	if u.ProfileID != nil {
		info.ProfileID = *u.ProfileID
	}
	if r.ProfileBaseURL != "" {
		info.ProfileURL = strings.TrimRight(r.ProfileBaseURL, "/") + "/" + u.Username
	}
	if r.TwitterBaseURL != "" {
		info.TwitterURL = strings.TrimRight(r.TwitterBaseURL, "/") + "/" + u.Username
	}
	return info
}

// Top returns at most n leading entries.
func (a *Artifact) Top(n int) []Entry {
	if n < 0 || n > len(a.Ranking) {
		n = len(a.Ranking)
	}
	return a.Ranking[:n]
}

// Members indexes every ranked member by profile identifier.
func (a *Artifact) Members() map[int64]*UserInfo {
	members := make(map[int64]*UserInfo, len(a.Ranking))
	for i := range a.Ranking {
		if id := a.Ranking[i].User.ProfileID; id != 0 {
			members[id] = &a.Ranking[i].User
		}
	}
	return members
}

// Save writes the artifact atomically to path.
func Save(path string, art *Artifact) error {
	return jsonfile.WriteAtomic(path, art)
}

// Load reads an artifact written by Save.
func Load(path string) (*Artifact, error) {
	var art Artifact
	if err := jsonfile.Read(path, &art); err != nil {
		return nil, fmt.Errorf("failed to load ranking: %w", err)
	}
	return &art, nil
}
