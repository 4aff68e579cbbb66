package ranking

import (
	"time"

	"github.com/guezito-dev/gigachads/internal/ethos"
)

// Weights is the linear point table applied to the interaction counters
type Weights struct {
	ReviewReceived int `json:"reviewReceived"`
	ReviewGiven    int `json:"reviewGiven"`
	VouchReceived  int `json:"vouchReceived"`
	VouchGiven     int `json:"vouchGiven"`
}

// DefaultWeights is the published scoring table.
var DefaultWeights = Weights{
	ReviewReceived: 1,
	ReviewGiven:    2,
	VouchReceived:  5,
	VouchGiven:     10,
}

// Score computes the total for s. Attestations carry no weight.
func (w Weights) Score(s Stats) int {
	return s.ReviewsReceived*w.ReviewReceived +
		s.ReviewsGiven*w.ReviewGiven +
		s.VouchesReceived*w.VouchReceived +
		s.VouchesGiven*w.VouchGiven
}

// Stats holds the directed interaction counters of one member. Only
// interactions whose counterpart is also a member are counted.
type Stats struct {
	ReviewsReceived      int `json:"reviewsReceived"`
	ReviewsGiven         int `json:"reviewsGiven"`
	VouchesReceived      int `json:"vouchesReceived"`
	VouchesGiven         int `json:"vouchesGiven"`
	AttestationsReceived int `json:"attestationsReceived"`
	AttestationsGiven    int `json:"attestationsGiven"`
	TotalScore           int `json:"totalScore"`
}

// Interactions is the sum of the four scored counters.
func (s Stats) Interactions() int {
	return s.ReviewsReceived + s.ReviewsGiven + s.VouchesReceived + s.VouchesGiven
}

func (s *Stats) addGiven(t ethos.ActivityType) {
	switch t {
	case ethos.ActivityReview:
		s.ReviewsGiven++
	case ethos.ActivityVouch:
		s.VouchesGiven++
	case ethos.ActivityAttestation:
		s.AttestationsGiven++
	}
}

func (s *Stats) addReceived(t ethos.ActivityType) {
	switch t {
	case ethos.ActivityReview:
		s.ReviewsReceived++
	case ethos.ActivityVouch:
		s.VouchesReceived++
	case ethos.ActivityAttestation:
		s.AttestationsReceived++
	}
}

// MemberScore accumulates one member's interactions during an aggregation pass
type MemberScore struct {
	User         ethos.User
	Stats        Stats
	LastActivity time.Time
}

// ProfileID returns the member's profile identifier. Only members with a
// profile are ever scored.
func (m *MemberScore) ProfileID() int64 {
	return *m.User.ProfileID
}

// Apply tallies a feed fetched for this member. isMember reports whether a
// profile identifier belongs to a tracked member.
func (m *MemberScore) Apply(activities []ethos.Activity, isMember func(profileID int64) bool) {
	self := m.ProfileID()

	for i := range activities {
		act := &activities[i]

		if act.CreatedAt.After(m.LastActivity) {
			m.LastActivity = act.CreatedAt
		}

		if act.AuthorProfileID == act.SubjectProfileID {
			continue
		}

		switch {
		case act.AuthorProfileID == self && isMember(act.SubjectProfileID):
			m.Stats.addGiven(act.Type)
		case act.SubjectProfileID == self && isMember(act.AuthorProfileID):
			m.Stats.addReceived(act.Type)
		}
	}
}
