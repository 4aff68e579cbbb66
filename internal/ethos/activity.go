package ethos

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// ActivityType is the kind of interaction between two profiles
type ActivityType string

// Activity type constants
const (
	ActivityReview      ActivityType = "review"
	ActivityVouch       ActivityType = "vouch"
	ActivityAttestation ActivityType = "attestation"
)

// Activity is the canonical interaction record consumed by the aggregator and
// the widgets. Every field lookup across the API's alternative shapes happens
// once, in NormalizeActivity.
type Activity struct {
	Type             ActivityType `json:"type"`
	ID               string       `json:"id,omitempty"`
	AuthorProfileID  int64        `json:"authorProfileId,omitempty"` // 0 when absent
	SubjectProfileID int64        `json:"subjectProfileId,omitempty"`
	CreatedAt        time.Time    `json:"createdAt"`
	Comment          string       `json:"comment,omitempty"`
	Description      string       `json:"description,omitempty"`
	StakeETH         float64      `json:"stakeEth,omitempty"` // vouches only
	Rating           int          `json:"rating,omitempty"`   // reviews only
}

// Key is the composite identity used to drop duplicates returned by
// overlapping feeds: type, author, subject and timestamp.
func (a *Activity) Key() string {
	return fmt.Sprintf("%s-%d-%d-%d", a.Type, a.AuthorProfileID, a.SubjectProfileID, a.CreatedAt.Unix())
}

// Involves reports whether the activity is a directed interaction between two
// distinct known profiles.
func (a *Activity) Involves() bool {
	return a.AuthorProfileID != 0 && a.SubjectProfileID != 0 && a.AuthorProfileID != a.SubjectProfileID
}

// Sentiment buckets the review rating.
func (a *Activity) Sentiment() string {
	switch {
	case a.Rating >= 4:
		return "Positive review"
	case a.Rating >= 2:
		return "Neutral review"
	default:
		return "Negative review"
	}
}

// rawActivity mirrors every shape the activities endpoint has been seen to return
type rawActivity struct {
	Type                  string     `json:"type"`
	ID                    flexString `json:"id"`
	CreatedAt             Timestamp  `json:"createdAt"`
	Timestamp             Timestamp  `json:"timestamp"`
	Author                *rawParty  `json:"author"`
	Subject               *rawParty  `json:"subject"`
	AuthorUser            *rawParty  `json:"authorUser"`
	SubjectUser           *rawParty  `json:"subjectUser"`
	Comment               flexString `json:"comment"`
	Description           flexString `json:"description"`
	TranslatedDescription flexString `json:"translatedDescription"`
	Score                 flexString `json:"score"`
	Translation           *struct {
		TranslatedContent flexString `json:"translatedContent"`
	} `json:"translation"`
	Data    *rawPayload `json:"data"`
	Content *rawPayload `json:"content"`
}

type rawParty struct {
	ProfileID *int64 `json:"profileId"`
}

type rawPayload struct {
	ID          flexString `json:"id"`
	Comment     flexString `json:"comment"`
	Title       flexString `json:"title"`
	Text        flexString `json:"text"`
	Description flexString `json:"description"`
	Score       flexString `json:"score"`
	Deposited   flexString `json:"deposited"`
	Staked      flexString `json:"staked"`
	StakeAmount flexString `json:"stakeAmount"`
}

// NormalizeActivity decodes one raw activity into the canonical shape.
func NormalizeActivity(data []byte) (Activity, error) {
	var raw rawActivity
	if err := json.Unmarshal(data, &raw); err != nil {
		return Activity{}, fmt.Errorf("failed to decode activity: %w", err)
	}

	act := Activity{
		Type:             ActivityType(strings.ToLower(raw.Type)),
		AuthorProfileID:  firstProfileID(raw.Author, raw.AuthorUser),
		SubjectProfileID: firstProfileID(raw.Subject, raw.SubjectUser),
		CreatedAt:        raw.CreatedAt.Time,
	}
	if act.CreatedAt.IsZero() {
		act.CreatedAt = raw.Timestamp.Time
	}

	payload, content := raw.Data, raw.Content
	if payload == nil {
		payload = &rawPayload{}
	}
	if content == nil {
		content = &rawPayload{}
	}

	act.ID = first(string(payload.ID), string(content.ID), string(raw.ID))

	var translated string
	if raw.Translation != nil {
		translated = string(raw.Translation.TranslatedContent)
	}
	act.Comment = first(translated, string(raw.Comment), string(payload.Comment),
		string(content.Title), string(content.Comment), string(content.Text))
	act.Description = first(string(content.Description), string(raw.TranslatedDescription),
		string(raw.Description), string(payload.Description))

	switch act.Type {
	case ActivityVouch:
		act.StakeETH = stakeETH(payload, content)
	case ActivityReview:
		act.Rating = parseRating(first(string(payload.Score), string(content.Score), string(raw.Score)))
	}

	return act, nil
}

func firstProfileID(parties ...*rawParty) int64 {
	for _, p := range parties {
		if p != nil && p.ProfileID != nil {
			return *p.ProfileID
		}
	}
	return 0
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// stakeETH resolves the vouch amount. Deposited and staked values are wei;
// stakeAmount is already ETH.
func stakeETH(data, content *rawPayload) float64 {
	switch {
	case data.Deposited != "":
		return weiToETH(string(data.Deposited))
	case content.Deposited != "":
		return weiToETH(string(content.Deposited))
	case data.Staked != "":
		return weiToETH(string(data.Staked))
	case content.StakeAmount != "":
		f, _ := strconv.ParseFloat(string(content.StakeAmount), 64)
		return f
	case content.Staked != "":
		return weiToETH(string(content.Staked))
	}
	return 0
}

var weiPerETH = new(big.Float).SetFloat64(1e18)

func weiToETH(wei string) float64 {
	v, ok := new(big.Float).SetString(wei)
	if !ok {
		return 0
	}
	eth, _ := new(big.Float).Quo(v, weiPerETH).Float64()
	return eth
}

// parseRating accepts numeric ratings and the API's sentiment labels.
func parseRating(score string) int {
	switch strings.ToLower(score) {
	case "":
		return 0
	case "positive":
		return 5
	case "neutral":
		return 3
	case "negative":
		return 1
	}
	f, err := strconv.ParseFloat(score, 64)
	if err != nil {
		return 0
	}
	return int(f)
}

// flexString decodes JSON strings, numbers and booleans into their text form.
// null, objects and arrays decode to "".
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*f = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
	case '{', '[', 'n':
		*f = ""
	default:
		*f = flexString(data)
	}
	return nil
}
