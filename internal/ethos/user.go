package ethos

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// User is a member of an Ethos category as returned by the users endpoint
type User struct {
	ID             int64     `json:"id"`
	ProfileID      *int64    `json:"profileId"` // nil for users without an Ethos profile
	Username       string    `json:"username"`
	DisplayName    string    `json:"displayName"`
	AvatarURL      string    `json:"avatarUrl"`
	Description    string    `json:"description"`
	Score          int       `json:"score"`
	PrimaryAddress string    `json:"primaryAddress"`
	AddedAt        Timestamp `json:"addedAt"`
}

// HasProfile reports whether the user carries a stable profile identifier.
func (u *User) HasProfile() bool {
	return u.ProfileID != nil
}

// Name returns the display name, falling back to the username.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

// Timestamp is a point in time that decodes from unix seconds, unix
// milliseconds, numeric strings or RFC 3339 strings. It encodes as RFC 3339,
// or null when zero.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// UnmarshalJSON implements json.Unmarshaler
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			t.Time = time.Time{}
			return nil
		}
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			t.Time = fromUnix(n)
			return nil
		}
		parsed, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("invalid timestamp %q: %w", s, err)
		}
		t.Time = parsed
		return nil
	}

	n, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp %s: %w", data, err)
	}
	t.Time = fromUnix(n)
	return nil
}

// MarshalJSON implements json.Marshaler
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339))
}

// fromUnix treats values below 1e12 as seconds and the rest as milliseconds.
func fromUnix(n float64) time.Time {
	if n < 1e12 {
		return time.Unix(int64(n), 0).UTC()
	}
	return time.UnixMilli(int64(n)).UTC()
}
