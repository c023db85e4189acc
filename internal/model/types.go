package model

import "time"

// EventKind classifies an activity observation.
type EventKind string

const (
	EventPush  EventKind = "push"
	EventPull  EventKind = "pull"
	EventBuild EventKind = "build"
)

// Account binds a local user to one Docker Hub identity and its encrypted
// access token. DeletedAt marks rows that are invisible to normal queries
// but still visible to the connect-flow conflict scan.
type Account struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId"`
	DockerUsername string     `json:"dockerUsername"`
	EncryptedToken string     `json:"-"`
	TokenIV        string     `json:"-"`
	IsActive       bool       `json:"isActive"`
	AutoRefresh    bool       `json:"autoRefresh"`
	SyncInProgress bool       `json:"syncInProgress"`
	LastSyncAt     *time.Time `json:"lastSyncAt,omitempty"`
	LastSyncError  string     `json:"lastSyncError,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	DeletedAt      *time.Time `json:"-"`
}

// ActivityEvent is one atomic observation of registry activity.
// Uniqueness key: (AccountID, Day, Kind, Repository, Tag).
type ActivityEvent struct {
	AccountID  string    `json:"accountId"`
	Kind       EventKind `json:"kind"`
	Day        time.Time `json:"day"` // midnight UTC
	Repository string    `json:"repository"`
	Tag        string    `json:"tag"` // "" = repository-level event
	Count      int       `json:"count"`
}

// ActivitySummary is the derived per-day aggregate. It is never persisted.
type ActivitySummary struct {
	Date       string `json:"date"`
	TotalCount int    `json:"total_count"`
	Pushes     int    `json:"pushes"`
	Pulls      int    `json:"pulls"`
	Builds     int    `json:"builds"`
	Level      int    `json:"level"`
}

// DayUTC truncates t to midnight UTC, the aggregation key for all events.
func DayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
