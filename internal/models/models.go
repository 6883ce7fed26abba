package models

import (
	"time"
)

// Status is the moderation/lifecycle state of a job posting
type Status string

const (
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

// Statuses lists every recognised status in lifecycle order
var Statuses = []Status{StatusPending, StatusActive, StatusRejected, StatusExpired}

// Valid reports whether s is one of the four recognised literals
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusRejected, StatusExpired:
		return true
	}
	return false
}

func (s Status) String() string { return string(s) }

// JobPosting represents a single job listing
type JobPosting struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Company      string    `json:"company"`
	Category     string    `json:"category"`
	Location     string    `json:"location"`
	Link         string    `json:"link"`
	ContactEmail string    `json:"contact_email"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// Age returns how long the posting has existed at the given instant
func (p JobPosting) Age(now time.Time) time.Duration {
	return now.Sub(p.CreatedAt)
}

// Filter selects postings by equality on the indexed fields.
// Empty fields match everything.
type Filter struct {
	Status   Status
	Category string
	Company  string
	Location string
	// Newest orders results reverse-chronologically by CreatedAt instead of insertion order
	Newest bool
	// Limit bounds the result when > 0
	Limit int
}

// Matches reports whether p satisfies every non-empty field of f
func (f Filter) Matches(p JobPosting) bool {
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.Company != "" && p.Company != f.Company {
		return false
	}
	if f.Location != "" && p.Location != f.Location {
		return false
	}
	return true
}

// FeedItem is one syndicated entry derived from an active posting
type FeedItem struct {
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Company     string    `json:"company"`
	GUID        string    `json:"guid"`
	Author      string    `json:"author"`
	PublishDate time.Time `json:"publish_date"`
}
