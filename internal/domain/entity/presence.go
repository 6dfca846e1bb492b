package entity

import (
	"fmt"
	"time"
)

const (
	PresenceOnline  = "online"
	PresenceOffline = "offline"

	// A heartbeat younger than this counts as online even if the stored
	// state says offline, to tolerate missed disconnect events.
	PresenceFreshness = 60 * time.Second
)

// Presence is written by the heartbeat mechanism and read-only here.
type Presence struct {
	UserID   string    `json:"user_id" firestore:"userId"`
	State    string    `json:"state" firestore:"state"`
	LastSeen time.Time `json:"last_seen" firestore:"lastSeen"`
}

// IsOnline applies the freshness window relative to now.
func (p *Presence) IsOnline(now time.Time) bool {
	if p.State == PresenceOnline {
		return true
	}
	return now.Sub(p.LastSeen) < PresenceFreshness
}

// LastSeenText buckets elapsed time since the last heartbeat into a short
// human-readable label.
func (p *Presence) LastSeenText(now time.Time) string {
	elapsed := now.Sub(p.LastSeen)
	switch {
	case elapsed < time.Minute:
		return "just now"
	case elapsed < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(elapsed.Minutes()))
	case elapsed < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(elapsed.Hours()))
	default:
		return p.LastSeen.Format("02.01.2006")
	}
}
