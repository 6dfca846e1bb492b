package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsOnline(t *testing.T) {
	now := time.Now()

	online := &Presence{State: PresenceOnline, LastSeen: now.Add(-2 * time.Hour)}
	assert.True(t, online.IsOnline(now))

	// A fresh heartbeat wins over a stale offline flag.
	fresh := &Presence{State: PresenceOffline, LastSeen: now.Add(-30 * time.Second)}
	assert.True(t, fresh.IsOnline(now))

	stale := &Presence{State: PresenceOffline, LastSeen: now.Add(-61 * time.Second)}
	assert.False(t, stale.IsOnline(now))
}

func TestLastSeenTextBuckets(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		elapsed time.Duration
		want    string
	}{
		{10 * time.Second, "just now"},
		{59 * time.Second, "just now"},
		{5 * time.Minute, "5 minutes ago"},
		{59 * time.Minute, "59 minutes ago"},
		{3 * time.Hour, "3 hours ago"},
		{23 * time.Hour, "23 hours ago"},
	}
	for _, tc := range cases {
		p := &Presence{LastSeen: now.Add(-tc.elapsed)}
		assert.Equal(t, tc.want, p.LastSeenText(now), "elapsed %s", tc.elapsed)
	}

	older := &Presence{LastSeen: now.Add(-48 * time.Hour)}
	assert.Equal(t, "12.03.2026", older.LastSeenText(now))
}

func TestChatParticipantHelpers(t *testing.T) {
	chat := &Chat{Participants: []string{"u1", "u2"}}

	assert.Equal(t, "u2", chat.OtherParticipant("u1"))
	assert.Equal(t, "u1", chat.OtherParticipant("u2"))
	assert.True(t, chat.HasParticipant("u1"))
	assert.False(t, chat.HasParticipant("u3"))
}
