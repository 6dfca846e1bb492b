package entity

import "time"

// ParticipantMeta is a snapshot of a participant's profile taken when the
// chat is created, so the conversation list renders without extra user reads.
type ParticipantMeta struct {
	DisplayName string `json:"display_name" firestore:"displayName"`
	Email       string `json:"email" firestore:"email"`
	PhotoURL    string `json:"photo_url,omitempty" firestore:"photoURL,omitempty"`
}

// Chat is a direct conversation between exactly two users. The invariant is
// one chat per unordered participant pair; lookups must check set membership,
// not array equality, because the store only supports array-contains.
type Chat struct {
	ID                  string                     `json:"id" firestore:"id"`
	Participants        []string                   `json:"participants" firestore:"participants"`
	ParticipantMeta     map[string]ParticipantMeta `json:"participant_meta" firestore:"participantsMeta"`
	CreatedAt           time.Time                  `json:"created_at" firestore:"createdAt,serverTimestamp"`
	LastUpdated         time.Time                  `json:"last_updated" firestore:"lastUpdated,serverTimestamp"`
	LastMessage         string                     `json:"last_message,omitempty" firestore:"lastMessage,omitempty"`
	LastMessageSenderID string                     `json:"last_message_sender_id,omitempty" firestore:"lastMessageSenderId,omitempty"`
}

// OtherParticipant returns the peer's id for a two-member chat.
func (c *Chat) OtherParticipant(selfID string) string {
	for _, p := range c.Participants {
		if p != selfID {
			return p
		}
	}
	return ""
}

func (c *Chat) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}
