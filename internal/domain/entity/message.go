package entity

import "time"

const (
	MessageTypeText  = "text"
	MessageTypeMedia = "media"
)

type MediaMeta struct {
	Name     string `json:"name" firestore:"name"`
	Size     int64  `json:"size" firestore:"size"`
	MimeType string `json:"mime_type" firestore:"type"`
}

// LinkPreview is a display card derived from the first URL in a message.
// Once written it is never recomputed.
type LinkPreview struct {
	Title        string `json:"title,omitempty" firestore:"title,omitempty"`
	Description  string `json:"description,omitempty" firestore:"description,omitempty"`
	Image        string `json:"image,omitempty" firestore:"image,omitempty"`
	URL          string `json:"url" firestore:"url"`
	IsVideoEmbed bool   `json:"is_video_embed" firestore:"isVideoEmbed"`
}

type Message struct {
	ID        string       `json:"id" firestore:"id"`
	ChatID    string       `json:"chat_id" firestore:"chatId"`
	SenderID  string       `json:"sender_id" firestore:"senderId"`
	Text      string       `json:"text" firestore:"text"`
	Type      string       `json:"type" firestore:"type"`
	MediaURL  string       `json:"media_url,omitempty" firestore:"mediaUrl,omitempty"`
	MediaMeta *MediaMeta   `json:"media_meta,omitempty" firestore:"mediaMeta,omitempty"`
	Preview   *LinkPreview `json:"preview,omitempty" firestore:"preview,omitempty"`
	Edited    bool         `json:"edited" firestore:"edited"`
	EditedAt  time.Time    `json:"edited_at,omitempty" firestore:"editedAt,omitempty"`
	CreatedAt time.Time    `json:"created_at" firestore:"createdAt,serverTimestamp"`
}
