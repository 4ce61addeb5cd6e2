package dto

import (
	"time"

	"github.com/google/uuid"

	"kiwi-assistant-core/internal/entity"
)

type CreateChatRequest struct {
	Title string `json:"title"`
}

type ChatTabResponse struct {
	Id            uuid.UUID                  `json:"id"`
	Title         string                     `json:"title"`
	Messages      []*MessageResponse         `json:"messages"`
	CreatedAt     time.Time                  `json:"created_at"`
	UpdatedAt     *time.Time                 `json:"updated_at"`
	DatasetURL    *string                    `json:"dataset_url,omitempty"`
	DatasetStatus entity.DatasetStatus       `json:"dataset_status"`
	DatasetStats  *entity.DatasetStats       `json:"dataset_stats,omitempty"`
}

type ChatTabSummaryResponse struct {
	Id            uuid.UUID            `json:"id"`
	Title         string               `json:"title"`
	MessageCount  int                  `json:"message_count"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     *time.Time           `json:"updated_at"`
	DatasetStatus entity.DatasetStatus `json:"dataset_status"`
	Active        bool                 `json:"active"`
}

type MessageResponse struct {
	Id         uuid.UUID           `json:"id"`
	Role       entity.MessageRole  `json:"role"`
	Content    string              `json:"content"`
	Timestamp  int64               `json:"timestamp"`
	AudioRef   *string             `json:"audioRef,omitempty"`
	IsSpeaking bool                `json:"isSpeaking,omitempty"`
	Payload    *entity.QueryResult `json:"payload,omitempty"`
}

type SendMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

type SendMessageResponse struct {
	Sent  *MessageResponse `json:"sent"`
	Reply *MessageResponse `json:"reply"`
}

// UpdateMessageRequest patches the mutable fields of an existing message.
// Nil fields are left untouched.
type UpdateMessageRequest struct {
	IsSpeaking *bool   `json:"isSpeaking,omitempty"`
	AudioRef   *string `json:"audioRef,omitempty"`
}

type TranscribeResponse struct {
	Text string `json:"text"`
}

type SheetURLRequest struct {
	URL string `json:"url" validate:"required"`
}

type SheetURLResponse struct {
	URL *string `json:"url"`
}
