package entity

import (
	"github.com/google/uuid"
)

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// Message is a single entry in a chat history. Histories are strictly
// insertion-ordered; Timestamp is the creation time in unix millis and
// may collide between messages.
type Message struct {
	Id         uuid.UUID    `json:"id"`
	Role       MessageRole  `json:"role"`
	Content    string       `json:"content"`
	Timestamp  int64        `json:"timestamp"`
	AudioRef   *string      `json:"audioRef,omitempty"`
	IsSpeaking bool         `json:"isSpeaking,omitempty"`
	Payload    *QueryResult `json:"payload,omitempty"`
}

// QueryResult is the payload attached to an assistant reply that answered
// a data question. A nil pointer means the message carries no payload, so
// consumers only have the two cases to handle.
type QueryResult struct {
	Plan             *QueryPlan               `json:"plan,omitempty"`
	Rows             []map[string]interface{} `json:"rows,omitempty"`
	SchemaContext    []string                 `json:"schema_context,omitempty"`
	DatasetRefreshed bool                     `json:"dataset_refreshed,omitempty"`
}

// QueryPlan mirrors the structured plan the backend produces for a query.
type QueryPlan struct {
	QueryType     string        `json:"query_type"`
	Table         string        `json:"table"`
	SelectColumns []string      `json:"select_columns,omitempty"`
	Metrics       []string      `json:"metrics,omitempty"`
	Filters       []QueryFilter `json:"filters,omitempty"`
	Limit         int           `json:"limit,omitempty"`
	GroupBy       []string      `json:"group_by,omitempty"`
	OrderBy       []QueryOrder  `json:"order_by,omitempty"`
}

type QueryFilter struct {
	Column   string      `json:"column"`
	Operator string      `json:"operator"`
	Value    interface{} `json:"value"`
}

type QueryOrder struct {
	Column    string `json:"column"`
	Direction string `json:"direction"`
}
