package entity

import (
	"time"

	"github.com/google/uuid"
)

type DatasetStatus string

const (
	DatasetUnconnected DatasetStatus = "unconnected"
	DatasetLoading     DatasetStatus = "loading"
	DatasetReady       DatasetStatus = "ready"
	DatasetError       DatasetStatus = "error"
)

// ChatTab is one independent conversation thread. Messages are append-only
// and insertion-ordered. DatasetStatus only moves unconnected -> loading ->
// ready, or loading -> error -> unconnected; ready is sticky until the tab
// is deleted.
type ChatTab struct {
	Id            uuid.UUID     `json:"id"`
	Title         string        `json:"title"`
	Messages      []Message     `json:"messages"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     *time.Time    `json:"updated_at"`
	DatasetURL    *string       `json:"dataset_url,omitempty"`
	DatasetStatus DatasetStatus `json:"dataset_status"`
	DatasetStats  *DatasetStats `json:"dataset_stats,omitempty"`
}
