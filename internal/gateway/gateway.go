package gateway

import (
	"context"

	"kiwi-assistant-core/internal/entity"
)

// LoadDatasetResponse is the backend's answer to a dataset connection attempt.
type LoadDatasetResponse struct {
	Success bool                 `json:"success"`
	Stats   *entity.DatasetStats `json:"stats,omitempty"`
	Error   string               `json:"error,omitempty"`
}

// SchemaChunk is one retrieved schema snippet attached to a query answer.
type SchemaChunk struct {
	Text string `json:"text"`
}

// ProcessQueryResponse is the backend's answer to a user question.
type ProcessQueryResponse struct {
	Success       bool                     `json:"success"`
	Explanation   string                   `json:"explanation"`
	Data          []map[string]interface{} `json:"data,omitempty"`
	Plan          *entity.QueryPlan        `json:"plan,omitempty"`
	SchemaContext []SchemaChunk            `json:"schema_context,omitempty"`
	DataRefreshed bool                     `json:"data_refreshed"`
	Error         string                   `json:"error,omitempty"`
}

// IGateway is the outbound boundary to the analytics backend. Every call is
// context-aware; implementations must honor cancellation mid-flight.
type IGateway interface {
	// LoadDataset asks the backend to ingest the spreadsheet behind url.
	LoadDataset(ctx context.Context, url string) (*LoadDatasetResponse, error)

	// SendMessage submits a user question and returns the answer payload.
	SendMessage(ctx context.Context, text string) (*ProcessQueryResponse, error)

	// TranscribeAudio converts a recorded audio clip into text.
	TranscribeAudio(ctx context.Context, audio []byte) (string, error)

	// CheckAuth reports whether the backend considers the session valid.
	CheckAuth(ctx context.Context) (bool, error)
}
