package dto

import (
	"github.com/google/uuid"

	"kiwi-assistant-core/internal/entity"
)

type ConnectDatasetRequest struct {
	URL string `json:"url" validate:"required"`
}

// ConnectorViewResponse is a snapshot of a tab's connector surface: the
// machine state plus everything the progress view renders.
type ConnectorViewResponse struct {
	TabId        uuid.UUID            `json:"tab_id"`
	Status       string               `json:"status"`
	URL          string               `json:"url"`
	Locked       bool                 `json:"locked"`
	Progress     float64              `json:"progress"`
	CurrentStage int                  `json:"current_stage"`
	Stages       []*StageResponse     `json:"stages"`
	Error        string               `json:"error,omitempty"`
	Stats        *entity.DatasetStats `json:"stats,omitempty"`
}

type StageResponse struct {
	Label     string `json:"label"`
	Active    bool   `json:"active"`
	Completed bool   `json:"completed"`
}
