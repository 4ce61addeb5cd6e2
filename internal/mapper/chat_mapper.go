package mapper

import (
	"kiwi-assistant-core/internal/dto"
	"kiwi-assistant-core/internal/entity"
)

func ToMessageResponse(m *entity.Message) *dto.MessageResponse {
	return &dto.MessageResponse{
		Id:         m.Id,
		Role:       m.Role,
		Content:    m.Content,
		Timestamp:  m.Timestamp,
		AudioRef:   m.AudioRef,
		IsSpeaking: m.IsSpeaking,
		Payload:    m.Payload,
	}
}

func ToMessageResponses(messages []entity.Message) []*dto.MessageResponse {
	out := make([]*dto.MessageResponse, 0, len(messages))
	for i := range messages {
		out = append(out, ToMessageResponse(&messages[i]))
	}
	return out
}

func ToChatTabResponse(tab *entity.ChatTab) *dto.ChatTabResponse {
	return &dto.ChatTabResponse{
		Id:            tab.Id,
		Title:         tab.Title,
		Messages:      ToMessageResponses(tab.Messages),
		CreatedAt:     tab.CreatedAt,
		UpdatedAt:     tab.UpdatedAt,
		DatasetURL:    tab.DatasetURL,
		DatasetStatus: tab.DatasetStatus,
		DatasetStats:  tab.DatasetStats,
	}
}

func ToChatTabSummary(tab *entity.ChatTab, active bool) *dto.ChatTabSummaryResponse {
	return &dto.ChatTabSummaryResponse{
		Id:            tab.Id,
		Title:         tab.Title,
		MessageCount:  len(tab.Messages),
		CreatedAt:     tab.CreatedAt,
		UpdatedAt:     tab.UpdatedAt,
		DatasetStatus: tab.DatasetStatus,
		Active:        active,
	}
}
