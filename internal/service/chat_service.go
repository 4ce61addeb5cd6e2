package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"kiwi-assistant-core/internal/constant"
	"kiwi-assistant-core/internal/dto"
	"kiwi-assistant-core/internal/entity"
	"kiwi-assistant-core/internal/gateway"
	"kiwi-assistant-core/internal/mapper"
	"kiwi-assistant-core/internal/pkg/logger"
	"kiwi-assistant-core/internal/repository/contract"
)

type IChatService interface {
	CreateChat(ctx context.Context, req *dto.CreateChatRequest) (*dto.ChatTabResponse, error)
	SwitchChat(ctx context.Context, id uuid.UUID) (*dto.ChatTabResponse, error)
	DeleteChat(ctx context.Context, id uuid.UUID) error
	Tab(ctx context.Context, id uuid.UUID) (*dto.ChatTabResponse, error)
	Tabs(ctx context.Context) ([]*dto.ChatTabSummaryResponse, error)
	CurrentChat(ctx context.Context) (*dto.ChatTabResponse, error)
	Messages(ctx context.Context) ([]*dto.MessageResponse, error)
	AddMessage(ctx context.Context, content string, role entity.MessageRole, payload *entity.QueryResult) (*dto.MessageResponse, error)
	UpdateMessage(ctx context.Context, id uuid.UUID, req *dto.UpdateMessageRequest) error
	SendMessage(ctx context.Context, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error)
	Transcribe(ctx context.Context, audio []byte) (*dto.TranscribeResponse, error)
	SheetURL(ctx context.Context) (*dto.SheetURLResponse, error)
	SetSheetURL(ctx context.Context, req *dto.SheetURLRequest) (*dto.SheetURLResponse, error)
	CommitDatasetConnection(ctx context.Context, tabId uuid.UUID, url string, stats *entity.DatasetStats) error
	MarkDatasetStatus(ctx context.Context, tabId uuid.UUID, status entity.DatasetStatus) error
	Reset(ctx context.Context) error
}

// chatService owns the tab registry, the single active-tab pointer and the
// visible message log. Tabs are kept most-recently-created first. The visible
// log mirrors the active tab's history; it only diverges while no tab is
// active. The active tab pointer is deliberately not persisted.
type chatService struct {
	mu       sync.Mutex
	tabs     []*entity.ChatTab
	activeId *uuid.UUID
	log      []entity.Message
	config   entity.AppConfig

	repo      contract.IStateRepository
	gw        gateway.IGateway
	publisher IPublisherService
	validate  *validator.Validate
	logger    logger.ILogger
}

func NewChatService(
	repo contract.IStateRepository,
	gw gateway.IGateway,
	publisher IPublisherService,
	log logger.ILogger,
) IChatService {
	s := &chatService{
		repo:      repo,
		gw:        gw,
		publisher: publisher,
		validate:  validator.New(),
		logger:    log,
	}
	s.hydrate()
	return s
}

// hydrate restores the persisted slices. Each slice loads independently; a
// corrupt one falls back to its default without touching the others.
func (s *chatService) hydrate() {
	ctx := context.Background()

	var tabs []*entity.ChatTab
	if found, err := s.repo.Load(ctx, constant.StorageKeyChatTabs, &tabs); err != nil {
		s.logger.Warn("ChatService", "Failed to load chat tabs slice", map[string]interface{}{"error": err.Error()})
	} else if found {
		s.tabs = tabs
	}

	var messages []entity.Message
	if found, err := s.repo.Load(ctx, constant.StorageKeyMessages, &messages); err != nil {
		s.logger.Warn("ChatService", "Failed to load messages slice", map[string]interface{}{"error": err.Error()})
	} else if found {
		s.log = messages
	}

	var cfg entity.AppConfig
	if found, err := s.repo.Load(ctx, constant.StorageKeyConfig, &cfg); err != nil {
		s.logger.Warn("ChatService", "Failed to load config slice", map[string]interface{}{"error": err.Error()})
	} else if found {
		s.config = cfg
	}
}

// Persistence writes are whole-slice overwrites, synchronous, and never
// surfaced to callers. A failed write is logged and the in-memory state
// stays authoritative.
func (s *chatService) persistTabs(ctx context.Context) {
	if err := s.repo.Save(ctx, constant.StorageKeyChatTabs, s.tabs); err != nil {
		s.logger.Error("ChatService", "Failed to persist chat tabs", map[string]interface{}{"error": err.Error()})
	}
}

func (s *chatService) persistMessages(ctx context.Context) {
	if err := s.repo.Save(ctx, constant.StorageKeyMessages, s.log); err != nil {
		s.logger.Error("ChatService", "Failed to persist messages", map[string]interface{}{"error": err.Error()})
	}
}

func (s *chatService) persistConfig(ctx context.Context) {
	if err := s.repo.Save(ctx, constant.StorageKeyConfig, s.config); err != nil {
		s.logger.Error("ChatService", "Failed to persist config", map[string]interface{}{"error": err.Error()})
	}
}

func (s *chatService) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, eventType, data); err != nil {
		s.logger.Warn("ChatService", "Failed to publish state event", map[string]interface{}{
			"event": eventType,
			"error": err.Error(),
		})
	}
}

func (s *chatService) findTab(id uuid.UUID) (int, *entity.ChatTab) {
	for i, tab := range s.tabs {
		if tab.Id == id {
			return i, tab
		}
	}
	return -1, nil
}

func (s *chatService) activeTab() *entity.ChatTab {
	if s.activeId == nil {
		return nil
	}
	_, tab := s.findTab(*s.activeId)
	return tab
}

func copyMessages(src []entity.Message) []entity.Message {
	dst := make([]entity.Message, len(src))
	copy(dst, src)
	return dst
}

func (s *chatService) CreateChat(ctx context.Context, req *dto.CreateChatRequest) (*dto.ChatTabResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	title := req.Title
	if title == "" {
		// Count-based numbering can repeat after deletions. Kept as-is:
		// titles are cosmetic and not unique.
		title = fmt.Sprintf("Chat %d", len(s.tabs)+1)
	}

	tab := &entity.ChatTab{
		Id:            uuid.New(),
		Title:         title,
		Messages:      []entity.Message{},
		CreatedAt:     time.Now(),
		DatasetStatus: entity.DatasetUnconnected,
	}

	// Most-recently-created first.
	s.tabs = append([]*entity.ChatTab{tab}, s.tabs...)
	s.activeId = &tab.Id
	s.log = []entity.Message{}

	s.persistTabs(ctx)
	s.persistMessages(ctx)
	s.publish(ctx, constant.EventChatCreated, map[string]interface{}{"chat_id": tab.Id, "title": tab.Title})

	return mapper.ToChatTabResponse(tab), nil
}

// SwitchChat activates the target tab and replaces the visible log with a
// copy of its history. An unresolvable id is a no-op, not an error.
func (s *chatService) SwitchChat(ctx context.Context, id uuid.UUID) (*dto.ChatTabResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, tab := s.findTab(id)
	if tab == nil {
		return nil, nil
	}

	s.activeId = &tab.Id
	s.log = copyMessages(tab.Messages)

	s.persistMessages(ctx)
	s.publish(ctx, constant.EventChatSwitched, map[string]interface{}{"chat_id": tab.Id})

	return mapper.ToChatTabResponse(tab), nil
}

func (s *chatService) DeleteChat(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, tab := s.findTab(id)
	if tab == nil {
		return ErrChatNotFound
	}

	s.tabs = append(s.tabs[:idx], s.tabs[idx+1:]...)

	if s.activeId != nil && *s.activeId == id {
		if len(s.tabs) > 0 {
			next := s.tabs[0]
			s.activeId = &next.Id
			s.log = copyMessages(next.Messages)
		} else {
			s.activeId = nil
			s.log = []entity.Message{}
		}
		s.persistMessages(ctx)
	}

	s.persistTabs(ctx)
	s.publish(ctx, constant.EventChatDeleted, map[string]interface{}{"chat_id": id})

	return nil
}

func (s *chatService) Tab(ctx context.Context, id uuid.UUID) (*dto.ChatTabResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, tab := s.findTab(id)
	if tab == nil {
		return nil, ErrChatNotFound
	}
	return mapper.ToChatTabResponse(tab), nil
}

func (s *chatService) Tabs(ctx context.Context) ([]*dto.ChatTabSummaryResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*dto.ChatTabSummaryResponse, 0, len(s.tabs))
	for _, tab := range s.tabs {
		active := s.activeId != nil && *s.activeId == tab.Id
		out = append(out, mapper.ToChatTabSummary(tab, active))
	}
	return out, nil
}

func (s *chatService) CurrentChat(ctx context.Context) (*dto.ChatTabResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tab := s.activeTab()
	if tab == nil {
		return nil, nil
	}
	return mapper.ToChatTabResponse(tab), nil
}

func (s *chatService) Messages(ctx context.Context) ([]*dto.MessageResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return mapper.ToMessageResponses(s.log), nil
}

// addMessageLocked appends to the visible log and, when a tab is active,
// mirrors the append into that tab's stored history. Caller holds the lock.
func (s *chatService) addMessageLocked(ctx context.Context, content string, role entity.MessageRole, payload *entity.QueryResult) entity.Message {
	msg := entity.Message{
		Id:        uuid.New(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UnixMilli(),
		Payload:   payload,
	}

	s.log = append(s.log, msg)

	if tab := s.activeTab(); tab != nil {
		tab.Messages = append(tab.Messages, msg)
		now := time.Now()
		tab.UpdatedAt = &now
		s.persistTabs(ctx)
	}
	s.persistMessages(ctx)

	s.publish(ctx, constant.EventMessageAdded, map[string]interface{}{
		"message_id": msg.Id,
		"role":       string(role),
	})

	return msg
}

func (s *chatService) AddMessage(ctx context.Context, content string, role entity.MessageRole, payload *entity.QueryResult) (*dto.MessageResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := s.addMessageLocked(ctx, content, role, payload)
	return mapper.ToMessageResponse(&msg), nil
}

// UpdateMessage merges the patchable fields into the matching message in
// both the visible log and the active tab's history. Unknown ids are a
// no-op.
func (s *chatService) UpdateMessage(ctx context.Context, id uuid.UUID, req *dto.UpdateMessageRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	patch := func(messages []entity.Message) bool {
		for i := range messages {
			if messages[i].Id != id {
				continue
			}
			if req.IsSpeaking != nil {
				messages[i].IsSpeaking = *req.IsSpeaking
			}
			if req.AudioRef != nil {
				messages[i].AudioRef = req.AudioRef
			}
			return true
		}
		return false
	}

	touched := patch(s.log)
	if tab := s.activeTab(); tab != nil {
		if patch(tab.Messages) {
			touched = true
			s.persistTabs(ctx)
		}
	}
	if !touched {
		return nil
	}

	s.persistMessages(ctx)
	s.publish(ctx, constant.EventMessageUpdated, map[string]interface{}{"message_id": id})

	return nil
}

// SendMessage appends the user message, asks the backend for an answer and
// appends the assistant reply. The active tab's dataset must be ready; that
// is the gate that makes questions answerable. A failing backend still
// produces a visible assistant message instead of a silent drop.
func (s *chatService) SendMessage(ctx context.Context, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	s.mu.Lock()
	tab := s.activeTab()
	if tab == nil {
		s.mu.Unlock()
		return nil, ErrNoActiveChat
	}
	if tab.DatasetStatus != entity.DatasetReady {
		s.mu.Unlock()
		return nil, ErrDatasetNotReady
	}
	sent := s.addMessageLocked(ctx, req.Content, entity.RoleUser, nil)
	s.mu.Unlock()

	// The gateway call suspends without holding the lock; other tabs stay
	// usable while an answer is in flight.
	resp, err := s.gw.SendMessage(ctx, req.Content)

	s.mu.Lock()
	defer s.mu.Unlock()

	var reply entity.Message
	switch {
	case err != nil:
		s.logger.Error("ChatService", "Gateway sendMessage failed", map[string]interface{}{"error": err.Error()})
		reply = s.addMessageLocked(ctx, "Sorry, I ran into a network error while processing your request. Please try again.", entity.RoleAssistant, nil)
	case !resp.Success:
		reply = s.addMessageLocked(ctx, "Sorry, I couldn't process that request: "+resp.Error, entity.RoleAssistant, nil)
	default:
		var payload *entity.QueryResult
		if resp.Plan != nil || len(resp.Data) > 0 || len(resp.SchemaContext) > 0 {
			schema := make([]string, 0, len(resp.SchemaContext))
			for _, chunk := range resp.SchemaContext {
				schema = append(schema, chunk.Text)
			}
			payload = &entity.QueryResult{
				Plan:             resp.Plan,
				Rows:             resp.Data,
				SchemaContext:    schema,
				DatasetRefreshed: resp.DataRefreshed,
			}
		}
		reply = s.addMessageLocked(ctx, resp.Explanation, entity.RoleAssistant, payload)
	}

	return &dto.SendMessageResponse{
		Sent:  mapper.ToMessageResponse(&sent),
		Reply: mapper.ToMessageResponse(&reply),
	}, nil
}

func (s *chatService) Transcribe(ctx context.Context, audio []byte) (*dto.TranscribeResponse, error) {
	text, err := s.gw.TranscribeAudio(ctx, audio)
	if err != nil {
		s.logger.Error("ChatService", "Transcription failed", map[string]interface{}{"error": err.Error()})
		return nil, err
	}
	return &dto.TranscribeResponse{Text: text}, nil
}

func (s *chatService) SheetURL(ctx context.Context) (*dto.SheetURLResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return &dto.SheetURLResponse{URL: s.config.SheetURL}, nil
}

// SetSheetURL stores the process-wide default sheet URL (legacy single-sheet
// mode). Per-tab connections supersede it; the value only prefills inputs.
func (s *chatService) SetSheetURL(ctx context.Context, req *dto.SheetURLRequest) (*dto.SheetURLResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	if _, ok := ExtractSheetId(req.URL); !ok {
		return nil, ErrInvalidSheetURL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	url := req.URL
	s.config.SheetURL = &url
	s.persistConfig(ctx)
	s.publish(ctx, constant.EventSheetURLUpdated, map[string]interface{}{"url": url})

	return &dto.SheetURLResponse{URL: s.config.SheetURL}, nil
}

// CommitDatasetConnection attaches a successful dataset load to its tab.
// This is the only entry point through which the connector mutates registry
// state. Once committed, `ready` is sticky for the life of the tab.
func (s *chatService) CommitDatasetConnection(ctx context.Context, tabId uuid.UUID, url string, stats *entity.DatasetStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, tab := s.findTab(tabId)
	if tab == nil {
		return ErrChatNotFound
	}

	tab.DatasetURL = &url
	tab.DatasetStatus = entity.DatasetReady
	tab.DatasetStats = stats
	now := time.Now()
	tab.UpdatedAt = &now

	s.persistTabs(ctx)
	s.publish(ctx, constant.EventDatasetConnected, map[string]interface{}{"chat_id": tabId, "url": url})

	return nil
}

func (s *chatService) MarkDatasetStatus(ctx context.Context, tabId uuid.UUID, status entity.DatasetStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, tab := s.findTab(tabId)
	if tab == nil {
		return ErrChatNotFound
	}

	tab.DatasetStatus = status
	s.persistTabs(ctx)

	if status == entity.DatasetError {
		s.publish(ctx, constant.EventDatasetFailed, map[string]interface{}{"chat_id": tabId})
	}

	return nil
}

// Reset wipes every chat-owned slice. Logout calls it so session boundaries
// never leak data across users of the same client.
func (s *chatService) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tabs = nil
	s.activeId = nil
	s.log = []entity.Message{}
	s.config = entity.AppConfig{}

	for _, key := range []string{constant.StorageKeyChatTabs, constant.StorageKeyMessages, constant.StorageKeyConfig} {
		if err := s.repo.Delete(ctx, key); err != nil {
			s.logger.Error("ChatService", "Failed to clear state slice", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}

	return nil
}
