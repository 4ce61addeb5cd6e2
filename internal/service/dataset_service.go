package service

import (
	"context"
	"regexp"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"kiwi-assistant-core/internal/dto"
	"kiwi-assistant-core/internal/entity"
	"kiwi-assistant-core/internal/gateway"
	"kiwi-assistant-core/internal/pkg/logger"
)

// Connector phases. "details" is a drill-down view of "connected", not a
// persisted status; "failed" is the in-flight failure phase reachable only
// from "loading".
const (
	ConnectorIdle      = "idle"
	ConnectorLoading   = "loading"
	ConnectorSuccess   = "success"
	ConnectorConnected = "connected"
	ConnectorDetails   = "details"
	ConnectorFailed    = "failed"
)

var sheetIdPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

// ExtractSheetId pulls a spreadsheet identifier out of user input. Canonical
// share links are parsed; anything longer than 20 characters is accepted as
// a raw identifier; shorter arbitrary strings are rejected.
func ExtractSheetId(raw string) (string, bool) {
	if m := sheetIdPattern.FindStringSubmatch(raw); m != nil {
		return m[1], true
	}
	if len(raw) > 20 {
		return raw, true
	}
	return "", false
}

// ConnectionStage is one step of the staged analysis simulation.
type ConnectionStage struct {
	Label    string
	Duration time.Duration
}

// Timings drives the connector's simulated pacing. Tests inject the instant
// variant so runs complete synchronously.
type Timings struct {
	Stages []ConnectionStage
	Tick   time.Duration
	Grace  time.Duration
}

func DefaultTimings() Timings {
	return Timings{
		Stages: []ConnectionStage{
			{Label: "Validating identifier", Duration: 1500 * time.Millisecond},
			{Label: "Detecting tables", Duration: 2000 * time.Millisecond},
			{Label: "Building snapshot", Duration: 2500 * time.Millisecond},
			{Label: "Generating embeddings", Duration: 3000 * time.Millisecond},
			{Label: "Finalizing context", Duration: 1000 * time.Millisecond},
		},
		Tick:  50 * time.Millisecond,
		Grace: 1500 * time.Millisecond,
	}
}

func InstantTimings() Timings {
	t := DefaultTimings()
	for i := range t.Stages {
		t.Stages[i].Duration = 0
	}
	t.Tick = 0
	t.Grace = 0
	return t
}

type connectorState struct {
	phase        string
	url          string
	sheetId      string
	locked       bool
	progress     float64
	currentStage int
	completed    []bool
	errMsg       string
	stats        *entity.DatasetStats
}

type IDatasetService interface {
	Open(ctx context.Context, tabId uuid.UUID) (*dto.ConnectorViewResponse, error)
	Connect(ctx context.Context, tabId uuid.UUID, req *dto.ConnectDatasetRequest) (*dto.ConnectorViewResponse, error)
	Progress(ctx context.Context, tabId uuid.UUID) (*dto.ConnectorViewResponse, error)
	ViewDetails(ctx context.Context, tabId uuid.UUID) (*dto.ConnectorViewResponse, error)
	Back(ctx context.Context, tabId uuid.UUID) (*dto.ConnectorViewResponse, error)
	Retry(ctx context.Context, tabId uuid.UUID) (*dto.ConnectorViewResponse, error)
	Close(ctx context.Context, tabId uuid.UUID) error
}

// datasetService runs one connection state machine per tab. A connection is
// one-shot: loading cannot be cancelled, and once a tab reaches connected
// its URL is immutable for the life of the tab.
type datasetService struct {
	mu     sync.Mutex
	states map[uuid.UUID]*connectorState

	chatService IChatService
	gw          gateway.IGateway
	timings     Timings
	validate    *validator.Validate
	logger      logger.ILogger
}

func NewDatasetService(
	chatService IChatService,
	gw gateway.IGateway,
	timings Timings,
	log logger.ILogger,
) IDatasetService {
	return &datasetService{
		states:      make(map[uuid.UUID]*connectorState),
		chatService: chatService,
		gw:          gw,
		timings:     timings,
		validate:    validator.New(),
		logger:      log,
	}
}

// Open surfaces the connector for a tab. A tab whose dataset is already
// ready restores straight to connected with the URL locked; everything else
// starts (or resumes) from its current phase.
func (s *datasetService) Open(ctx context.Context, tabId uuid.UUID) (*dto.ConnectorViewResponse, error) {
	tab, err := s.chatService.Tab(ctx, tabId)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[tabId]
	if !ok {
		state = &connectorState{phase: ConnectorIdle, completed: make([]bool, len(s.timings.Stages))}
		s.states[tabId] = state
	}

	if tab.DatasetStatus == entity.DatasetReady && state.phase != ConnectorDetails {
		state.phase = ConnectorConnected
		state.locked = true
		state.progress = 100
		state.stats = tab.DatasetStats
		if tab.DatasetURL != nil {
			state.url = *tab.DatasetURL
		}
		for i := range state.completed {
			state.completed[i] = true
		}
	}

	return s.viewLocked(tabId, state), nil
}

// Connect validates the URL and, from idle, drives the full staged run:
// backend load, sequential stages with monotonic progress, success, grace
// delay, then the single commit into the owning tab. The run is blocking
// and non-cancellable by user action.
func (s *datasetService) Connect(ctx context.Context, tabId uuid.UUID, req *dto.ConnectDatasetRequest) (*dto.ConnectorViewResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	tab, err := s.chatService.Tab(ctx, tabId)
	if err != nil {
		return nil, err
	}
	if tab.DatasetStatus == entity.DatasetReady {
		return nil, ErrConnectionLocked
	}

	s.mu.Lock()
	state, ok := s.states[tabId]
	if !ok {
		state = &connectorState{phase: ConnectorIdle, completed: make([]bool, len(s.timings.Stages))}
		s.states[tabId] = state
	}

	switch state.phase {
	case ConnectorLoading:
		s.mu.Unlock()
		return nil, ErrConnectionInProgress
	case ConnectorIdle:
		// legal
	default:
		s.mu.Unlock()
		return nil, ErrInvalidTransition
	}

	sheetId, ok := ExtractSheetId(req.URL)
	if !ok {
		// Rejected pre-flight: phase stays idle, only the inline error
		// changes.
		state.errMsg = "Please enter a valid Google Sheets URL."
		view := s.viewLocked(tabId, state)
		s.mu.Unlock()
		return view, ErrInvalidSheetURL
	}

	state.phase = ConnectorLoading
	state.url = req.URL
	state.sheetId = sheetId
	state.errMsg = ""
	state.progress = 0
	state.currentStage = 0
	state.completed = make([]bool, len(s.timings.Stages))
	s.mu.Unlock()

	if err := s.chatService.MarkDatasetStatus(ctx, tabId, entity.DatasetLoading); err != nil {
		// Tab deleted between the lookup and here; do not leave the
		// connector stuck in loading.
		s.mu.Lock()
		state.phase = ConnectorIdle
		s.mu.Unlock()
		return nil, err
	}

	resp, gwErr := s.gw.LoadDataset(ctx, req.URL)

	if gwErr != nil || !resp.Success {
		s.mu.Lock()
		state.phase = ConnectorFailed
		if gwErr != nil {
			s.logger.Error("DatasetService", "Dataset load failed", map[string]interface{}{
				"chat_id": tabId,
				"error":   gwErr.Error(),
			})
			state.errMsg = "Could not reach the analytics backend."
		} else {
			state.errMsg = resp.Error
			if state.errMsg == "" {
				state.errMsg = "The backend could not analyze this sheet."
			}
		}
		view := s.viewLocked(tabId, state)
		s.mu.Unlock()

		if err := s.chatService.MarkDatasetStatus(ctx, tabId, entity.DatasetError); err != nil {
			s.logger.Warn("DatasetService", "Failed to mark dataset error", map[string]interface{}{"error": err.Error()})
		}
		return view, nil
	}

	s.runStages(tabId, state)

	s.mu.Lock()
	state.phase = ConnectorSuccess
	state.progress = 100
	state.stats = resp.Stats
	s.mu.Unlock()

	if s.timings.Grace > 0 {
		time.Sleep(s.timings.Grace)
	}

	s.mu.Lock()
	state.phase = ConnectorConnected
	state.locked = true
	s.mu.Unlock()

	if err := s.chatService.CommitDatasetConnection(ctx, tabId, req.URL, resp.Stats); err != nil {
		return nil, err
	}

	s.mu.Lock()
	view := s.viewLocked(tabId, state)
	s.mu.Unlock()
	return view, nil
}

// runStages advances the stages strictly in order: a stage never starts
// before the previous one's simulated duration elapsed, and progress never
// regresses.
func (s *datasetService) runStages(tabId uuid.UUID, state *connectorState) {
	total := len(s.timings.Stages)
	for i, stage := range s.timings.Stages {
		s.mu.Lock()
		state.currentStage = i
		s.mu.Unlock()

		start := float64(i) / float64(total) * 100
		end := float64(i+1) / float64(total) * 100

		if stage.Duration > 0 && s.timings.Tick > 0 {
			ticks := int(stage.Duration / s.timings.Tick)
			for t := 1; t <= ticks; t++ {
				time.Sleep(s.timings.Tick)
				pct := start + (end-start)*float64(t)/float64(ticks)
				s.mu.Lock()
				if pct > state.progress {
					state.progress = pct
				}
				s.mu.Unlock()
			}
		} else if stage.Duration > 0 {
			time.Sleep(stage.Duration)
		}

		s.mu.Lock()
		if end > state.progress {
			state.progress = end
		}
		state.completed[i] = true
		s.mu.Unlock()
	}
}

func (s *datasetService) Progress(ctx context.Context, tabId uuid.UUID) (*dto.ConnectorViewResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[tabId]
	if !ok {
		return nil, ErrChatNotFound
	}
	return s.viewLocked(tabId, state), nil
}

func (s *datasetService) ViewDetails(ctx context.Context, tabId uuid.UUID) (*dto.ConnectorViewResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[tabId]
	if !ok || state.phase != ConnectorConnected {
		return nil, ErrInvalidTransition
	}
	state.phase = ConnectorDetails
	return s.viewLocked(tabId, state), nil
}

func (s *datasetService) Back(ctx context.Context, tabId uuid.UUID) (*dto.ConnectorViewResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[tabId]
	if !ok || state.phase != ConnectorDetails {
		return nil, ErrInvalidTransition
	}
	state.phase = ConnectorConnected
	return s.viewLocked(tabId, state), nil
}

// Retry returns a failed connector to idle so a corrected URL can be
// submitted; the tab's dataset status drops back to unconnected.
func (s *datasetService) Retry(ctx context.Context, tabId uuid.UUID) (*dto.ConnectorViewResponse, error) {
	s.mu.Lock()
	state, ok := s.states[tabId]
	if !ok || state.phase != ConnectorFailed {
		s.mu.Unlock()
		return nil, ErrInvalidTransition
	}
	state.phase = ConnectorIdle
	state.errMsg = ""
	state.progress = 0
	state.currentStage = 0
	state.completed = make([]bool, len(s.timings.Stages))
	view := s.viewLocked(tabId, state)
	s.mu.Unlock()

	if err := s.chatService.MarkDatasetStatus(ctx, tabId, entity.DatasetUnconnected); err != nil {
		return nil, err
	}
	return view, nil
}

// Close dismisses the connector surface. An in-flight run cannot be
// abandoned by closing; everything else discards the transient state (a
// connected tab restores to connected on the next Open).
func (s *datasetService) Close(ctx context.Context, tabId uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[tabId]
	if !ok {
		return nil
	}
	if state.phase == ConnectorLoading {
		return ErrConnectionInProgress
	}
	delete(s.states, tabId)
	return nil
}

func (s *datasetService) viewLocked(tabId uuid.UUID, state *connectorState) *dto.ConnectorViewResponse {
	stages := make([]*dto.StageResponse, 0, len(s.timings.Stages))
	for i, stage := range s.timings.Stages {
		stages = append(stages, &dto.StageResponse{
			Label:     stage.Label,
			Active:    state.phase == ConnectorLoading && state.currentStage == i,
			Completed: i < len(state.completed) && state.completed[i],
		})
	}
	return &dto.ConnectorViewResponse{
		TabId:        tabId,
		Status:       state.phase,
		URL:          state.url,
		Locked:       state.locked,
		Progress:     state.progress,
		CurrentStage: state.currentStage,
		Stages:       stages,
		Error:        state.errMsg,
		Stats:        state.stats,
	}
}
