package service

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"

	"kiwi-assistant-core/internal/constant"
	"kiwi-assistant-core/internal/dto"
	"kiwi-assistant-core/internal/entity"
	"kiwi-assistant-core/internal/gateway"
	"kiwi-assistant-core/internal/pkg/logger"
	"kiwi-assistant-core/internal/repository/contract"
	"kiwi-assistant-core/pkg/events"
	pktNats "kiwi-assistant-core/pkg/nats"
)

type ISessionService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	Logout(ctx context.Context) error
	Status(ctx context.Context) (*dto.AuthStatusResponse, error)
}

// sessionService holds the authentication slice. Login is a pure state
// transition: credential checking is a backend concern reached through
// Gateway.CheckAuth, not done here.
type sessionService struct {
	mu    sync.Mutex
	state entity.AuthState

	repo           contract.IStateRepository
	chatService    IChatService
	gw             gateway.IGateway
	publisher      IPublisherService
	eventPublisher *pktNats.Publisher
	validate       *validator.Validate
	logger         logger.ILogger
	jwtSecret      string
	tokenExpiry    time.Duration
}

func NewSessionService(
	repo contract.IStateRepository,
	chatService IChatService,
	gw gateway.IGateway,
	publisher IPublisherService,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
	jwtSecret string,
	tokenExpiry time.Duration,
) ISessionService {
	s := &sessionService{
		repo:           repo,
		chatService:    chatService,
		gw:             gw,
		publisher:      publisher,
		eventPublisher: eventPublisher,
		validate:       validator.New(),
		logger:         log,
		jwtSecret:      jwtSecret,
		tokenExpiry:    tokenExpiry,
	}
	s.hydrate()
	return s
}

func (s *sessionService) hydrate() {
	var state entity.AuthState
	found, err := s.repo.Load(context.Background(), constant.StorageKeyAuth, &state)
	if err != nil {
		s.logger.Warn("SessionService", "Failed to load auth slice", map[string]interface{}{"error": err.Error()})
		return
	}
	if found {
		s.state = state
	}
}

func (s *sessionService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	claims := jwt.MapClaims{
		"username": req.Username,
		"exp":      time.Now().Add(s.tokenExpiry).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	username := req.Username
	s.state = entity.AuthState{
		IsAuthenticated: true,
		Username:        &username,
	}
	if err := s.repo.Save(ctx, constant.StorageKeyAuth, s.state); err != nil {
		s.logger.Error("SessionService", "Failed to persist auth slice", map[string]interface{}{"error": err.Error()})
	}
	s.mu.Unlock()

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, constant.EventUserLogin, map[string]interface{}{"username": req.Username}); err != nil {
			s.logger.Warn("SessionService", "Failed to publish login event", map[string]interface{}{"error": err.Error()})
		}
	}

	// Mirror the event to the external bus when one is wired. Auxiliary: a
	// failure must not fail the login.
	if s.eventPublisher != nil {
		evt := events.BaseEvent{
			Type:       constant.EventUserLogin,
			Data:       map[string]interface{}{"username": req.Username},
			OccurredAt: time.Now(),
		}
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			s.logger.Warn("SessionService", "Failed to publish login event to NATS", map[string]interface{}{"error": err.Error()})
		}
	}

	return &dto.LoginResponse{
		AccessToken: signedToken,
		Username:    req.Username,
	}, nil
}

// Logout resets the auth slice and cascades: tabs, messages and config are
// wiped so nothing leaks to the next user of this client.
func (s *sessionService) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.state = entity.AuthState{}
	if err := s.repo.Delete(ctx, constant.StorageKeyAuth); err != nil {
		s.logger.Error("SessionService", "Failed to clear auth slice", map[string]interface{}{"error": err.Error()})
	}
	s.mu.Unlock()

	if err := s.chatService.Reset(ctx); err != nil {
		return err
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, constant.EventUserLogout, map[string]interface{}{}); err != nil {
			s.logger.Warn("SessionService", "Failed to publish logout event", map[string]interface{}{"error": err.Error()})
		}
	}

	return nil
}

// Status reports the local auth slice together with the backend's view. An
// unreachable backend does not flip local state; it is only reported.
func (s *sessionService) Status(ctx context.Context) (*dto.AuthStatusResponse, error) {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()

	backendOK, err := s.gw.CheckAuth(ctx)
	reached := err == nil
	if err != nil {
		s.logger.Warn("SessionService", "Auth status check failed", map[string]interface{}{"error": err.Error()})
	}

	authenticated := state.IsAuthenticated
	if reached && !backendOK {
		authenticated = false
	}

	return &dto.AuthStatusResponse{
		IsAuthenticated: authenticated,
		Username:        state.Username,
		BackendReached:  reached,
	}, nil
}
