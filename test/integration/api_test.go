package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kiwi-assistant-core/internal/bootstrap"
	"kiwi-assistant-core/internal/config"
	"kiwi-assistant-core/internal/server"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	t.Setenv("JWT_SECRET", "kiwi-dev-secret")

	cfg := &config.Config{
		App: config.AppConfig{
			Port:               "0",
			Environment:        "test",
			LogFilePath:        t.TempDir() + "/app.log",
			CorsAllowedOrigins: "http://localhost:5173",
			StateTopicName:     "STATE_EVENTS",
		},
		Auth: config.AuthConfig{
			JWTSecret:   "kiwi-dev-secret",
			TokenExpiry: time.Hour,
		},
		Storage: config.StorageConfig{
			KeyPrefix: "ceo_assistant_test",
		},
		Gateway: config.GatewayConfig{
			Mode: "mock",
		},
		Dataset: config.DatasetConfig{
			Instant: true,
		},
	}

	container := bootstrap.NewContainer(cfg)
	srv := server.New(cfg, container)
	return srv.GetApp()
}

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, 30000)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env), "body: %s", string(raw))
	return resp.StatusCode, env
}

func login(t *testing.T, app *fiber.App) string {
	t.Helper()
	status, env := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "maria"})
	require.Equal(t, http.StatusOK, status)

	var data struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.AccessToken)
	return data.AccessToken
}

func TestChatRoutesRequireToken(t *testing.T) {
	app := newTestApp(t)

	status, _ := doJSON(t, app, http.MethodGet, "/api/chats/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestFullConversationFlow(t *testing.T) {
	app := newTestApp(t)
	token := login(t, app)

	// 1. Create a chat
	status, env := doJSON(t, app, http.MethodPost, "/api/chats/", token, map[string]string{})
	require.Equal(t, http.StatusCreated, status)

	var tab struct {
		Id            string `json:"id"`
		Title         string `json:"title"`
		DatasetStatus string `json:"dataset_status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &tab))
	assert.Equal(t, "Chat 1", tab.Title)
	assert.Equal(t, "unconnected", tab.DatasetStatus)

	// 2. Sending before the dataset is connected is rejected
	status, env = doJSON(t, app, http.MethodPost, "/api/chats/messages", token, map[string]string{"content": "hello"})
	assert.Equal(t, http.StatusPreconditionFailed, status)
	assert.False(t, env.Success)

	// 3. Connect the dataset (instant timings)
	sheetURL := "https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms/edit"
	path := fmt.Sprintf("/api/chats/%s/dataset/connect", tab.Id)
	status, env = doJSON(t, app, http.MethodPost, path, token, map[string]string{"url": sheetURL})
	require.Equal(t, http.StatusOK, status)

	var connector struct {
		Status   string  `json:"status"`
		Progress float64 `json:"progress"`
		Locked   bool    `json:"locked"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &connector))
	assert.Equal(t, "connected", connector.Status)
	assert.Equal(t, float64(100), connector.Progress)
	assert.True(t, connector.Locked)

	// 4. The same send now succeeds with a user + assistant pair
	status, env = doJSON(t, app, http.MethodPost, "/api/chats/messages", token, map[string]string{"content": "what are the totals?"})
	require.Equal(t, http.StatusOK, status)

	var send struct {
		Sent  struct{ Role string } `json:"sent"`
		Reply struct {
			Role    string `json:"role"`
			Payload *struct {
				Plan *struct {
					QueryType string `json:"query_type"`
				} `json:"plan"`
			} `json:"payload"`
		} `json:"reply"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &send))
	assert.Equal(t, "user", send.Sent.Role)
	assert.Equal(t, "assistant", send.Reply.Role)
	require.NotNil(t, send.Reply.Payload)
	require.NotNil(t, send.Reply.Payload.Plan)
	assert.Equal(t, "lookup", send.Reply.Payload.Plan.QueryType)

	// 5. History holds exactly the two messages
	status, env = doJSON(t, app, http.MethodGet, "/api/chats/messages", token, nil)
	require.Equal(t, http.StatusOK, status)
	var messages []json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data, &messages))
	assert.Len(t, messages, 2)
}

func TestMalformedSheetURLIsRejectedInline(t *testing.T) {
	app := newTestApp(t)
	token := login(t, app)

	_, env := doJSON(t, app, http.MethodPost, "/api/chats/", token, map[string]string{})
	var tab struct {
		Id string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &tab))

	path := fmt.Sprintf("/api/chats/%s/dataset/connect", tab.Id)
	status, env := doJSON(t, app, http.MethodPost, path, token, map[string]string{"url": "nope"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, env.Success)

	var connector struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &connector))
	assert.Equal(t, "idle", connector.Status)
	assert.NotEmpty(t, connector.Error)
}

func TestDeleteChatEndToEnd(t *testing.T) {
	app := newTestApp(t)
	token := login(t, app)

	_, env := doJSON(t, app, http.MethodPost, "/api/chats/", token, map[string]string{})
	var tab struct {
		Id string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &tab))

	doJSON(t, app, http.MethodPost, "/api/chats/messages", token, map[string]string{"content": "hi"})

	status, _ := doJSON(t, app, http.MethodDelete, "/api/chats/"+tab.Id, token, nil)
	require.Equal(t, http.StatusOK, status)

	status, env = doJSON(t, app, http.MethodGet, "/api/chats/", token, nil)
	require.Equal(t, http.StatusOK, status)
	var tabs []json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data, &tabs))
	assert.Empty(t, tabs)

	status, env = doJSON(t, app, http.MethodGet, "/api/chats/messages", token, nil)
	require.Equal(t, http.StatusOK, status)
	var messages []json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data, &messages))
	assert.Empty(t, messages)
}

func TestLogoutClearsStateAcrossRequests(t *testing.T) {
	app := newTestApp(t)
	token := login(t, app)

	doJSON(t, app, http.MethodPost, "/api/chats/", token, map[string]string{})

	status, _ := doJSON(t, app, http.MethodPost, "/api/auth/logout", "", nil)
	require.Equal(t, http.StatusOK, status)

	status, env := doJSON(t, app, http.MethodGet, "/api/chats/", token, nil)
	require.Equal(t, http.StatusOK, status)
	var tabs []json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data, &tabs))
	assert.Empty(t, tabs)

	status, env = doJSON(t, app, http.MethodGet, "/api/auth/status", "", nil)
	require.Equal(t, http.StatusOK, status)
	var auth struct {
		IsAuthenticated bool `json:"isAuthenticated"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &auth))
	assert.False(t, auth.IsAuthenticated)
}
