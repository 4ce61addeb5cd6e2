package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPGateway talks to a deployed analytics backend over REST. Endpoints
// mirror the backend's route names: /load_data, /query, /transcribe,
// /auth/status.
type HTTPGateway struct {
	BaseURL string
	client  *http.Client
}

func NewHTTPGateway(baseURL string, timeout time.Duration) *HTTPGateway {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPGateway{
		BaseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (g *HTTPGateway) postJSON(ctx context.Context, path string, payload interface{}, dest interface{}) error {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s%s", g.BaseURL, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend error (%d): %s", resp.StatusCode, string(bodyBytes))
	}

	return json.Unmarshal(bodyBytes, dest)
}

type loadDatasetRequest struct {
	URL string `json:"url"`
}

func (g *HTTPGateway) LoadDataset(ctx context.Context, url string) (*LoadDatasetResponse, error) {
	var out LoadDatasetResponse
	if err := g.postJSON(ctx, "/load_data", loadDatasetRequest{URL: url}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type processQueryRequest struct {
	Question string `json:"question"`
}

func (g *HTTPGateway) SendMessage(ctx context.Context, text string) (*ProcessQueryResponse, error) {
	var out ProcessQueryResponse
	if err := g.postJSON(ctx, "/query", processQueryRequest{Question: text}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type transcribeResponse struct {
	Text string `json:"text"`
}

func (g *HTTPGateway) TranscribeAudio(ctx context.Context, audio []byte) (string, error) {
	endpoint := fmt.Sprintf("%s/transcribe", g.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(audio))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transcription error (%d): %s", resp.StatusCode, string(bodyBytes))
	}

	var out transcribeResponse
	if err := json.Unmarshal(bodyBytes, &out); err != nil {
		return "", err
	}
	return out.Text, nil
}

type authStatusResponse struct {
	Authenticated bool `json:"authenticated"`
}

func (g *HTTPGateway) CheckAuth(ctx context.Context) (bool, error) {
	endpoint := fmt.Sprintf("%s/auth/status", g.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, err
	}

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("auth status error (%d): %s", resp.StatusCode, string(bodyBytes))
	}

	var out authStatusResponse
	if err := json.Unmarshal(bodyBytes, &out); err != nil {
		return false, err
	}
	return out.Authenticated, nil
}
