package service

import (
	"context"
	"sync"

	"kiwi-assistant-core/internal/entity"
	"kiwi-assistant-core/internal/gateway"
)

// nopLogger keeps test output clean.
type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

// fakeGateway gives each test full control over backend behavior.
type fakeGateway struct {
	mu sync.Mutex

	sendResp *gateway.ProcessQueryResponse
	sendErr  error

	loadResp *gateway.LoadDatasetResponse
	loadErr  error
	// When set, LoadDataset signals loadStarted and blocks until
	// loadRelease is closed.
	loadStarted chan struct{}
	loadRelease chan struct{}

	transcript    string
	transcribeErr error

	authOK  bool
	authErr error

	sendCalls int
	loadCalls int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		sendResp: &gateway.ProcessQueryResponse{
			Success:     true,
			Explanation: "Here is what the data shows.",
			Plan:        &entity.QueryPlan{QueryType: "lookup", Table: "sales"},
			Data:        []map[string]interface{}{{"Total": 42}},
			SchemaContext: []gateway.SchemaChunk{
				{Text: "Table 'sales' contains columns: Total"},
			},
		},
		loadResp: &gateway.LoadDatasetResponse{
			Success: true,
			Stats: &entity.DatasetStats{
				TotalTables:  25,
				TotalRecords: 1305,
				SheetCount:   5,
				SheetNames:   []string{"Month", "Profit", "November_Detail", "Calculation_of_Profit", "Freshggies_Shop"},
			},
		},
		transcript: "Analyze the overall profit trends for August.",
		authOK:     true,
	}
}

func (g *fakeGateway) LoadDataset(ctx context.Context, url string) (*gateway.LoadDatasetResponse, error) {
	g.mu.Lock()
	g.loadCalls++
	started := g.loadStarted
	release := g.loadRelease
	resp, err := g.loadResp, g.loadErr
	g.mu.Unlock()

	if started != nil {
		close(started)
		g.mu.Lock()
		g.loadStarted = nil
		g.mu.Unlock()
	}
	if release != nil {
		<-release
	}
	return resp, err
}

func (g *fakeGateway) SendMessage(ctx context.Context, text string) (*gateway.ProcessQueryResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sendCalls++
	return g.sendResp, g.sendErr
}

func (g *fakeGateway) TranscribeAudio(ctx context.Context, audio []byte) (string, error) {
	return g.transcript, g.transcribeErr
}

func (g *fakeGateway) CheckAuth(ctx context.Context) (bool, error) {
	return g.authOK, g.authErr
}
