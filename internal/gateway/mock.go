package gateway

import (
	"context"
	"fmt"
	"time"

	"kiwi-assistant-core/internal/entity"
)

// MockLatency tunes the simulated network delays of the mock gateway.
// Zero values make every call return immediately, which is what tests use.
type MockLatency struct {
	LoadDataset     time.Duration
	SendMessage     time.Duration
	TranscribeAudio time.Duration
	CheckAuth       time.Duration
}

// DefaultMockLatency mirrors the delays of the real backend closely enough
// for manual testing of the loading flows.
func DefaultMockLatency() MockLatency {
	return MockLatency{
		LoadDataset:     3000 * time.Millisecond,
		SendMessage:     1500 * time.Millisecond,
		TranscribeAudio: 1200 * time.Millisecond,
		CheckAuth:       500 * time.Millisecond,
	}
}

// MockGateway serves canned, backend-shaped payloads. It stands in for the
// analytics backend until one is deployed.
type MockGateway struct {
	latency MockLatency
}

func NewMockGateway(latency MockLatency) *MockGateway {
	return &MockGateway{latency: latency}
}

func (g *MockGateway) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (g *MockGateway) LoadDataset(ctx context.Context, url string) (*LoadDatasetResponse, error) {
	if err := g.sleep(ctx, g.latency.LoadDataset); err != nil {
		return nil, err
	}
	return &LoadDatasetResponse{
		Success: true,
		Stats: &entity.DatasetStats{
			TotalTables:  25,
			TotalRecords: 1305,
			SheetCount:   5,
			SheetNames:   []string{"Month", "Profit", "November_Detail", "Calculation_of_Profit", "Freshggies_Shop"},
			DetectedTables: []entity.DetectedTable{
				{
					TableId:     "t1",
					Title:       "Monthly_Sales_Summary",
					SheetName:   "Month",
					SourceId:    "sheet_123#Month",
					SheetHash:   "abc123hash",
					RowRange:    [2]int{2, 150},
					ColRange:    [2]int{0, 8},
					TotalRows:   148,
					Columns:     []string{"Month", "Revenue", "Cost", "Profit", "Margin"},
					PreviewData: []map[string]interface{}{},
				},
				{
					TableId:     "t2",
					Title:       "Employee_Roster",
					SheetName:   "Staff",
					SourceId:    "sheet_123#Staff",
					SheetHash:   "xyz789hash",
					RowRange:    [2]int{0, 50},
					ColRange:    [2]int{0, 5},
					TotalRows:   50,
					Columns:     []string{"ID", "Name", "Role", "Join Date", "Salary"},
					PreviewData: []map[string]interface{}{},
				},
			},
		},
	}, nil
}

func (g *MockGateway) SendMessage(ctx context.Context, text string) (*ProcessQueryResponse, error) {
	if err := g.sleep(ctx, g.latency.SendMessage); err != nil {
		return nil, err
	}
	return &ProcessQueryResponse{
		Success:     true,
		Explanation: fmt.Sprintf("I've analyzed the data for %q. The trends indicate a positive correlation between fresh produce sales and weekend foot traffic.", text),
		Data: []map[string]interface{}{
			{"Category": "Fresh Fruits", "August Qty": 125, "Total": 820},
			{"Category": "Vegetables", "August Qty": 98, "Total": 450},
			{"Category": "Spices", "August Qty": 45, "Total": 120},
			{"Category": "Dairy", "August Qty": 210, "Total": 950},
		},
		Plan: &entity.QueryPlan{
			QueryType:     "lookup",
			Table:         "Freshggies_Shopify_Sales",
			SelectColumns: []string{"Category", "August Qty", "Total"},
			Metrics:       []string{"Total"},
			Filters: []entity.QueryFilter{
				{Column: "Category", Operator: "LIKE", Value: "%fresh%"},
			},
			Limit:   5,
			GroupBy: []string{"Category"},
			OrderBy: []entity.QueryOrder{
				{Column: "Total", Direction: "DESC"},
			},
		},
		SchemaContext: []SchemaChunk{
			{Text: "Table 'sales' contains columns: Category, Qty, Total..."},
			{Text: "Table 'inventory' links to 'sales' via SKU..."},
		},
		DataRefreshed: false,
	}, nil
}

func (g *MockGateway) TranscribeAudio(ctx context.Context, audio []byte) (string, error) {
	if err := g.sleep(ctx, g.latency.TranscribeAudio); err != nil {
		return "", err
	}
	return "Analyze the overall profit trends for August.", nil
}

func (g *MockGateway) CheckAuth(ctx context.Context) (bool, error) {
	if err := g.sleep(ctx, g.latency.CheckAuth); err != nil {
		return false, err
	}
	return true, nil
}
