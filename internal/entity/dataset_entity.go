package entity

// DatasetStats is produced atomically by a successful dataset load and is
// immutable once attached to a tab. Replacing it requires a fresh load.
type DatasetStats struct {
	TotalTables    int             `json:"totalTables"`
	TotalRecords   int             `json:"totalRecords"`
	SheetCount     int             `json:"sheetCount"`
	SheetNames     []string        `json:"sheets"`
	DetectedTables []DetectedTable `json:"detectedTables"`
}

// DetectedTable describes one table the backend located inside a sheet.
type DetectedTable struct {
	TableId     string                   `json:"table_id"`
	Title       string                   `json:"title"`
	SheetName   string                   `json:"sheet_name"`
	SourceId    string                   `json:"source_id"`
	SheetHash   string                   `json:"sheet_hash"`
	RowRange    [2]int                   `json:"row_range"`
	ColRange    [2]int                   `json:"col_range"`
	TotalRows   int                      `json:"total_rows"`
	Columns     []string                 `json:"columns"`
	PreviewData []map[string]interface{} `json:"preview_data"`
}
