package entity

// AppConfig holds the process-wide default sheet URL (legacy single-sheet
// mode). Per-tab dataset connections supersede it; the value only prefills
// the connector input.
type AppConfig struct {
	SheetURL *string `json:"googleSheetUrl"`
}
