package domain

// ImportResult reports what POST /v1/admin/import did with each key of a dump.
type ImportResult struct {
	Imported []string          `json:"imported"`
	Skipped  map[string]string `json:"skipped,omitempty"`
}
