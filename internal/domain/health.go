package domain

// ============================================================
// Health & metrics responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
}

// ActivitySummary is returned by GET /v1/metrics/summary.
type ActivitySummary struct {
	Navigations     int64   `json:"navigations"`
	JobsPublished   int64   `json:"jobsPublished"`
	Applications    int64   `json:"applications"`
	Enrollments     int64   `json:"enrollments"`
	VideoCompletion int64   `json:"videoCompletions"`
	CEPLookupErrors int64   `json:"cepLookupErrors"`
	CacheHitRate    float64 `json:"cacheHitRate"`
}

// ============================================================
// Generic API response wrappers
// ============================================================

// ListResponse wraps paginated list results.
type ListResponse[T any] struct {
	Data       []T  `json:"data"`
	Total      int  `json:"total"`
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	TotalPages int  `json:"total_pages"`
	HasMore    bool `json:"has_more"`
}

// Paginate slices items into the requested 1-based page. Out-of-range pages are clamped.
func Paginate[T any](items []T, page, pageSize int) ListResponse[T] {
	if pageSize <= 0 {
		pageSize = len(items)
		if pageSize == 0 {
			pageSize = 1
		}
	}
	totalPages := (len(items) + pageSize - 1) / pageSize
	if page < 1 {
		page = 1
	}
	if totalPages > 0 && page > totalPages {
		page = totalPages
	}
	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}
	data := make([]T, end-start)
	copy(data, items[start:end])
	return ListResponse[T]{
		Data:       data,
		Total:      len(items),
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		HasMore:    page < totalPages,
	}
}

// SuccessResponse wraps a successful single-entity response.
type SuccessResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
	Page    string `json:"page,omitempty"`
}

// SessionResponse is returned by POST /v1/sessions.
type SessionResponse struct {
	SessionID    string `json:"sessionId"`
	SessionToken string `json:"sessionToken"`
	ExpiresIn    int    `json:"expiresIn"`
}
