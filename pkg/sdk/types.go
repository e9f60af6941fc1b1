package inkwell

import "time"

// ChatTurn is one prior turn of the conversation.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AskRequest is the question payload for POST /v1/ask.
type AskRequest struct {
	UserID      string     `json:"user_id"`
	Message     string     `json:"message"`
	Timezone    string     `json:"timezone,omitempty"`
	History     []ChatTurn `json:"history,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	StrictDates bool       `json:"strict_dates,omitempty"`
}

// Source is a journal entry the answer draws on.
type Source struct {
	ID      string    `json:"id"`
	Date    time.Time `json:"date"`
	Snippet string    `json:"snippet"`
	Method  string    `json:"method"`
}

// Diagnostic carries failure metadata when the pipeline degraded.
type Diagnostic struct {
	Stage string    `json:"stage"`
	At    time.Time `json:"at"`
}

// AskResponse is the answer returned by the API.
type AskResponse struct {
	RequestID    string      `json:"request_id"`
	Answer       string      `json:"answer"`
	Complexity   string      `json:"complexity,omitempty"`
	ResponseType string      `json:"response_type,omitempty"`
	Sources      []Source    `json:"sources,omitempty"`
	Cached       bool        `json:"cached,omitempty"`
	Diagnostic   *Diagnostic `json:"diagnostic,omitempty"`
}

// HealthStatus is the GET /health payload.
type HealthStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
