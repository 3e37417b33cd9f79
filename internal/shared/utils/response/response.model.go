package response

type StandardApiResponse struct {
	Status     string      `json:"status"`           // "success" or "error"
	StatusCode int         `json:"status_code"`      // HTTP status code
	Message    string      `json:"message"`          // Human-readable message
	Data       interface{} `json:"data,omitempty"`   // Payload for success
	Errors     interface{} `json:"errors,omitempty"` // Validation or error details
}

// ErrorResponse is the body written for classified failures.
type ErrorResponse struct {
	OK             bool        `json:"ok"`
	Error          string      `json:"error"`
	Code           string      `json:"code"`
	UpstreamStatus int         `json:"upstreamStatus,omitempty"`
	Details        interface{} `json:"details,omitempty"`
}
