package types

// SuccessEnvelope is the shape of every successful API response.
type SuccessEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// APIError describes one actionable failure detail.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope is the shape of every failed API response. Data and Errors
// are never populated at the same time.
type ErrorEnvelope struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Errors  []APIError `json:"errors"`
}
