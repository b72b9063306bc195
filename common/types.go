package common

// ApiResponse is the generic success envelope used by endpoints that return a
// single data payload.
type ApiResponse[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

// ErrorResponse is the failure envelope. Details carries supplementary
// context (upstream gateway bodies, correlation identifiers) when available.
type ErrorResponse struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

func NewErrorResponse(err error) ErrorResponse {
	return ErrorResponse{Success: false, Error: err.Error()}
}
