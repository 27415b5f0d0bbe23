package dto

// ErrorResponseDTO is the common error body. Clients never parse it beyond logging.
type ErrorResponseDTO struct {
	Error string `json:"error" example:"session_not_found"`
}

// HealthResponseDTO is the body of GET /health.
type HealthResponseDTO struct {
	Status string `json:"status" example:"ok"`
}
