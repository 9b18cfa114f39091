package api

type ErrorResponse struct {
	Error   string       `json:"error" example:"something went wrong"`
	Details []FieldError `json:"details,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message" example:"ok"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

type CountResponse struct {
	Count int `json:"count" example:"1"`
}
