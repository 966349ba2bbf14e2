package models

// ErrorResponse is used in @Failure for error responses
type ErrorResponse struct {
	Error   string `json:"error" example:"Failed to submit quote"`
	Details string `json:"details,omitempty" example:"base_price: must be greater than 0, got 0"`
}

// MessageResponse is used in @Success for endpoints that only confirm an action
type MessageResponse struct {
	Message string `json:"message" example:"Vendor deleted successfully"`
}
