package dto

// ErrorResponse is the body returned for every rejected request.
type ErrorResponse struct {
	Errors []string `json:"errors"`
}
