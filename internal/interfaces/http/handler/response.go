package handler

import "github.com/shopfloor/backend/internal/interfaces/http/dto"

// APIResponse is the generic envelope referenced by swagger annotations.
// Handlers write dto.Response at runtime; this typed mirror exists so the
// generated docs show the concrete payload shape.
// @Description Standard API response wrapper with typed data field
type APIResponse[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
	Meta    *dto.Meta      `json:"meta,omitempty"`
}

// ErrorResponse is the error envelope referenced by swagger annotations.
// @Description Standard error response
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
}

// SuccessResponse is the bare acknowledgement envelope, used by void and
// delete operations that return no payload.
// @Description Simple success response without data
type SuccessResponse struct {
	Success bool `json:"success" example:"true"`
}

// CountData carries a single count, e.g. open moves for a partner.
// @Description Count data
type CountData struct {
	Count int64 `json:"count"`
}

// StatusCountData carries record counts keyed by status name.
// @Description Record counts keyed by status
type StatusCountData struct {
	Counts map[string]int64 `json:"counts"`
}
