// Package response writes the JSON envelopes of the HTTP API.
package response

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the body of every non-2xx reply. Reason is a stable
// machine-readable code such as "busy".
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
	Reason  string `json:"reason,omitempty"`
}

// SuccessResponse wraps successful payloads.
type SuccessResponse struct {
	Data any `json:"data"`
}

// PaginatedResponse wraps one page of a list.
type PaginatedResponse struct {
	Data       any `json:"data"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalCount int `json:"totalCount"`
	TotalPages int `json:"totalPages"`
}

// JSON writes data with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			http.Error(w, "failed to encode response", http.StatusInternalServerError)
		}
	}
}

// Success writes a 200 with data.
func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, SuccessResponse{Data: data})
}

// Accepted writes a 202 with data.
func Accepted(w http.ResponseWriter, data any) {
	JSON(w, http.StatusAccepted, SuccessResponse{Data: data})
}

// Error writes an error body with the given status code.
func Error(w http.ResponseWriter, status int, err error) {
	ErrorWithReason(w, status, err, "")
}

// ErrorWithReason writes an error body carrying a reason code.
func ErrorWithReason(w http.ResponseWriter, status int, err error, reason string) {
	JSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: err.Error(),
		Code:    status,
		Reason:  reason,
	})
}

// BadRequest writes a 400.
func BadRequest(w http.ResponseWriter, err error) {
	ErrorWithReason(w, http.StatusBadRequest, err, "invalid_request")
}

// Unauthorized writes a 401.
func Unauthorized(w http.ResponseWriter, err error) {
	ErrorWithReason(w, http.StatusUnauthorized, err, "unauthorized")
}

// NotFound writes a 404.
func NotFound(w http.ResponseWriter, err error) {
	ErrorWithReason(w, http.StatusNotFound, err, "not_found")
}

// Conflict writes a 409.
func Conflict(w http.ResponseWriter, err error, reason string) {
	ErrorWithReason(w, http.StatusConflict, err, reason)
}

// InternalError writes a 500.
func InternalError(w http.ResponseWriter, err error) {
	Error(w, http.StatusInternalServerError, err)
}

// ServiceUnavailable writes a 503.
func ServiceUnavailable(w http.ResponseWriter, err error, reason string) {
	ErrorWithReason(w, http.StatusServiceUnavailable, err, reason)
}

// Paginated writes one page of data.
func Paginated(w http.ResponseWriter, data any, page, pageSize, totalCount int) {
	totalPages := 1
	if pageSize > 0 {
		totalPages = max((totalCount+pageSize-1)/pageSize, 1)
	}

	JSON(w, http.StatusOK, PaginatedResponse{
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	})
}
