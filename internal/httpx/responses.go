package httpx

import (
	"encoding/json"
	"log"
	"net/http"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Code      string        `json:"code"`
	Message   string        `json:"message"`
	Error     string        `json:"error,omitempty"`
	Details   []ErrorDetail `json:"details,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
}

type ErrorDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

func JSONSuccess(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

func JSONSuccessCreated(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

func JSONSuccessNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func JSONError(w http.ResponseWriter, r *http.Request, statusCode int, code string, message string, details []ErrorDetail) {
	JSON(w, statusCode, ErrorResponse{
		Code:      code,
		Message:   message,
		Details:   details,
		RequestID: RequestIDFrom(r),
	})
}

// JSONInternalError logs err and reports a 500 that passes the underlying error message through.
func JSONInternalError(w http.ResponseWriter, r *http.Request, message string, err error) {
	log.Printf("internal error: request_id=%s message=%q error=%v", RequestIDFrom(r), message, err)

	resp := ErrorResponse{
		Code:      "INTERNAL_ERROR",
		Message:   message,
		RequestID: RequestIDFrom(r),
	}
	if err != nil {
		resp.Error = err.Error()
	}
	JSON(w, http.StatusInternalServerError, resp)
}
