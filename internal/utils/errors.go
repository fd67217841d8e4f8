package utils

import (
	"errors"
	"net/http"

	"ms-canteen/internal/models"
)

var errorStatuses = []struct {
	err     error
	status  int
	message string
	hide    bool // keep wrapped driver text out of the response
}{
	{models.ErrEmployeeNotFound, http.StatusNotFound, "Employee not found", false},
	{models.ErrNoTicketsAvailable, http.StatusConflict, "No tickets available", false},
	{models.ErrInsufficientBalance, http.StatusConflict, "No tickets available", false},
	{models.ErrDuplicateScan, http.StatusConflict, "Duplicate scan in progress", false},
	{models.ErrEmployeeExists, http.StatusConflict, "Employee already exists", false},
	{models.ErrInvalidAmount, http.StatusBadRequest, "Invalid amount", false},
	{models.ErrInvalidBatch, http.StatusBadRequest, "Invalid consumption batch", false},
	{models.ErrInsufficientData, http.StatusUnprocessableEntity, "Not enough data to analyze", false},
	{models.ErrNoMatch, http.StatusUnprocessableEntity, "No matching employee for scan", false},
	{models.ErrSummarizationFailed, http.StatusBadGateway, "Analysis failed", false},
	{models.ErrDeviceError, http.StatusServiceUnavailable, "Scanner unavailable", false},
	{models.ErrTransientFailure, http.StatusServiceUnavailable, "Temporary failure, please retry", true},
}

// StatusForError maps a service error to an HTTP status and a user message.
// Unknown errors are 500 and their text is not exposed.
func StatusForError(err error) (int, string, string) {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			if e.hide {
				return e.status, e.message, e.err.Error()
			}
			return e.status, e.message, err.Error()
		}
	}
	return http.StatusInternalServerError, "Internal server error", "internal error"
}

// WriteError writes the error envelope for err.
func WriteError(w http.ResponseWriter, err error) {
	status, message, detail := StatusForError(err)
	WriteJSON(w, status, ErrorResponse(message, detail))
}
