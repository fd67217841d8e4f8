package utils

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-canteen/internal/models"
)

func TestGenerateTicketIDIsDerivedFromIssuanceTime(t *testing.T) {
	issuedAt := time.Date(2026, 3, 2, 12, 30, 0, 0, time.UTC)

	id := GenerateTicketID(issuedAt)

	assert.Regexp(t, regexp.MustCompile(`^tkt_1772454600000_\d{6}$`), id)
}

func TestGenerateTicketIDUniqueWithinSameInstant(t *testing.T) {
	issuedAt := time.Now()
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		seen[GenerateTicketID(issuedAt)] = true
	}
	assert.Greater(t, len(seen), 45)
}

func TestParseTimeParam(t *testing.T) {
	zero, err := ParseTimeParam("")
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	day, err := ParseTimeParam("2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-02", DayKey(day))

	ts, err := ParseTimeParam("2026-03-02T23:30:00-02:00")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-03", DayKey(ts))

	_, err = ParseTimeParam("yesterday")
	assert.Error(t, err)
}

func TestParseUpperTimeParamCoversWholeDay(t *testing.T) {
	end, err := ParseUpperTimeParam("2026-10-17")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC), end)

	ts, err := ParseUpperTimeParam("2026-10-17T12:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC), ts)

	zero, err := ParseUpperTimeParam("")
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	_, err = ParseUpperTimeParam("later")
	assert.Error(t, err)
}

func TestStatusForError(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("wrapped: %w", models.ErrEmployeeNotFound), http.StatusNotFound},
		{models.ErrNoTicketsAvailable, http.StatusConflict},
		{models.ErrInvalidAmount, http.StatusBadRequest},
		{models.ErrInsufficientData, http.StatusUnprocessableEntity},
		{models.ErrSummarizationFailed, http.StatusBadGateway},
		{models.ErrTransientFailure, http.StatusServiceUnavailable},
		{errors.New("pq: connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		status, _, _ := StatusForError(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
	}

	_, _, detail := StatusForError(errors.New("pq: password authentication failed"))
	assert.Equal(t, "internal error", detail)
}

func TestStatusForErrorHidesTransientCause(t *testing.T) {
	err := fmt.Errorf("%w: gave up after 5 attempts: %v", models.ErrTransientFailure,
		errors.New(`pq: could not serialize access due to concurrent update on "employees"`))

	status, message, detail := StatusForError(err)

	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "Temporary failure, please retry", message)
	assert.Equal(t, models.ErrTransientFailure.Error(), detail)
	assert.NotContains(t, detail, "pq:")

	_, _, detail = StatusForError(fmt.Errorf("%w: E-404", models.ErrEmployeeNotFound))
	assert.Contains(t, detail, "E-404")
}
