package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorStatus(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "missing event", err: fmt.Errorf("%w: event %q", bracket.ErrNotFound, "cup"), expected: http.StatusNotFound},
		{name: "reported twice", err: fmt.Errorf("%w: match %q", bracket.ErrAlreadyCompleted, "R1M1"), expected: http.StatusConflict},
		{name: "waiting on feeder", err: bracket.ErrMatchNotReady, expected: http.StatusConflict},
		{name: "bad score", err: bracket.ErrInconsistentResult, expected: http.StatusUnprocessableEntity},
		{name: "one entrant", err: bracket.ErrInsufficientEntrants, expected: http.StatusBadRequest},
		{name: "unknown format", err: bracket.ErrUnsupportedFormat, expected: http.StatusBadRequest},
		{name: "duplicate id", err: bracket.ErrInvalidEntrant, expected: http.StatusBadRequest},
		{name: "store failure", err: errors.New("database is locked"), expected: http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Error(rec, "Failed", tc.err)

			assert.Equal(t, tc.expected, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body errorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			if tc.expected == http.StatusInternalServerError {
				assert.Equal(t, "Internal Server Error", body.Error)
			} else {
				assert.Equal(t, tc.err.Error(), body.Error)
			}
		})
	}
}
