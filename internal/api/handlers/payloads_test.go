package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"agri-market-api-server/internal/ledger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantityInputUnmarshal(t *testing.T) {
	cases := []struct {
		name      string
		input     string
		wantValue float64
		wantUnit  string
	}{
		{"bare number", `250`, 250, ""},
		{"object", `{"value": 2, "unit": "quintal"}`, 2, "quintal"},
		{"object without unit", `{"value": 75}`, 75, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var q QuantityInput
			require.NoError(t, json.Unmarshal([]byte(tc.input), &q))
			assert.Equal(t, tc.wantValue, q.Value)
			assert.Equal(t, tc.wantUnit, q.Unit)
		})
	}
}

func TestQuantityInputUnmarshalRejectsGarbage(t *testing.T) {
	var q QuantityInput
	assert.Error(t, json.Unmarshal([]byte(`"fifty"`), &q))
}

func TestRespondLedgerError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"crop not found", ledger.ErrCropNotFound, http.StatusNotFound},
		{"request not found", ledger.ErrRequestNotFound, http.StatusNotFound},
		{"crop unavailable", ledger.ErrCropUnavailable, http.StatusBadRequest},
		{"invalid transition", &ledger.InvalidTransitionError{
			RequestID: "REQ-ABCD1234",
			Expected:  []string{"pending"},
			Actual:    "cancelled",
		}, http.StatusBadRequest},
		{"unexpected", assert.AnError, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(recorder)

			respondLedgerError(c, tc.err)

			assert.Equal(t, tc.wantStatus, recorder.Code)
		})
	}
}

func TestInvalidTransitionMessageReachesClient(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)

	respondLedgerError(c, &ledger.InvalidTransitionError{
		RequestID: "REQ-ABCD1234",
		Expected:  []string{"farmer_countered"},
		Actual:    "cancelled",
	})

	var body map[string]string
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "farmer_countered")
	assert.Contains(t, body["error"], "cancelled")
}

func TestNormalizeMobile(t *testing.T) {
	assert.Equal(t, "9876543210", normalizeMobile("+919876543210"))
	assert.Equal(t, "9876543210", normalizeMobile("9876543210"))
	assert.Equal(t, "43210", normalizeMobile("43210"))
}
