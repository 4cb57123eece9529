package response

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbaccess/src/core/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func statementTimeout() error {
	err := domain.NewQueryError("SELECT pg_sleep(60)", 1, domain.Retryable, errors.New("canceling statement due to statement timeout"))
	err.Timeout = true
	return err
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{
			name:     "connection",
			err:      domain.NewConnectionError("acquire primary connection", false, domain.Retryable, io.EOF),
			wantCode: http.StatusServiceUnavailable,
			wantBody: "SERVICE_UNAVAILABLE",
		},
		{
			name:     "timeout inside transaction",
			err:      domain.NewTransactionError(-1, "", domain.Retryable, domain.NewConnectionError("acquire", true, domain.Retryable, io.EOF)),
			wantCode: http.StatusServiceUnavailable,
			wantBody: "SERVICE_UNAVAILABLE",
		},
		{
			name:     "query",
			err:      domain.NewQueryError("SELECT secret FROM vault", 1, domain.Permanent, errors.New(`relation "vault" does not exist`)),
			wantCode: http.StatusInternalServerError,
			wantBody: "INTERNAL_ERROR",
		},
		{
			name:     "statement timeout",
			err:      statementTimeout(),
			wantCode: http.StatusServiceUnavailable,
			wantBody: "SERVICE_UNAVAILABLE",
		},
		{
			name:     "plain",
			err:      errors.New("boom"),
			wantCode: http.StatusInternalServerError,
			wantBody: "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			FromError(c, tt.err, "req-1")

			assert.Equal(t, tt.wantCode, w.Code)
			var body Error
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantBody, body.Error.Code)
			assert.Equal(t, "req-1", body.Error.RequestID)
			assert.NotContains(t, w.Body.String(), "vault")
		})
	}
}

func TestOK(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	OK(c, map[string]int{"n": 1})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"n":1}}`, w.Body.String())
}

func TestNotFound(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	NotFound(c, "missing", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":{"code":"NOT_FOUND","message":"missing"}}`, w.Body.String())
}
