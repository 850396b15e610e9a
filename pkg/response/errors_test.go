package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"localdeals/internal/pkg/apperr"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestDescribe(t *testing.T) {
	status, code, msg := Describe(fmt.Errorf("redeem claim c1: %w", apperr.ErrExpired))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, ErrClaimExpired, code)
	assert.Equal(t, "This coupon has already expired.", msg)

	status, code, msg = Describe(apperr.ErrInsufficientBalance)
	assert.Equal(t, ErrInsufficientBalance, code)
	assert.Equal(t, "Insufficient balance.", msg)
	assert.Equal(t, http.StatusOK, status)

	status, code, msg = Describe(errors.New("dial tcp: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, ErrServerInternal, code)
	assert.Equal(t, retryMessage, msg)
}

func TestFromErrorHidesInternalDetails(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	FromError(c, errors.New("pq: password authentication failed"))

	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, body.Message, "password")
	assert.Len(t, c.Errors, 1)
}
