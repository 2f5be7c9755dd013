package requestid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, incoming string) (string, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	var seen string
	r.GET("/", func(c *gin.Context) {
		seen = Value(c)
		c.Status(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if incoming != "" {
		req.Header.Set(headerKey, incoming)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return seen, rec.Header().Get(headerKey)
}

func TestMiddlewareGeneratesID(t *testing.T) {
	seen, header := serve(t, "")
	require.NotEmpty(t, seen)
	assert.Equal(t, seen, header)
	_, err := uuid.Parse(seen)
	assert.NoError(t, err)
}

func TestMiddlewareKeepsCallerID(t *testing.T) {
	seen, _ := serve(t, "trace-123")
	assert.Equal(t, "trace-123", seen)
}

func TestMiddlewareReplacesOversizedID(t *testing.T) {
	seen, _ := serve(t, strings.Repeat("x", maxLength+1))
	assert.NotEqual(t, strings.Repeat("x", maxLength+1), seen)
	_, err := uuid.Parse(seen)
	assert.NoError(t, err)
}
