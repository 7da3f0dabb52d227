package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimit(t *testing.T) {
	rl := NewRateLimiter(60, 2)
	r := gin.New()
	r.Use(rl.RateLimit())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	first := map[string]string{"X-Forwarded-For": "10.0.0.1"}
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/ping", first).Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/ping", first).Code)

	w := perform(r, http.MethodGet, "/ping", first)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), `"kind":"throttled"`)
	assert.Contains(t, w.Body.String(), `"sub_kind":"rate_limited"`)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	other := map[string]string{"X-Forwarded-For": "10.0.0.2"}
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/ping", other).Code)
}

func TestRateLimiter_RefillsAndPrunes(t *testing.T) {
	rl := NewRateLimiter(60, 1)
	now := time.Now()
	rl.now = func() time.Time { return now }

	assert.True(t, rl.allow("a"))
	assert.False(t, rl.allow("a"))

	now = now.Add(time.Second)
	assert.True(t, rl.allow("a"))

	assert.True(t, rl.allow("b"))
	assert.Equal(t, 2, rl.visitorCount())

	now = now.Add(10 * time.Minute)
	rl.prune()
	assert.Equal(t, 0, rl.visitorCount())
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := perform(r, http.MethodGet, "/", nil)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, w.Header().Get("Content-Security-Policy"))
}

func TestRequestID(t *testing.T) {
	var seen string
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		seen = c.GetString(RequestIDKey)
		c.Status(http.StatusOK)
	})

	w := perform(r, http.MethodGet, "/", nil)
	generated := w.Header().Get("X-Request-ID")
	_, err := uuid.Parse(generated)
	require.NoError(t, err)
	assert.Equal(t, generated, seen)

	incoming := uuid.NewString()
	w = perform(r, http.MethodGet, "/", map[string]string{"X-Request-ID": incoming})
	assert.Equal(t, incoming, w.Header().Get("X-Request-ID"))

	w = perform(r, http.MethodGet, "/", map[string]string{"X-Request-ID": "<script>"})
	assert.NotEqual(t, "<script>", w.Header().Get("X-Request-ID"))
}

func TestRequestLogger(t *testing.T) {
	logger, hook := test.NewNullLogger()
	r := gin.New()
	r.Use(RequestID(), RequestLogger(logger))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	perform(r, http.MethodGet, "/ok", nil)
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "/ok", entry.Data["path"])
	assert.Equal(t, http.StatusOK, entry.Data["status"])
	assert.NotEmpty(t, entry.Data["request_id"])

	perform(r, http.MethodGet, "/bad", nil)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestRecovery(t *testing.T) {
	logger, hook := test.NewNullLogger()
	r := gin.New()
	r.Use(Recovery(logger))
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := perform(r, http.MethodGet, "/boom", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"kind":"internal"`)
	assert.NotContains(t, w.Body.String(), "kaboom")
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}
