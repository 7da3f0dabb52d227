package utils

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDs(t *testing.T) {
	assert.Len(t, GenerateSessionID("10.0.0.1curl"), 16)
	assert.Equal(t, GenerateSessionID("a"), GenerateSessionID("a"))
	assert.NotEqual(t, GenerateSessionID("a"), GenerateSessionID("b"))

	assert.Len(t, GenerateRandomID(9), 9)
	assert.NotEqual(t, GenerateRandomID(9), GenerateRandomID(9))

	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", MD5Hash("hello"))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("debug", &buf)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

	logger.WithField("event", "test").Info("hello")
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "test", entry["event"])

	assert.Equal(t, logrus.InfoLevel, NewLogger("loud", &buf).GetLevel())
	assert.Equal(t, logrus.InfoLevel, NewLogger("", &buf).GetLevel())
}

func TestResponses(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	ErrorResponse(c, http.StatusNotFound, "Document not found", errors.New("no such id"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Document not found","error":"no such id"}`, w.Body.String())

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	KindErrorResponse(c, http.StatusTooManyRequests, "remote_service", "rate_limited", "Language model request failed", "slow down")
	assert.JSONEq(t, `{"success":false,"message":"Language model request failed","error":"slow down","kind":"remote_service","sub_kind":"rate_limited"}`, w.Body.String())

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	SuccessResponse(c, http.StatusCreated, "ok", map[string]int{"n": 1})
	assert.JSONEq(t, `{"success":true,"message":"ok","data":{"n":1}}`, w.Body.String())
}
