package nlwebclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Ayash-Bera/nlchat/internal/models"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *Client {
	logger, _ := test.NewNullLogger()
	return NewClient(url, logger).WithRetry(RetryConfig{
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
	})
}

func writeEnvelope(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{"success": status < 300, "data": data})
}

func TestClient_Ingest(t *testing.T) {
	var got models.IngestRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/nlweb/ingest", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		writeEnvelope(w, http.StatusCreated, models.DocumentView{ID: "doc_1", Title: "Test", Type: "structured"})
	}))
	defer server.Close()

	client := newTestClient(server.URL + "/")
	doc, err := client.Ingest(context.Background(), `{"@type":"Article","name":"Test"}`, IngestMetadata{SourceURL: "https://x", Title: "Fallback"})
	require.NoError(t, err)

	assert.Equal(t, "doc_1", doc.ID)
	assert.JSONEq(t, `{"@type":"Article","name":"Test"}`, string(got.Content))
	assert.Equal(t, "https://x", got.URL)
	assert.Equal(t, "Fallback", got.Title)
}

func TestEncodeContent(t *testing.T) {
	assert.Equal(t, `{"a":1}`, string(encodeContent(` {"a":1} `)))
	assert.Equal(t, `[1,2]`, string(encodeContent(`[1,2]`)))
	assert.Equal(t, `"plain text"`, string(encodeContent("plain text")))
	assert.Equal(t, `"{broken"`, string(encodeContent("{broken")))
	assert.Equal(t, `"42"`, string(encodeContent("42")))
}

func TestClient_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/nlweb/search", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "what is ai", r.URL.Query().Get("q"))
		assert.Equal(t, "3", r.URL.Query().Get("limit"))

		writeEnvelope(w, http.StatusOK, models.SearchResponse{
			Query:   "what is ai",
			Results: []models.SearchResultView{{ID: "doc_1", Title: "Test", Score: 0.5}},
			Total:   1,
		})
	}))
	defer server.Close()

	resp, err := newTestClient(server.URL).Search(context.Background(), "what is ai", 3)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, 0.5, resp.Results[0].Score)
}

func TestClient_ErrorHandling(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("Invalid request"))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Health(context.Background())
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "Invalid request")
}

func TestClient_IngestWithRetry(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			writeEnvelope(w, http.StatusServiceUnavailable, nil)
			return
		}
		writeEnvelope(w, http.StatusCreated, models.DocumentView{ID: "doc_9"})
	}))
	defer server.Close()

	doc, err := newTestClient(server.URL).IngestWithRetry(context.Background(), "hello", IngestMetadata{})
	require.NoError(t, err)
	assert.Equal(t, "doc_9", doc.ID)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_IngestWithRetry_GivesUp(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeEnvelope(w, http.StatusTooManyRequests, nil)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).IngestWithRetry(context.Background(), "hello", IngestMetadata{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 retries")
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_IngestWithRetry_ClientErrorNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"success":false,"message":"Invalid request body","error":"content is required"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).IngestWithRetry(context.Background(), "hello", IngestMetadata{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid request body: content is required")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_IngestWithRetry_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusServiceUnavailable, nil)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(server.URL).IngestWithRetry(ctx, "hello", IngestMetadata{})
	assert.ErrorIs(t, err, context.Canceled)
}
