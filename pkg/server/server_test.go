package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poliscope/poliscope"
	"github.com/poliscope/poliscope/pkg/config"
	"github.com/poliscope/poliscope/pkg/crossencoder"
	"github.com/poliscope/poliscope/pkg/embedder"
	"github.com/poliscope/poliscope/pkg/store"
	"github.com/poliscope/poliscope/pkg/types"
)

func newTestServer(t *testing.T, indexed bool) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	embedderClient := embedder.NewMockClient(32)
	chunkStore := store.NewMemoryStore(embedderClient)
	engine, err := poliscope.NewClient(embedderClient, chunkStore, nil, &crossencoder.MockClient{}, nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })

	if indexed {
		var chunks []types.Chunk
		for i := 0; i < 4; i++ {
			policyID := fmt.Sprintf("policy-%d", i)
			chunks = append(chunks,
				types.Chunk{
					ID:           policyID + "-conditions",
					PolicyID:     policyID,
					Content:      "Startup enterprises in the software industry may apply for funding support.",
					SectionLabel: "申请条件",
				},
				types.Chunk{
					ID:           policyID + "-funding",
					PolicyID:     policyID,
					Content:      fmt.Sprintf("Funding standard: subsidies up to %d0万元 for qualified applicants.", i+1),
					SectionLabel: "资助标准",
				},
			)
		}
		require.NoError(t, engine.IndexChunks(context.Background(), chunks))
	}

	cfg := &config.Config{}
	cfg.Server.Mode = gin.TestMode
	cfg.Server.Host = "localhost"
	cfg.Server.Port = 0

	srv := New(cfg, engine)
	srv.Setup()
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t, false)

	w := doJSON(t, srv, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var response map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response["status"])
	assert.Equal(t, "poliscope", response["service"])
}

func TestReadinessReflectsIndex(t *testing.T) {
	empty := newTestServer(t, false)
	w := doJSON(t, empty, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	indexed := newTestServer(t, true)
	w = doJSON(t, indexed, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSearchEndpoint(t *testing.T) {
	srv := newTestServer(t, true)

	w := doJSON(t, srv, http.MethodPost, "/api/v1/search", map[string]any{
		"query": "software startup funding",
		"top_k": 5,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp types.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success, resp.Error)
	require.NotEmpty(t, resp.Results)
	assert.LessOrEqual(t, len(resp.Results), 5)
}

func TestSearchEndpointValidation(t *testing.T) {
	srv := newTestServer(t, true)

	w := doJSON(t, srv, http.MethodPost, "/api/v1/search", map[string]any{"query": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMatchEndpoint(t *testing.T) {
	srv := newTestServer(t, true)

	w := doJSON(t, srv, http.MethodPost, "/api/v1/match", map[string]any{
		"query": "software startup funding",
		"top_k": 2,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Query   string              `json:"query"`
		Matches []types.PolicyMatch `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Matches)
	assert.LessOrEqual(t, len(resp.Matches), 2)
}

func TestIndexEndpoint(t *testing.T) {
	srv := newTestServer(t, false)

	w := doJSON(t, srv, http.MethodPost, "/api/v1/index/chunks", map[string]any{
		"chunks": []types.Chunk{
			{ID: "c1", PolicyID: "p1", Content: "Funding support for new energy startups.", SectionLabel: "general"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, srv, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv, http.MethodPost, "/api/v1/index/chunks", map[string]any{"chunks": []types.Chunk{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
