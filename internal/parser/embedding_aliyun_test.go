package parser

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"resume-coach-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 返回合法嵌入响应并记录请求路径的测试服务器
func newEmbeddingTestServer(t *testing.T, gotPaths *[]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*gotPaths = append(*gotPaths, r.URL.Path)

		var req aliyunEmbeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		resp := aliyunEmbeddingResponse{Object: "list"}
		for i := range req.Input {
			resp.Data = append(resp.Data, aliyunEmbeddingDataEntry{
				Object:    "embedding",
				Embedding: []float64{float64(len(req.Input[i])), 1, 2},
				Index:     i,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestEmbedStringsJoinsEmbeddingsPathOntoBaseURL(t *testing.T) {
	var paths []string
	srv := newEmbeddingTestServer(t, &paths)
	defer srv.Close()

	// 配置里只写OpenAI兼容base URL，不带/embeddings
	embedder, err := NewAliyunEmbedder("test-key", config.EmbeddingConfig{
		Model:      "text-embedding-v3",
		Dimensions: 3,
		BaseURL:    srv.URL + "/compatible-mode/v1",
	})
	require.NoError(t, err)

	vectors, err := embedder.EmbedStrings(context.Background(), []string{"hello"})
	require.NoError(t, err)
	require.Len(t, vectors, 1)

	require.Len(t, paths, 1)
	assert.Equal(t, "/compatible-mode/v1/embeddings", paths[0])
}

func TestEmbedStringsAcceptsFullEndpointURL(t *testing.T) {
	var paths []string
	srv := newEmbeddingTestServer(t, &paths)
	defer srv.Close()

	embedder, err := NewAliyunEmbedder("test-key", config.EmbeddingConfig{
		Dimensions: 3,
		BaseURL:    srv.URL + "/compatible-mode/v1/embeddings",
	})
	require.NoError(t, err)

	_, err = embedder.EmbedStrings(context.Background(), []string{"hello"})
	require.NoError(t, err)

	require.Len(t, paths, 1)
	assert.Equal(t, "/compatible-mode/v1/embeddings", paths[0])
}

func TestEmbedStringsBatchesLargeInput(t *testing.T) {
	var paths []string
	srv := newEmbeddingTestServer(t, &paths)
	defer srv.Close()

	embedder, err := NewAliyunEmbedder("test-key", config.EmbeddingConfig{
		Dimensions: 3,
		BaseURL:    srv.URL,
	})
	require.NoError(t, err)

	texts := make([]string, embeddingBatchSize+2)
	for i := range texts {
		texts[i] = "text"
	}

	vectors, err := embedder.EmbedStrings(context.Background(), texts)
	require.NoError(t, err)
	assert.Len(t, vectors, len(texts))
	assert.Len(t, paths, 2)
}

func TestEmbedStringsEmptyInputSkipsAPI(t *testing.T) {
	var paths []string
	srv := newEmbeddingTestServer(t, &paths)
	defer srv.Close()

	embedder, err := NewAliyunEmbedder("test-key", config.EmbeddingConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	vectors, err := embedder.EmbedStrings(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
	assert.Empty(t, paths)
}

func TestEmbeddingEndpoint(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://dashscope.aliyuncs.com/compatible-mode/v1", "https://dashscope.aliyuncs.com/compatible-mode/v1/embeddings"},
		{"https://dashscope.aliyuncs.com/compatible-mode/v1/", "https://dashscope.aliyuncs.com/compatible-mode/v1/embeddings"},
		{"https://dashscope.aliyuncs.com/compatible-mode/v1/embeddings", "https://dashscope.aliyuncs.com/compatible-mode/v1/embeddings"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, embeddingEndpoint(tc.in))
	}
}
