package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"resume-coach-go/internal/config"
)

// DashScope单次请求的最大文本条数
const embeddingBatchSize = 10

// AliyunEmbedder 调用DashScope的OpenAI兼容embedding端点
type AliyunEmbedder struct {
	apiKey     string
	model      string
	dimensions int
	httpClient *http.Client
	baseURL    string
}

// AliyunEmbedderOption 可选配置
type AliyunEmbedderOption func(*AliyunEmbedder)

// WithEmbedderHTTPClient 替换HTTP客户端，测试时注入
func WithEmbedderHTTPClient(client *http.Client) AliyunEmbedderOption {
	return func(a *AliyunEmbedder) {
		a.httpClient = client
	}
}

// WithEmbedderBaseURL 覆盖请求地址
func WithEmbedderBaseURL(baseURL string) AliyunEmbedderOption {
	return func(a *AliyunEmbedder) {
		a.baseURL = baseURL
	}
}

// NewAliyunEmbedder 创建阿里云Embedder
func NewAliyunEmbedder(apiKey string, embeddingCfg config.EmbeddingConfig, opts ...AliyunEmbedderOption) (*AliyunEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API密钥不能为空")
	}

	model := embeddingCfg.Model
	if model == "" {
		model = "text-embedding-v3"
	}
	dimensions := embeddingCfg.Dimensions
	if dimensions == 0 {
		dimensions = 1024
	}
	baseURL := embeddingCfg.BaseURL
	if baseURL == "" {
		baseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"
	}

	embedder := &AliyunEmbedder{
		apiKey:     apiKey,
		model:      model,
		dimensions: dimensions,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    baseURL,
	}
	for _, opt := range opts {
		opt(embedder)
	}
	embedder.baseURL = embeddingEndpoint(embedder.baseURL)

	return embedder, nil
}

// embeddingEndpoint 补全embedding端点路径
// 配置里写OpenAI兼容base URL或完整端点URL均可
func embeddingEndpoint(baseURL string) string {
	endpoint := strings.TrimRight(baseURL, "/")
	if strings.HasSuffix(endpoint, "/embeddings") {
		return endpoint
	}
	return endpoint + "/embeddings"
}

// GetDimensions 返回嵌入向量维度
func (a *AliyunEmbedder) GetDimensions() int {
	return a.dimensions
}

type aliyunEmbeddingRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type aliyunEmbeddingDataEntry struct {
	Object    string    `json:"object"`
	Embedding []float64 `json:"embedding"`
	Index     int       `json:"index"`
}

type aliyunAPIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

type aliyunEmbeddingResponse struct {
	Object string                     `json:"object"`
	Data   []aliyunEmbeddingDataEntry `json:"data"`
	Model  string                     `json:"model"`
	// HTTP 200下仍可能通过error字段返回业务错误
	Error *aliyunAPIError `json:"error,omitempty"`
}

// EmbedStrings 批量将文本转换为向量，返回顺序与输入一致
// 空输入直接返回空切片，不发起API调用
func (a *AliyunEmbedder) EmbedStrings(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	embeddings := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += embeddingBatchSize {
		end := start + embeddingBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		batch, err := a.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		embeddings = append(embeddings, batch...)
	}

	return embeddings, nil
}

func (a *AliyunEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	reqBody := aliyunEmbeddingRequest{
		Input:      texts,
		Model:      a.model,
		Dimensions: a.dimensions,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("序列化请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("发送HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应体失败: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiError aliyunAPIError
		if json.Unmarshal(body, &apiError) == nil && apiError.Message != "" {
			return nil, fmt.Errorf("嵌入API调用失败, 状态码: %d, 类型: %s, 错误: %s, code=%s", resp.StatusCode, apiError.Type, apiError.Message, apiError.Code)
		}
		return nil, fmt.Errorf("嵌入API调用失败, 状态码: %d, 响应: %s", resp.StatusCode, string(body))
	}

	var embeddingResp aliyunEmbeddingResponse
	if err := json.Unmarshal(body, &embeddingResp); err != nil {
		return nil, fmt.Errorf("解析嵌入响应失败: %w", err)
	}

	if embeddingResp.Error != nil && embeddingResp.Error.Message != "" {
		return nil, fmt.Errorf("嵌入API调用失败(响应内错误): %s, code=%s", embeddingResp.Error.Message, embeddingResp.Error.Code)
	}
	if len(embeddingResp.Data) != len(texts) {
		return nil, fmt.Errorf("嵌入响应条数不匹配: 期望 %d, 实际 %d", len(texts), len(embeddingResp.Data))
	}

	// 按index回填，不依赖API的返回顺序
	embeddings := make([][]float64, len(texts))
	for _, item := range embeddingResp.Data {
		if item.Index < 0 || item.Index >= len(embeddings) {
			return nil, fmt.Errorf("嵌入数据索引 %d 超出范围", item.Index)
		}
		embeddings[item.Index] = item.Embedding
	}

	return embeddings, nil
}
