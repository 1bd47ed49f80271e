// Package processor 组装上传与对话的核心流程。
// 这里定义的是流程依赖的窄接口，具体实现在parser和storage包。
package processor

import (
	"context"

	"resume-coach-go/internal/parser"
	"resume-coach-go/internal/storage"
	"resume-coach-go/internal/types"
)

//
// 文本处理相关接口
//

// TextExtractor PDF文本提取接口
type TextExtractor interface {
	// ExtractTextFromBytes 从字节数组提取纯文本
	// uri仅用于日志定位，可以传文件名
	ExtractTextFromBytes(ctx context.Context, data []byte, uri string) (string, error)
}

// TextChunker 文本分块接口
type TextChunker interface {
	Chunk(text string) []string
}

// TextEmbedder 文本嵌入接口
type TextEmbedder interface {
	// EmbedStrings 批量生成嵌入向量，结果顺序与输入一致
	EmbedStrings(ctx context.Context, texts []string) ([][]float64, error)
}

// ResumeDetector 简历判别接口
type ResumeDetector interface {
	// IsProbableResume 判断文本是否像一份简历，内部错误按否处理
	IsProbableResume(ctx context.Context, text string) bool
}

// AnalysisProvider 简历结构化分析接口
type AnalysisProvider interface {
	Analyze(ctx context.Context, resumeText string) (*types.AnalysisResult, error)
	ContentHash(resumeText string) string
	ModelName() string
}

//
// 存储相关接口
//

// VectorIndex 向量索引接口
type VectorIndex interface {
	UpsertChunkVectors(ctx context.Context, chunks []types.ChunkVector) ([]string, error)
	SearchChunks(ctx context.Context, queryVector []float64, limit int, filter *types.SearchFilter) ([]types.SearchResult, error)
	CountByDocType(ctx context.Context, docType string) (int64, error)
}

// SessionStore 会话持久层接口，file_id到用户名的映射
type SessionStore interface {
	UpsertChatSession(ctx context.Context, fileID, userName string) error
	GetChatSessionUserName(ctx context.Context, fileID string) (userName string, found bool, err error)
}

// AnalysisStore 分析结果持久层接口，按简历内容哈希去重
type AnalysisStore interface {
	UpsertResumeAnalysis(ctx context.Context, resumeHash string, analysisJSON []byte, modelName string) error
	GetResumeAnalysis(ctx context.Context, resumeHash string) (analysisJSON []byte, found bool, err error)
}

// FastCache 快速缓存层接口，在权威存储之上加速热路径
type FastCache interface {
	CacheAnalysisJSON(ctx context.Context, resumeHash string, analysisJSON []byte) error
	GetCachedAnalysisJSON(ctx context.Context, resumeHash string) (analysisJSON []byte, found bool, err error)
	CacheSessionUserName(ctx context.Context, fileID, userName string) error
	GetCachedSessionUserName(ctx context.Context, fileID string) (userName string, found bool, err error)
}

// FileArchiver 简历原件归档接口
type FileArchiver interface {
	UploadResumeFile(ctx context.Context, fileID string, data []byte) (string, error)
}

// EventPublisher 简历处理事件发布接口
type EventPublisher interface {
	PublishResumeEvent(ctx context.Context, event types.ResumeEvent) error
}

// 编译期检查各实现满足接口
var (
	_ TextExtractor    = (*parser.EinoPDFTextExtractor)(nil)
	_ TextChunker      = (*parser.WindowChunker)(nil)
	_ TextEmbedder     = (*parser.AliyunEmbedder)(nil)
	_ ResumeDetector   = (*parser.ResumeClassifier)(nil)
	_ AnalysisProvider = (*parser.ResumeAnalyzer)(nil)
	_ VectorIndex      = (*storage.Qdrant)(nil)
	_ SessionStore     = (*storage.MySQL)(nil)
	_ AnalysisStore    = (*storage.MySQL)(nil)
	_ FastCache        = (*storage.Redis)(nil)
	_ FileArchiver     = (*storage.MinIO)(nil)
	_ EventPublisher   = (*storage.RabbitMQ)(nil)
)
