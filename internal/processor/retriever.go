package processor

import (
	"context"
	"fmt"

	"resume-coach-go/internal/logger"
	"resume-coach-go/internal/types"
)

// Retriever 把查询嵌入后按元数据过滤检索分块文本
type Retriever struct {
	embedder TextEmbedder
	index    VectorIndex
}

// NewRetriever 创建检索器
func NewRetriever(embedder TextEmbedder, index VectorIndex) *Retriever {
	return &Retriever{
		embedder: embedder,
		index:    index,
	}
}

// Retrieve 检索与查询最相似的分块文本，结果按分数降序
// fileID非空时限定所属文件，实现按简历隔离
// allowFallback为真且按fileID过滤后无命中时，仅按首个doc_type重试一次
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int, docTypes []string, fileID string, allowFallback bool) ([]string, error) {
	vectors, err := r.embedder.EmbedStrings(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("查询嵌入失败: %w", err)
	}
	if len(vectors) == 0 {
		logger.Warn().Msg("查询嵌入返回空向量，跳过检索")
		return []string{}, nil
	}
	queryVector := vectors[0]

	filter := &types.SearchFilter{
		DocTypes: docTypes,
		FileID:   fileID,
	}

	results, err := r.index.SearchChunks(ctx, queryVector, topK, filter)
	if err != nil {
		return nil, fmt.Errorf("向量检索失败: %w", err)
	}

	if allowFallback && len(results) == 0 && fileID != "" && len(docTypes) > 0 {
		fallbackFilter := &types.SearchFilter{
			DocTypes: docTypes[:1],
		}
		logger.Warn().
			Str("file_id", fileID).
			Str("doc_type", docTypes[0]).
			Msg("按file_id检索无命中，回退到仅按doc_type重试")

		results, err = r.index.SearchChunks(ctx, queryVector, topK, fallbackFilter)
		if err != nil {
			return nil, fmt.Errorf("回退检索失败: %w", err)
		}
	}

	texts := make([]string, 0, len(results))
	for _, res := range results {
		texts = append(texts, res.Text)
	}

	logger.Debug().
		Int("top_k", topK).
		Strs("doc_types", docTypes).
		Str("file_id", fileID).
		Int("hits", len(texts)).
		Msg("分块检索完成")
	return texts, nil
}
