package processor

import (
	"context"
	"fmt"
	"os"
	"strings"

	"resume-coach-go/internal/constants"
	"resume-coach-go/internal/logger"
	"resume-coach-go/internal/types"
)

// CoachQASeeder 启动时把通用教练问答语料灌入向量库
type CoachQASeeder struct {
	qaFilePath string
	embedder   TextEmbedder
	index      VectorIndex
}

// NewCoachQASeeder 创建语料种子器
func NewCoachQASeeder(qaFilePath string, embedder TextEmbedder, index VectorIndex) *CoachQASeeder {
	return &CoachQASeeder{
		qaFilePath: qaFilePath,
		embedder:   embedder,
		index:      index,
	}
}

// SeedIfNeeded 语料已存在时跳过，文件缺失只告警不报错
func (s *CoachQASeeder) SeedIfNeeded(ctx context.Context) error {
	count, err := s.index.CountByDocType(ctx, constants.DocTypeCoachQA)
	if err != nil {
		return fmt.Errorf("检查教练语料数量失败: %w", err)
	}
	if count > 0 {
		logger.Info().Int64("count", count).Msg("教练问答语料已存在，跳过灌入")
		return nil
	}

	data, err := os.ReadFile(s.qaFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn().Str("path", s.qaFilePath).Msg("教练问答语料文件不存在，跳过灌入")
			return nil
		}
		return fmt.Errorf("读取教练语料文件失败: %w", err)
	}

	entries := splitQAEntries(string(data))
	if len(entries) == 0 {
		logger.Warn().Str("path", s.qaFilePath).Msg("教练问答语料文件为空，跳过灌入")
		return nil
	}

	vectors, err := s.embedder.EmbedStrings(ctx, entries)
	if err != nil {
		return fmt.Errorf("教练语料嵌入失败: %w", err)
	}
	if len(vectors) != len(entries) {
		return fmt.Errorf("嵌入数量(%d)与语料条数(%d)不匹配", len(vectors), len(entries))
	}

	chunks := make([]types.ChunkVector, 0, len(entries))
	for i, entry := range entries {
		chunks = append(chunks, types.ChunkVector{
			ChunkID: i,
			DocType: constants.DocTypeCoachQA,
			Vector:  vectors[i],
			Text:    entry,
		})
	}

	if _, err := s.index.UpsertChunkVectors(ctx, chunks); err != nil {
		return fmt.Errorf("教练语料入库失败: %w", err)
	}

	logger.Info().Int("entries", len(chunks)).Msg("教练问答语料灌入完成")
	return nil
}

// splitQAEntries 按空行切分条目，条目内换行压成空格
func splitQAEntries(data string) []string {
	blocks := strings.Split(strings.TrimSpace(data), "\n\n")
	entries := make([]string, 0, len(blocks))
	for _, block := range blocks {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		entries = append(entries, strings.ReplaceAll(block, "\n", " "))
	}
	return entries
}
