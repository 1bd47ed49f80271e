package processor

import (
	"context"
	"fmt"
	"sync"

	"resume-coach-go/internal/types"
	"resume-coach-go/pkg/utils"
)

// fakeEmbedder 按文本长度生成确定性向量
type fakeEmbedder struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeEmbedder) EmbedStrings(_ context.Context, texts []string) ([][]float64, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	vectors := make([][]float64, 0, len(texts))
	for _, text := range texts {
		vectors = append(vectors, []float64{float64(len(text)), 1, 2, 3})
	}
	return vectors, nil
}

// fakeIndex 内存向量索引，过滤语义与真实实现一致
type fakeIndex struct {
	mu          sync.Mutex
	chunks      []types.ChunkVector
	searchCalls int
}

func (f *fakeIndex) UpsertChunkVectors(_ context.Context, chunks []types.ChunkVector) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		replaced := false
		for i, existing := range f.chunks {
			if existing.DocType == chunk.DocType && existing.FileID == chunk.FileID && existing.ChunkID == chunk.ChunkID {
				f.chunks[i] = chunk
				replaced = true
				break
			}
		}
		if !replaced {
			f.chunks = append(f.chunks, chunk)
		}
		ids = append(ids, fmt.Sprintf("%s/%s/%d", chunk.DocType, chunk.FileID, chunk.ChunkID))
	}
	return ids, nil
}

func (f *fakeIndex) SearchChunks(_ context.Context, _ []float64, limit int, filter *types.SearchFilter) ([]types.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls++

	matchDocType := func(docType string) bool {
		if filter == nil || len(filter.DocTypes) == 0 {
			return true
		}
		for _, dt := range filter.DocTypes {
			if dt == docType {
				return true
			}
		}
		return false
	}

	results := make([]types.SearchResult, 0)
	for i, chunk := range f.chunks {
		if !matchDocType(chunk.DocType) {
			continue
		}
		if filter != nil && filter.FileID != "" && chunk.FileID != filter.FileID {
			continue
		}
		results = append(results, types.SearchResult{
			Text:    chunk.Text,
			Score:   1.0 - float64(i)*0.01,
			DocType: chunk.DocType,
			FileID:  chunk.FileID,
		})
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}

func (f *fakeIndex) CountByDocType(_ context.Context, docType string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var count int64
	for _, chunk := range f.chunks {
		if chunk.DocType == docType {
			count++
		}
	}
	return count, nil
}

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) ExtractTextFromBytes(_ context.Context, _ []byte, _ string) (string, error) {
	return f.text, f.err
}

type fakeDetector struct {
	result bool
}

func (f *fakeDetector) IsProbableResume(_ context.Context, _ string) bool {
	return f.result
}

type fakeChunker struct{}

func (fakeChunker) Chunk(text string) []string {
	if text == "" {
		return nil
	}
	return []string{text}
}

type fakeAnalyzer struct {
	calls  int
	result *types.AnalysisResult
	err    error
}

func (f *fakeAnalyzer) Analyze(_ context.Context, _ string) (*types.AnalysisResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return types.NewEmptyAnalysisResult(), nil
}

func (f *fakeAnalyzer) ContentHash(resumeText string) string {
	return utils.CalculateSHA256(resumeText)
}

func (f *fakeAnalyzer) ModelName() string {
	return "fake-model"
}

type fakeSessions struct {
	names   map[string]string
	upserts int
	err     error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{names: make(map[string]string)}
}

func (f *fakeSessions) UpsertChatSession(_ context.Context, fileID, userName string) error {
	if f.err != nil {
		return f.err
	}
	f.upserts++
	f.names[fileID] = userName
	return nil
}

func (f *fakeSessions) GetChatSessionUserName(_ context.Context, fileID string) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	name, ok := f.names[fileID]
	return name, ok, nil
}

type fakeAnalyses struct {
	records map[string][]byte
	models  map[string]string
	gets    int
}

func newFakeAnalyses() *fakeAnalyses {
	return &fakeAnalyses{
		records: make(map[string][]byte),
		models:  make(map[string]string),
	}
}

func (f *fakeAnalyses) UpsertResumeAnalysis(_ context.Context, resumeHash string, analysisJSON []byte, modelName string) error {
	f.records[resumeHash] = analysisJSON
	f.models[resumeHash] = modelName
	return nil
}

func (f *fakeAnalyses) GetResumeAnalysis(_ context.Context, resumeHash string) ([]byte, bool, error) {
	f.gets++
	data, ok := f.records[resumeHash]
	return data, ok, nil
}

type fakeCache struct {
	analysis map[string][]byte
	names    map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		analysis: make(map[string][]byte),
		names:    make(map[string]string),
	}
}

func (f *fakeCache) CacheAnalysisJSON(_ context.Context, resumeHash string, analysisJSON []byte) error {
	f.analysis[resumeHash] = analysisJSON
	return nil
}

func (f *fakeCache) GetCachedAnalysisJSON(_ context.Context, resumeHash string) ([]byte, bool, error) {
	data, ok := f.analysis[resumeHash]
	return data, ok, nil
}

func (f *fakeCache) CacheSessionUserName(_ context.Context, fileID, userName string) error {
	f.names[fileID] = userName
	return nil
}

func (f *fakeCache) GetCachedSessionUserName(_ context.Context, fileID string) (string, bool, error) {
	name, ok := f.names[fileID]
	return name, ok, nil
}

type fakePublisher struct {
	events []types.ResumeEvent
}

func (f *fakePublisher) PublishResumeEvent(_ context.Context, event types.ResumeEvent) error {
	f.events = append(f.events, event)
	return nil
}

type fakeArchiver struct {
	stored map[string][]byte
}

func newFakeArchiver() *fakeArchiver {
	return &fakeArchiver{stored: make(map[string][]byte)}
}

func (f *fakeArchiver) UploadResumeFile(_ context.Context, fileID string, data []byte) (string, error) {
	f.stored[fileID] = data
	return fileID + ".pdf", nil
}
