package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"resume-coach-go/internal/constants"
	"resume-coach-go/internal/logger"
	"resume-coach-go/internal/types"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
)

// CoachService 实现上传简历和职业教练对话两条主流程
type CoachService struct {
	extractor TextExtractor
	detector  ResumeDetector
	chunker   TextChunker
	embedder  TextEmbedder
	analyzer  AnalysisProvider
	retriever *Retriever
	replyer   model.ChatModel

	index    VectorIndex
	sessions SessionStore
	analyses AnalysisStore

	// 可选依赖，为nil时对应能力关闭
	cache     FastCache
	archiver  FileArchiver
	publisher EventPublisher

	resumeTopK int
	coachTopK  int
}

// CoachServiceOption 可选依赖注入
type CoachServiceOption func(*CoachService)

// WithFastCache 注入Redis缓存层
func WithFastCache(cache FastCache) CoachServiceOption {
	return func(s *CoachService) {
		s.cache = cache
	}
}

// WithFileArchiver 注入简历原件归档
func WithFileArchiver(archiver FileArchiver) CoachServiceOption {
	return func(s *CoachService) {
		s.archiver = archiver
	}
}

// WithEventPublisher 注入事件发布器
func WithEventPublisher(publisher EventPublisher) CoachServiceOption {
	return func(s *CoachService) {
		s.publisher = publisher
	}
}

// NewCoachService 创建教练服务
func NewCoachService(
	extractor TextExtractor,
	detector ResumeDetector,
	chunker TextChunker,
	embedder TextEmbedder,
	analyzer AnalysisProvider,
	replyer model.ChatModel,
	index VectorIndex,
	sessions SessionStore,
	analyses AnalysisStore,
	resumeTopK, coachTopK int,
	opts ...CoachServiceOption,
) *CoachService {
	if resumeTopK <= 0 {
		resumeTopK = 5
	}
	if coachTopK <= 0 {
		coachTopK = 3
	}

	s := &CoachService{
		extractor:  extractor,
		detector:   detector,
		chunker:    chunker,
		embedder:   embedder,
		analyzer:   analyzer,
		retriever:  NewRetriever(embedder, index),
		replyer:    replyer,
		index:      index,
		sessions:   sessions,
		analyses:   analyses,
		resumeTopK: resumeTopK,
		coachTopK:  coachTopK,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleUpload 处理简历上传
// 任何可读的上传都返回file_id，非简历文件只是不入库，前端照样能进入对话页
func (s *CoachService) HandleUpload(ctx context.Context, fileData []byte, filename string) (*types.UploadResult, error) {
	fileID := uuid.NewString()

	result := &types.UploadResult{
		FileID:   fileID,
		Greeting: constants.GreetingGeneric,
	}

	// 原件归档是尽力而为，失败不影响主流程
	if s.archiver != nil {
		if _, err := s.archiver.UploadResumeFile(ctx, fileID, fileData); err != nil {
			logger.Warn().Err(err).Str("file_id", fileID).Msg("简历原件归档失败")
		}
	}

	text := ""
	if strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		extracted, err := s.extractor.ExtractTextFromBytes(ctx, fileData, filename)
		if err != nil {
			logger.Warn().Err(err).Str("filename", filename).Msg("PDF文本提取失败")
		} else {
			text = extracted
		}
	}

	isResume := false
	if strings.TrimSpace(text) != "" {
		isResume = s.detector.IsProbableResume(ctx, text)
	}

	if !isResume {
		logger.Info().
			Str("file_id", fileID).
			Str("filename", filename).
			Msg("上传文件未识别为有效简历，跳过入库")

		result.Greeting = constants.GreetingNotResume
		result.Analysis = constants.AnalysisNotResume
		s.publishEvent(ctx, types.ResumeEvent{
			Event:      constants.EventResumeRejected,
			FileID:     fileID,
			OccurredAt: time.Now(),
		})
		return result, nil
	}

	// 分块、嵌入、写入向量库
	if err := s.indexResumeChunks(ctx, fileID, text); err != nil {
		return nil, err
	}

	// 提取用户名并持久化会话
	userName := extractNameFromResume(text)
	if err := s.sessions.UpsertChatSession(ctx, fileID, userName); err != nil {
		return nil, fmt.Errorf("保存会话失败: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.CacheSessionUserName(ctx, fileID, userName); err != nil {
			logger.Warn().Err(err).Str("file_id", fileID).Msg("会话用户名写缓存失败")
		}
	}

	// 分析结果按内容哈希走两级缓存
	resumeHash := s.analyzer.ContentHash(text)
	analysis, err := s.analyzeWithCache(ctx, resumeHash, text)
	if err != nil {
		return nil, err
	}

	result.Greeting = fmt.Sprintf(constants.GreetingResumeFmt, userName)
	result.Analysis = analysis

	s.publishEvent(ctx, types.ResumeEvent{
		Event:      constants.EventResumeAnalyzed,
		FileID:     fileID,
		ResumeHash: resumeHash,
		ModelName:  s.analyzer.ModelName(),
		OccurredAt: time.Now(),
	})

	logger.Info().
		Str("file_id", fileID).
		Str("user_name", userName).
		Str("resume_hash", resumeHash).
		Msg("简历上传处理完成")
	return result, nil
}

// indexResumeChunks 分块嵌入并写入向量库
func (s *CoachService) indexResumeChunks(ctx context.Context, fileID, text string) error {
	chunks := s.chunker.Chunk(text)
	if len(chunks) == 0 {
		return nil
	}

	vectors, err := s.embedder.EmbedStrings(ctx, chunks)
	if err != nil {
		return fmt.Errorf("简历分块嵌入失败: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("嵌入数量(%d)与分块数量(%d)不匹配", len(vectors), len(chunks))
	}

	chunkVectors := make([]types.ChunkVector, 0, len(chunks))
	for i, chunk := range chunks {
		chunkVectors = append(chunkVectors, types.ChunkVector{
			FileID:  fileID,
			ChunkID: i,
			DocType: constants.DocTypeResumeChunk,
			Vector:  vectors[i],
			Text:    chunk,
		})
	}

	if _, err := s.index.UpsertChunkVectors(ctx, chunkVectors); err != nil {
		return fmt.Errorf("简历分块入库失败: %w", err)
	}

	logger.Info().
		Str("file_id", fileID).
		Int("chunks", len(chunkVectors)).
		Msg("简历分块已写入向量库")
	return nil
}

// analyzeWithCache 按Redis、MySQL、LLM的顺序获取分析结果
// 命中低层后回填高层，保证同一份简历只分析一次
func (s *CoachService) analyzeWithCache(ctx context.Context, resumeHash, text string) (*types.AnalysisResult, error) {
	if s.cache != nil {
		if data, found, err := s.cache.GetCachedAnalysisJSON(ctx, resumeHash); err != nil {
			logger.Warn().Err(err).Str("resume_hash", resumeHash).Msg("读取分析缓存失败，继续查库")
		} else if found {
			if analysis, ok := decodeAnalysis(data); ok {
				logger.Debug().Str("resume_hash", resumeHash).Msg("分析结果命中Redis缓存")
				return analysis, nil
			}
		}
	}

	if data, found, err := s.analyses.GetResumeAnalysis(ctx, resumeHash); err != nil {
		logger.Warn().Err(err).Str("resume_hash", resumeHash).Msg("查询分析记录失败，回退到LLM分析")
	} else if found {
		if analysis, ok := decodeAnalysis(data); ok {
			logger.Debug().Str("resume_hash", resumeHash).Msg("分析结果命中MySQL记录")
			if s.cache != nil {
				if err := s.cache.CacheAnalysisJSON(ctx, resumeHash, data); err != nil {
					logger.Warn().Err(err).Str("resume_hash", resumeHash).Msg("分析结果回填缓存失败")
				}
			}
			return analysis, nil
		}
	}

	analysis, err := s.analyzer.Analyze(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("简历分析失败: %w", err)
	}

	data, err := json.Marshal(analysis)
	if err != nil {
		return nil, fmt.Errorf("序列化分析结果失败: %w", err)
	}
	if err := s.analyses.UpsertResumeAnalysis(ctx, resumeHash, data, s.analyzer.ModelName()); err != nil {
		logger.Warn().Err(err).Str("resume_hash", resumeHash).Msg("分析结果落库失败")
	}
	if s.cache != nil {
		if err := s.cache.CacheAnalysisJSON(ctx, resumeHash, data); err != nil {
			logger.Warn().Err(err).Str("resume_hash", resumeHash).Msg("分析结果写缓存失败")
		}
	}
	return analysis, nil
}

func decodeAnalysis(data []byte) (*types.AnalysisResult, bool) {
	analysis := types.NewEmptyAnalysisResult()
	if err := json.Unmarshal(data, analysis); err != nil {
		logger.Warn().Err(err).Msg("缓存的分析JSON解码失败")
		return nil, false
	}
	return analysis, true
}

// HandleChat 处理教练对话
func (s *CoachService) HandleChat(ctx context.Context, fileID, userMessage string) (string, error) {
	if fileID == "" {
		return constants.ChatMissingFileID, nil
	}

	// 严格按file_id隔离检索简历分块，不允许回退
	resumeChunks, err := s.retriever.Retrieve(ctx, userMessage, s.resumeTopK,
		[]string{constants.DocTypeResumeChunk}, fileID, false)
	if err != nil {
		return "", err
	}

	// 检索不到说明上传的不是有效简历
	if len(resumeChunks) == 0 {
		return constants.ChatNoResumeContent, nil
	}

	// 教练问答语料是全局的，不按简历隔离
	coachChunks, err := s.retriever.Retrieve(ctx, userMessage, s.coachTopK,
		[]string{constants.DocTypeCoachQA}, "", true)
	if err != nil {
		logger.Warn().Err(err).Msg("教练语料检索失败，继续无语料回复")
		coachChunks = nil
	}

	userName := s.lookupUserName(ctx, fileID)

	prompt := buildReplyPrompt(userMessage, resumeChunks, coachChunks, userName)
	resp, err := s.replyer.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		return "", fmt.Errorf("生成教练回复失败: %w", err)
	}

	logger.Info().
		Str("file_id", fileID).
		Int("resume_chunks", len(resumeChunks)).
		Int("coach_chunks", len(coachChunks)).
		Msg("教练回复已生成")
	return resp.Content, nil
}

// lookupUserName 先查Redis再查MySQL，都没有时用兜底称呼
func (s *CoachService) lookupUserName(ctx context.Context, fileID string) string {
	if s.cache != nil {
		if name, found, err := s.cache.GetCachedSessionUserName(ctx, fileID); err != nil {
			logger.Warn().Err(err).Str("file_id", fileID).Msg("读取会话缓存失败，继续查库")
		} else if found && name != "" {
			return name
		}
	}

	name, found, err := s.sessions.GetChatSessionUserName(ctx, fileID)
	if err != nil {
		logger.Warn().Err(err).Str("file_id", fileID).Msg("查询会话用户名失败")
		return constants.FallbackNameChat
	}
	if !found || name == "" {
		return constants.FallbackNameChat
	}

	if s.cache != nil {
		if err := s.cache.CacheSessionUserName(ctx, fileID, name); err != nil {
			logger.Warn().Err(err).Str("file_id", fileID).Msg("会话用户名回填缓存失败")
		}
	}
	return name
}

func (s *CoachService) publishEvent(ctx context.Context, event types.ResumeEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishResumeEvent(ctx, event); err != nil {
		logger.Warn().Err(err).Str("event", event.Event).Str("file_id", event.FileID).Msg("发布简历事件失败")
	}
}

// extractNameFromResume 取首个非空行作为用户名
func extractNameFromResume(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return constants.FallbackNameGreeting
}

func buildSystemPrompt(userName string) string {
	return fmt.Sprintf(`You are a professional, friendly CAREER COACH.

You are talking to a candidate named %s.
Your job is to:
- Help them explain their experience in very simple language.
- Help with STAR stories, interview answers, LinkedIn About, and resume bullets.
- Always stay on-topic: careers, interviews, communication, resumes, projects.

CRITICAL:
- You have access to their resume text.
- You must base your answers on their actual resume whenever relevant.
- Do NOT invent fake companies, projects, or tools that are not in the resume.
`, userName)
}

// buildReplyPrompt 构造单条对话提示词，明确区分简历内容和通用教练知识
func buildReplyPrompt(userMessage string, resumeChunks, coachChunks []string, userName string) string {
	resumeContext := "No resume context found."
	if len(resumeChunks) > 0 {
		resumeContext = strings.Join(resumeChunks, "\n\n")
	}
	coachContext := "No coach Q&A context found."
	if len(coachChunks) > 0 {
		coachContext = strings.Join(coachChunks, "\n\n")
	}

	return fmt.Sprintf(`SYSTEM INSTRUCTIONS:
%s

<resume>
This is the candidate's resume content. Use this to understand their background,
projects, skills, and impact:

%s
</resume>

<coach_qa>
This is some general interview and career coaching knowledge you can use
for structure and best practices (STAR, 'Tell me about yourself', etc.):

%s
</coach_qa>

USER MESSAGE:
"""%s"""

Now respond as their personal career coach.

Rules:
- Refer to specific things from their resume whenever possible.
- If they ask about their strengths, projects, STAR stories, etc., use resume details.
- If something is not in the resume, say you don't see it instead of guessing.
- Use simple, clear language, like a good communicator.

You MUST follow ALL of these rules:

1) Default: Provide a concise, medium-length answer only
   - About 2-4 short paragraphs or 5-8 bullet points.
   - Do NOT generate long, extended, or deeply detailed answers
     unless the user explicitly asks for a "long answer",
     "detailed answer", or "step-by-step explanation".

2) RESPONSE FORMAT RULES (VERY IMPORTANT):

- NEVER write paragraph-style answers.
- ALWAYS break the entire answer into clear bullet points or numbered lists.
- Every idea must be a separate bullet point. No long chunks of text.
- Structure your response like this:

TITLE (ALL CAPS)

a) SECTION HEADER
- Bullet point 1
- Bullet point 2
- Bullet point 3

b) SECTION HEADER
- Bullet point 1
- Bullet point 2

c) SECTION HEADER
- Bullet point 1

- Do NOT write paragraphs.
- Do NOT write long-form narrative text.
- Keep every bullet point short, crisp, and direct.
- Do NOT use markdown symbols like **bold**, ## headings, or backticks.
- Use plain text only with hyphen bullets and numbered sections.

3) Absolutely NEVER:
   - Dump a big wall of text.
   - Ignore headings or bullet points.
`, buildSystemPrompt(userName), resumeContext, coachContext, userMessage)
}
