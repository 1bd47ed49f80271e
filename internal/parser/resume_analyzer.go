package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"resume-coach-go/internal/logger"
	"resume-coach-go/internal/types"
	"resume-coach-go/pkg/utils"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const analyzerPrompt = `You are an expert technical recruiter and career coach.
Analyze the resume below and reply with a STRICT JSON object, no markdown,
no commentary, using exactly these keys:

{
  "overall_score": <number 0-100>,
  "score_label": "<short label like 'Strong', 'Average', 'Needs work'>",
  "top_skills": ["<skill>", ...],
  "role_fit": [{"role": "<job title>", "score": <number 0-1>}, ...],
  "experience_level": "<junior|mid|senior|lead>",
  "years_experience": <number>,
  "project_count": <number>,
  "companies_count": <number>,
  "gaps": ["<weakness or missing piece>", ...],
  "quick_wins": ["<improvement doable this week>", ...]
}

role_fit must contain at least 5 realistic job titles with scores in [0,1].

Resume:
`

// AnalysisCache 进程内分析结果缓存，键为简历内容的SHA-256
type AnalysisCache interface {
	Get(hash string) (*types.AnalysisResult, bool)
	Put(hash string, result *types.AnalysisResult)
}

// boundedAnalysisCache 有容量上限的缓存，满后按插入顺序淘汰
type boundedAnalysisCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*types.AnalysisResult
	order    []string
}

// NewBoundedAnalysisCache 创建有界缓存
func NewBoundedAnalysisCache(capacity int) AnalysisCache {
	if capacity <= 0 {
		capacity = 128
	}
	return &boundedAnalysisCache{
		capacity: capacity,
		entries:  make(map[string]*types.AnalysisResult),
	}
}

func (c *boundedAnalysisCache) Get(hash string) (*types.AnalysisResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	result, ok := c.entries[hash]
	return result, ok
}

func (c *boundedAnalysisCache) Put(hash string, result *types.AnalysisResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[hash]; !exists {
		if len(c.order) >= c.capacity {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, hash)
	}
	c.entries[hash] = result
}

// ResumeAnalyzer 用LLM产出简历的结构化分析，结果按内容哈希缓存
type ResumeAnalyzer struct {
	model     model.ChatModel
	modelName string
	cache     AnalysisCache
}

// ResumeAnalyzerOption 可选配置
type ResumeAnalyzerOption func(*ResumeAnalyzer)

// WithAnalysisCache 注入自定义缓存实现
func WithAnalysisCache(cache AnalysisCache) ResumeAnalyzerOption {
	return func(a *ResumeAnalyzer) {
		a.cache = cache
	}
}

// NewResumeAnalyzer 创建简历分析器
// modelName仅做记录用途，随分析结果一起落库
func NewResumeAnalyzer(chatModel model.ChatModel, modelName string, opts ...ResumeAnalyzerOption) *ResumeAnalyzer {
	a := &ResumeAnalyzer{
		model:     chatModel,
		modelName: modelName,
		cache:     NewBoundedAnalysisCache(128),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ModelName 返回产出分析所用的模型名
func (a *ResumeAnalyzer) ModelName() string {
	return a.modelName
}

// ContentHash 简历文本的内容哈希，缓存与落库共用同一个键
func (a *ResumeAnalyzer) ContentHash(resumeText string) string {
	return utils.CalculateSHA256(resumeText)
}

// Analyze 分析简历文本，命中进程内缓存时不调用模型
func (a *ResumeAnalyzer) Analyze(ctx context.Context, resumeText string) (*types.AnalysisResult, error) {
	hash := a.ContentHash(resumeText)
	if cached, ok := a.cache.Get(hash); ok {
		logger.Debug().Str("resume_hash", hash).Msg("简历分析命中进程内缓存")
		return cached, nil
	}

	resp, err := a.model.Generate(ctx, []*schema.Message{schema.UserMessage(analyzerPrompt + resumeText)})
	if err != nil {
		return nil, fmt.Errorf("简历分析LLM调用失败: %w", err)
	}

	result := ParseAnalysisJSON(resp.Content)
	a.cache.Put(hash, result)
	return result, nil
}

// 字段别名表: 规范键(snake_case)优先，camelCase兜底
var analysisFieldAliases = map[string][]string{
	"overall_score":    {"overallScore"},
	"score_label":      {"scoreLabel"},
	"top_skills":       {"topSkills"},
	"role_fit":         {"roleFit"},
	"experience_level": {"experienceLevel"},
	"years_experience": {"yearsExperience"},
	"project_count":    {"projectCount"},
	"companies_count":  {"companiesCount"},
	"gaps":             {},
	"quick_wins":       {"quickWins"},
}

// ParseAnalysisJSON 容错解析模型输出
// 取首个"{"到最后一个"}"之间的内容，字段缺失或类型不符时保留零值
func ParseAnalysisJSON(raw string) *types.AnalysisResult {
	result := types.NewEmptyAnalysisResult()

	jsonStr := isolateJSONObject(raw)
	if jsonStr == "" {
		return result
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(jsonStr), &fields); err != nil {
		logger.Warn().Err(err).Msg("分析JSON解析失败，返回空结果")
		return result
	}

	if v := lookupField(fields, "overall_score"); v != nil {
		var score float64
		if json.Unmarshal(v, &score) == nil {
			result.OverallScore = &score
		}
	}
	if v := lookupField(fields, "score_label"); v != nil {
		_ = json.Unmarshal(v, &result.ScoreLabel)
	}
	if v := lookupField(fields, "top_skills"); v != nil {
		var skills []string
		if json.Unmarshal(v, &skills) == nil && skills != nil {
			result.TopSkills = skills
		}
	}
	if v := lookupField(fields, "role_fit"); v != nil {
		result.RoleFit = parseRoleFit(v)
	}
	if v := lookupField(fields, "experience_level"); v != nil {
		_ = json.Unmarshal(v, &result.ExperienceLevel)
	}
	if v := lookupField(fields, "years_experience"); v != nil {
		var years float64
		if json.Unmarshal(v, &years) == nil {
			result.YearsExperience = &years
		}
	}
	if v := lookupField(fields, "project_count"); v != nil {
		var count int
		if json.Unmarshal(v, &count) == nil {
			result.ProjectCount = &count
		}
	}
	if v := lookupField(fields, "companies_count"); v != nil {
		var count int
		if json.Unmarshal(v, &count) == nil {
			result.CompaniesCount = &count
		}
	}
	if v := lookupField(fields, "gaps"); v != nil {
		var gaps []string
		if json.Unmarshal(v, &gaps) == nil && gaps != nil {
			result.Gaps = gaps
		}
	}
	if v := lookupField(fields, "quick_wins"); v != nil {
		var wins []string
		if json.Unmarshal(v, &wins) == nil && wins != nil {
			result.QuickWins = wins
		}
	}

	return result
}

// lookupField 先查规范键，再按别名表查camelCase键
func lookupField(fields map[string]json.RawMessage, canonical string) json.RawMessage {
	if v, ok := fields[canonical]; ok {
		return v
	}
	for _, alias := range analysisFieldAliases[canonical] {
		if v, ok := fields[alias]; ok {
			return v
		}
	}
	return nil
}

// parseRoleFit 解析岗位契合度列表，role字段接受role/title两种键
func parseRoleFit(raw json.RawMessage) []types.RoleFit {
	var entries []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return []types.RoleFit{}
	}

	roleFit := make([]types.RoleFit, 0, len(entries))
	for _, entry := range entries {
		var rf types.RoleFit

		roleRaw, ok := entry["role"]
		if !ok {
			roleRaw, ok = entry["title"]
		}
		if ok {
			_ = json.Unmarshal(roleRaw, &rf.Role)
		}
		if scoreRaw, ok := entry["score"]; ok {
			_ = json.Unmarshal(scoreRaw, &rf.Score)
		}

		if rf.Role != "" {
			roleFit = append(roleFit, rf)
		}
	}
	return roleFit
}

// isolateJSONObject 截取首个"{"到最后一个"}"之间的子串
func isolateJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < 0 || end <= start {
		return ""
	}
	return raw[start : end+1]
}
