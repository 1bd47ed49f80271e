package parser

import (
	"context"
	"fmt"
	"testing"

	"resume-coach-go/internal/agent"
	"resume-coach-go/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnalysisJSONSnakeCase(t *testing.T) {
	raw := `{
		"overall_score": 82,
		"score_label": "Strong",
		"top_skills": ["Go", "Kubernetes"],
		"role_fit": [
			{"role": "Backend Engineer", "score": 0.9},
			{"role": "SRE", "score": 0.7}
		],
		"experience_level": "senior",
		"years_experience": 6.5,
		"project_count": 4,
		"companies_count": 3,
		"gaps": ["no public speaking"],
		"quick_wins": ["add metrics to projects"]
	}`

	result := ParseAnalysisJSON(raw)

	require.NotNil(t, result.OverallScore)
	assert.Equal(t, 82.0, *result.OverallScore)
	assert.Equal(t, "Strong", result.ScoreLabel)
	assert.Equal(t, []string{"Go", "Kubernetes"}, result.TopSkills)
	require.Len(t, result.RoleFit, 2)
	assert.Equal(t, "Backend Engineer", result.RoleFit[0].Role)
	assert.Equal(t, 0.9, result.RoleFit[0].Score)
	assert.Equal(t, "senior", result.ExperienceLevel)
	require.NotNil(t, result.YearsExperience)
	assert.Equal(t, 6.5, *result.YearsExperience)
	require.NotNil(t, result.ProjectCount)
	assert.Equal(t, 4, *result.ProjectCount)
	require.NotNil(t, result.CompaniesCount)
	assert.Equal(t, 3, *result.CompaniesCount)
	assert.Equal(t, []string{"no public speaking"}, result.Gaps)
	assert.Equal(t, []string{"add metrics to projects"}, result.QuickWins)
}

func TestParseAnalysisJSONCamelCaseAliases(t *testing.T) {
	raw := `{
		"overallScore": 55,
		"scoreLabel": "Average",
		"topSkills": ["Python"],
		"roleFit": [{"title": "Data Analyst", "score": 0.6}],
		"experienceLevel": "junior",
		"yearsExperience": 1,
		"projectCount": 2,
		"companiesCount": 1,
		"quickWins": ["quantify achievements"]
	}`

	result := ParseAnalysisJSON(raw)

	require.NotNil(t, result.OverallScore)
	assert.Equal(t, 55.0, *result.OverallScore)
	assert.Equal(t, "Average", result.ScoreLabel)
	assert.Equal(t, []string{"Python"}, result.TopSkills)
	require.Len(t, result.RoleFit, 1)
	assert.Equal(t, "Data Analyst", result.RoleFit[0].Role)
	assert.Equal(t, "junior", result.ExperienceLevel)
	assert.Equal(t, []string{"quantify achievements"}, result.QuickWins)
}

func TestParseAnalysisJSONSnakePreferredOverCamel(t *testing.T) {
	raw := `{"overall_score": 80, "overallScore": 10}`
	result := ParseAnalysisJSON(raw)
	require.NotNil(t, result.OverallScore)
	assert.Equal(t, 80.0, *result.OverallScore)
}

func TestParseAnalysisJSONSurroundingNoise(t *testing.T) {
	raw := "Here is the analysis:\n```json\n{\"score_label\": \"Strong\"}\n```\nHope this helps!"
	result := ParseAnalysisJSON(raw)
	assert.Equal(t, "Strong", result.ScoreLabel)
}

func TestParseAnalysisJSONGarbageFillsDefaults(t *testing.T) {
	for _, raw := range []string{"", "not json at all", "{broken", "12345"} {
		result := ParseAnalysisJSON(raw)
		require.NotNil(t, result, "raw=%q", raw)
		assert.Nil(t, result.OverallScore)
		assert.Empty(t, result.ScoreLabel)
		assert.NotNil(t, result.TopSkills)
		assert.Empty(t, result.TopSkills)
		assert.NotNil(t, result.RoleFit)
		assert.NotNil(t, result.Gaps)
		assert.NotNil(t, result.QuickWins)
	}
}

func TestAnalyzeCachesByContentHash(t *testing.T) {
	mock := agent.NewMockChatClientSequential([]agent.MockResponse{
		{Content: `{"score_label": "Strong"}`},
		// 第二次调用若发生会返回不同结果，用于暴露缓存未生效
		{Content: `{"score_label": "Changed"}`},
	})
	analyzer := NewResumeAnalyzer(mock, "qwen-plus")

	resume := "张三\n资深后端工程师\n十年Go经验"

	first, err := analyzer.Analyze(context.Background(), resume)
	require.NoError(t, err)
	assert.Equal(t, "Strong", first.ScoreLabel)

	second, err := analyzer.Analyze(context.Background(), resume)
	require.NoError(t, err)
	assert.Equal(t, "Strong", second.ScoreLabel)
	assert.Equal(t, 1, mock.ResponseIndex)

	// 不同内容产生不同哈希，触发第二次模型调用
	_, err = analyzer.Analyze(context.Background(), resume+" 附加内容")
	require.NoError(t, err)
	assert.Equal(t, 2, mock.ResponseIndex)
}

func TestBoundedAnalysisCacheEviction(t *testing.T) {
	cache := NewBoundedAnalysisCache(2)

	r1 := types.NewEmptyAnalysisResult()
	r2 := types.NewEmptyAnalysisResult()
	r3 := types.NewEmptyAnalysisResult()

	cache.Put("h1", r1)
	cache.Put("h2", r2)
	cache.Put("h3", r3) // h1被淘汰

	_, ok := cache.Get("h1")
	assert.False(t, ok)
	got, ok := cache.Get("h2")
	assert.True(t, ok)
	assert.Same(t, r2, got)
	_, ok = cache.Get("h3")
	assert.True(t, ok)
}

func TestContentHashStable(t *testing.T) {
	analyzer := NewResumeAnalyzer(agent.NewMockChatClient("{}", nil), "qwen-plus")

	h1 := analyzer.ContentHash("same text")
	h2 := analyzer.ContentHash("same text")
	h3 := analyzer.ContentHash("other text")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64)

	// 十六进制小写
	for _, ch := range h1 {
		assert.Contains(t, "0123456789abcdef", fmt.Sprintf("%c", ch))
	}
}
