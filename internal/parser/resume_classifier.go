package parser

import (
	"context"
	"strings"

	"resume-coach-go/internal/logger"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// 分类前的截断阈值(字符数)，超长文本只保留首尾送入模型
const (
	classifierTruncateThreshold = 12000
	classifierHeadChars         = 8000
	classifierTailChars         = 4000
	truncationMarker            = "\n\n... [TRUNCATED] ...\n\n"
)

const classifierPrompt = `You are a strict document classifier.

Decide whether the following text is the content of a person's resume / CV
(work experience, education, skills, projects, contact info, etc.).

Reply with exactly ONE word: YES or NO. No punctuation, no explanation.

Text:
`

// ResumeClassifier 判断一段文本是否为简历
// 长度门槛先行过滤，剩余情况交给LLM做单词级判定
type ResumeClassifier struct {
	model    model.ChatModel
	minChars int
	maxChars int
}

// NewResumeClassifier 创建简历分类器
func NewResumeClassifier(chatModel model.ChatModel, minChars, maxChars int) *ResumeClassifier {
	if minChars <= 0 {
		minChars = 300
	}
	if maxChars <= 0 {
		maxChars = 60000
	}
	return &ResumeClassifier{
		model:    chatModel,
		minChars: minChars,
		maxChars: maxChars,
	}
}

// IsProbableResume 判断文本是否像一份简历
// 任何模型错误都按"不是简历"处理，上传流程不会因此失败
func (c *ResumeClassifier) IsProbableResume(ctx context.Context, text string) bool {
	trimmed := strings.TrimSpace(text)
	length := len([]rune(trimmed))

	if length < c.minChars {
		logger.Debug().Int("chars", length).Int("min", c.minChars).Msg("文本过短，判定为非简历")
		return false
	}
	if length > c.maxChars {
		logger.Debug().Int("chars", length).Int("max", c.maxChars).Msg("文本过长，判定为非简历")
		return false
	}

	prompt := classifierPrompt + truncateForClassification(trimmed)

	resp, err := c.model.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		logger.Warn().Err(err).Msg("简历分类LLM调用失败，按非简历处理")
		return false
	}

	return parseYesNo(resp.Content)
}

// parseYesNo 保守解析模型回答: 仅在出现YES且没有NO时判真
func parseYesNo(answer string) bool {
	normalized := strings.ToUpper(strings.TrimSpace(answer))
	hasYes := strings.Contains(normalized, "YES")
	hasNo := strings.Contains(normalized, "NO")

	switch {
	case hasYes && !hasNo:
		return true
	case hasNo && !hasYes:
		return false
	default:
		// 同时出现或都没出现时宁可错杀
		return false
	}
}

// truncateForClassification 超长文本保留开头和结尾，中间打标记省略
func truncateForClassification(text string) string {
	runes := []rune(text)
	if len(runes) <= classifierTruncateThreshold {
		return text
	}
	head := string(runes[:classifierHeadChars])
	tail := string(runes[len(runes)-classifierTailChars:])
	return head + truncationMarker + tail
}
