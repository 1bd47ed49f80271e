package parser

import (
	"context"
	"errors"
	"strings"
	"testing"

	"resume-coach-go/internal/agent"

	"github.com/stretchr/testify/assert"
)

func TestParseYesNo(t *testing.T) {
	testCases := []struct {
		answer string
		want   bool
	}{
		{"YES", true},
		{"yes", true},
		{" Yes. ", true},
		{"NO", false},
		{"no", false},
		{"YES NO", false},
		{"It is NOT a resume, so NO... or maybe YES", false},
		{"", false},
		{"maybe", false},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, parseYesNo(tc.answer), "answer=%q", tc.answer)
	}
}

func TestIsProbableResumeLengthGates(t *testing.T) {
	// 模型不应被调用，给一个必报错的mock兜底
	mock := agent.NewMockChatClient("", errors.New("should not be called"))
	classifier := NewResumeClassifier(mock, 300, 60000)

	assert.False(t, classifier.IsProbableResume(context.Background(), "too short"))
	assert.False(t, classifier.IsProbableResume(context.Background(), strings.Repeat("a", 60001)))
	assert.Empty(t, mock.ReceivedMessages)
}

func TestIsProbableResumeUsesModelAnswer(t *testing.T) {
	text := strings.Repeat("工作经历 项目经验 技能清单 ", 40)

	yes := NewResumeClassifier(agent.NewMockChatClient("YES", nil), 300, 60000)
	assert.True(t, yes.IsProbableResume(context.Background(), text))

	no := NewResumeClassifier(agent.NewMockChatClient("NO", nil), 300, 60000)
	assert.False(t, no.IsProbableResume(context.Background(), text))
}

func TestIsProbableResumeModelErrorIsConservative(t *testing.T) {
	text := strings.Repeat("work experience and education ", 20)
	classifier := NewResumeClassifier(agent.NewMockChatClient("", errors.New("llm down")), 300, 60000)

	assert.False(t, classifier.IsProbableResume(context.Background(), text))
}

func TestTruncateForClassification(t *testing.T) {
	short := strings.Repeat("a", 1000)
	assert.Equal(t, short, truncateForClassification(short))

	long := strings.Repeat("a", 20000)
	truncated := truncateForClassification(long)
	assert.Contains(t, truncated, "[TRUNCATED]")
	assert.Len(t, []rune(truncated), classifierHeadChars+classifierTailChars+len([]rune(truncationMarker)))
}
