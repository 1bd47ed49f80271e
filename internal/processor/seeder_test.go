package processor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"resume-coach-go/internal/constants"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeQAFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "coach_qa.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSeedIfNeededLoadsEntries(t *testing.T) {
	qaFile := writeQAFile(t, "Q: How do I answer 'tell me about yourself'?\nA: Use a present-past-future structure.\n\nQ: What is the STAR method?\nA: Situation, Task, Action, Result.\n")
	index := &fakeIndex{}
	embedder := &fakeEmbedder{}
	seeder := NewCoachQASeeder(qaFile, embedder, index)

	require.NoError(t, seeder.SeedIfNeeded(context.Background()))

	count, err := index.CountByDocType(context.Background(), constants.DocTypeCoachQA)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// 条目内换行被压成空格
	assert.Equal(t, "Q: How do I answer 'tell me about yourself'? A: Use a present-past-future structure.", index.chunks[0].Text)
	assert.Equal(t, constants.DocTypeCoachQA, index.chunks[0].DocType)
	assert.Empty(t, index.chunks[0].FileID)
}

func TestSeedIfNeededIsIdempotent(t *testing.T) {
	qaFile := writeQAFile(t, "entry one\n\nentry two")
	index := &fakeIndex{}
	embedder := &fakeEmbedder{}
	seeder := NewCoachQASeeder(qaFile, embedder, index)

	require.NoError(t, seeder.SeedIfNeeded(context.Background()))
	require.NoError(t, seeder.SeedIfNeeded(context.Background()))

	count, err := index.CountByDocType(context.Background(), constants.DocTypeCoachQA)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	// 第二次调用在计数检查后直接返回，不再嵌入
	assert.Equal(t, 1, embedder.calls)
}

func TestSeedIfNeededMissingFileIsNotFatal(t *testing.T) {
	index := &fakeIndex{}
	seeder := NewCoachQASeeder(filepath.Join(t.TempDir(), "missing.txt"), &fakeEmbedder{}, index)

	require.NoError(t, seeder.SeedIfNeeded(context.Background()))

	count, err := index.CountByDocType(context.Background(), constants.DocTypeCoachQA)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSplitQAEntries(t *testing.T) {
	entries := splitQAEntries("  first block\nsecond line\n\n\nmiddle\n\nlast  ")
	assert.Equal(t, []string{"first block second line", "middle", "last"}, entries)
}
