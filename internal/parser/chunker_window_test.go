package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWindowChunkerValidation(t *testing.T) {
	testCases := []struct {
		name    string
		size    int
		overlap int
		wantErr bool
	}{
		{"正常参数", 500, 50, false},
		{"零重叠", 100, 0, false},
		{"窗口为零", 0, 0, true},
		{"窗口为负", -1, 0, true},
		{"重叠为负", 100, -5, true},
		{"重叠等于窗口", 100, 100, true},
		{"重叠大于窗口", 100, 150, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			chunker, err := NewWindowChunker(tc.size, tc.overlap)
			if tc.wantErr {
				assert.Error(t, err)
				assert.Nil(t, chunker)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, chunker)
			}
		})
	}
}

func TestChunkEmptyInput(t *testing.T) {
	chunker, err := NewWindowChunker(500, 50)
	require.NoError(t, err)

	assert.Nil(t, chunker.Chunk(""))
	assert.Nil(t, chunker.Chunk("   \n\t  "))
}

func TestChunkShortTextSingleChunk(t *testing.T) {
	chunker, err := NewWindowChunker(500, 50)
	require.NoError(t, err)

	text := "张三\n后端开发工程师\n五年Go开发经验"
	chunks := chunker.Chunk(text)

	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestChunkWindowAndOverlap(t *testing.T) {
	chunker, err := NewWindowChunker(10, 3)
	require.NoError(t, err)

	text := "abcdefghijklmnopqrstuvwxyz"
	chunks := chunker.Chunk(text)

	// 窗口10步长7: [0,10) [7,17) [14,24) [21,26)
	require.Len(t, chunks, 4)
	assert.Equal(t, "abcdefghij", chunks[0])
	assert.Equal(t, "hijklmnopq", chunks[1])
	assert.Equal(t, "opqrstuvwx", chunks[2])
	assert.Equal(t, "vwxyz", chunks[3])

	// 相邻块共享overlap长度的文本
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		tail := prev[len(prev)-3:]
		assert.True(t, strings.HasPrefix(chunks[i], tail))
	}

	// 去掉各块头部的overlap后可精确还原全文
	var rebuilt strings.Builder
	rebuilt.WriteString(chunks[0])
	for i := 1; i < len(chunks); i++ {
		rebuilt.WriteString(chunks[i][3:])
	}
	assert.Equal(t, text, rebuilt.String())
}

func TestChunkCoversWholeText(t *testing.T) {
	chunker, err := NewWindowChunker(50, 10)
	require.NoError(t, err)

	text := strings.Repeat("resume content with skills and projects ", 30)
	chunks := chunker.Chunk(text)
	require.NotEmpty(t, chunks)

	var rebuilt strings.Builder
	rebuilt.WriteString(chunks[0])
	for i := 1; i < len(chunks); i++ {
		chunk := []rune(chunks[i])
		rebuilt.WriteString(string(chunk[10:]))
	}
	assert.Equal(t, text, rebuilt.String())
}

func TestChunkMultiByteRunes(t *testing.T) {
	chunker, err := NewWindowChunker(4, 1)
	require.NoError(t, err)

	text := "简历内容包含中文字符测试"
	chunks := chunker.Chunk(text)
	require.NotEmpty(t, chunks)

	// 每个分块都必须是合法的UTF-8，且不超过窗口的rune数
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len([]rune(chunk)), 4)
		assert.True(t, strings.ToValidUTF8(chunk, "?") == chunk)
	}
}
