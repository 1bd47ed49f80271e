package parser

import (
	"fmt"
	"strings"
)

// WindowChunker 固定窗口滑动分块器，窗口之间保留重叠以保持上下文连续
type WindowChunker struct {
	size    int // 窗口大小(字符数)
	overlap int // 相邻窗口重叠(字符数)
}

// NewWindowChunker 创建分块器，参数非法时直接报错
func NewWindowChunker(size, overlap int) (*WindowChunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("分块窗口大小必须为正数, 实际: %d", size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("分块重叠不能为负数, 实际: %d", overlap)
	}
	if overlap >= size {
		return nil, fmt.Errorf("分块重叠(%d)必须小于窗口大小(%d)", overlap, size)
	}
	return &WindowChunker{size: size, overlap: overlap}, nil
}

// Chunk 按窗口切分文本，空白输入返回nil
// 按rune计数，避免把多字节字符切成半个
func (c *WindowChunker) Chunk(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	runes := []rune(text)
	var chunks []string

	start := 0
	for start < len(runes) {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}

		// 纯空白的窗口跳过，其余保留原文，重叠拼接时可精确还原全文
		chunk := string(runes[start:end])
		if strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}

		if end == len(runes) {
			break
		}
		start = end - c.overlap
	}

	return chunks
}

// Size 返回窗口大小
func (c *WindowChunker) Size() int {
	return c.size
}

// Overlap 返回窗口重叠
func (c *WindowChunker) Overlap() int {
	return c.overlap
}
