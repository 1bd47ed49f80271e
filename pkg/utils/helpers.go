package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// CalculateSHA256 计算文本的SHA-256十六进制摘要，用作简历内容哈希
func CalculateSHA256(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// StringPtr 返回字符串指针
func StringPtr(s string) *string {
	return &s
}

// IntPtr 返回整型指针
func IntPtr(i int) *int {
	return &i
}

// Float64Ptr 返回浮点指针
func Float64Ptr(f float64) *float64 {
	return &f
}
