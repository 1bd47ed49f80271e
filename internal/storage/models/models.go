// Package models 定义MySQL表结构。
package models

import (
	"time"

	"gorm.io/datatypes"
)

// ChatSession 上传文件与用户名的会话映射表
type ChatSession struct {
	FileID    string    `gorm:"type:char(36);primaryKey"`
	UserName  string    `gorm:"type:varchar(255)"`
	CreatedAt time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}

// ResumeAnalysisRecord 简历分析结果持久缓存，按内容哈希去重
type ResumeAnalysisRecord struct {
	// ResumeHash 简历文本的SHA-256十六进制摘要
	ResumeHash   string         `gorm:"type:char(64);primaryKey"`
	AnalysisJSON datatypes.JSON `gorm:"type:json"`
	ModelName    string         `gorm:"type:varchar(100)"`
	CreatedAt    time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt    time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (ResumeAnalysisRecord) TableName() string {
	return "resume_analyses"
}
