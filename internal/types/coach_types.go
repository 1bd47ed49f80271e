package types

import "time"

// RoleFit 单个目标岗位的契合度
type RoleFit struct {
	Role  string  `json:"role"`
	Score float64 `json:"score"` // [0,1]
}

// AnalysisResult 简历结构化分析结果
// 数值字段用指针区分"模型未给出"和"值为0"
type AnalysisResult struct {
	OverallScore    *float64  `json:"overall_score"`
	ScoreLabel      string    `json:"score_label"`
	TopSkills       []string  `json:"top_skills"`
	RoleFit         []RoleFit `json:"role_fit"`
	ExperienceLevel string    `json:"experience_level"`
	YearsExperience *float64  `json:"years_experience"`
	ProjectCount    *int      `json:"project_count"`
	CompaniesCount  *int      `json:"companies_count"`
	Gaps            []string  `json:"gaps"`
	QuickWins       []string  `json:"quick_wins"`
}

// NewEmptyAnalysisResult 返回列表字段均为空切片的结果，保证JSON输出[]而不是null
func NewEmptyAnalysisResult() *AnalysisResult {
	return &AnalysisResult{
		TopSkills: []string{},
		RoleFit:   []RoleFit{},
		Gaps:      []string{},
		QuickWins: []string{},
	}
}

// ChunkVector 待写入向量库的一个分块
type ChunkVector struct {
	// FileID 所属文件，教练问答语料为空
	FileID string
	// ChunkID 分块在文件内的序号
	ChunkID int
	// DocType 文档类型，见constants.DocType*
	DocType string
	// Vector 嵌入向量
	Vector []float64
	// Text 分块原文
	Text string
}

// SearchResult 向量检索命中的一条记录
type SearchResult struct {
	Text    string
	Score   float64
	DocType string
	FileID  string
}

// SearchFilter 向量检索过滤条件
type SearchFilter struct {
	// DocTypes 文档类型，单个为相等匹配，多个为任一匹配
	DocTypes []string
	// FileID 非空时限定所属文件
	FileID string
}

// UploadResult /upload_resume 的响应体
type UploadResult struct {
	FileID   string `json:"file_id"`
	Greeting string `json:"greeting"`
	// Analysis 正常为*AnalysisResult，非简历时为固定提示字符串
	Analysis any `json:"analysis"`
}

// ResumeEvent 简历处理完成后发布的事件
type ResumeEvent struct {
	Event      string    `json:"event"`
	FileID     string    `json:"file_id"`
	ResumeHash string    `json:"resume_hash,omitempty"`
	ModelName  string    `json:"model_name,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
