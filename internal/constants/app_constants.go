package constants

// 向量负载中的文档类型
const (
	// DocTypeResumeChunk 简历分块
	DocTypeResumeChunk = "resume_chunk"
	// DocTypeCoachQA 教练问答语料
	DocTypeCoachQA = "coach_qa"
)

// 向量负载字段名
const (
	PayloadFieldDocType = "doc_type"
	PayloadFieldFileID  = "file_id"
	PayloadFieldText    = "text"
	PayloadFieldChunkID = "chunk_id"
)

// 用户名兜底值
const (
	// FallbackNameGreeting 提取不到姓名时问候语中使用
	FallbackNameGreeting = "there"
	// FallbackNameChat 会话查不到姓名时对话中使用
	FallbackNameChat = "friend"
)

// 面向用户的固定文案，与前端约定，不要改动
const (
	// GreetingGeneric 文件已加载但未分析时的问候
	GreetingGeneric = "Hi there! I’ve loaded your file. Ask me anything to get started."

	// GreetingNotResume 上传内容不是简历时的问候
	GreetingNotResume = "Hi there! I’ve loaded your file. This isn’t a resume, please upload that next."

	// GreetingResumeFmt 简历分析完成后的问候，%s为用户名
	GreetingResumeFmt = "Hi %s! I’ve analyzed your resume. Ask me anything—STAR stories, interview prep, project explanations, LinkedIn summary—I'm your personal career coach now."

	// AnalysisNotResume 非简历文件的分析占位内容
	AnalysisNotResume = "I could not detect this file as a proper resume. Please upload a clear resume PDF for best results."

	// ChatMissingFileID 未携带file_id时的对话回复
	ChatMissingFileID = "Please upload a valid resume in PDF format before we start chatting. 🙂"

	// ChatNoResumeContent file_id下检索不到简历内容时的对话回复
	ChatNoResumeContent = "I couldn't find any valid resume content linked to this chat.\n\n👉 Please upload your actual resume in **PDF format** and then try asking your question again.\nRight now it looks like you might have uploaded a random or non-resume PDF. 🙂"
)

// 事件类型，发布到RabbitMQ
const (
	EventResumeAnalyzed = "resume.analyzed"
	EventResumeRejected = "resume.rejected"
)
