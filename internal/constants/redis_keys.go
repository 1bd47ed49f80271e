package constants

// Redis Key 前缀和格式常量
// 统一命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 所有Redis Key的应用前缀
	AppPrefix = "app"

	// CoachModulePrefix 教练模块
	CoachModulePrefix = "coach"

	// EntityAnalysis 简历分析结果实体
	EntityAnalysis = "analysis"
	// EntitySession 会话实体
	EntitySession = "session"

	// KeyAnalysisCache 简历分析结果快速缓存 (STRING, 值为分析JSON)
	// 格式: app:coach:analysis:{resume_hash}
	KeyAnalysisCache = AppPrefix + ":" + CoachModulePrefix + ":" + EntityAnalysis + ":%s"

	// KeySessionUserName 会话用户名缓存 (STRING)
	// 格式: app:coach:session:{file_id}
	KeySessionUserName = AppPrefix + ":" + CoachModulePrefix + ":" + EntitySession + ":%s"
)
