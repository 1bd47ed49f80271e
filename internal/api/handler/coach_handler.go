// Package handler 定义HTTP入口，把请求解包后交给processor层。
package handler

import (
	"context"
	"io"

	"resume-coach-go/internal/logger"
	"resume-coach-go/internal/tracing"
	"resume-coach-go/internal/types"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"go.opentelemetry.io/otel/trace"
)

// CoachService 对话教练服务接口
type CoachService interface {
	HandleUpload(ctx context.Context, fileData []byte, filename string) (*types.UploadResult, error)
	HandleChat(ctx context.Context, fileID, userMessage string) (string, error)
}

// ChatRequest /chat 请求体
type ChatRequest struct {
	UserMessage string `json:"user_message"`
	FileID      string `json:"file_id"`
}

// ChatResponse /chat 响应体
type ChatResponse struct {
	Response string `json:"response"`
}

// CoachHandler 上传与对话的HTTP处理器
type CoachHandler struct {
	svc CoachService
}

// NewCoachHandler 创建处理器
func NewCoachHandler(svc CoachService) *CoachHandler {
	return &CoachHandler{svc: svc}
}

// UploadResume 处理简历上传
// 只要请求本身可读就返回200，文件是否为有效简历体现在响应内容里
func (h *CoachHandler) UploadResume(c context.Context, ctx *app.RequestContext) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": "文件未找到"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "打开文件失败"})
		return
	}
	defer file.Close()

	fileData, err := io.ReadAll(file)
	if err != nil {
		ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "读取文件失败"})
		return
	}

	result, err := h.svc.HandleUpload(c, fileData, fileHeader.Filename)
	if err != nil {
		logger.Error().Err(err).Str("filename", fileHeader.Filename).Msg("简历上传处理失败")
		tracing.RecordHTTPError(trace.SpanFromContext(c), err, consts.StatusInternalServerError)
		ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}

	ctx.JSON(consts.StatusOK, result)
}

// Chat 处理教练对话
func (h *CoachHandler) Chat(c context.Context, ctx *app.RequestContext) {
	var req ChatRequest
	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体格式错误"})
		return
	}
	if req.UserMessage == "" {
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": "user_message不能为空"})
		return
	}

	response, err := h.svc.HandleChat(c, req.FileID, req.UserMessage)
	if err != nil {
		logger.Error().Err(err).Str("file_id", req.FileID).Msg("对话处理失败")
		tracing.RecordHTTPError(trace.SpanFromContext(c), err, consts.StatusInternalServerError)
		ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}

	ctx.JSON(consts.StatusOK, ChatResponse{Response: response})
}

// Health 健康检查
func (h *CoachHandler) Health(c context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
}
