// Package router 注册HTTP路由。
package router

import (
	"context"

	"resume-coach-go/internal/api/handler"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/hertz-contrib/keyauth"
)

// RegisterRoutes 注册API路由
// apiKey非空时，上传和对话接口要求携带X-API-Key请求头；健康检查不受保护
func RegisterRoutes(h *server.Hertz, coachHandler *handler.CoachHandler, apiKey string) {
	h.GET("/health", coachHandler.Health)

	api := h.Group("/")
	if apiKey != "" {
		api.Use(keyauth.New(
			keyauth.WithKeyLookUp("header:X-API-Key", ""),
			keyauth.WithValidator(func(ctx context.Context, c *app.RequestContext, key string) (bool, error) {
				return key == apiKey, nil
			}),
		))
	}

	api.POST("/upload_resume", coachHandler.UploadResume)
	api.POST("/chat", coachHandler.Chat)
}
