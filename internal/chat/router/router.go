package router

import (
	"context"

	"chat_delivery_service/internal/chat/api/handlers"
	"chat_delivery_service/internal/chat/app"
	"chat_delivery_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes 注册 chat service 的路由
// @title Chat Delivery Service API
// @version 1.0
// @description Conversations, messages, read receipts and the live delivery channel
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func RegisterRoutes(
	r *fiber.App,
	conversationHandler *handlers.ConversationHandler,
	messageHandler *handlers.MessageHandler,
	chatWebsocket *app.ChatWebsocketHandler,
) {
	r.Get("/swagger/*", swagger.HandlerDefault)
	r.Get("/", handlers.ConnectCheck)
	r.Post("/debug/log", handlers.DebugLogFlag)
	r.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	conversationRoutes := r.Group("/conversations", middlewares.JWTMiddleware())
	conversationRoutes.Post("/", conversationHandler.Create)
	conversationRoutes.Get("/", conversationHandler.List)
	conversationRoutes.Get("/:id", conversationHandler.Get)
	conversationRoutes.Put("/:id/archive", conversationHandler.Archive)
	conversationRoutes.Put("/:id/unarchive", conversationHandler.Unarchive)
	conversationRoutes.Delete("/:id", conversationHandler.Delete)

	conversationRoutes.Post("/:id/messages", messageHandler.Send)
	conversationRoutes.Get("/:id/messages", messageHandler.List)
	conversationRoutes.Post("/:id/messages/read", messageHandler.MarkRead)
	conversationRoutes.Delete("/:id/messages/:messageId", messageHandler.Delete)
	conversationRoutes.Put("/:id/messages/:messageId/reaction", messageHandler.React)

	// websocket 無法帶 header, token 可改放 ?auth=
	r.Use("/ws", middlewares.JWTMiddleware(), func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	r.Get("/ws", websocket.New(func(c *websocket.Conn) {
		// 連線生命週期獨立於 request context
		chatWebsocket.HandleConnection(context.Background(), c)
	}))
}
