package handlers

import (
	"context"

	"chat_delivery_service/internal/chat/domain"
	errprocess "chat_delivery_service/pkg/err"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// MessageService send / delete-for-me / react
type MessageService interface {
	Execute(ctx context.Context, caller, conversationID uuid.UUID, in domain.NewMessage) (domain.MessageModel, error)
	DeleteForMe(ctx context.Context, caller, conversationID, messageID uuid.UUID) error
	React(ctx context.Context, caller, conversationID, messageID uuid.UUID, reaction domain.Reaction) error
}

// ReadService message listing with read receipts
type ReadService interface {
	ListMessages(ctx context.Context, caller, conversationID uuid.UUID, page domain.PageRequest) (domain.Page[domain.MessageModel], error)
	MarkConversationRead(ctx context.Context, caller, conversationID uuid.UUID) (int64, error)
}

// MessageHandler 处理 message 相关的 HTTP 请求
type MessageHandler struct {
	messages MessageService
	reads    ReadService
}

// NewMessageHandler 创建 MessageHandler
func NewMessageHandler(messages MessageService, reads ReadService) *MessageHandler {
	return &MessageHandler{messages: messages, reads: reads}
}

// ReactionRequest reaction body, empty clears
type ReactionRequest struct {
	Reaction domain.Reaction `json:"reaction"`
}

// MarkedResponse number of rows flipped to read
type MarkedResponse struct {
	ConversationID uuid.UUID `json:"conversationId"`
	Marked         int64     `json:"marked"`
}

// Send post a message
// @Summary Send message
// @Description 寫入訊息與每位成員的 recipient 列, 之後推播給所有在線成員
// @Tags Messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "conversation id"
// @Param request body domain.NewMessage true "message"
// @Success 201 {object} domain.MessageModel
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /conversations/{id}/messages [post]
func (h *MessageHandler) Send(c *fiber.Ctx) error {
	accountID, err := caller(c)
	if err != nil {
		return fail(c, err)
	}
	conversationID, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	var req domain.NewMessage
	if err := c.BodyParser(&req); err != nil {
		return fail(c, errprocess.Wrap(errprocess.InvalidInput, "invalid request", err))
	}

	msg, err := h.messages.Execute(c.UserContext(), accountID, conversationID, req)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

// List messages, newest first; 讀取時順便把呼叫者未讀的列標記為已讀
// @Summary List messages
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Param id path string true "conversation id"
// @Param page query int false "1-based page"
// @Param pageSize query int false "page size"
// @Success 200 {object} domain.Page[domain.MessageModel]
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse "partial_read_update"
// @Router /conversations/{id}/messages [get]
func (h *MessageHandler) List(c *fiber.Ctx) error {
	accountID, err := caller(c)
	if err != nil {
		return fail(c, err)
	}
	conversationID, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	page, err := h.reads.ListMessages(c.UserContext(), accountID, conversationID, pageQuery(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(page)
}

// MarkRead bulk mark the caller's rows read
// @Summary Mark conversation read
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Param id path string true "conversation id"
// @Success 200 {object} MarkedResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /conversations/{id}/messages/read [post]
func (h *MessageHandler) MarkRead(c *fiber.Ctx) error {
	accountID, err := caller(c)
	if err != nil {
		return fail(c, err)
	}
	conversationID, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	n, err := h.reads.MarkConversationRead(c.UserContext(), accountID, conversationID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(MarkedResponse{ConversationID: conversationID, Marked: n})
}

// Delete delete a single message for the caller
// @Summary Delete message for me
// @Tags Messages
// @Security BearerAuth
// @Param id path string true "conversation id"
// @Param messageId path string true "message id"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /conversations/{id}/messages/{messageId} [delete]
func (h *MessageHandler) Delete(c *fiber.Ctx) error {
	accountID, err := caller(c)
	if err != nil {
		return fail(c, err)
	}
	conversationID, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	messageID, err := pathID(c, "messageId")
	if err != nil {
		return fail(c, err)
	}

	if err := h.messages.DeleteForMe(c.UserContext(), accountID, conversationID, messageID); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// React set or clear the caller's reaction
// @Summary React to message
// @Description reaction: like, love, laugh, wow, sad, angry; 空字串清除
// @Tags Messages
// @Accept json
// @Security BearerAuth
// @Param id path string true "conversation id"
// @Param messageId path string true "message id"
// @Param request body ReactionRequest true "reaction"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /conversations/{id}/messages/{messageId}/reaction [put]
func (h *MessageHandler) React(c *fiber.Ctx) error {
	accountID, err := caller(c)
	if err != nil {
		return fail(c, err)
	}
	conversationID, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	messageID, err := pathID(c, "messageId")
	if err != nil {
		return fail(c, err)
	}

	var req ReactionRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, errprocess.Wrap(errprocess.InvalidInput, "invalid request", err))
	}

	if err := h.messages.React(c.UserContext(), accountID, conversationID, messageID, req.Reaction); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
