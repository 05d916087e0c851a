package handlers

import (
	"context"
	"strconv"

	"chat_delivery_service/internal/chat/app"
	"chat_delivery_service/internal/chat/domain"
	errprocess "chat_delivery_service/pkg/err"
	"chat_delivery_service/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ConversationService conversation usecase used by the handler
type ConversationService interface {
	Create(ctx context.Context, caller uuid.UUID, in app.CreateConversation) (uuid.UUID, error)
	Get(ctx context.Context, caller, id uuid.UUID) (domain.ConversationModel, error)
	List(ctx context.Context, caller uuid.UUID, filter domain.ConversationFilter) (domain.Page[domain.ConversationModel], error)
	Archive(ctx context.Context, caller, id uuid.UUID) error
	Unarchive(ctx context.Context, caller, id uuid.UUID) error
	Delete(ctx context.Context, caller, id uuid.UUID) error
}

// ConversationHandler 处理 conversation 相关的 HTTP 请求
type ConversationHandler struct {
	conversations ConversationService
}

// NewConversationHandler 创建 ConversationHandler
func NewConversationHandler(conversations ConversationService) *ConversationHandler {
	return &ConversationHandler{conversations: conversations}
}

// CreatedResponse id of the created resource
type CreatedResponse struct {
	ID uuid.UUID `json:"id"`
}

// ArchiveResponse archive state after the request
type ArchiveResponse struct {
	ConversationID uuid.UUID `json:"conversationId"`
	IsArchived     bool      `json:"isArchived"`
}

// Create 建立 conversation
// @Summary Create conversation
// @Description 以成員組合建立 conversation, 呼叫者自動加入; 相同成員組合已存在時回傳 409 與既有 id
// @Tags Conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body app.CreateConversation true "members"
// @Success 201 {object} CreatedResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /conversations [post]
func (h *ConversationHandler) Create(c *fiber.Ctx) error {
	accountID, err := caller(c)
	if err != nil {
		return fail(c, err)
	}

	var req app.CreateConversation
	if err := c.BodyParser(&req); err != nil {
		return fail(c, errprocess.Wrap(errprocess.InvalidInput, "invalid request", err))
	}

	id, err := h.conversations.Create(c.UserContext(), accountID, req)
	if err != nil {
		return fail(c, err)
	}

	logger.Log.Info("conversation created",
		zap.String("conversation_id", id.String()),
		zap.String("account_id", accountID.String()),
		zap.Int("members", len(req.MemberIDs)),
	)
	return c.Status(fiber.StatusCreated).JSON(CreatedResponse{ID: id})
}

// Get conversation detail
// @Summary Get conversation
// @Description 呼叫者視角的 conversation 詳細資料 (含成員)
// @Tags Conversations
// @Produce json
// @Security BearerAuth
// @Param id path string true "conversation id"
// @Success 200 {object} domain.ConversationModel
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /conversations/{id} [get]
func (h *ConversationHandler) Get(c *fiber.Ctx) error {
	accountID, err := caller(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	model, err := h.conversations.Get(c.UserContext(), accountID, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(model)
}

// List conversations of the caller
// @Summary List conversations
// @Description 依最新訊息時間排序; archived 未帶時不過濾
// @Tags Conversations
// @Produce json
// @Security BearerAuth
// @Param archived query bool false "archived filter"
// @Param page query int false "1-based page"
// @Param pageSize query int false "page size"
// @Param search query string false "member name / username / email"
// @Success 200 {object} domain.Page[domain.ConversationModel]
// @Failure 400 {object} ErrorResponse
// @Router /conversations [get]
func (h *ConversationHandler) List(c *fiber.Ctx) error {
	accountID, err := caller(c)
	if err != nil {
		return fail(c, err)
	}

	filter := domain.ConversationFilter{
		Search:      c.Query("search"),
		PageRequest: pageQuery(c),
	}
	if raw := c.Query("archived"); raw != "" {
		archived, err := strconv.ParseBool(raw)
		if err != nil {
			return fail(c, errprocess.Wrap(errprocess.InvalidInput, "invalid archived value", err))
		}
		filter.Archived = &archived
	}

	page, err := h.conversations.List(c.UserContext(), accountID, filter)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(page)
}

// Archive archive for the caller only
// @Summary Archive conversation
// @Tags Conversations
// @Produce json
// @Security BearerAuth
// @Param id path string true "conversation id"
// @Success 200 {object} ArchiveResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /conversations/{id}/archive [put]
func (h *ConversationHandler) Archive(c *fiber.Ctx) error {
	return h.setArchived(c, true)
}

// Unarchive unarchive for the caller only
// @Summary Unarchive conversation
// @Tags Conversations
// @Produce json
// @Security BearerAuth
// @Param id path string true "conversation id"
// @Success 200 {object} ArchiveResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /conversations/{id}/unarchive [put]
func (h *ConversationHandler) Unarchive(c *fiber.Ctx) error {
	return h.setArchived(c, false)
}

func (h *ConversationHandler) setArchived(c *fiber.Ctx, archived bool) error {
	accountID, err := caller(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	if archived {
		err = h.conversations.Archive(c.UserContext(), accountID, id)
	} else {
		err = h.conversations.Unarchive(c.UserContext(), accountID, id)
	}
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(ArchiveResponse{ConversationID: id, IsArchived: archived})
}

// Delete soft-delete the conversation for the caller only
// @Summary Delete conversation for me
// @Description 只刪除呼叫者自己的訊息可見紀錄, 其他成員不受影響
// @Tags Conversations
// @Security BearerAuth
// @Param id path string true "conversation id"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /conversations/{id} [delete]
func (h *ConversationHandler) Delete(c *fiber.Ctx) error {
	accountID, err := caller(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	if err := h.conversations.Delete(c.UserContext(), accountID, id); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
