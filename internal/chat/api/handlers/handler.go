package handlers

import (
	"errors"
	"fmt"
	"strconv"

	"chat_delivery_service/internal/chat/domain"
	errprocess "chat_delivery_service/pkg/err"
	"chat_delivery_service/pkg/logger"
	"chat_delivery_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ConnectCheck check api connect start
// @Summary Check chat service status
// @Description Returns a simple confirmation message
// @Tags Shared
// @Success 200 {string} string "chat service start!"
// @Router / [get]
func ConnectCheck(c *fiber.Ctx) error {
	return c.SendString("chat service start!")
}

// DebugLogFlag toggle debug log flag
// @Summary Toggle Debug Log Flag
// @Description Enable or disable debug logging
// @Tags Shared
// @Param status query bool true "Debug status"
// @Success 200 {string} string "debug mode updated"
// @Failure 400 {object} ErrorResponse "Invalid status value"
// @Router /debug/log [post]
func DebugLogFlag(c *fiber.Ctx) error {
	statusStr := c.Query("status")
	logger.Log.Info("debug", zap.String("status", statusStr))
	status, err := strconv.ParseBool(statusStr)
	if err != nil {
		return fail(c, errprocess.Wrap(errprocess.InvalidInput, "invalid status value", err))
	}

	logger.Log.SetDebugMode(status)
	return c.SendString(fmt.Sprintf("debug mode is : %t", status))
}

// ErrorResponse error body of every failed request
type ErrorResponse struct {
	Error          string     `json:"error"`
	Kind           string     `json:"kind"`
	ConversationID *uuid.UUID `json:"conversationId,omitempty"`
}

// ErrorHandler fiber.Config ErrorHandler, 未被 handler 處理的錯誤也回傳同樣格式
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(ErrorResponse{Error: fe.Message, Kind: string(kindOfStatus(fe.Code))})
	}
	return fail(c, err)
}

func kindOfStatus(code int) errprocess.Kind {
	switch code {
	case fiber.StatusUnauthorized:
		return errprocess.Unauthorized
	case fiber.StatusForbidden:
		return errprocess.Forbidden
	case fiber.StatusNotFound:
		return errprocess.NotFound
	case fiber.StatusBadRequest, fiber.StatusMethodNotAllowed, fiber.StatusRequestEntityTooLarge:
		return errprocess.InvalidInput
	}
	return errprocess.Internal
}

// fail 依錯誤種類回傳 status code 與 {"error", "kind"}
func fail(c *fiber.Ctx, err error) error {
	kind := errprocess.KindOf(err)
	status := errprocess.HTTPStatus(kind)
	resp := ErrorResponse{Error: err.Error(), Kind: string(kind)}

	var conflict *domain.ConflictError
	if errors.As(err, &conflict) {
		resp.ConversationID = &conflict.ConversationID
	}

	if status >= fiber.StatusInternalServerError {
		logger.Log.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		// 內部錯誤不外露細節
		resp.Error = string(kind)
	} else {
		logger.Log.Debug("request rejected", zap.String("path", c.Path()), zap.Error(err))
	}
	return c.Status(status).JSON(resp)
}

func caller(c *fiber.Ctx) (uuid.UUID, error) {
	id, ok := middlewares.AccountID(c)
	if !ok {
		return uuid.Nil, domain.ErrUnauthorized
	}
	return id, nil
}

func pathID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, errprocess.Wrap(errprocess.InvalidInput, "invalid "+name, err)
	}
	return id, nil
}

func pageQuery(c *fiber.Ctx) domain.PageRequest {
	return domain.PageRequest{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("pageSize", 0),
	}
}
