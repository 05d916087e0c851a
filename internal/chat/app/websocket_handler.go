package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"chat_delivery_service/internal/chat/domain"
	"chat_delivery_service/internal/chat/hub"
	errprocess "chat_delivery_service/pkg/err"
	"chat_delivery_service/pkg/logger"
	"chat_delivery_service/pkg/middlewares"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrConnClosed send on a closed live connection
var ErrConnClosed = errors.New("connection closed")

// ConnRegistry what the websocket handler needs from the registry
type ConnRegistry interface {
	Register(accountID uuid.UUID, c hub.Conn)
	Unregister(accountID uuid.UUID, c hub.Conn)
}

// wsConn one live connection, writes are serialized by a single writer goroutine
type wsConn struct {
	id     string
	out    chan []byte
	done   chan struct{}
	closed sync.Once
}

func newWSConn(queueSize int) *wsConn {
	return &wsConn{
		id:   uuid.NewString(),
		out:  make(chan []byte, queueSize),
		done: make(chan struct{}),
	}
}

func (c *wsConn) ID() string { return c.id }

// Send queue payload, 佇列滿時等到 ctx 結束
func (c *wsConn) Send(ctx context.Context, payload []byte) error {
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}
	select {
	case c.out <- payload:
		return nil
	case <-c.done:
		return ErrConnClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *wsConn) close() {
	c.closed.Do(func() { close(c.done) })
}

// ChatWebsocketHandler 可包含所有需要的 UseCase
type ChatWebsocketHandler struct {
	registry     ConnRegistry
	messageUC    *SendMessageUseCase
	readUC       *ReadReceiptUseCase
	queueSize    int
	pingInterval time.Duration
}

// NewChatWebsocketHandler create ChatWebsocketHandler
func NewChatWebsocketHandler(
	registry ConnRegistry,
	messageUC *SendMessageUseCase,
	readUC *ReadReceiptUseCase,
	queueSize int,
	pingInterval time.Duration,
) *ChatWebsocketHandler {
	return &ChatWebsocketHandler{
		registry:     registry,
		messageUC:    messageUC,
		readUC:       readUC,
		queueSize:    queueSize,
		pingInterval: pingInterval,
	}
}

// HandleConnection 是 WebSocket 連線的進入點
func (h *ChatWebsocketHandler) HandleConnection(ctx context.Context, conn *websocket.Conn) {
	accountID, ok := conn.Locals(middlewares.TokenAccountID).(uuid.UUID)
	if !ok || accountID == uuid.Nil {
		closeWebSocketConnection(conn, websocket.ClosePolicyViolation, "unauthorized")
		return
	}

	live := newWSConn(h.queueSize)
	ctxClose, cancel := context.WithCancel(ctx)
	h.registry.Register(accountID, live)
	log := logger.Log.With(zap.String("account_id", accountID.String()), zap.String("conn_id", live.id))
	log.Info("websocket open")

	defer func() {
		// unregister 為終止動作, 重複呼叫無副作用
		h.registry.Unregister(accountID, live)
		live.close()
		cancel()
		conn.Close()
		log.Info("websocket close")
	}()

	//client發出close
	//fiber會自動處理(在read msg 回傳err),故需要SetCloseHandler另外接出
	conn.SetCloseHandler(func(code int, text string) error {
		log.Debug("websocket closed by client", zap.Int("code", code), zap.String("text", text))
		return nil
	})

	// writer: 推播與回應都經過 live.out, 同一時間只有一個 goroutine 寫
	go h.writeLoop(ctxClose, conn, live)

	for {
		// 1. 讀取前端訊息
		mt, message, err := conn.ReadMessage()
		if err != nil {
			// 檢查是否為 Close 正常結束
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				log.Debug("connection closed", zap.Error(err))
			} else {
				//直接斷線 1006
				log.Warn("websocket read error", zap.Error(err))
			}
			return
		}
		if mt != websocket.TextMessage {
			h.reply(ctxClose, live, errorResponse("", "", errors.New("only text frames are supported")))
			continue
		}
		h.reply(ctxClose, live, h.textMessageAction(ctxClose, accountID, message))
	}
}

func (h *ChatWebsocketHandler) writeLoop(ctx context.Context, conn *websocket.Conn, live *wsConn) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case payload := <-live.out:
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Log.Warn("write message error", zap.String("conn_id", live.id), zap.Error(err))
				live.close()
				conn.Close()
				return
			}
		case <-ticker.C:
			// 定期發送 Ping, client 連線正常會回 pong
			if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(time.Second)); err != nil {
				logger.Log.Warn("ping error", zap.String("conn_id", live.id), zap.Error(err))
				live.close()
				conn.Close()
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (h *ChatWebsocketHandler) textMessageAction(ctx context.Context, accountID uuid.UUID, msg []byte) domain.WSResponse {
	var req domain.WSRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		return errorResponse("", "", errprocess.Wrap(errprocess.InvalidInput, "malformed request", err))
	}

	resp := domain.WSResponse{Action: req.Action, RequestID: req.RequestID}
	switch req.Action {
	//傳送資料
	//message都會寫入db,並傳訊給聊天室內的人
	case domain.SendMessage:
		m, err := h.messageUC.Execute(ctx, accountID, req.ConversationID, domain.NewMessage{
			Body:            req.Body,
			AttachmentRef:   req.Attachment,
			ParentMessageID: req.ParentMessageID,
		})
		if err != nil {
			return errorResponse(req.Action, req.RequestID, err)
		}
		resp.Success = true
		resp.Payload = m

	//讀取訊息  將未讀訊息改為已讀
	case domain.ReadMessages:
		n, err := h.readUC.MarkConversationRead(ctx, accountID, req.ConversationID)
		if err != nil {
			return errorResponse(req.Action, req.RequestID, err)
		}
		resp.Success = true
		resp.Payload = map[string]interface{}{"conversation_id": req.ConversationID, "marked": n}

	case domain.Ping:
		resp.Success = true
		resp.Payload = map[string]interface{}{"pong": time.Now().UTC()}

	default:
		return errorResponse(req.Action, req.RequestID, errprocess.New(errprocess.InvalidInput, "unknown action"))
	}
	return resp
}

// reply 回應只給自己這條連線
func (h *ChatWebsocketHandler) reply(ctx context.Context, live *wsConn, resp domain.WSResponse) {
	if !resp.Success {
		logger.Log.Debug("websocket action failed", zap.String("action", string(resp.Action)), zap.String("err", resp.Error))
	}
	b, err := json.Marshal(resp)
	if err != nil {
		logger.Log.Error("marshal response", zap.Error(err))
		return
	}
	if err := live.Send(ctx, b); err != nil {
		logger.Log.Debug("reply dropped", zap.String("conn_id", live.id), zap.Error(err))
	}
}

func errorResponse(action domain.Action, requestID string, err error) domain.WSResponse {
	if action == "" {
		action = domain.EventError
	}
	return domain.WSResponse{
		Action:    action,
		RequestID: requestID,
		Success:   false,
		Payload:   map[string]interface{}{"kind": errprocess.KindOf(err)},
		Error:     err.Error(),
	}
}

func closeWebSocketConnection(conn *websocket.Conn, code int, reason string) {
	if err := conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason)); err != nil {
		logger.Log.Debug("failed to send CloseMessage", zap.Error(err))
	}
	conn.Close()
}
