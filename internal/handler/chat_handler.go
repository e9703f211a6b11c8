package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/fukushimam-sketch/workout-tracker/internal/middleware"
	"github.com/fukushimam-sketch/workout-tracker/internal/model"
)

// ChatServiceInterface はチャットハンドラーが必要とするサービスインターフェース。
type ChatServiceInterface interface {
	Send(ctx context.Context, userID, message string) (*model.ChatMessage, error)
	Messages(userID string) []*model.ChatMessage
}

// ChatHandler はAIコーチとのチャット関連のHTTPハンドラー。
type ChatHandler struct {
	service ChatServiceInterface
}

// NewChatHandler はChatHandlerを生成する。
func NewChatHandler(service ChatServiceInterface) *ChatHandler {
	return &ChatHandler{service: service}
}

// sendMessageRequest はチャット送信リクエストのフォーマット。
type sendMessageRequest struct {
	Message string `json:"message"`
}

// chatMessageResponse はチャットメッセージのレスポンスフォーマット。
type chatMessageResponse struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

func newChatMessageResponse(m *model.ChatMessage) *chatMessageResponse {
	return &chatMessageResponse{
		ID:        m.ID,
		Role:      string(m.Role),
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}

// SendMessage はユーザーの発言を受け付け、AIコーチの応答を返す。
// POST /api/chat/messages
// 前のリクエストが処理中の場合は409を返す。
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewAuthRequiredError())
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDecodeError(w, err)
		return
	}

	reply, err := h.service.Send(r.Context(), userID, req.Message)
	if err != nil {
		middleware.WriteServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"message": newChatMessageResponse(reply),
	})
}

// ListMessages は自分のチャットトランスクリプトを発言順で返す。
// GET /api/chat/messages
func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewAuthRequiredError())
		return
	}

	messages := h.service.Messages(userID)
	out := make([]*chatMessageResponse, len(messages))
	for i, m := range messages {
		out[i] = newChatMessageResponse(m)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"messages": out,
	})
}
