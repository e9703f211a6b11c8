// Package chat はAIコーチとの会話トランスクリプト管理を提供する。
package chat

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fukushimam-sketch/workout-tracker/internal/advice"
	"github.com/fukushimam-sketch/workout-tracker/internal/model"
)

// workoutContext はアドバイス生成に渡す固定の履歴コンテキスト。
const workoutContext = "ユーザーが定期的にワークアウトを記録しています。"

// MetricsRecorder はアドバイス生成のメトリクス収集インターフェース。
type MetricsRecorder interface {
	RecordAdviceRequest(durationSeconds float64)
	RecordAdviceFailure()
}

// conversation はユーザー1人分のトランスクリプトと進行状態。
type conversation struct {
	messages []*model.ChatMessage
	busy     bool
}

// Service はユーザーごとの会話を保持し、アドバイス生成を直列化する。
// トランスクリプトはメモリ内のみで、プロセス終了と共に消える。
type Service struct {
	mu            sync.Mutex
	conversations map[string]*conversation

	generator advice.Generator
	metrics   MetricsRecorder
	timeout   time.Duration
	now       func() time.Time
}

// NewService はServiceを生成する。timeoutはアドバイス生成1回あたりの上限。
func NewService(generator advice.Generator, metrics MetricsRecorder, timeout time.Duration) *Service {
	return &Service{
		conversations: make(map[string]*conversation),
		generator:     generator,
		metrics:       metrics,
		timeout:       timeout,
		now:           time.Now,
	}
}

// SetNowFunc はテスト用に現在時刻の取得方法を差し替える。
func (s *Service) SetNowFunc(now func() time.Time) {
	s.now = now
}

// Send はユーザーの発言を追加し、アシスタントの応答を生成して返す。
// ユーザーの発言は生成の成否に関わらずトランスクリプトに残る。
// 同一ユーザーの生成リクエストは常に1件に直列化され、処理中の送信は拒否する。
func (s *Service) Send(ctx context.Context, userID, message string) (*model.ChatMessage, error) {
	if userID == "" {
		return nil, model.NewAuthRequiredError()
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, model.NewEmptyMessageError()
	}

	s.mu.Lock()
	conv, ok := s.conversations[userID]
	if !ok {
		conv = &conversation{}
		s.conversations[userID] = conv
	}
	if conv.busy {
		s.mu.Unlock()
		return nil, model.NewChatBusyError()
	}
	conv.busy = true
	conv.messages = append(conv.messages, &model.ChatMessage{
		ID:        uuid.NewString(),
		Role:      model.ChatRoleUser,
		Content:   message,
		CreatedAt: s.now(),
	})
	s.mu.Unlock()

	genCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := s.now()
	reply, err := s.generator.Generate(genCtx, message, workoutContext)
	s.metrics.RecordAdviceRequest(time.Since(start).Seconds())

	s.mu.Lock()
	defer s.mu.Unlock()
	conv.busy = false

	if err != nil {
		s.metrics.RecordAdviceFailure()
		slog.Error("failed to generate advice",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewGenerationError()
	}

	assistant := &model.ChatMessage{
		ID:        uuid.NewString(),
		Role:      model.ChatRoleAssistant,
		Content:   reply,
		CreatedAt: s.now(),
	}
	conv.messages = append(conv.messages, assistant)

	slog.Info("advice generated",
		slog.String("user_id", userID),
		slog.Int("transcript_len", len(conv.messages)),
	)

	return assistant, nil
}

// Messages はユーザーのトランスクリプトを発言順のコピーで返す。
func (s *Service) Messages(userID string) []*model.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[userID]
	if !ok {
		return []*model.ChatMessage{}
	}
	out := make([]*model.ChatMessage, len(conv.messages))
	copy(out, conv.messages)
	return out
}
