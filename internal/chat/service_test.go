package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fukushimam-sketch/workout-tracker/internal/model"
)

// --- モック定義 ---

type mockGenerator struct {
	generateFn func(ctx context.Context, message, workoutContext string) (string, error)
}

func (m *mockGenerator) Generate(ctx context.Context, message, workoutContext string) (string, error) {
	if m.generateFn != nil {
		return m.generateFn(ctx, message, workoutContext)
	}
	return "いい調子です。", nil
}

type nopMetrics struct{}

func (nopMetrics) RecordAdviceRequest(float64) {}
func (nopMetrics) RecordAdviceFailure()        {}

// --- テスト ---

func TestService_Send_AppendsUserAndAssistantTurns(t *testing.T) {
	gen := &mockGenerator{
		generateFn: func(ctx context.Context, message, workoutContext string) (string, error) {
			if message != "ベンチプレスを強くするには？" {
				t.Errorf("message = %q", message)
			}
			if workoutContext == "" {
				t.Error("workout context should not be empty")
			}
			return "フォームを安定させ、漸進的に重量を上げましょう。", nil
		},
	}
	svc := NewService(gen, nopMetrics{}, time.Second)

	reply, err := svc.Send(context.Background(), "user-1", "ベンチプレスを強くするには？")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if reply.Role != model.ChatRoleAssistant {
		t.Errorf("Role = %q, want assistant", reply.Role)
	}

	msgs := svc.Messages("user-1")
	if len(msgs) != 2 {
		t.Fatalf("len(messages) = %d, want 2", len(msgs))
	}
	if msgs[0].Role != model.ChatRoleUser || msgs[0].Content != "ベンチプレスを強くするには？" {
		t.Errorf("first turn = %+v, want user turn", msgs[0])
	}
	if msgs[1].Role != model.ChatRoleAssistant {
		t.Errorf("second turn = %+v, want assistant turn", msgs[1])
	}
}

func TestService_Send_EmptyMessage_Rejected(t *testing.T) {
	svc := NewService(&mockGenerator{}, nopMetrics{}, time.Second)

	for _, msg := range []string{"", "   ", "\n\t"} {
		_, err := svc.Send(context.Background(), "user-1", msg)
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected APIError for %q, got %v", msg, err)
		}
		if apiErr.Code != model.ErrCodeEmptyMessage {
			t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeEmptyMessage)
		}
	}
	if len(svc.Messages("user-1")) != 0 {
		t.Error("rejected messages should not appear in the transcript")
	}
}

func TestService_Send_GenerationFailure_KeepsUserTurn(t *testing.T) {
	gen := &mockGenerator{
		generateFn: func(ctx context.Context, message, workoutContext string) (string, error) {
			return "", errors.New("quota exceeded")
		},
	}
	svc := NewService(gen, nopMetrics{}, time.Second)

	_, err := svc.Send(context.Background(), "user-1", "おすすめのメニューは？")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != model.ErrCodeGenerationFail {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeGenerationFail)
	}

	msgs := svc.Messages("user-1")
	if len(msgs) != 1 {
		t.Fatalf("len(messages) = %d, want 1 (user turn retained)", len(msgs))
	}
	if msgs[0].Role != model.ChatRoleUser {
		t.Errorf("Role = %q, want user", msgs[0].Role)
	}

	// 失敗後は再送信できる
	gen.generateFn = func(ctx context.Context, message, workoutContext string) (string, error) {
		return "プッシュ系とプル系を交互に組みましょう。", nil
	}
	if _, err := svc.Send(context.Background(), "user-1", "もう一度お願いします"); err != nil {
		t.Fatalf("Send after failure should succeed: %v", err)
	}
	if got := len(svc.Messages("user-1")); got != 3 {
		t.Errorf("len(messages) = %d, want 3", got)
	}
}

func TestService_Send_SerializesInFlightRequests(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	gen := &mockGenerator{
		generateFn: func(ctx context.Context, message, workoutContext string) (string, error) {
			once.Do(func() { close(started) })
			<-release
			return "応答", nil
		},
	}
	svc := NewService(gen, nopMetrics{}, 0)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := svc.Send(context.Background(), "user-1", "1通目"); err != nil {
			t.Errorf("first Send failed: %v", err)
		}
	}()

	<-started
	_, err := svc.Send(context.Background(), "user-1", "2通目")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != model.ErrCodeChatBusy {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeChatBusy)
	}

	close(release)
	wg.Wait()

	// 完了後は再度送信できる
	if _, err := svc.Send(context.Background(), "user-1", "3通目"); err != nil {
		t.Fatalf("Send after completion failed: %v", err)
	}
}

func TestService_Send_OtherUserNotBlocked(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	gen := &mockGenerator{
		generateFn: func(ctx context.Context, message, workoutContext string) (string, error) {
			if strings.Contains(message, "待たせる") {
				once.Do(func() { close(started) })
				<-release
			}
			return "応答", nil
		},
	}
	svc := NewService(gen, nopMetrics{}, 0)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = svc.Send(context.Background(), "user-1", "待たせる質問")
	}()

	<-started
	if _, err := svc.Send(context.Background(), "user-2", "別ユーザーの質問"); err != nil {
		t.Errorf("other user's Send should not be blocked: %v", err)
	}
	close(release)
	wg.Wait()
}

func TestService_Messages_EmptyForUnknownUser(t *testing.T) {
	svc := NewService(&mockGenerator{}, nopMetrics{}, time.Second)
	if msgs := svc.Messages("unknown"); len(msgs) != 0 {
		t.Errorf("len(messages) = %d, want 0", len(msgs))
	}
}
