package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/fukushimam-sketch/workout-tracker/internal/middleware"
	"github.com/fukushimam-sketch/workout-tracker/internal/model"
	"github.com/fukushimam-sketch/workout-tracker/internal/store"
)

// WorkoutServiceInterface はワークアウトハンドラーが必要とするサービスインターフェース。
type WorkoutServiceInterface interface {
	Create(ctx context.Context, userID string, in *model.WorkoutInput) (string, error)
	List(ctx context.Context, userID string) ([]*model.Workout, error)
	Watch(ctx context.Context, userID string) (*store.Subscription, error)
}

// WatchMetricsRecorder はライブ購読数のメトリクス収集インターフェース。
type WatchMetricsRecorder interface {
	WatchStarted()
	WatchStopped()
}

// WorkoutHandler はワークアウト記録関連のHTTPハンドラー。
type WorkoutHandler struct {
	service WorkoutServiceInterface
	metrics WatchMetricsRecorder
}

// NewWorkoutHandler はWorkoutHandlerを生成する。
func NewWorkoutHandler(service WorkoutServiceInterface, metrics WatchMetricsRecorder) *WorkoutHandler {
	return &WorkoutHandler{
		service: service,
		metrics: metrics,
	}
}

// createWorkoutRequest はワークアウト作成リクエストのフォーマット。
// 数値フィールドに文字列が渡された場合はデコードに失敗し、保存されない。
type createWorkoutRequest struct {
	Exercise string   `json:"exercise"`
	Sets     int      `json:"sets"`
	Reps     int      `json:"reps"`
	Weight   *float64 `json:"weight"`
	Notes    string   `json:"notes"`
}

// workoutResponse はワークアウト記録のレスポンスフォーマット。
type workoutResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Exercise  string    `json:"exercise"`
	Sets      int       `json:"sets"`
	Reps      int       `json:"reps"`
	Weight    *float64  `json:"weight,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func newWorkoutResponse(w *model.Workout) *workoutResponse {
	return &workoutResponse{
		ID:        w.ID,
		UserID:    w.UserID,
		Exercise:  w.Exercise,
		Sets:      w.Sets,
		Reps:      w.Reps,
		Weight:    w.Weight,
		Notes:     w.Notes,
		CreatedAt: w.CreatedAt,
	}
}

func newWorkoutListResponse(workouts []*model.Workout) []*workoutResponse {
	out := make([]*workoutResponse, len(workouts))
	for i, w := range workouts {
		out[i] = newWorkoutResponse(w)
	}
	return out
}

// CreateWorkout はワークアウト記録を作成する。
// POST /api/workouts
func (h *WorkoutHandler) CreateWorkout(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewAuthRequiredError())
		return
	}

	var req createWorkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDecodeError(w, err)
		return
	}

	id, err := h.service.Create(r.Context(), userID, &model.WorkoutInput{
		Exercise: req.Exercise,
		Sets:     req.Sets,
		Reps:     req.Reps,
		Weight:   req.Weight,
		Notes:    req.Notes,
	})
	if err != nil {
		middleware.WriteServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"id": id})
}

// ListWorkouts は自分のワークアウト履歴を新しい順に返す。
// GET /api/workouts
func (h *WorkoutHandler) ListWorkouts(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewAuthRequiredError())
		return
	}

	workouts, err := h.service.List(r.Context(), userID)
	if err != nil {
		middleware.WriteServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"workouts": newWorkoutListResponse(workouts),
	})
}

// StreamWorkouts は自分のワークアウト履歴をServer-Sent Eventsで配信する。
// GET /api/workouts/stream
// ストア側の変更ごとに全件スナップショットをsnapshotイベントとして送る。
// クライアント切断で購読を解放する。
func (h *WorkoutHandler) StreamWorkouts(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewAuthRequiredError())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		middleware.WriteInternalServerError(w)
		return
	}

	sub, err := h.service.Watch(r.Context(), userID)
	if err != nil {
		middleware.WriteServiceError(w, err)
		return
	}
	defer sub.Stop()

	if h.metrics != nil {
		h.metrics.WatchStarted()
		defer h.metrics.WatchStopped()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case snapshot, ok := <-sub.Snapshots():
			if !ok {
				if subErr := sub.Err(); subErr != nil {
					slog.Error("workout watch terminated",
						slog.String("user_id", userID),
						slog.String("error", subErr.Error()),
					)
				}
				return
			}
			if err := writeSSESnapshot(w, flusher, snapshot); err != nil {
				slog.Warn("failed to write sse event",
					slog.String("user_id", userID),
					slog.String("error", err.Error()),
				)
				return
			}
		}
	}
}

// writeSSESnapshot は1件のsnapshotイベントを書き込んでフラッシュする。
func writeSSESnapshot(w http.ResponseWriter, flusher http.Flusher, workouts []*model.Workout) error {
	data, err := json.Marshal(map[string]any{
		"workouts": newWorkoutListResponse(workouts),
	})
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte("event: snapshot\ndata: " + string(data) + "\n\n")); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

// writeDecodeError はリクエストボディのデコード失敗を検証エラーとして返す。
// 数値フィールドへの型不一致は項目名付きで区別する。
func writeDecodeError(w http.ResponseWriter, err error) {
	if typeErr, ok := err.(*json.UnmarshalTypeError); ok && typeErr.Field != "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidNumberError(typeErr.Field))
		return
	}
	middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	})
}
