// Package workout はワークアウト記録のビジネスロジックを提供する。
package workout

import (
	"context"
	"log/slog"

	"github.com/fukushimam-sketch/workout-tracker/internal/model"
	"github.com/fukushimam-sketch/workout-tracker/internal/store"
)

// MetricsRecorder はワークアウト記録のメトリクス収集インターフェース。
// metrics.Collectorの部分集合として定義する。
type MetricsRecorder interface {
	RecordWorkoutCreated()
}

// Service はワークアウト記録の作成・取得・ライブ購読を提供する。
// すべての操作は認証済みユーザーのIDでスコープされる。
type Service struct {
	repo    store.WorkoutRepository
	metrics MetricsRecorder
}

// NewService はServiceを生成する。
func NewService(repo store.WorkoutRepository, metrics MetricsRecorder) *Service {
	return &Service{
		repo:    repo,
		metrics: metrics,
	}
}

// Create は記録を検証して作成し、採番されたIDを返す。
// 未認証の場合はストアを呼ばずにValidationErrorを返す。
func (s *Service) Create(ctx context.Context, userID string, in *model.WorkoutInput) (string, error) {
	if userID == "" {
		return "", model.NewAuthRequiredError()
	}
	if apiErr := in.Validate(); apiErr != nil {
		return "", apiErr
	}

	id, err := s.repo.Create(ctx, userID, in)
	if err != nil {
		slog.Error("failed to create workout",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return "", model.NewStoreWriteError()
	}

	s.metrics.RecordWorkoutCreated()

	slog.Info("workout created",
		slog.String("user_id", userID),
		slog.String("workout_id", id),
		slog.String("exercise", in.Exercise),
	)

	return id, nil
}

// List は所有者の全記録をCreatedAt降順で返す。
func (s *Service) List(ctx context.Context, userID string) ([]*model.Workout, error) {
	if userID == "" {
		return nil, model.NewAuthRequiredError()
	}

	workouts, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		slog.Error("failed to list workouts",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewStoreReadError()
	}
	return workouts, nil
}

// Watch は所有者の記録に対するライブ購読を開始する。
// 呼び出し側は返されたSubscriptionを必ずStopすること。
func (s *Service) Watch(ctx context.Context, userID string) (*store.Subscription, error) {
	if userID == "" {
		return nil, model.NewAuthRequiredError()
	}

	sub, err := s.repo.WatchByUser(ctx, userID)
	if err != nil {
		slog.Error("failed to watch workouts",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewStoreReadError()
	}
	return sub, nil
}
