package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/fukushimam-sketch/workout-tracker/internal/model"
	"google.golang.org/api/iterator"
)

const (
	workoutCollection = "workouts"
	sessionCollection = "sessions"
)

// NewFirestoreClient はFirestoreクライアントを生成する。
// databaseIDには通常 "(default)" を指定する。
func NewFirestoreClient(ctx context.Context, projectID, databaseID string) (*firestore.Client, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return client, nil
}

// workoutDoc はFirestoreのworkoutsコレクションのドキュメント構造。
// CreatedAtはserverTimestampでストア側が付与する。
// Weightはnilの場合フィールド自体を省略し、0と区別する。
type workoutDoc struct {
	UserID    string    `firestore:"user_id"`
	Exercise  string    `firestore:"exercise"`
	Sets      int       `firestore:"sets"`
	Reps      int       `firestore:"reps"`
	Weight    *float64  `firestore:"weight,omitempty"`
	Notes     string    `firestore:"notes"`
	CreatedAt time.Time `firestore:"created_at,serverTimestamp"`
}

// FirestoreWorkoutRepo はWorkoutRepositoryのFirestore実装。
// アクセスルールによる所有者以外の読み書き禁止はFirestore側で強制される。
type FirestoreWorkoutRepo struct {
	client *firestore.Client
}

// NewFirestoreWorkoutRepo はFirestoreWorkoutRepoを生成する。
func NewFirestoreWorkoutRepo(client *firestore.Client) *FirestoreWorkoutRepo {
	return &FirestoreWorkoutRepo{client: client}
}

// Create はワークアウト記録を作成する。
// ドキュメントIDの採番とタイムスタンプの付与はFirestoreが行う。
func (r *FirestoreWorkoutRepo) Create(ctx context.Context, userID string, in *model.WorkoutInput) (string, error) {
	doc := workoutDoc{
		UserID:   userID,
		Exercise: in.Exercise,
		Sets:     in.Sets,
		Reps:     in.Reps,
		Weight:   in.Weight,
		Notes:    in.Notes,
	}

	ref, _, err := r.client.Collection(workoutCollection).Add(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("failed to create workout: %w", err)
	}
	return ref.ID, nil
}

// ListByUser は所有者の全記録をCreatedAt降順で返す。
func (r *FirestoreWorkoutRepo) ListByUser(ctx context.Context, userID string) ([]*model.Workout, error) {
	iter := r.queryByUser(userID).Documents(ctx)
	defer iter.Stop()

	workouts := []*model.Workout{}
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list workouts: %w", err)
		}

		w, err := snapshotToWorkout(snap)
		if err != nil {
			return nil, err
		}
		workouts = append(workouts, w)
	}
	return workouts, nil
}

// WatchByUser は所有者の記録に対するスナップショットリスナーを開始する。
// 初回スナップショットを含め、変更のたびに全件がCreatedAt降順で配信される。
// ctxのキャンセルまたはStopで購読が解除される。
func (r *FirestoreWorkoutRepo) WatchByUser(ctx context.Context, userID string) (*Subscription, error) {
	wctx, cancel := context.WithCancel(ctx)
	sub := NewSubscription(cancel)

	go func() {
		defer close(sub.ch)

		snapIter := r.queryByUser(userID).Snapshots(wctx)
		defer snapIter.Stop()

		for {
			qsnap, err := snapIter.Next()
			if err != nil {
				// キャンセル起因でない場合のみエラーとして記録する
				if wctx.Err() == nil {
					slog.Error("workout snapshot listener failed",
						slog.String("user_id", userID),
						slog.String("error", err.Error()),
					)
					sub.setErr(fmt.Errorf("failed to receive workout snapshot: %w", err))
				}
				return
			}

			workouts := []*model.Workout{}
			docIter := qsnap.Documents
			for {
				docSnap, err := docIter.Next()
				if err == iterator.Done {
					break
				}
				if err != nil {
					sub.setErr(fmt.Errorf("failed to read workout snapshot: %w", err))
					return
				}
				w, err := snapshotToWorkout(docSnap)
				if err != nil {
					sub.setErr(err)
					return
				}
				workouts = append(workouts, w)
			}

			select {
			case sub.ch <- workouts:
			case <-wctx.Done():
				return
			}
		}
	}()

	return sub, nil
}

// queryByUser は所有者スコープ・CreatedAt降順のライブクエリを構築する。
func (r *FirestoreWorkoutRepo) queryByUser(userID string) firestore.Query {
	return r.client.Collection(workoutCollection).
		Where("user_id", "==", userID).
		OrderBy("created_at", firestore.Desc)
}

// snapshotToWorkout はFirestoreドキュメントをドメインモデルに変換する。
func snapshotToWorkout(snap *firestore.DocumentSnapshot) (*model.Workout, error) {
	var doc workoutDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode workout document %s: %w", snap.Ref.ID, err)
	}

	return &model.Workout{
		ID:        snap.Ref.ID,
		UserID:    doc.UserID,
		Exercise:  doc.Exercise,
		Sets:      doc.Sets,
		Reps:      doc.Reps,
		Weight:    doc.Weight,
		Notes:     doc.Notes,
		CreatedAt: doc.CreatedAt,
	}, nil
}

// sessionDoc はFirestoreのsessionsコレクションのドキュメント構造。
// IdPから取得したユーザー情報はセッションにのみ保持される。
type sessionDoc struct {
	UserID    string    `firestore:"user_id"`
	Name      string    `firestore:"name"`
	Email     string    `firestore:"email"`
	Provider  string    `firestore:"provider"`
	ExpiresAt time.Time `firestore:"expires_at"`
	CreatedAt time.Time `firestore:"created_at"`
}

// FirestoreSessionRepo はSessionRepositoryのFirestore実装。
type FirestoreSessionRepo struct {
	client *firestore.Client
}

// NewFirestoreSessionRepo はFirestoreSessionRepoを生成する。
func NewFirestoreSessionRepo(client *firestore.Client) *FirestoreSessionRepo {
	return &FirestoreSessionRepo{client: client}
}

// Create はセッションを保存する。
func (r *FirestoreSessionRepo) Create(ctx context.Context, session *model.Session) error {
	doc := sessionDoc{
		UserID:    session.UserID,
		Name:      session.Name,
		Email:     session.Email,
		Provider:  session.Provider,
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
	}

	if _, err := r.client.Collection(sessionCollection).Doc(session.ID).Set(ctx, doc); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// FindByID はセッションをIDで検索する。
// 存在しない場合と期限切れの場合はnilを返す。
func (r *FirestoreSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	snap, err := r.client.Collection(sessionCollection).Doc(id).Get(ctx)
	if snap != nil && !snap.Exists() {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	var doc sessionDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode session document: %w", err)
	}

	if time.Now().After(doc.ExpiresAt) {
		return nil, nil
	}

	return &model.Session{
		ID:        id,
		UserID:    doc.UserID,
		Name:      doc.Name,
		Email:     doc.Email,
		Provider:  doc.Provider,
		ExpiresAt: doc.ExpiresAt,
		CreatedAt: doc.CreatedAt,
	}, nil
}

// DeleteByID はセッションを削除する。
func (r *FirestoreSessionRepo) DeleteByID(ctx context.Context, id string) error {
	if _, err := r.client.Collection(sessionCollection).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// --- compile-time interface checks ---

var _ WorkoutRepository = (*FirestoreWorkoutRepo)(nil)
var _ SessionRepository = (*FirestoreSessionRepo)(nil)
