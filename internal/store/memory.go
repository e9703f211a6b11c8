package store

import (
	"context"
	"sync"
	"time"

	"github.com/fukushimam-sketch/workout-tracker/internal/model"
	"github.com/google/uuid"
)

// MemoryWorkoutRepo はWorkoutRepositoryのインメモリ実装。
// ローカル開発とテストで使用する。ライブクエリの配信順序は
// 書き込み順と一致し、各変更で全件スナップショットを配信する。
type MemoryWorkoutRepo struct {
	mu       sync.Mutex
	workouts []*model.Workout
	subs     map[string]map[*Subscription]struct{}
	now      func() time.Time
}

// NewMemoryWorkoutRepo はMemoryWorkoutRepoを生成する。
func NewMemoryWorkoutRepo() *MemoryWorkoutRepo {
	return &MemoryWorkoutRepo{
		subs: make(map[string]map[*Subscription]struct{}),
		now:  time.Now,
	}
}

// SetNowFunc はタイムスタンプ生成関数を差し替える。テスト用。
func (r *MemoryWorkoutRepo) SetNowFunc(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// Create は記録を作成し、採番したIDを返す。
// 作成後、同一所有者の全購読に新しいスナップショットを配信する。
func (r *MemoryWorkoutRepo) Create(ctx context.Context, userID string, in *model.WorkoutInput) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w := &model.Workout{
		ID:        uuid.New().String(),
		UserID:    userID,
		Exercise:  in.Exercise,
		Sets:      in.Sets,
		Reps:      in.Reps,
		Weight:    in.Weight,
		Notes:     in.Notes,
		CreatedAt: r.now(),
	}
	r.workouts = append(r.workouts, w)

	snapshot := r.snapshotLocked(userID)
	for sub := range r.subs[userID] {
		sub.publish(snapshot)
	}

	return w.ID, nil
}

// ListByUser は所有者の全記録をCreatedAt降順で返す。
func (r *MemoryWorkoutRepo) ListByUser(ctx context.Context, userID string) ([]*model.Workout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked(userID), nil
}

// WatchByUser は所有者の記録に対するライブクエリを開始する。
// 登録直後に現時点のスナップショットを1回配信する。
func (r *MemoryWorkoutRepo) WatchByUser(ctx context.Context, userID string) (*Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var sub *Subscription
	sub = NewSubscription(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if set, ok := r.subs[userID]; ok {
			delete(set, sub)
			if len(set) == 0 {
				delete(r.subs, userID)
			}
		}
		close(sub.ch)
	})

	if r.subs[userID] == nil {
		r.subs[userID] = make(map[*Subscription]struct{})
	}
	r.subs[userID][sub] = struct{}{}

	// 初回スナップショット
	sub.publish(r.snapshotLocked(userID))

	return sub, nil
}

// snapshotLocked は所有者の記録をCreatedAt降順で複製して返す。
// 呼び出し側でmuを保持していること。
func (r *MemoryWorkoutRepo) snapshotLocked(userID string) []*model.Workout {
	snapshot := []*model.Workout{}
	for _, w := range r.workouts {
		if w.UserID == userID {
			copied := *w
			snapshot = append(snapshot, &copied)
		}
	}
	sortWorkoutsDesc(snapshot)
	return snapshot
}

// MemorySessionRepo はSessionRepositoryのインメモリ実装。
type MemorySessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
}

// NewMemorySessionRepo はMemorySessionRepoを生成する。
func NewMemorySessionRepo() *MemorySessionRepo {
	return &MemorySessionRepo{
		sessions: make(map[string]*model.Session),
	}
}

// Create はセッションを保存する。
func (r *MemorySessionRepo) Create(ctx context.Context, session *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *session
	r.sessions[session.ID] = &copied
	return nil
}

// FindByID はセッションをIDで検索する。
// 存在しない場合と期限切れの場合はnilを返す。
func (r *MemorySessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	if time.Now().After(session.ExpiresAt) {
		delete(r.sessions, id)
		return nil, nil
	}

	copied := *session
	return &copied, nil
}

// DeleteByID はセッションを削除する。
func (r *MemorySessionRepo) DeleteByID(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

// --- compile-time interface checks ---

var _ WorkoutRepository = (*MemoryWorkoutRepo)(nil)
var _ SessionRepository = (*MemorySessionRepo)(nil)
