// Package store はワークアウト記録とセッションの永続化ストアへのアクセスを提供する。
// 本番はGoogle Cloud Firestore、ローカル開発・テストはインメモリ実装を使用する。
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/fukushimam-sketch/workout-tracker/internal/model"
)

// WorkoutRepository はワークアウト記録の永続化インターフェース。
// すべてのクエリと書き込みはuserIDでスコープされる。
type WorkoutRepository interface {
	// Create は記録を作成し、ストアが採番したIDを返す。
	// CreatedAtはストア側で付与される。
	Create(ctx context.Context, userID string, in *model.WorkoutInput) (string, error)

	// ListByUser は所有者の全記録をCreatedAt降順で返す。
	ListByUser(ctx context.Context, userID string) ([]*model.Workout, error)

	// WatchByUser は所有者の記録に対するライブクエリを開始する。
	// ストア側の変更ごとに全件スナップショットがCreatedAt降順で配信される。
	// 返されたSubscriptionは利用終了時に必ずStopすること。
	WatchByUser(ctx context.Context, userID string) (*Subscription, error)
}

// SessionRepository はログインセッションの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを保存する。
	Create(ctx context.Context, session *model.Session) error

	// FindByID はセッションをIDで検索する。
	// 存在しない場合と期限切れの場合はnilを返す（エラーにはしない）。
	FindByID(ctx context.Context, id string) (*model.Session, error)

	// DeleteByID はセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
}

// subscriptionBuffer はスナップショットチャネルのバッファ長。
const subscriptionBuffer = 16

// Subscription はライブクエリの購読ハンドルを表す。
// Snapshotsチャネルから連続したスナップショットを受信し、
// 不要になったらStopで購読を解除する。チャネルはプロデューサが閉じる。
type Subscription struct {
	ch       chan []*model.Workout
	stopFn   func()
	stopOnce sync.Once

	mu  sync.Mutex
	err error
}

// NewSubscription は購読ハンドルを生成する。
// stopFnは購読解除処理で、Stopから高々1回だけ呼ばれる。
func NewSubscription(stopFn func()) *Subscription {
	return &Subscription{
		ch:     make(chan []*model.Workout, subscriptionBuffer),
		stopFn: stopFn,
	}
}

// Snapshots はスナップショット受信チャネルを返す。
// 購読解除またはエラーで閉じられる。
func (s *Subscription) Snapshots() <-chan []*model.Workout {
	return s.ch
}

// Err はチャネルが閉じられた原因のエラーを返す。
// 正常な購読解除の場合はnil。
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Stop は購読を解除する。複数回呼んでも安全。
func (s *Subscription) Stop() {
	s.stopOnce.Do(s.stopFn)
}

// setErr は購読の失敗原因を記録する。実装側から呼ばれる。
func (s *Subscription) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// publish はスナップショットをチャネルに送る。
// バッファが満杯の場合は最も古いスナップショットを捨てて最新を優先する。
// 各スナップショットは全件を含むため、中間の取りこぼしは整合性を損なわない。
func (s *Subscription) publish(snapshot []*model.Workout) {
	select {
	case s.ch <- snapshot:
		return
	default:
	}
	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- snapshot:
	default:
	}
}

// sortWorkoutsDesc は記録をCreatedAt降順に整列する。
func sortWorkoutsDesc(workouts []*model.Workout) {
	sort.SliceStable(workouts, func(i, j int) bool {
		return workouts[i].CreatedAt.After(workouts[j].CreatedAt)
	})
}
