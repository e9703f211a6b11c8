package store

import (
	"context"
	"testing"
	"time"

	"github.com/fukushimam-sketch/workout-tracker/internal/model"
)

// fakeClock は呼び出しごとに1秒進む時刻を返す。
func fakeClock() func() time.Time {
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}

func floatPtr(v float64) *float64 { return &v }

func TestMemoryWorkoutRepo_Create_AssignsIDAndOwner(t *testing.T) {
	repo := NewMemoryWorkoutRepo()
	ctx := context.Background()

	id, err := repo.Create(ctx, "user-1", &model.WorkoutInput{
		Exercise: "ベンチプレス",
		Sets:     3,
		Reps:     10,
		Weight:   floatPtr(60),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty ID")
	}

	workouts, err := repo.ListByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(workouts) != 1 {
		t.Fatalf("len(workouts) = %d, want 1", len(workouts))
	}
	if workouts[0].UserID != "user-1" {
		t.Errorf("UserID = %q, want %q", workouts[0].UserID, "user-1")
	}
	if workouts[0].CreatedAt.IsZero() {
		t.Error("CreatedAt should be assigned by the store")
	}
}

func TestMemoryWorkoutRepo_Create_WeightAbsentIsNotZero(t *testing.T) {
	repo := NewMemoryWorkoutRepo()
	ctx := context.Background()

	if _, err := repo.Create(ctx, "user-1", &model.WorkoutInput{
		Exercise: "懸垂",
		Sets:     3,
		Reps:     8,
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	workouts, _ := repo.ListByUser(ctx, "user-1")
	if workouts[0].Weight != nil {
		t.Errorf("Weight = %v, want nil (absent, not zero)", *workouts[0].Weight)
	}
}

func TestMemoryWorkoutRepo_ListByUser_DescendingOrder(t *testing.T) {
	repo := NewMemoryWorkoutRepo()
	repo.SetNowFunc(fakeClock())
	ctx := context.Background()

	for _, name := range []string{"スクワット", "デッドリフト", "ベンチプレス"} {
		if _, err := repo.Create(ctx, "user-1", &model.WorkoutInput{
			Exercise: name,
			Sets:     3,
			Reps:     10,
		}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	workouts, err := repo.ListByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(workouts) != 3 {
		t.Fatalf("len(workouts) = %d, want 3", len(workouts))
	}

	// 最新（ベンチプレス）が先頭
	want := []string{"ベンチプレス", "デッドリフト", "スクワット"}
	for i, w := range workouts {
		if w.Exercise != want[i] {
			t.Errorf("workouts[%d].Exercise = %q, want %q", i, w.Exercise, want[i])
		}
	}
	for i := 1; i < len(workouts); i++ {
		if workouts[i].CreatedAt.After(workouts[i-1].CreatedAt) {
			t.Error("workouts should be sorted by CreatedAt descending")
		}
	}
}

func TestMemoryWorkoutRepo_ListByUser_ScopedByOwner(t *testing.T) {
	repo := NewMemoryWorkoutRepo()
	ctx := context.Background()

	repo.Create(ctx, "user-1", &model.WorkoutInput{Exercise: "ベンチプレス", Sets: 3, Reps: 10})
	repo.Create(ctx, "user-2", &model.WorkoutInput{Exercise: "スクワット", Sets: 5, Reps: 5})

	workouts, _ := repo.ListByUser(ctx, "user-1")
	if len(workouts) != 1 {
		t.Fatalf("len(workouts) = %d, want 1", len(workouts))
	}
	if workouts[0].Exercise != "ベンチプレス" {
		t.Errorf("Exercise = %q, other user's record leaked", workouts[0].Exercise)
	}
}

func TestMemoryWorkoutRepo_WatchByUser_DeliversInitialSnapshot(t *testing.T) {
	repo := NewMemoryWorkoutRepo()
	ctx := context.Background()

	repo.Create(ctx, "user-1", &model.WorkoutInput{Exercise: "ベンチプレス", Sets: 3, Reps: 10})

	sub, err := repo.WatchByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("WatchByUser failed: %v", err)
	}
	defer sub.Stop()

	select {
	case snapshot := <-sub.Snapshots():
		if len(snapshot) != 1 {
			t.Fatalf("len(snapshot) = %d, want 1", len(snapshot))
		}
	case <-time.After(time.Second):
		t.Fatal("expected initial snapshot")
	}
}

func TestMemoryWorkoutRepo_WatchByUser_PushesOnCreate(t *testing.T) {
	repo := NewMemoryWorkoutRepo()
	repo.SetNowFunc(fakeClock())
	ctx := context.Background()

	repo.Create(ctx, "user-1", &model.WorkoutInput{Exercise: "スクワット", Sets: 5, Reps: 5})

	sub, err := repo.WatchByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("WatchByUser failed: %v", err)
	}
	defer sub.Stop()

	// 初回スナップショットを読み捨てる
	<-sub.Snapshots()

	if _, err := repo.Create(ctx, "user-1", &model.WorkoutInput{
		Exercise: "ベンチプレス",
		Sets:     3,
		Reps:     10,
		Weight:   floatPtr(60),
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	select {
	case snapshot := <-sub.Snapshots():
		if len(snapshot) != 2 {
			t.Fatalf("len(snapshot) = %d, want 2", len(snapshot))
		}
		// 新しい記録が先頭
		if snapshot[0].Exercise != "ベンチプレス" {
			t.Errorf("snapshot[0].Exercise = %q, want %q", snapshot[0].Exercise, "ベンチプレス")
		}
	case <-time.After(time.Second):
		t.Fatal("expected snapshot after create")
	}
}

func TestMemoryWorkoutRepo_WatchByUser_OtherOwnersWriteNotDelivered(t *testing.T) {
	repo := NewMemoryWorkoutRepo()
	ctx := context.Background()

	sub, _ := repo.WatchByUser(ctx, "user-1")
	defer sub.Stop()
	<-sub.Snapshots()

	repo.Create(ctx, "user-2", &model.WorkoutInput{Exercise: "スクワット", Sets: 5, Reps: 5})

	select {
	case snapshot := <-sub.Snapshots():
		t.Fatalf("unexpected snapshot for other owner's write: %d records", len(snapshot))
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryWorkoutRepo_Subscription_StopClosesChannel(t *testing.T) {
	repo := NewMemoryWorkoutRepo()
	ctx := context.Background()

	sub, _ := repo.WatchByUser(ctx, "user-1")
	<-sub.Snapshots()

	sub.Stop()
	// 複数回Stopしても安全
	sub.Stop()

	select {
	case _, ok := <-sub.Snapshots():
		if ok {
			t.Fatal("expected closed channel after Stop")
		}
	case <-time.After(time.Second):
		t.Fatal("channel should be closed after Stop")
	}

	if err := sub.Err(); err != nil {
		t.Errorf("Err() = %v, want nil for normal unsubscribe", err)
	}

	// 解除後の書き込みはpanicしない
	if _, err := repo.Create(ctx, "user-1", &model.WorkoutInput{Exercise: "懸垂", Sets: 3, Reps: 8}); err != nil {
		t.Fatalf("Create after Stop failed: %v", err)
	}
}

func TestMemorySessionRepo_CreateAndFind(t *testing.T) {
	repo := NewMemorySessionRepo()
	ctx := context.Background()

	session := &model.Session{
		ID:        "session-1",
		UserID:    "user-1",
		Name:      "山田太郎",
		Email:     "taro@example.com",
		Provider:  "google",
		ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now(),
	}
	if err := repo.Create(ctx, session); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	found, err := repo.FindByID(ctx, "session-1")
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if found == nil {
		t.Fatal("expected session")
	}
	if found.UserID != "user-1" || found.Name != "山田太郎" {
		t.Errorf("unexpected session: %+v", found)
	}
}

func TestMemorySessionRepo_FindByID_NotFoundReturnsNil(t *testing.T) {
	repo := NewMemorySessionRepo()

	found, err := repo.FindByID(context.Background(), "no-such-session")
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if found != nil {
		t.Errorf("expected nil for missing session, got %+v", found)
	}
}

func TestMemorySessionRepo_FindByID_ExpiredReturnsNil(t *testing.T) {
	repo := NewMemorySessionRepo()
	ctx := context.Background()

	repo.Create(ctx, &model.Session{
		ID:        "session-expired",
		UserID:    "user-1",
		ExpiresAt: time.Now().Add(-time.Minute),
		CreatedAt: time.Now().Add(-time.Hour),
	})

	found, err := repo.FindByID(ctx, "session-expired")
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if found != nil {
		t.Error("expected nil for expired session")
	}
}

func TestMemorySessionRepo_DeleteByID(t *testing.T) {
	repo := NewMemorySessionRepo()
	ctx := context.Background()

	repo.Create(ctx, &model.Session{
		ID:        "session-1",
		UserID:    "user-1",
		ExpiresAt: time.Now().Add(time.Hour),
	})

	if err := repo.DeleteByID(ctx, "session-1"); err != nil {
		t.Fatalf("DeleteByID failed: %v", err)
	}

	found, _ := repo.FindByID(ctx, "session-1")
	if found != nil {
		t.Error("session should be deleted")
	}
}
