package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/fukushimam-sketch/workout-tracker/internal/model"
	"github.com/google/uuid"
)

// setupFirestore は実Firestoreに対する統合テストの準備を行う。
// 環境変数が未設定の場合はスキップする。
func setupFirestore(t *testing.T) *FirestoreWorkoutRepo {
	t.Helper()

	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")
	if projectID == "" || databaseID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID and TEST_FIRESTORE_DATABASE_ID must be set to run Firestore tests")
	}

	client, err := NewFirestoreClient(context.Background(), projectID, databaseID)
	if err != nil {
		t.Fatalf("failed to create firestore client: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return NewFirestoreWorkoutRepo(client)
}

func TestFirestoreWorkoutRepo_CreateAndList(t *testing.T) {
	repo := setupFirestore(t)
	ctx := context.Background()

	// 他のテスト実行と衝突しないようユーザーIDを分離する
	userID := "test-user-" + uuid.New().String()

	weight := 60.0
	id, err := repo.Create(ctx, userID, &model.WorkoutInput{
		Exercise: "ベンチプレス",
		Sets:     3,
		Reps:     10,
		Weight:   &weight,
		Notes:    "統合テスト",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty document ID")
	}

	workouts, err := repo.ListByUser(ctx, userID)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(workouts) != 1 {
		t.Fatalf("len(workouts) = %d, want 1", len(workouts))
	}
	if workouts[0].ID != id {
		t.Errorf("ID = %q, want %q", workouts[0].ID, id)
	}
	if workouts[0].UserID != userID {
		t.Errorf("UserID = %q, want %q", workouts[0].UserID, userID)
	}
	if workouts[0].CreatedAt.IsZero() {
		t.Error("CreatedAt should be assigned by the server")
	}
}

func TestFirestoreWorkoutRepo_WatchByUser_ReceivesCreate(t *testing.T) {
	repo := setupFirestore(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	userID := "test-user-" + uuid.New().String()

	sub, err := repo.WatchByUser(ctx, userID)
	if err != nil {
		t.Fatalf("WatchByUser failed: %v", err)
	}
	defer sub.Stop()

	// 初回スナップショット（空）を待つ
	select {
	case snapshot := <-sub.Snapshots():
		if len(snapshot) != 0 {
			t.Fatalf("initial snapshot should be empty, got %d", len(snapshot))
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for initial snapshot")
	}

	if _, err := repo.Create(ctx, userID, &model.WorkoutInput{
		Exercise: "スクワット",
		Sets:     5,
		Reps:     5,
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	select {
	case snapshot := <-sub.Snapshots():
		if len(snapshot) != 1 {
			t.Fatalf("len(snapshot) = %d, want 1", len(snapshot))
		}
		if snapshot[0].Exercise != "スクワット" {
			t.Errorf("Exercise = %q, want %q", snapshot[0].Exercise, "スクワット")
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for snapshot after create")
	}
}
