// Package model はドメインモデルを定義する。
package model

import "time"

// Workout は1回分の筋トレ記録を表す。
// 作成後は不変であり、更新・削除の操作は存在しない。
type Workout struct {
	ID        string
	UserID    string
	Exercise  string
	Sets      int
	Reps      int
	Weight    *float64 // kg。未入力（nil）は0と区別する
	Notes     string
	CreatedAt time.Time // ストア側で付与されるタイムスタンプ。履歴の唯一のソートキー
}

// WorkoutInput はワークアウト記録の作成入力を表す。
// UserIDとCreatedAtは含まない。所有者は認証済みセッションから、
// タイムスタンプはストアから付与される。
type WorkoutInput struct {
	Exercise string
	Sets     int
	Reps     int
	Weight   *float64
	Notes    string
}

// Validate は入力の存在チェックと数値の妥当性チェックを行う。
// 種目・セット数・回数は必須、セット数と回数は正の整数、
// 重量は入力された場合のみ非負であることを要求する。
func (in *WorkoutInput) Validate() *APIError {
	if in.Exercise == "" || in.Sets == 0 || in.Reps == 0 {
		return NewRequiredFieldsError()
	}
	if in.Sets < 0 {
		return NewInvalidNumberError("sets")
	}
	if in.Reps < 0 {
		return NewInvalidNumberError("reps")
	}
	if in.Weight != nil && *in.Weight < 0 {
		return NewInvalidNumberError("weight")
	}
	return nil
}
