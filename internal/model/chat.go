// Package model はドメインモデルを定義する。
package model

import "time"

// ChatRole はチャットメッセージの発話者を表す。
type ChatRole string

const (
	// ChatRoleUser はユーザーの発話を示す。
	ChatRoleUser ChatRole = "user"
	// ChatRoleAssistant はAIコーチの応答を示す。
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage はチャットの1発話を表す。
// プロセス内メモリにのみ保持され、再起動で失われる。永続化は意図しない。
type ChatMessage struct {
	ID        string
	Role      ChatRole
	Content   string
	CreatedAt time.Time
}
