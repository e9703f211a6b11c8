// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, store, generation, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeAuthFailed      = "AUTH_FAILED"
	ErrCodeAuthRequired    = "AUTH_REQUIRED"
	ErrCodeSignOutFailed   = "SIGN_OUT_FAILED"
	ErrCodeRequiredFields  = "REQUIRED_FIELDS"
	ErrCodeInvalidNumber   = "INVALID_NUMBER"
	ErrCodeEmptyMessage    = "EMPTY_MESSAGE"
	ErrCodeStoreWriteFail  = "STORE_WRITE_FAILED"
	ErrCodeStoreReadFail   = "STORE_READ_FAILED"
	ErrCodeGenerationFail  = "GENERATION_FAILED"
	ErrCodeChatBusy        = "CHAT_BUSY"
)

// NewAuthFailedError はサインイン失敗エラーを生成する。
// ユーザーによるキャンセル、ネットワーク障害などIdP側の失敗を包括する。
func NewAuthFailedError(provider string) *APIError {
	return &APIError{
		Code:     ErrCodeAuthFailed,
		Message:  fmt.Sprintf("%s でのログインに失敗しました。", provider),
		Category: "auth",
		Action:   "もう一度ログインをお試しください。",
	}
}

// NewAuthRequiredError は未認証エラーを生成する。
func NewAuthRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeAuthRequired,
		Message:  "ログインが必要です",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewSignOutFailedError はサインアウト失敗エラーを生成する。
// 致命的ではなく、呼び出し側は再試行として扱う。
func NewSignOutFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeSignOutFailed,
		Message:  "ログアウトに失敗しました。",
		Category: "auth",
		Action:   "もう一度お試しください。",
	}
}

// NewRequiredFieldsError は必須項目未入力エラーを生成する。
func NewRequiredFieldsError() *APIError {
	return &APIError{
		Code:     ErrCodeRequiredFields,
		Message:  "種目、セット数、回数は必須です",
		Category: "validation",
		Action:   "必須項目を入力してください。",
	}
}

// NewInvalidNumberError は数値項目が不正な場合のエラーを生成する。
func NewInvalidNumberError(field string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidNumber,
		Message:  fmt.Sprintf("数値項目の値が不正です: %s", field),
		Category: "validation",
		Action:   "セット数・回数は正の整数、重量は0以上の数値を入力してください。",
	}
}

// NewEmptyMessageError は空のチャットメッセージ送信エラーを生成する。
func NewEmptyMessageError() *APIError {
	return &APIError{
		Code:     ErrCodeEmptyMessage,
		Message:  "メッセージを入力してください。",
		Category: "validation",
		Action:   "質問を入力してから送信してください。",
	}
}

// NewStoreWriteError は永続化ストアへの書き込み失敗エラーを生成する。
func NewStoreWriteError() *APIError {
	return &APIError{
		Code:     ErrCodeStoreWriteFail,
		Message:  "ワークアウトの保存に失敗しました",
		Category: "store",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewStoreReadError は永続化ストアからの読み取り失敗エラーを生成する。
func NewStoreReadError() *APIError {
	return &APIError{
		Code:     ErrCodeStoreReadFail,
		Message:  "ワークアウト情報の取得に失敗しました",
		Category: "store",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewGenerationError はアドバイス生成エンドポイントの失敗エラーを生成する。
// ネットワーク障害、クォータ超過、不正なレスポンスを包括する。自動リトライはしない。
func NewGenerationError() *APIError {
	return &APIError{
		Code:     ErrCodeGenerationFail,
		Message:  "メッセージの送信に失敗しました。",
		Category: "generation",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewChatBusyError はアドバイス生成リクエストが処理中の場合のエラーを生成する。
// 同時リクエストは常に1件に直列化される。
func NewChatBusyError() *APIError {
	return &APIError{
		Code:     ErrCodeChatBusy,
		Message:  "前のメッセージの応答を待っています。",
		Category: "generation",
		Action:   "応答が返ってから再度送信してください。",
	}
}
