// Package auth は外部IdPによるサインインフローとセッション管理を提供する。
package auth

import "context"

// プロバイダー名
const (
	// ProviderGoogle はGoogleによるサインイン。
	ProviderGoogle = "google"
	// ProviderGitHub はGitHubによるサインイン。
	// ポップアップが不安定な環境向けのリダイレクトフローとして使用する。
	ProviderGitHub = "github"
)

// OAuthUserInfo はIdPから取得したユーザー情報を表す。
// IdPが所有・発行するものであり、本アプリケーションは読み取り専用として扱う。
type OAuthUserInfo struct {
	ProviderUserID string
	Email          string
	Name           string
	Provider       string
}

// OAuthProvider はOAuth認証プロバイダーのインターフェース。
type OAuthProvider interface {
	// Name はプロバイダー名を返す。
	Name() string
	// GetLoginURL はOAuth認証URLを生成する。
	GetLoginURL(state string) string
	// ExchangeCode は認可コードをトークンに交換し、ユーザー情報を取得する。
	ExchangeCode(ctx context.Context, code string) (*OAuthUserInfo, error)
}
