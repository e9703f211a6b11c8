// Package model はドメインモデルを定義する。
package model

import "time"

// Identity は外部IdPが発行した認証済みユーザー情報を表す。
// 本アプリケーションはこれを読み取り専用として扱い、
// セッションの有効期間を超えて永続化しない。
type Identity struct {
	UserID   string // IdP発行の安定した一意識別子
	Name     string
	Email    string
	Provider string // "google" または "github"
}

// Session はユーザーのログインセッションを表す。
// IdPから取得したユーザー情報はセッションにのみ保持する。
type Session struct {
	ID        string
	UserID    string
	Name      string
	Email     string
	Provider  string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Identity はセッションに保持したユーザー情報をIdentityとして返す。
func (s *Session) Identity() *Identity {
	return &Identity{
		UserID:   s.UserID,
		Name:     s.Name,
		Email:    s.Email,
		Provider: s.Provider,
	}
}
