// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fukushimam-sketch/workout-tracker/internal/auth"
	"github.com/fukushimam-sketch/workout-tracker/internal/middleware"
	"github.com/fukushimam-sketch/workout-tracker/internal/model"
)

const (
	sessionCookieName = "session_id"
	oauthStateCookie  = "oauth_state"

	// redirectResultCookie はリダイレクト型サインインの完了を1回だけ通知するためのマーカー。
	redirectResultCookie = "auth_redirect_pending"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	GetLoginURL(provider, state string) (string, error)
	HandleCallback(ctx context.Context, provider, code string) (*model.Session, error)
	Logout(ctx context.Context, sessionID string) error
	GetCurrentIdentity(ctx context.Context, sessionID string) (*model.Identity, error)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	BaseURL       string
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler はOAuth認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
	}
}

// identityResponse は認証済みユーザー情報のレスポンスフォーマット。
type identityResponse struct {
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Provider string `json:"provider"`
}

func newIdentityResponse(identity *model.Identity) *identityResponse {
	return &identityResponse{
		UserID:   identity.UserID,
		Name:     identity.Name,
		Email:    identity.Email,
		Provider: identity.Provider,
	}
}

// Login はOAuthフローを開始する。
// GET /auth/{provider}/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")

	state, err := generateState()
	if err != nil {
		slog.Error("failed to generate oauth state", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	url, err := h.service.GetLoginURL(provider, state)
	if err != nil {
		slog.Warn("login requested for unknown provider", slog.String("provider", provider))
		http.NotFound(w, r)
		return
	}

	// stateをCookieに保存（CSRF対策）
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10分
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// Callback はOAuthコールバックを処理する。
// GET /auth/{provider}/callback?code=xxx&state=yyy
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")

	// 1. stateの検証（CSRF対策）
	state := r.URL.Query().Get("state")
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != state {
		slog.Warn("oauth state mismatch",
			slog.String("provider", provider),
		)
		h.redirectWithAuthError(w, r)
		return
	}

	// stateクッキーを削除
	clearCookie(w, oauthStateCookie, "", h.config.CookieSecure)

	// IdP側でのキャンセル・拒否
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		slog.Warn("oauth flow denied by identity provider",
			slog.String("provider", provider),
			slog.String("reason", errParam),
		)
		h.redirectWithAuthError(w, r)
		return
	}

	// 2. 認可コードの取得
	code := r.URL.Query().Get("code")
	if code == "" {
		h.redirectWithAuthError(w, r)
		return
	}

	// 3. 認証処理
	session, err := h.service.HandleCallback(r.Context(), provider, code)
	if err != nil {
		slog.Error("oauth callback failed",
			slog.String("provider", provider),
			slog.String("error", err.Error()),
		)
		h.redirectWithAuthError(w, r)
		return
	}

	// 4. セッションCookieを設定（HTTP Only）
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session.ID,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	// 5. リダイレクト型プロバイダーは完了マーカーを設定する。
	// フロントエンドが /auth/redirect/result で1回だけ結果を取得できる。
	if provider == auth.ProviderGitHub {
		http.SetCookie(w, &http.Cookie{
			Name:     redirectResultCookie,
			Value:    provider,
			Path:     "/",
			MaxAge:   300,
			HttpOnly: true,
			Secure:   h.config.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
	}

	http.Redirect(w, r, h.config.BaseURL+"/dashboard", http.StatusTemporaryRedirect)
}

// RedirectResult はリダイレクト型サインインの結果を返す。
// GET /auth/redirect/result
// 完了直後の1回だけidentityを返し、それ以外は常に {"identity": null} を200で返す。
// 復帰直後の読み込みで呼ばれるため、未完了はエラーにしない。
func (h *AuthHandler) RedirectResult(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	marker, err := r.Cookie(redirectResultCookie)
	if err != nil || marker.Value == "" {
		json.NewEncoder(w).Encode(map[string]any{"identity": nil})
		return
	}

	// マーカーは1回で消費する
	clearCookie(w, redirectResultCookie, "", h.config.CookieSecure)

	sessionCookie, err := r.Cookie(sessionCookieName)
	if err != nil || sessionCookie.Value == "" {
		json.NewEncoder(w).Encode(map[string]any{"identity": nil})
		return
	}

	identity, err := h.service.GetCurrentIdentity(r.Context(), sessionCookie.Value)
	if err != nil || identity == nil {
		if err != nil {
			slog.Error("failed to resolve redirect result", slog.String("error", err.Error()))
		}
		json.NewEncoder(w).Encode(map[string]any{"identity": nil})
		return
	}

	json.NewEncoder(w).Encode(map[string]any{"identity": newIdentityResponse(identity)})
}

// Logout はセッションを破棄する。
// POST /auth/logout
// 破棄に失敗した場合はセッションを維持したままエラーを返し、再試行を可能にする。
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		// セッションが無ければ何もすることがない
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if logoutErr := h.service.Logout(r.Context(), cookie.Value); logoutErr != nil {
		slog.Error("failed to logout", slog.String("error", logoutErr.Error()))
		middleware.WriteErrorResponse(w, http.StatusBadGateway, model.NewSignOutFailedError())
		return
	}

	clearCookie(w, sessionCookieName, h.config.CookieDomain, h.config.CookieSecure)
	w.WriteHeader(http.StatusNoContent)
}

// Me は現在のログインユーザー情報を返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewAuthRequiredError())
		return
	}

	identity, err := h.service.GetCurrentIdentity(r.Context(), cookie.Value)
	if err != nil {
		slog.Error("failed to get current identity", slog.String("error", err.Error()))
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewAuthRequiredError())
		return
	}
	if identity == nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewAuthRequiredError())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(newIdentityResponse(identity))
}

// redirectWithAuthError はサインイン失敗時にログインページへ戻す。
func (h *AuthHandler) redirectWithAuthError(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.config.BaseURL+"/login?error="+model.ErrCodeAuthFailed, http.StatusTemporaryRedirect)
}

// clearCookie は指定のCookieを削除する。
func clearCookie(w http.ResponseWriter, name, domain string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// generateState はCSRF対策用のランダムなstate値を生成する。
func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
