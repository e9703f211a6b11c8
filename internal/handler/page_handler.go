package handler

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/fukushimam-sketch/workout-tracker/internal/model"
)

// loginPageTemplate はログインページのHTMLシェル。
var loginPageTemplate = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html lang="ja">
<head>
<meta charset="utf-8">
<title>ログイン | 筋トレ記録</title>
</head>
<body>
<main>
<h1>💪 筋トレ記録</h1>
<p>ログインしてワークアウトを記録しましょう。</p>
<nav>
<a href="/auth/google/login">Googleでログイン</a>
<a href="/auth/github/login">GitHubでログイン</a>
</nav>
</main>
</body>
</html>
`))

// dashboardPageTemplate はダッシュボードページのHTMLシェル。
var dashboardPageTemplate = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="ja">
<head>
<meta charset="utf-8">
<title>ダッシュボード | 筋トレ記録</title>
</head>
<body>
<main>
<h1>💪 筋トレ記録</h1>
<p>ようこそ、{{.Name}}さん</p>
<div id="app"
  data-workouts-endpoint="/api/workouts"
  data-stream-endpoint="/api/workouts/stream"
  data-chat-endpoint="/api/chat/messages"></div>
</main>
</body>
</html>
`))

// PageHandler は画面遷移のHTTPハンドラー。
// セッション状態に応じてログインページとダッシュボードを振り分ける。
type PageHandler struct {
	service AuthServiceInterface
}

// NewPageHandler はPageHandlerを生成する。
func NewPageHandler(service AuthServiceInterface) *PageHandler {
	return &PageHandler{service: service}
}

// currentIdentity はリクエストのセッションCookieから認証済みユーザーを解決する。
// 未認証・期限切れ・参照失敗はすべてnilとして扱う。
func (h *PageHandler) currentIdentity(r *http.Request) *model.Identity {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	identity, err := h.service.GetCurrentIdentity(r.Context(), cookie.Value)
	if err != nil {
		slog.Error("failed to resolve session for page", slog.String("error", err.Error()))
		return nil
	}
	return identity
}

// Root はセッション状態に応じてリダイレクトする。
// GET /
func (h *PageHandler) Root(w http.ResponseWriter, r *http.Request) {
	if h.currentIdentity(r) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusTemporaryRedirect)
		return
	}
	http.Redirect(w, r, "/login", http.StatusTemporaryRedirect)
}

// Login はログインページを表示する。認証済みならダッシュボードへ送る。
// GET /login
func (h *PageHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.currentIdentity(r) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusTemporaryRedirect)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := loginPageTemplate.Execute(w, nil); err != nil {
		slog.Error("failed to render login page", slog.String("error", err.Error()))
	}
}

// Dashboard はダッシュボードページを表示する。未認証ならログインページへ送る。
// GET /dashboard
func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	identity := h.currentIdentity(r)
	if identity == nil {
		http.Redirect(w, r, "/login", http.StatusTemporaryRedirect)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboardPageTemplate.Execute(w, identity); err != nil {
		slog.Error("failed to render dashboard page", slog.String("error", err.Error()))
	}
}
