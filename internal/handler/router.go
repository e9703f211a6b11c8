package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fukushimam-sketch/workout-tracker/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	HTTPMetrics       middleware.HTTPMetricsRecorder

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// ワークアウト
	WorkoutService WorkoutServiceInterface
	WatchMetrics   WatchMetricsRecorder

	// チャット
	ChatService ChatServiceInterface

	// Prometheusスクレイプ用ハンドラー（nilなら/metricsを公開しない）
	MetricsHandler http.Handler
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging
//
// 認証ルート（/auth/*）と画面はセッションミドルウェアの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.HTTPMetrics))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	workoutHandler := NewWorkoutHandler(deps.WorkoutService, deps.WatchMetrics)
	chatHandler := NewChatHandler(deps.ChatService)
	pageHandler := NewPageHandler(deps.AuthService)

	// --- 認証不要のルート ---

	r.Get("/health", handleHealth)

	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// 画面
	r.Get("/", pageHandler.Root)
	r.Get("/login", pageHandler.Login)
	r.Get("/dashboard", pageHandler.Dashboard)

	// 認証ルート（OAuthフロー）
	r.Route("/auth", func(r chi.Router) {
		r.Get("/{provider}/login", authHandler.Login)
		r.Get("/{provider}/callback", authHandler.Callback)
		r.Get("/redirect/result", authHandler.RedirectResult)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))

		r.Route("/api/workouts", func(r chi.Router) {
			r.Post("/", workoutHandler.CreateWorkout)
			r.Get("/", workoutHandler.ListWorkouts)
			r.Get("/stream", workoutHandler.StreamWorkouts)
		})

		r.Route("/api/chat/messages", func(r chi.Router) {
			r.Post("/", chatHandler.SendMessage)
			r.Get("/", chatHandler.ListMessages)
		})
	})

	return r
}

// handleHealth はヘルスチェックエンドポイント。
func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
