package config

import (
	"strings"
	"testing"
	"time"
)

func setRequiredEnvVars(t *testing.T) {
	t.Helper()
	t.Setenv("GOOGLE_CLIENT_ID", "test-google-client-id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "test-google-client-secret")
	t.Setenv("GITHUB_CLIENT_ID", "test-github-client-id")
	t.Setenv("GITHUB_CLIENT_SECRET", "test-github-client-secret")
	t.Setenv("GEMINI_API_KEY", "test-gemini-api-key")
	t.Setenv("BASE_URL", "http://localhost:8080")
	t.Setenv("GCP_PROJECT_ID", "test-project")
}

func TestLoad_AllRequiredVarsSet_ReturnsConfig(t *testing.T) {
	setRequiredEnvVars(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.GoogleClientID != "test-google-client-id" {
		t.Errorf("GoogleClientID = %q, want %q", cfg.GoogleClientID, "test-google-client-id")
	}
	if cfg.GitHubClientID != "test-github-client-id" {
		t.Errorf("GitHubClientID = %q, want %q", cfg.GitHubClientID, "test-github-client-id")
	}
	if cfg.GeminiAPIKey != "test-gemini-api-key" {
		t.Errorf("GeminiAPIKey = %q, want %q", cfg.GeminiAPIKey, "test-gemini-api-key")
	}
	if cfg.GCPProjectID != "test-project" {
		t.Errorf("GCPProjectID = %q, want %q", cfg.GCPProjectID, "test-project")
	}
	if cfg.BaseURL != "http://localhost:8080" {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, "http://localhost:8080")
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	setRequiredEnvVars(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.StoreBackend != StoreBackendFirestore {
		t.Errorf("StoreBackend = %q, want %q", cfg.StoreBackend, StoreBackendFirestore)
	}
	if cfg.FirestoreDatabaseID != "(default)" {
		t.Errorf("FirestoreDatabaseID = %q, want %q", cfg.FirestoreDatabaseID, "(default)")
	}
	if cfg.GeminiModel != "gemini-1.5-flash" {
		t.Errorf("GeminiModel = %q, want %q", cfg.GeminiModel, "gemini-1.5-flash")
	}
	if cfg.AdviceTimeout != 30*time.Second {
		t.Errorf("AdviceTimeout = %v, want %v", cfg.AdviceTimeout, 30*time.Second)
	}
	if cfg.SessionMaxAge != 86400 {
		t.Errorf("SessionMaxAge = %d, want %d", cfg.SessionMaxAge, 86400)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want %q", cfg.ServerPort, "8080")
	}
	// リダイレクトURLはBASE_URLから導出される
	if cfg.GoogleRedirectURL != "http://localhost:8080/auth/google/callback" {
		t.Errorf("GoogleRedirectURL = %q", cfg.GoogleRedirectURL)
	}
	if cfg.GitHubRedirectURL != "http://localhost:8080/auth/github/callback" {
		t.Errorf("GitHubRedirectURL = %q", cfg.GitHubRedirectURL)
	}
}

func TestLoad_MissingRequiredVars_ReturnsError(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("GEMINI_API_KEY", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing GEMINI_API_KEY")
	}
	if !strings.Contains(err.Error(), "GEMINI_API_KEY") {
		t.Errorf("error = %v, should name the missing variable", err)
	}
}

func TestLoad_MemoryBackend_ProjectIDNotRequired(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("GCP_PROJECT_ID", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.StoreBackend != StoreBackendMemory {
		t.Errorf("StoreBackend = %q, want memory", cfg.StoreBackend)
	}
}

func TestLoad_UnknownBackend_ReturnsError(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("STORE_BACKEND", "dynamo")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for unknown STORE_BACKEND")
	}
}

func TestLoad_CookieSecure_DerivedFromBaseURL(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("BASE_URL", "https://workout.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !cfg.CookieSecure {
		t.Error("CookieSecure should be true for https BASE_URL")
	}
}
