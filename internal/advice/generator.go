// Package advice はAIコーチングアドバイスの生成を提供する。
package advice

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// promptTemplate はコーチングプロンプトの雛形。
// 履歴と質問を埋め込んで1回のリクエストで完結させる。
const promptTemplate = `あなたは筋トレのコーチです。ユーザーの筋トレについての質問や相談に答えてください。

ユーザーの最近のワークアウト履歴:
%s

ユーザーの質問: %s

ユーザーの質問に対して、的確で励ましのあるアドバイスを日本語で提供してください。`

// Generator はアドバイス生成エンドポイントへの問い合わせインターフェース。
type Generator interface {
	Generate(ctx context.Context, message, workoutContext string) (string, error)
}

// GeminiGenerator はGemini APIを使ったGenerator実装。
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator はGemini APIクライアントを生成する。
func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiGenerator{
		client: client,
		model:  model,
	}, nil
}

// Generate はユーザーの質問とワークアウト履歴からアドバイスを生成する。
func (g *GeminiGenerator) Generate(ctx context.Context, message, workoutContext string) (string, error) {
	prompt := BuildPrompt(message, workoutContext)

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate advice: %w", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("empty response from model %s", g.model)
	}
	return text, nil
}

// BuildPrompt は質問と履歴コンテキストをプロンプトに組み立てる。
func BuildPrompt(message, workoutContext string) string {
	if strings.TrimSpace(workoutContext) == "" {
		workoutContext = "（記録なし）"
	}
	return fmt.Sprintf(promptTemplate, workoutContext, message)
}
