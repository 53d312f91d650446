package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fachebot/comment-lens/internal/config"
	genai "google.golang.org/genai"
)

// geminiModelsInterface 定义 genai SDK 的生成调用接口，便于测试
type geminiModelsInterface interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiClient 官方 genai 客户端的薄封装
type GeminiClient struct {
	models         geminiModelsInterface
	config         *config.LLM
	maxInputTokens int
}

// NewGeminiClient 创建客户端。apiKey 为空时由 SDK 从环境变量读取
func NewGeminiClient(ctx context.Context, cfg *config.LLM, apiKey string, transport *http.Transport) (*GeminiClient, error) {
	clientConfig := &genai.ClientConfig{Backend: genai.BackendGeminiAPI}
	if apiKey != "" {
		clientConfig.APIKey = apiKey
	}
	if transport != nil {
		clientConfig.HTTPClient = &http.Client{Transport: transport}
	}

	cli, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("创建 Gemini 客户端失败: %w", err)
	}

	return &GeminiClient{
		models:         cli.Models,
		config:         cfg,
		maxInputTokens: maxInputTokensFor(cfg),
	}, nil
}

func (g *GeminiClient) Name() string {
	return "Gemini:" + g.config.Model
}

func (g *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	return g.generateContent(ctx, prompt, "")
}

func (g *GeminiClient) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	return g.generateContent(ctx, prompt, "application/json")
}

// generateContent 执行一次生成请求，mimeType 非空时要求对应格式的输出
func (g *GeminiClient) generateContent(ctx context.Context, prompt, mimeType string) (string, error) {
	if tokens := estimateTokens(prompt); tokens > g.maxInputTokens {
		return "", fmt.Errorf("提示词过长（约 %d tokens，上限 %d），请减少评论数量或调小 BatchSize", tokens, g.maxInputTokens)
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var genConfig *genai.GenerateContentConfig
	if mimeType != "" {
		genConfig = &genai.GenerateContentConfig{ResponseMIMEType: mimeType}
	}

	resp, err := g.models.GenerateContent(ctx, g.config.Model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		genConfig,
	)
	if err != nil {
		return "", fmt.Errorf("调用 Gemini API 失败: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("Gemini API 返回空结果")
	}

	return trimCodeFence(resp.Candidates[0].Content.Parts[0].Text), nil
}
