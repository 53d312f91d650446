package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fachebot/comment-lens/internal/config"
	"github.com/sashabaranov/go-openai"
)

// Client 文本生成服务的统一入口。
// GenerateText 返回自由文本；GenerateJSON 要求模型输出严格 JSON。
// 两者都去除回复首尾的 markdown 代码栅栏，调用方拿到的是可直接解析的正文
type Client interface {
	Name() string
	GenerateText(ctx context.Context, prompt string) (string, error)
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

const (
	// requestTimeout 单次模型调用的超时时间
	requestTimeout = 5 * time.Minute

	// reservedOutputTokens 预留给模型输出的 token 数
	reservedOutputTokens = 4000

	// defaultMaxInputTokens 配置的上下文窗口过小时的输入 token 兜底值
	defaultMaxInputTokens = 6000
)

// maxInputTokensFor 由上下文窗口大小推算输入 token 上限
func maxInputTokensFor(cfg *config.LLM) int {
	maxInput := cfg.MaxTokens - reservedOutputTokens
	if maxInput <= 0 {
		maxInput = defaultMaxInputTokens
	}
	return maxInput
}

// estimateTokens 估算文本的 token 数量。
// 中日韩字符约 1.5 token/字，其余按空白分词约 1.3 token/词，下限为字符数的 1/4
func estimateTokens(text string) int {
	cjkChars := 0
	for _, r := range text {
		if r >= 0x4e00 && r <= 0x9fff {
			cjkChars++
		}
	}
	words := len(strings.Fields(text))

	tokens := int(float64(cjkChars)*1.5 + float64(words)*1.3)
	if tokens < len(text)/4 {
		tokens = len(text) / 4
	}
	return tokens
}

// trimCodeFence 去除模型回复首尾的 markdown 代码栅栏
func trimCodeFence(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

// openAIClientInterface 定义 OpenAI 客户端接口，便于测试
type openAIClientInterface interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIClient 兼容 OpenAI Chat Completions API 的客户端
type OpenAIClient struct {
	config         *config.LLM
	openaiClient   openAIClientInterface
	maxInputTokens int
}

// NewOpenAIClient 创建客户端。transport 非 nil 时经由该 Transport 发送请求（如 SOCKS5 代理）
func NewOpenAIClient(cfg *config.LLM, apiKey string, transport *http.Transport) *OpenAIClient {
	openaiConfig := openai.DefaultConfig(apiKey)
	openaiConfig.BaseURL = cfg.BaseURL
	if transport != nil {
		openaiConfig.HTTPClient = &http.Client{Transport: transport}
	}

	return &OpenAIClient{
		config:         cfg,
		openaiClient:   openai.NewClientWithConfig(openaiConfig),
		maxInputTokens: maxInputTokensFor(cfg),
	}
}

func (c *OpenAIClient) Name() string {
	return "OpenAI:" + c.config.Model
}

func (c *OpenAIClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	return c.createChatCompletion(ctx, prompt, nil)
}

func (c *OpenAIClient) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	return c.createChatCompletion(ctx, prompt, &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONObject,
	})
}

// createChatCompletion 执行一次补全请求，返回去除代码栅栏后的正文
func (c *OpenAIClient) createChatCompletion(ctx context.Context, prompt string, format *openai.ChatCompletionResponseFormat) (string, error) {
	if tokens := estimateTokens(prompt); tokens > c.maxInputTokens {
		return "", fmt.Errorf("提示词过长（约 %d tokens，上限 %d），请减少评论数量或调小 BatchSize", tokens, c.maxInputTokens)
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: c.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.3,
		MaxTokens:   reservedOutputTokens,
	}
	if format != nil {
		req.ResponseFormat = format
	}

	resp, err := c.openaiClient.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("调用 LLM API 失败: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("LLM API 返回空结果")
	}

	return trimCodeFence(resp.Choices[0].Message.Content), nil
}
