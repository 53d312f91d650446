package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/fachebot/comment-lens/internal/config"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// mockOpenAIClient 模拟 OpenAI 客户端
type mockOpenAIClient struct {
	mock.Mock
}

func (m *mockOpenAIClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(openai.ChatCompletionResponse), args.Error(1)
}

// newTestClient 创建用于测试的客户端，注入 mock
func newTestClient(cfg *config.LLM, mockClient openAIClientInterface) *OpenAIClient {
	return &OpenAIClient{
		config:         cfg,
		openaiClient:   mockClient,
		maxInputTokens: maxInputTokensFor(cfg),
	}
}

func chatResponse(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantMin int
		wantMax int
	}{
		{"空文本", "", 0, 0},
		{"纯中文", "这是一段中文测试文本", 8, 50},
		{"纯英文", "This is a test message", 4, 30},
		{"中英混合", "Hello 世界 test 测试", 4, 40},
		{"长文本", "这是一段很长的中文文本。" + "重复" + "重复" + "重复" + "重复" + "重复", 20, 120},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := estimateTokens(tt.text)
			assert.GreaterOrEqual(t, got, tt.wantMin)
			assert.LessOrEqual(t, got, tt.wantMax)
		})
	}
}

func TestTrimCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"无栅栏", `{"a":1}`, `{"a":1}`},
		{"json栅栏", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"裸栅栏", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"首尾空白", "  \n{\"a\":1}\n  ", `{"a":1}`},
		{"纯文本", "一段总结文字", "一段总结文字"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, trimCodeFence(tt.in))
		})
	}
}

func TestMaxInputTokensFor(t *testing.T) {
	assert.Equal(t, 6000, maxInputTokensFor(&config.LLM{MaxTokens: 10000}))
	assert.Equal(t, defaultMaxInputTokens, maxInputTokensFor(&config.LLM{MaxTokens: 1000}))
	assert.Equal(t, defaultMaxInputTokens, maxInputTokensFor(&config.LLM{MaxTokens: reservedOutputTokens}))
}

func TestOpenAIClient_Name(t *testing.T) {
	cfg := &config.LLM{Model: "gpt-4o-mini", MaxTokens: 10000}
	client := newTestClient(cfg, &mockOpenAIClient{})
	assert.Equal(t, "OpenAI:gpt-4o-mini", client.Name())
}

func TestGenerateText_Success(t *testing.T) {
	mockAPI := new(mockOpenAIClient)
	mockAPI.On("CreateChatCompletion", mock.Anything, mock.MatchedBy(func(req openai.ChatCompletionRequest) bool {
		return req.ResponseFormat == nil &&
			len(req.Messages) == 1 &&
			req.Messages[0].Role == openai.ChatMessageRoleUser &&
			req.Messages[0].Content == "prompt text"
	})).Return(chatResponse("一段总结"), nil).Once()

	cfg := &config.LLM{Model: "test", MaxTokens: 10000}
	client := newTestClient(cfg, mockAPI)

	result, err := client.GenerateText(context.Background(), "prompt text")
	assert.NoError(t, err)
	assert.Equal(t, "一段总结", result)
	mockAPI.AssertExpectations(t)
}

func TestGenerateJSON_SetsResponseFormat(t *testing.T) {
	mockAPI := new(mockOpenAIClient)
	mockAPI.On("CreateChatCompletion", mock.Anything, mock.MatchedBy(func(req openai.ChatCompletionRequest) bool {
		return req.ResponseFormat != nil &&
			req.ResponseFormat.Type == openai.ChatCompletionResponseFormatTypeJSONObject
	})).Return(chatResponse(`{"topics":[]}`), nil).Once()

	cfg := &config.LLM{Model: "test", MaxTokens: 10000}
	client := newTestClient(cfg, mockAPI)

	result, err := client.GenerateJSON(context.Background(), "prompt text")
	assert.NoError(t, err)
	assert.Equal(t, `{"topics":[]}`, result)
	mockAPI.AssertExpectations(t)
}

func TestGenerateJSON_TrimsMarkdownCodeBlock(t *testing.T) {
	jsonResp := `{"topics":[{"name":"经济"}]}`
	wrapped := "```json\n" + jsonResp + "\n```"
	mockAPI := new(mockOpenAIClient)
	mockAPI.On("CreateChatCompletion", mock.Anything, mock.Anything).
		Return(chatResponse(wrapped), nil)

	cfg := &config.LLM{Model: "test", MaxTokens: 10000}
	client := newTestClient(cfg, mockAPI)

	result, err := client.GenerateJSON(context.Background(), "prompt")
	assert.NoError(t, err)
	assert.Equal(t, jsonResp, result)
}

func TestGenerateText_APIError(t *testing.T) {
	mockAPI := new(mockOpenAIClient)
	mockAPI.On("CreateChatCompletion", mock.Anything, mock.Anything).
		Return(openai.ChatCompletionResponse{}, errors.New("api error"))

	cfg := &config.LLM{Model: "test", MaxTokens: 10000}
	client := newTestClient(cfg, mockAPI)

	_, err := client.GenerateText(context.Background(), "prompt")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "调用 LLM API 失败")
}

func TestGenerateText_EmptyResponse(t *testing.T) {
	mockAPI := new(mockOpenAIClient)
	mockAPI.On("CreateChatCompletion", mock.Anything, mock.Anything).
		Return(openai.ChatCompletionResponse{Choices: nil}, nil)

	cfg := &config.LLM{Model: "test", MaxTokens: 10000}
	client := newTestClient(cfg, mockAPI)

	_, err := client.GenerateText(context.Background(), "prompt")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "返回空结果")
}

func TestGenerateText_PromptTooLong(t *testing.T) {
	mockAPI := new(mockOpenAIClient)

	cfg := &config.LLM{Model: "test", MaxTokens: 10000}
	client := newTestClient(cfg, mockAPI)
	client.maxInputTokens = 10

	_, err := client.GenerateText(context.Background(), "这是一段足够长的中文提示词内容，会超出极小的输入上限")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "提示词过长")
	// 超限时不应发起 API 调用
	mockAPI.AssertNotCalled(t, "CreateChatCompletion", mock.Anything, mock.Anything)
}
