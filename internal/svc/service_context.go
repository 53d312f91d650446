package svc

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/fachebot/comment-lens/internal/config"
	"github.com/fachebot/comment-lens/internal/llm"
	"github.com/fachebot/comment-lens/internal/logger"

	"golang.org/x/net/proxy"
)

type ServiceContext struct {
	Config         *config.Config
	TransportProxy *http.Transport
	LLMClient      llm.Client
}

func NewServiceContext(ctx context.Context, c *config.Config) *ServiceContext {
	// 创建SOCKS5代理
	var transportProxy *http.Transport
	if c.Sock5Proxy.Enable {
		socks5Proxy := fmt.Sprintf("%s:%d", c.Sock5Proxy.Host, c.Sock5Proxy.Port)
		dialer, err := proxy.SOCKS5("tcp", socks5Proxy, nil, proxy.Direct)
		if err != nil {
			logger.Fatalf("创建SOCKS5代理失败, %v", err)
		}

		transportProxy = &http.Transport{Dial: dialer.Dial}
	}

	svcCtx := &ServiceContext{
		Config:         c,
		TransportProxy: transportProxy,
		LLMClient:      newLLMClient(ctx, c, transportProxy),
	}
	return svcCtx
}

// newLLMClient 按配置的 Provider 创建客户端，API Key 优先取配置文件，其次取环境变量
func newLLMClient(ctx context.Context, c *config.Config, transport *http.Transport) llm.Client {
	switch c.LLM.Provider {
	case config.ProviderOpenAI:
		apiKey := c.LLM.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("LLM_API_KEY")
		}
		if apiKey == "" {
			logger.Fatalf("未配置 OpenAI API Key, 请设置 LLM.APIKey 或 LLM_API_KEY 环境变量")
		}
		return llm.NewOpenAIClient(&c.LLM, apiKey, transport)
	case config.ProviderGemini:
		apiKey := c.LLM.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		client, err := llm.NewGeminiClient(ctx, &c.LLM, apiKey, transport)
		if err != nil {
			logger.Fatalf("创建Gemini客户端失败, %v", err)
		}
		return client
	default:
		logger.Fatalf("不支持的 LLM Provider: %s", c.LLM.Provider)
		return nil
	}
}
