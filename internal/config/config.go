package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LLM Provider 取值
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

type Sock5Proxy struct {
	Host   string `yaml:"Host"`
	Port   int32  `yaml:"Port"`
	Enable bool   `yaml:"Enable"`
}

type LLM struct {
	Provider  string `yaml:"Provider"`  // "openai"（兼容 OpenAI API 的端点）或 "gemini"
	BaseURL   string `yaml:"BaseURL"`   // Provider 为 openai 时的 API 端点
	APIKey    string `yaml:"APIKey"`    // 留空时从环境变量 LLM_API_KEY / GEMINI_API_KEY 读取
	Model     string `yaml:"Model"`     // 如 gpt-4o, deepseek-chat, gemini-2.0-flash
	MaxTokens int    `yaml:"MaxTokens"` // 模型上下文窗口大小
}

type Categorize struct {
	BatchSize int `yaml:"BatchSize"` // 单次分类请求的评论条数，0 表示使用默认值
}

type Summary struct {
	Instruction       string `yaml:"Instruction"`       // 总结指令，留空使用内置默认指令
	AdditionalContext string `yaml:"AdditionalContext"` // 附加背景信息，留空则省略该区块
}

type Config struct {
	Sock5Proxy Sock5Proxy `yaml:"Sock5Proxy"`
	LLM        LLM        `yaml:"LLM"`
	Categorize Categorize `yaml:"Categorize"`
	Summary    Summary    `yaml:"Summary"`
}

func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var c Config
	err = yaml.Unmarshal(data, &c)
	if err != nil {
		return nil, err
	}

	// 未指定 Provider 时默认使用 openai 兼容端点
	if c.LLM.Provider == "" {
		c.LLM.Provider = ProviderOpenAI
	}

	// 验证配置
	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	// 验证 LLM
	switch c.LLM.Provider {
	case ProviderOpenAI:
		if c.LLM.BaseURL == "" {
			return fmt.Errorf("LLM.BaseURL 不能为空")
		}
	case ProviderGemini:
		// Gemini 端点由 SDK 决定，BaseURL 不参与
	default:
		return fmt.Errorf("LLM.Provider 必须是 '%s' 或 '%s'", ProviderOpenAI, ProviderGemini)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("LLM.Model 不能为空")
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("LLM.MaxTokens 必须大于 0")
	}

	// 验证 Categorize
	if c.Categorize.BatchSize < 0 {
		return fmt.Errorf("Categorize.BatchSize 必须 >= 0")
	}

	return nil
}
