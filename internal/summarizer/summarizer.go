package summarizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/fachebot/comment-lens/internal/comments"
	"github.com/fachebot/comment-lens/internal/engine"
	"github.com/fachebot/comment-lens/internal/llm"
	"github.com/fachebot/comment-lens/internal/logger"
)

// DefaultInstruction 未配置 Summary.Instruction 时使用的总结指令
const DefaultInstruction = `Summarize the following public comments in a short analytical report.
Describe the main points of discussion and where opinion groups agree or disagree, using the per-group vote info attached to comments where available.
Write in plain prose, without markdown headings.`

// textGenerator 调用 LLM 生成自由文本（便于测试注入 mock）
type textGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

type Summarizer struct {
	llmClient         textGenerator
	instruction       string
	additionalContext string
}

// NewSummarizer 创建总结器，instruction 为空时使用 DefaultInstruction
func NewSummarizer(llmClient llm.Client, instruction, additionalContext string) *Summarizer {
	if instruction == "" {
		instruction = DefaultInstruction
	}
	return &Summarizer{
		llmClient:         llmClient,
		instruction:       instruction,
		additionalContext: additionalContext,
	}
}

// Summarize 生成评论集的文字总结。带投票信息的评论会附带各组投票统计
func (s *Summarizer) Summarize(ctx context.Context, cs []comments.Comment) (string, error) {
	if len(cs) == 0 {
		logger.Infof("[Summarizer] 无评论，跳过总结")
		return "", nil
	}

	logger.Infof("[Summarizer] 开始总结 %d 条评论", len(cs))

	bodies := engine.FormatCommentsWithVotes(cs)
	prompt := engine.GetPrompt(s.instruction, bodies, s.additionalContext)

	result, err := s.llmClient.GenerateText(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("LLM 总结失败: %w", err)
	}
	result = strings.TrimSpace(result)
	if result == "" {
		return "", fmt.Errorf("LLM 返回空总结")
	}

	logger.Infof("[Summarizer] 总结完成")
	return result, nil
}
