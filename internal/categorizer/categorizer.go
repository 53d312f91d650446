package categorizer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fachebot/comment-lens/internal/comments"
	"github.com/fachebot/comment-lens/internal/engine"
	"github.com/fachebot/comment-lens/internal/llm"
	"github.com/fachebot/comment-lens/internal/logger"
)

// DefaultBatchSize 单次分类请求包含的评论数上限
const DefaultBatchSize = 100

// jsonGenerator 调用 LLM 生成严格 JSON（便于测试注入 mock）
type jsonGenerator interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

// Categorizer 负责主题学习与评论分类
type Categorizer struct {
	llmClient jsonGenerator
	batchSize int
}

// NewCategorizer 创建分类器，batchSize 为 0 时使用 DefaultBatchSize
func NewCategorizer(llmClient llm.Client, batchSize int) *Categorizer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Categorizer{
		llmClient: llmClient,
		batchSize: batchSize,
	}
}

// learnedTopicsJSON LLM 主题学习回复的结构
type learnedTopicsJSON struct {
	Topics []comments.TopicAssignment `json:"topics"`
}

// categorizedReplyJSON LLM 分类回复的结构
type categorizedReplyJSON struct {
	Categorizations []struct {
		CommentID string                     `json:"commentId"`
		Topics    []comments.TopicAssignment `json:"topics"`
	} `json:"categorizations"`
}

// LearnTopics 从评论中学习主题树。seedTopics 非空时要求模型保留这些主题名
func (c *Categorizer) LearnTopics(ctx context.Context, cs []comments.Comment, seedTopics []string) ([]comments.TopicAssignment, error) {
	logger.Infof("[Categorizer] 开始学习主题，共 %d 条评论", len(cs))

	bodies := make([]string, len(cs))
	for i, comment := range cs {
		bodies[i] = comment.Text
	}

	additionalContext := ""
	if len(seedTopics) > 0 {
		additionalContext = "Ensure the topic list includes these topics: " + strings.Join(seedTopics, ", ")
	}

	prompt := engine.GetPrompt(learnTopicsInstruction, bodies, additionalContext)
	reply, err := c.llmClient.GenerateJSON(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("学习主题失败: %w", err)
	}

	var parsed learnedTopicsJSON
	if err = json.Unmarshal([]byte(reply), &parsed); err != nil {
		logger.Debugf("[Categorizer] 解析主题学习结果失败: %s", reply)
		return nil, fmt.Errorf("解析主题学习结果失败: %w", err)
	}

	topics := make([]comments.TopicAssignment, 0, len(parsed.Topics))
	for _, topic := range parsed.Topics {
		if topic.Name == "" {
			logger.Warnf("[Categorizer] 忽略名称为空的主题")
			continue
		}
		var subtopics []comments.SubtopicAssignment
		for _, subtopic := range topic.Subtopics {
			if subtopic.Name == "" {
				logger.Warnf("[Categorizer] 忽略主题 %q 下名称为空的子主题", topic.Name)
				continue
			}
			subtopics = append(subtopics, subtopic)
		}
		topics = append(topics, comments.TopicAssignment{Name: topic.Name, Subtopics: subtopics})
	}
	if len(topics) == 0 {
		logger.Debugf("[Categorizer] 模型回复: %s", reply)
		return nil, fmt.Errorf("模型未返回任何有效主题")
	}

	logger.Infof("[Categorizer] 学习到 %d 个主题", len(topics))
	return topics, nil
}

// Categorize 将评论分批交给模型，按候选主题树打标，返回带标注的新切片。
// 候选之外的主题/子主题被丢弃；模型漏标的评论保持原样并记录日志，不做重试
func (c *Categorizer) Categorize(ctx context.Context, cs []comments.Comment, topics []comments.TopicAssignment) ([]comments.Comment, error) {
	if len(cs) == 0 {
		return nil, nil
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("候选主题列表为空")
	}

	topicsJSON, err := json.Marshal(topics)
	if err != nil {
		return nil, fmt.Errorf("序列化候选主题失败: %w", err)
	}
	additionalContext := "Candidate topics (JSON):\n" + string(topicsJSON)

	// 候选树查找表，用于过滤模型编造的主题名。重名主题的子主题集合合并
	knownSubtopics := make(map[string]map[string]bool, len(topics))
	for _, topic := range topics {
		subs, ok := knownSubtopics[topic.Name]
		if !ok {
			subs = make(map[string]bool, len(topic.Subtopics))
			knownSubtopics[topic.Name] = subs
		}
		for _, subtopic := range topic.Subtopics {
			subs[subtopic.Name] = true
		}
	}

	result := make([]comments.Comment, len(cs))
	copy(result, cs)

	byID := make(map[string]*comments.Comment, len(result))
	for i := range result {
		byID[result[i].ID] = &result[i]
	}

	batches := splitIntoBatches(result, c.batchSize)
	logger.Infof("[Categorizer] 开始分类 %d 条评论，分 %d 批", len(result), len(batches))

	for i, batch := range batches {
		lines := make([]string, len(batch))
		for j, comment := range batch {
			lines[j] = fmt.Sprintf("[%s] %s", comment.ID, comment.Text)
		}

		prompt := engine.GetPrompt(categorizeInstruction, lines, additionalContext)
		reply, err := c.llmClient.GenerateJSON(ctx, prompt)
		if err != nil {
			return nil, fmt.Errorf("分类第 %d 批失败: %w", i+1, err)
		}

		var parsed categorizedReplyJSON
		if err = json.Unmarshal([]byte(reply), &parsed); err != nil {
			logger.Debugf("[Categorizer] 解析第 %d 批分类结果失败: %s", i+1, reply)
			return nil, fmt.Errorf("解析第 %d 批分类结果失败: %w", i+1, err)
		}

		for _, item := range parsed.Categorizations {
			comment, ok := byID[item.CommentID]
			if !ok {
				logger.Warnf("[Categorizer] 模型返回了未知的评论 ID: %s", item.CommentID)
				continue
			}
			comment.Topics = filterToKnown(item.CommentID, item.Topics, knownSubtopics)
		}
	}

	unassigned := 0
	for i := range result {
		if len(result[i].Topics) == 0 {
			unassigned++
			logger.Warnf("[Categorizer] 评论 %s 未获得任何主题标注", result[i].ID)
		}
	}
	logger.Infof("[Categorizer] 分类完成，%d/%d 条评论获得标注", len(result)-unassigned, len(result))

	return result, nil
}

// filterToKnown 丢弃候选树之外的主题和子主题
func filterToKnown(commentID string, assigned []comments.TopicAssignment, knownSubtopics map[string]map[string]bool) []comments.TopicAssignment {
	var kept []comments.TopicAssignment
	for _, topic := range assigned {
		subs, ok := knownSubtopics[topic.Name]
		if !ok {
			logger.Warnf("[Categorizer] 评论 %s 被标注到候选之外的主题 %q，已丢弃", commentID, topic.Name)
			continue
		}
		var keptSubs []comments.SubtopicAssignment
		for _, subtopic := range topic.Subtopics {
			if !subs[subtopic.Name] {
				logger.Warnf("[Categorizer] 评论 %s 在主题 %q 下被标注到候选之外的子主题 %q，已丢弃", commentID, topic.Name, subtopic.Name)
				continue
			}
			keptSubs = append(keptSubs, subtopic)
		}
		kept = append(kept, comments.TopicAssignment{Name: topic.Name, Subtopics: keptSubs})
	}
	return kept
}

// splitIntoBatches 按 batchSize 切分评论，保持原顺序
func splitIntoBatches(cs []comments.Comment, batchSize int) [][]comments.Comment {
	if len(cs) == 0 {
		return nil
	}
	batches := make([][]comments.Comment, 0, (len(cs)+batchSize-1)/batchSize)
	for start := 0; start < len(cs); start += batchSize {
		end := start + batchSize
		if end > len(cs) {
			end = len(cs)
		}
		batches = append(batches, cs[start:end])
	}
	return batches
}
