package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fachebot/comment-lens/internal/categorizer"
	"github.com/fachebot/comment-lens/internal/comments"
	"github.com/fachebot/comment-lens/internal/config"
	"github.com/fachebot/comment-lens/internal/engine"
	"github.com/fachebot/comment-lens/internal/jsonfile"
	"github.com/fachebot/comment-lens/internal/logger"
	"github.com/fachebot/comment-lens/internal/summarizer"
	"github.com/fachebot/comment-lens/internal/svc"

	"github.com/joho/godotenv"
)

var (
	configFile = flag.String("f", "etc/config.yaml", "the config file")
	mode       = flag.String("mode", "categorize", "run mode: learn, categorize, index, summarize")
	inputFile  = flag.String("input", "", "comments CSV file")
	outputFile = flag.String("output", "", "output file, default depends on mode")
	seedTopics = flag.String("topics", "", "comma-separated topic names")
)

func main() {
	flag.Parse()

	// .env 仅用于本地开发注入 API Key，文件缺失不是错误
	_ = godotenv.Load()

	// 读取配置文件
	c, err := config.LoadFromFile(*configFile)
	if err != nil {
		logger.Fatalf("读取配置文件失败, %s", err)
	}

	// 读取评论
	if *inputFile == "" {
		logger.Fatalf("请通过 -input 指定评论 CSV 文件")
	}
	cs, err := comments.LoadFromCSV(*inputFile)
	if err != nil {
		logger.Fatalf("读取评论失败, %s", err)
	}
	logger.Infof("已从 %s 读取 %d 条评论", *inputFile, len(cs))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch *mode {
	case "learn":
		runLearn(ctx, c, cs)
	case "categorize":
		runCategorize(ctx, c, cs)
	case "index":
		runIndex(cs)
	case "summarize":
		runSummarize(ctx, c, cs)
	default:
		logger.Fatalf("未知的运行模式: %s", *mode)
	}
}

// runLearn 学习主题树并写入 JSON 文件
func runLearn(ctx context.Context, c *config.Config, cs []comments.Comment) {
	svcCtx := svc.NewServiceContext(ctx, c)
	cat := categorizer.NewCategorizer(svcCtx.LLMClient, c.Categorize.BatchSize)

	topics, err := cat.LearnTopics(ctx, cs, parseSeedTopics())
	if err != nil {
		logger.Fatalf("主题学习失败, %s", err)
	}

	writeJSON(outputPath("topics.json"), topics)
}

// runCategorize 对评论打标并写出主题索引。
// 给定 -topics 时直接作为候选主题，否则先学习主题树
func runCategorize(ctx context.Context, c *config.Config, cs []comments.Comment) {
	svcCtx := svc.NewServiceContext(ctx, c)
	cat := categorizer.NewCategorizer(svcCtx.LLMClient, c.Categorize.BatchSize)

	var topics []comments.TopicAssignment
	if names := parseSeedTopics(); len(names) > 0 {
		for _, name := range names {
			topics = append(topics, comments.TopicAssignment{Name: name})
		}
	} else {
		var err error
		if topics, err = cat.LearnTopics(ctx, cs, nil); err != nil {
			logger.Fatalf("主题学习失败, %s", err)
		}
	}

	classified, err := cat.Categorize(ctx, cs, topics)
	if err != nil {
		logger.Fatalf("评论分类失败, %s", err)
	}

	writeTopicIndex(classified, outputPath("topic-index.json"))
}

// runIndex 直接使用 CSV 中已有的主题标注构建索引，不调用模型
func runIndex(cs []comments.Comment) {
	writeTopicIndex(cs, outputPath("topic-index.json"))
}

// runSummarize 生成评论总结并写入文本文件
func runSummarize(ctx context.Context, c *config.Config, cs []comments.Comment) {
	svcCtx := svc.NewServiceContext(ctx, c)
	s := summarizer.NewSummarizer(svcCtx.LLMClient, c.Summary.Instruction, c.Summary.AdditionalContext)

	result, err := s.Summarize(ctx, cs)
	if err != nil {
		logger.Fatalf("生成总结失败, %s", err)
	}
	if result == "" {
		logger.Infof("无评论可总结")
		return
	}

	path := outputPath("summary.txt")
	if err = os.WriteFile(path, []byte(result+"\n"), 0644); err != nil {
		logger.Fatalf("写入 %s 失败, %s", path, err)
	}
	logger.Infof("总结已写入 %s", path)
}

// writeTopicIndex 构建主题索引并写入 JSON 文件
func writeTopicIndex(cs []comments.Comment, path string) {
	index, err := engine.BuildTopicIndex(cs)
	if err != nil {
		logger.Fatalf("构建主题索引失败, %s", err)
	}

	writeJSON(path, engine.FormatTopicIndex(index))
}

func writeJSON(path string, v any) {
	if err := jsonfile.Write(path, v); err != nil {
		logger.Fatalf("写入 %s 失败, %s", path, err)
	}
	logger.Infof("结果已写入 %s", path)
}

// outputPath -output 未指定时返回各模式的默认文件名
func outputPath(defaultName string) string {
	if *outputFile != "" {
		return *outputFile
	}
	return defaultName
}

func parseSeedTopics() []string {
	if *seedTopics == "" {
		return nil
	}
	var names []string
	for _, name := range strings.Split(*seedTopics, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}
