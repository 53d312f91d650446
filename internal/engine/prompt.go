package engine

import "strings"

// GetPrompt 组装提交给文本生成服务的提示词，三个区块之间恰好隔一个空行：
//
//	Instructions:
//	<指令>
//
//	Additional context:
//	<背景信息>
//
//	Comments:
//	<评论1>
//	<评论2>
//
// additionalContext 为空字符串时整个 Additional context 区块省略，不留多余空行。
// 评论正文按输入顺序以单个换行拼接，末尾不带换行；没有评论时以 "Comments:" 结尾。
// 内容原样写入，不做转义或截断，长度限制由调用方负责
func GetPrompt(instruction string, commentBodies []string, additionalContext string) string {
	var sb strings.Builder
	sb.WriteString("Instructions:\n")
	sb.WriteString(instruction)
	sb.WriteString("\n\n")
	if additionalContext != "" {
		sb.WriteString("Additional context:\n")
		sb.WriteString(additionalContext)
		sb.WriteString("\n\n")
	}
	sb.WriteString("Comments:")
	for _, body := range commentBodies {
		sb.WriteByte('\n')
		sb.WriteString(body)
	}
	return sb.String()
}
