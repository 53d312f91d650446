package engine

import (
	"encoding/json"

	"github.com/fachebot/comment-lens/internal/comments"
)

// voteInfoPrefix 投票注释行的前缀，正文后换行加 6 个空格缩进
const voteInfoPrefix = "\n      vote info per group: "

// FormatCommentWithVotes 把一条评论的分组投票计数追加为文本注释：
//
//	<正文>
//	      vote info per group: {"0":{"agreeCount":10,...},...}
//
// JSON 键按分组的插入顺序输出，无多余空白。
// 没有投票信息（Votes 为 nil 或空映射）的评论原样返回正文
func FormatCommentWithVotes(comment comments.Comment) string {
	if comment.Votes.Len() == 0 {
		return comment.Text
	}
	data, err := json.Marshal(comment.Votes)
	if err != nil {
		// GroupVotes 只含字符串键和整数计数，序列化不会失败
		return comment.Text
	}
	return comment.Text + voteInfoPrefix + string(data)
}

// FormatCommentsWithVotes 按输入顺序逐条处理，输出条数与输入一致
func FormatCommentsWithVotes(cs []comments.Comment) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = FormatCommentWithVotes(c)
	}
	return out
}
