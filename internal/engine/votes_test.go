package engine

import (
	"testing"

	"github.com/fachebot/comment-lens/internal/comments"
	"github.com/stretchr/testify/assert"
)

func TestFormatCommentWithVotes_NoVotes(t *testing.T) {
	tests := []struct {
		name    string
		comment comments.Comment
	}{
		{"无投票字段", comments.Comment{ID: "1", Text: "原样返回"}},
		{"空投票映射", comments.Comment{ID: "1", Text: "原样返回", Votes: comments.NewGroupVotes()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.comment.Text, FormatCommentWithVotes(tt.comment))
		})
	}
}

func TestFormatCommentWithVotes_Annotation(t *testing.T) {
	votes := comments.NewGroupVotes()
	votes.Set("0", comments.VoteTally{AgreeCount: 10, DisagreeCount: 5, PassCount: 0, TotalCount: 15})

	got := FormatCommentWithVotes(comments.Comment{ID: "1", Text: "修建更多自行车道", Votes: votes})
	want := "修建更多自行车道\n      vote info per group: " +
		`{"0":{"agreeCount":10,"disagreeCount":5,"passCount":0,"totalCount":15}}`
	assert.Equal(t, want, got)
}

func TestFormatCommentWithVotes_GroupInsertionOrder(t *testing.T) {
	votes := comments.NewGroupVotes()
	votes.Set("1", comments.VoteTally{AgreeCount: 2, DisagreeCount: 0, PassCount: 1, TotalCount: 3})
	votes.Set("0", comments.VoteTally{AgreeCount: 7, DisagreeCount: 1, PassCount: 0, TotalCount: 8})

	got := FormatCommentWithVotes(comments.Comment{ID: "1", Text: "t", Votes: votes})
	want := "t\n      vote info per group: " +
		`{"1":{"agreeCount":2,"disagreeCount":0,"passCount":1,"totalCount":3},` +
		`"0":{"agreeCount":7,"disagreeCount":1,"passCount":0,"totalCount":8}}`
	assert.Equal(t, want, got)
}

func TestFormatCommentsWithVotes(t *testing.T) {
	votes := comments.NewGroupVotes()
	votes.Set("0", comments.VoteTally{AgreeCount: 1, DisagreeCount: 0, PassCount: 0, TotalCount: 1})

	cs := []comments.Comment{
		{ID: "1", Text: "第一条"},
		{ID: "2", Text: "第二条", Votes: votes},
		{ID: "3", Text: "第三条"},
	}
	got := FormatCommentsWithVotes(cs)

	assert.Len(t, got, 3, "输出条数与输入一致")
	assert.Equal(t, "第一条", got[0])
	assert.Equal(t, "第二条\n      vote info per group: "+
		`{"0":{"agreeCount":1,"disagreeCount":0,"passCount":0,"totalCount":1}}`, got[1])
	assert.Equal(t, "第三条", got[2])
}

func TestFormatCommentsWithVotes_Empty(t *testing.T) {
	assert.Empty(t, FormatCommentsWithVotes(nil))
}
