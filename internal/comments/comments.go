package comments

import (
	"bytes"
	"encoding/json"
)

// VoteTally 单个分组的投票计数。
// TotalCount 按原样透传，不校验与其余三项之和的关系
type VoteTally struct {
	AgreeCount    int `json:"agreeCount"`
	DisagreeCount int `json:"disagreeCount"`
	PassCount     int `json:"passCount"`
	TotalCount    int `json:"totalCount"`
}

// GroupVotes 分组ID → 投票计数 的保序映射。
// JSON 序列化按键的插入顺序输出，Go 原生 map 的随机遍历顺序满足不了这一点
type GroupVotes struct {
	order   []string
	tallies map[string]VoteTally
}

func NewGroupVotes() *GroupVotes {
	return &GroupVotes{tallies: make(map[string]VoteTally)}
}

// Set 写入一个分组的计数；分组已存在时覆盖计数并保持原有位置
func (g *GroupVotes) Set(group string, tally VoteTally) {
	if _, ok := g.tallies[group]; !ok {
		g.order = append(g.order, group)
	}
	g.tallies[group] = tally
}

func (g *GroupVotes) Get(group string) (VoteTally, bool) {
	if g == nil {
		return VoteTally{}, false
	}
	tally, ok := g.tallies[group]
	return tally, ok
}

func (g *GroupVotes) Len() int {
	if g == nil {
		return 0
	}
	return len(g.order)
}

// Groups 返回插入顺序的分组ID副本
func (g *GroupVotes) Groups() []string {
	if g == nil {
		return nil
	}
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// MarshalJSON 按插入顺序输出键，无多余空白
func (g *GroupVotes) MarshalJSON() ([]byte, error) {
	if g == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, group := range g.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(group)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := json.Marshal(g.tallies[group])
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// SubtopicAssignment 子主题标注，名称只在所属主题范围内有意义：
// 不同主题下的同名子主题是两个独立条目
type SubtopicAssignment struct {
	Name string `json:"name"`
}

// TopicAssignment 主题标注，可携带若干子主题。
// 同一条评论允许多次携带同名主题（如每个子主题一条），下游合并而不重复
type TopicAssignment struct {
	Name      string               `json:"name"`
	Subtopics []SubtopicAssignment `json:"subtopics,omitempty"`
}

// HasSubtopics 是否携带子主题标注
func (t TopicAssignment) HasSubtopics() bool {
	return len(t.Subtopics) > 0
}

// Comment 一条评论。
// ID 在同一输入序列内唯一（调用方契约，重复不检测）；
// Topics 与 Votes 均为可选，没有主题标注的评论不参与引用索引，但仍是合法输入
type Comment struct {
	ID     string
	Text   string
	Topics []TopicAssignment
	Votes  *GroupVotes
}
