package engine

import (
	"fmt"

	"github.com/fachebot/comment-lens/internal/comments"
)

// citationSet 保序去重的引用集合：记录首次引用顺序，重复加入是空操作
type citationSet struct {
	order []string
	seen  map[string]struct{}
}

func newCitationSet() *citationSet {
	return &citationSet{seen: make(map[string]struct{})}
}

func (s *citationSet) add(id string) {
	if _, ok := s.seen[id]; ok {
		return
	}
	s.seen[id] = struct{}{}
	s.order = append(s.order, id)
}

func (s *citationSet) ids() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// topicEntry 单个主题的主题级引用集合与子主题集合
type topicEntry struct {
	citations *citationSet
	subOrder  []string
	subs      map[string]*citationSet
}

// TopicIndex 主题 → 子主题 → 引用集合 的两级索引。
// 主题与子主题均保留首次出现顺序，引用集合去重；
// 每次构建全新生成，归属单次调用，不跨调用共享
type TopicIndex struct {
	order  []string
	topics map[string]*topicEntry
}

func NewTopicIndex() *TopicIndex {
	return &TopicIndex{topics: make(map[string]*topicEntry)}
}

// BuildTopicIndex 按输入顺序消费已分类评论，构建引用索引。
// 没有主题标注的评论直接跳过；重复的评论 ID 不检测（调用方契约）
func BuildTopicIndex(cs []comments.Comment) (*TopicIndex, error) {
	idx := NewTopicIndex()
	for _, c := range cs {
		if err := idx.AddComment(c); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

// AddComment 把一条评论的全部主题标注并入索引。
// 同一条评论多次携带同名主题时合并为一个条目，主题级引用只记一次；
// 子主题名称按所属主题隔离，不同主题下的同名子主题互不影响。
// 主题名或子主题名为空是非法输入，立即报错而不是悄悄纠正
func (idx *TopicIndex) AddComment(c comments.Comment) error {
	for _, t := range c.Topics {
		if t.Name == "" {
			return fmt.Errorf("评论 %s 的主题标注缺少名称", c.ID)
		}
		entry := idx.topic(t.Name)
		entry.citations.add(c.ID)
		for _, sub := range t.Subtopics {
			if sub.Name == "" {
				return fmt.Errorf("评论 %s 在主题 %q 下的子主题标注缺少名称", c.ID, t.Name)
			}
			set, ok := entry.subs[sub.Name]
			if !ok {
				set = newCitationSet()
				entry.subs[sub.Name] = set
				entry.subOrder = append(entry.subOrder, sub.Name)
			}
			set.add(c.ID)
		}
	}
	return nil
}

// topic 查找或按首次出现顺序创建主题条目
func (idx *TopicIndex) topic(name string) *topicEntry {
	entry, ok := idx.topics[name]
	if !ok {
		entry = &topicEntry{
			citations: newCitationSet(),
			subs:      make(map[string]*citationSet),
		}
		idx.topics[name] = entry
		idx.order = append(idx.order, name)
	}
	return entry
}

// Topics 首次出现顺序的主题名副本
func (idx *TopicIndex) Topics() []string {
	out := make([]string, len(idx.order))
	copy(out, idx.order)
	return out
}

// Len 主题条目数
func (idx *TopicIndex) Len() int {
	return len(idx.order)
}
