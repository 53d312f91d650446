package engine

import (
	"sort"
	"strconv"
)

// TopicRecord 扁平化后可直接 JSON 序列化的主题记录。
// Subtopics 为 nil 时序列化省略该字段，"没有子主题" 不等于 "子主题列表为空"
type TopicRecord struct {
	Name      string           `json:"name"`
	Citations []string         `json:"citations"`
	Subtopics []SubtopicRecord `json:"subtopics,omitempty"`
}

// SubtopicRecord 子主题记录
type SubtopicRecord struct {
	Name      string   `json:"name"`
	Citations []string `json:"citations"`
}

// FormatTopicIndex 把索引扁平化为有序记录列表。
// 主题、子主题保持首次出现顺序；引用列表排序后输出（见 sortCitations），
// 使同一输入总产生相同的序列化结果
func FormatTopicIndex(idx *TopicIndex) []TopicRecord {
	records := make([]TopicRecord, 0, len(idx.order))
	for _, name := range idx.order {
		entry := idx.topics[name]
		record := TopicRecord{
			Name:      name,
			Citations: sortCitations(entry.citations.ids()),
		}
		for _, subName := range entry.subOrder {
			record.Subtopics = append(record.Subtopics, SubtopicRecord{
				Name:      subName,
				Citations: sortCitations(entry.subs[subName].ids()),
			})
		}
		records = append(records, record)
	}
	return records
}

// sortCitations 原地排序引用列表并返回：
// 数字串 ID 按数值升序排在前面，其余 ID 按字典序跟在后面
func sortCitations(ids []string) []string {
	sort.SliceStable(ids, func(i, j int) bool {
		return citationLess(ids[i], ids[j])
	})
	return ids
}

func citationLess(a, b string) bool {
	na, errA := strconv.ParseInt(a, 10, 64)
	nb, errB := strconv.ParseInt(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		if na != nb {
			return na < nb
		}
		return a < b
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}
