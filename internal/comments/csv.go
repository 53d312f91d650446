package comments

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// CSV 列约定：
//   - comment-id / comment_text 必填列
//   - topics 可选列，分号分隔的 "主题" 或 "主题:子主题" 条目
//   - group-<分组ID>-agree-count 等可选投票列；total 列缺失时按三项求和，
//     某行该分组的单元格全部为空时视为该行没有这个分组的投票
const (
	colCommentID   = "comment-id"
	colCommentText = "comment_text"
	colTopics      = "topics"
)

var voteColumnPattern = regexp.MustCompile(`^group-(.+)-(agree|disagree|pass|total)-count$`)

// voteColumns 单个分组的各计数列下标，-1 表示该列不存在
type voteColumns struct {
	group    string
	agree    int
	disagree int
	pass     int
	total    int
}

// LoadFromCSV 从 CSV 文件读取评论序列
func LoadFromCSV(path string) ([]Comment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开评论文件失败: %w", err)
	}
	defer f.Close()

	cs, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("解析评论文件 %s 失败: %w", path, err)
	}
	return cs, nil
}

// ReadCSV 解析带表头的行式评论数据，保持行序
func ReadCSV(r io.Reader) ([]Comment, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("缺少表头行")
	}
	if err != nil {
		return nil, fmt.Errorf("读取表头失败: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, ok := columns[name]; ok {
			return nil, fmt.Errorf("表头中列 %q 重复", name)
		}
		columns[name] = i
	}

	idIdx, ok := columns[colCommentID]
	if !ok {
		return nil, fmt.Errorf("缺少必填列 %q", colCommentID)
	}
	textIdx, ok := columns[colCommentText]
	if !ok {
		return nil, fmt.Errorf("缺少必填列 %q", colCommentText)
	}
	topicsIdx := -1
	if i, ok := columns[colTopics]; ok {
		topicsIdx = i
	}
	voteGroups := discoverVoteGroups(header)

	var cs []Comment
	row := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			return nil, fmt.Errorf("读取第 %d 行失败: %w", row, err)
		}

		comment := Comment{
			ID:   strings.TrimSpace(record[idIdx]),
			Text: record[textIdx],
		}
		if comment.ID == "" {
			return nil, fmt.Errorf("第 %d 行缺少评论 ID", row)
		}

		if topicsIdx >= 0 {
			topics, err := parseTopicsCell(record[topicsIdx])
			if err != nil {
				return nil, fmt.Errorf("第 %d 行: %w", row, err)
			}
			comment.Topics = topics
		}

		votes, err := parseVoteCells(record, voteGroups)
		if err != nil {
			return nil, fmt.Errorf("第 %d 行: %w", row, err)
		}
		comment.Votes = votes

		cs = append(cs, comment)
	}

	return cs, nil
}

// discoverVoteGroups 按表头中首次出现的顺序识别投票分组
func discoverVoteGroups(header []string) []voteColumns {
	var groups []voteColumns
	index := make(map[string]int)
	for i, name := range header {
		m := voteColumnPattern.FindStringSubmatch(strings.TrimSpace(name))
		if m == nil {
			continue
		}
		group, kind := m[1], m[2]
		gi, ok := index[group]
		if !ok {
			gi = len(groups)
			index[group] = gi
			groups = append(groups, voteColumns{group: group, agree: -1, disagree: -1, pass: -1, total: -1})
		}
		switch kind {
		case "agree":
			groups[gi].agree = i
		case "disagree":
			groups[gi].disagree = i
		case "pass":
			groups[gi].pass = i
		case "total":
			groups[gi].total = i
		}
	}
	return groups
}

// parseTopicsCell 解析分号分隔的 "主题" 或 "主题:子主题" 条目
func parseTopicsCell(cell string) ([]TopicAssignment, error) {
	var topics []TopicAssignment
	for _, entry := range strings.Split(cell, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 2)
		name := strings.TrimSpace(parts[0])
		if name == "" {
			return nil, fmt.Errorf("topics 条目 %q 缺少主题名称", entry)
		}
		assignment := TopicAssignment{Name: name}
		if len(parts) == 2 {
			sub := strings.TrimSpace(parts[1])
			if sub == "" {
				return nil, fmt.Errorf("topics 条目 %q 缺少子主题名称", entry)
			}
			assignment.Subtopics = []SubtopicAssignment{{Name: sub}}
		}
		topics = append(topics, assignment)
	}
	return topics, nil
}

// parseVoteCells 解析一行的各分组投票计数
func parseVoteCells(record []string, groups []voteColumns) (*GroupVotes, error) {
	var votes *GroupVotes
	for _, g := range groups {
		agree, aok, err := parseCountCell(record, g.agree, g.group, "agree")
		if err != nil {
			return nil, err
		}
		disagree, dok, err := parseCountCell(record, g.disagree, g.group, "disagree")
		if err != nil {
			return nil, err
		}
		pass, pok, err := parseCountCell(record, g.pass, g.group, "pass")
		if err != nil {
			return nil, err
		}
		total, tok, err := parseCountCell(record, g.total, g.group, "total")
		if err != nil {
			return nil, err
		}
		// 该分组的单元格全为空：这一行没有该分组的投票
		if !aok && !dok && !pok && !tok {
			continue
		}
		if !tok {
			total = agree + disagree + pass
		}
		if votes == nil {
			votes = NewGroupVotes()
		}
		votes.Set(g.group, VoteTally{
			AgreeCount:    agree,
			DisagreeCount: disagree,
			PassCount:     pass,
			TotalCount:    total,
		})
	}
	return votes, nil
}

// parseCountCell 解析单个计数单元格，列不存在或单元格为空时 ok 为 false
func parseCountCell(record []string, idx int, group, kind string) (int, bool, error) {
	if idx < 0 {
		return 0, false, nil
	}
	cell := strings.TrimSpace(record[idx])
	if cell == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(cell)
	if err != nil {
		return 0, false, fmt.Errorf("分组 %s 的 %s 计数 %q 不是整数", group, kind, cell)
	}
	if n < 0 {
		return 0, false, fmt.Errorf("分组 %s 的 %s 计数不能为负数: %d", group, kind, n)
	}
	return n, true, nil
}
