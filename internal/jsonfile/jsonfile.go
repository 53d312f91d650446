package jsonfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// Marshal 两空格缩进、不转义 HTML 字符的 JSON 序列化，评论原文原样保留
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("序列化 JSON 失败: %w", err)
	}
	return buf.Bytes(), nil
}

// Write 将 v 序列化后写入 path，文件以换行结尾
func Write(path string, v any) error {
	data, err := Marshal(v)
	if err != nil {
		return err
	}
	if err = os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("写入 JSON 文件失败: %w", err)
	}
	return nil
}
