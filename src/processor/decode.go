package processor

import (
	"encoding/json"
	"fmt"
	"io"
)

// DecodeRawRecords 解析数据集文档：一个由对象组成的JSON数组。
// 数字保留为 json.Number，以便文本字段保留原始写法。
func DecodeRawRecords(r io.Reader) ([]RawRecord, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var rows []RawRecord
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("解析JSON数据失败: %w", err)
	}
	if rows == nil {
		rows = []RawRecord{}
	}
	return rows, nil
}
