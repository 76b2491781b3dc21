package schema

import (
	"database/sql/driver"
	"encoding/json"
)

// JSONArray 用于存储 JSON 数组
// 技能集合与获胜者列表都用它保存，Add/Remove 保证元素不重复。
type JSONArray []string

// Value 实现 driver.Valuer 接口
func (j JSONArray) Value() (driver.Value, error) {
	if j == nil {
		return "[]", nil
	}
	b, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 实现 sql.Scanner 接口
func (j *JSONArray) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSONArray, 0)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*j = make(JSONArray, 0)
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Contains 线性扫描判断是否包含（集合规模很小）
func (j JSONArray) Contains(s string) bool {
	for _, v := range j {
		if v == s {
			return true
		}
	}
	return false
}

// Add 追加元素，已存在时不变；返回是否真的追加了
func (j *JSONArray) Add(s string) bool {
	if j.Contains(s) {
		return false
	}
	*j = append(*j, s)
	return true
}

// Remove 移除元素，不存在时不变；返回是否真的移除了
func (j *JSONArray) Remove(s string) bool {
	if !j.Contains(s) {
		return false
	}
	out := make(JSONArray, 0, len(*j)-1)
	for _, v := range *j {
		if v != s {
			out = append(out, v)
		}
	}
	*j = out
	return true
}
