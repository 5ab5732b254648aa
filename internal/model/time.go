package model

import (
	"fmt"
	"time"
)

// LocalTime 在 JSON 序列化时使用 "YYYY-MM-DD HH:MM:SS" 格式，
// 供用户列表等面向前端展示的结构使用。
type LocalTime time.Time

const timeFormat = "2006-01-02 15:04:05"

// MarshalJSON 实现 json.Marshaler 接口。
func (t LocalTime) MarshalJSON() ([]byte, error) {
	formatted := fmt.Sprintf("\"%s\"", time.Time(t).Format(timeFormat))
	return []byte(formatted), nil
}
