package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// Duration 支持 JSON 字符串的 time.Duration
//
//	{"negotiate_timeout": "10s"} 或 {"negotiate_timeout": 10000000000}
type Duration time.Duration

// UnmarshalJSON 解析 "30s" 形式的字符串或纳秒数
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration string %q: %w", s, err)
		}
		*d = Duration(v)
		return nil
	}

	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("duration must be a string (e.g. \"30s\") or nanoseconds")
	}
	*d = Duration(n)
	return nil
}

// MarshalJSON 输出可读字符串
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Duration 返回 time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// String 返回字符串表示
func (d Duration) String() string {
	return time.Duration(d).String()
}
