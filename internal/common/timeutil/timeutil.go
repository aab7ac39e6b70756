// Package timeutil 提供统一的时区与时刻处理功能
//
// 系统内所有业务时间均以 UTC+8（台北时间）为准：入库前统一转换，
// 比较与排程计算也在该时区内进行。
package timeutil

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// Location 系统业务时区（UTC+8）
var Location = time.FixedZone("UTC+8", 8*60*60)

// Now 返回当前的 UTC+8 时间
func Now() time.Time {
	return time.Now().In(Location)
}

// Normalize 将任意时间规范化为 UTC+8
//
// 带时区信息的时间做时区换算；零值原样返回。
func Normalize(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.In(Location)
}

// Weekday 返回规范化后时间的星期编码（0=周日 .. 6=周六）
func Weekday(t time.Time) int {
	return int(Normalize(t).Weekday())
}

// StartOfDay 返回该日期在 UTC+8 的零点
func StartOfDay(t time.Time) time.Time {
	n := Normalize(t)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, Location)
}

// Combine 将日期与一天内时刻组合为 UTC+8 时间
func Combine(date time.Time, clock ClockTime) time.Time {
	d := Normalize(date)
	return time.Date(d.Year(), d.Month(), d.Day(), clock.Hour(), clock.Minute(), 0, 0, Location)
}

// ClockOf 提取规范化后时间的一天内时刻（秒及以下截断）
func ClockOf(t time.Time) ClockTime {
	n := Normalize(t)
	return ClockTime(n.Hour()*60 + n.Minute())
}

// ClockTime 一天内的时刻，以零点起的分钟数表示
//
// 数据库存储为 "HH:MM" 文本，可直接比较大小。
type ClockTime int

// NewClock 由时、分构造时刻
func NewClock(hour, minute int) ClockTime {
	return ClockTime(hour*60 + minute)
}

// ParseClock 解析 "HH:MM" 或 "HH:MM:SS" 格式的时刻
func ParseClock(s string) (ClockTime, error) {
	var hour, minute, sec int
	if _, err := fmt.Sscanf(s, "%d:%d:%d", &hour, &minute, &sec); err != nil {
		if _, err := fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
			return 0, fmt.Errorf("invalid clock time %q", s)
		}
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("clock time out of range: %q", s)
	}
	return NewClock(hour, minute), nil
}

// Hour 返回小时部分
func (c ClockTime) Hour() int {
	return int(c) / 60
}

// Minute 返回分钟部分
func (c ClockTime) Minute() int {
	return int(c) % 60
}

// Add 返回偏移指定时长后的时刻
func (c ClockTime) Add(d time.Duration) ClockTime {
	return c + ClockTime(d/time.Minute)
}

// Before 判断是否早于另一时刻
func (c ClockTime) Before(o ClockTime) bool {
	return c < o
}

// After 判断是否晚于另一时刻
func (c ClockTime) After(o ClockTime) bool {
	return c > o
}

// String 格式化为 "HH:MM"
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// Value 实现 driver.Valuer
func (c ClockTime) Value() (driver.Value, error) {
	return c.String(), nil
}

// Scan 实现 sql.Scanner
func (c *ClockTime) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*c = 0
		return nil
	case string:
		parsed, err := ParseClock(v)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	case []byte:
		parsed, err := ParseClock(string(v))
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	case time.Time:
		*c = ClockOf(v)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into ClockTime", src)
	}
}

// MarshalJSON 序列化为 "HH:MM" 字符串
func (c ClockTime) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", c.String())), nil
}

// UnmarshalJSON 解析 "HH:MM" 字符串
func (c *ClockTime) UnmarshalJSON(data []byte) error {
	var s string
	if _, err := fmt.Sscanf(string(data), "%q", &s); err != nil {
		return fmt.Errorf("invalid clock time json: %s", data)
	}
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
