// Package timeutil 时区处理单元测试
package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==================== Normalize 测试 ====================

func TestNormalize(t *testing.T) {
	t.Run("UTC 时间换算为 UTC+8", func(t *testing.T) {
		utc := time.Date(2025, 6, 1, 2, 0, 0, 0, time.UTC)
		got := Normalize(utc)
		assert.Equal(t, 10, got.Hour())
		assert.Equal(t, "UTC+8", got.Location().String())
	})

	t.Run("跨日换算", func(t *testing.T) {
		// UTC 6/1 20:00 = UTC+8 6/2 04:00
		utc := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
		got := Normalize(utc)
		assert.Equal(t, 2, got.Day())
		assert.Equal(t, 4, got.Hour())
	})

	t.Run("已是 UTC+8 的时间保持不变", func(t *testing.T) {
		local := time.Date(2025, 6, 1, 10, 0, 0, 0, Location)
		got := Normalize(local)
		assert.True(t, got.Equal(local))
		assert.Equal(t, 10, got.Hour())
	})

	t.Run("零值原样返回", func(t *testing.T) {
		assert.True(t, Normalize(time.Time{}).IsZero())
	})
}

// ==================== Weekday 测试 ====================

func TestWeekday(t *testing.T) {
	tests := []struct {
		name string
		date time.Time
		want int
	}{
		{"周日为 0", time.Date(2025, 6, 1, 12, 0, 0, 0, Location), 0},
		{"周一为 1", time.Date(2025, 6, 2, 12, 0, 0, 0, Location), 1},
		{"周六为 6", time.Date(2025, 6, 7, 12, 0, 0, 0, Location), 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Weekday(tt.date))
		})
	}

	t.Run("换算后跨日则星期一并变化", func(t *testing.T) {
		// UTC 周六 20:00 = UTC+8 周日 04:00
		utcSaturday := time.Date(2025, 5, 31, 20, 0, 0, 0, time.UTC)
		assert.Equal(t, 0, Weekday(utcSaturday))
	})
}

// ==================== StartOfDay / Combine 测试 ====================

func TestStartOfDay(t *testing.T) {
	got := StartOfDay(time.Date(2025, 6, 1, 15, 30, 45, 0, Location))
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, Location), got)
}

func TestCombine(t *testing.T) {
	date := time.Date(2025, 6, 1, 23, 59, 0, 0, Location)
	got := Combine(date, NewClock(9, 30))
	assert.Equal(t, time.Date(2025, 6, 1, 9, 30, 0, 0, Location), got)
}

func TestClockOf(t *testing.T) {
	got := ClockOf(time.Date(2025, 6, 1, 14, 45, 59, 0, Location))
	assert.Equal(t, NewClock(14, 45), got)
}

// ==================== ClockTime 测试 ====================

func TestParseClock(t *testing.T) {
	tests := []struct {
		input   string
		want    ClockTime
		wantErr bool
	}{
		{"09:00", NewClock(9, 0), false},
		{"17:30", NewClock(17, 30), false},
		{"09:00:00", NewClock(9, 0), false},
		{"23:59", NewClock(23, 59), false},
		{"00:00", NewClock(0, 0), false},
		{"24:00", 0, true},
		{"09:60", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseClock(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClockTime_Comparisons(t *testing.T) {
	nine := NewClock(9, 0)
	five := NewClock(17, 0)

	assert.True(t, nine.Before(five))
	assert.True(t, five.After(nine))
	assert.False(t, nine.After(nine))
	assert.False(t, nine.Before(nine))
}

func TestClockTime_Add(t *testing.T) {
	got := NewClock(9, 0).Add(90 * time.Minute)
	assert.Equal(t, NewClock(10, 30), got)
}

func TestClockTime_String(t *testing.T) {
	assert.Equal(t, "09:05", NewClock(9, 5).String())
	assert.Equal(t, "00:00", NewClock(0, 0).String())
	assert.Equal(t, "23:59", NewClock(23, 59).String())
}

func TestClockTime_ValueScan(t *testing.T) {
	t.Run("Value 输出 HH:MM 文本", func(t *testing.T) {
		v, err := NewClock(17, 0).Value()
		require.NoError(t, err)
		assert.Equal(t, "17:00", v)
	})

	t.Run("Scan 字符串", func(t *testing.T) {
		var c ClockTime
		require.NoError(t, c.Scan("09:30"))
		assert.Equal(t, NewClock(9, 30), c)
	})

	t.Run("Scan 字节切片", func(t *testing.T) {
		var c ClockTime
		require.NoError(t, c.Scan([]byte("12:00:00")))
		assert.Equal(t, NewClock(12, 0), c)
	})

	t.Run("Scan time.Time", func(t *testing.T) {
		var c ClockTime
		require.NoError(t, c.Scan(time.Date(2025, 6, 1, 8, 15, 0, 0, Location)))
		assert.Equal(t, NewClock(8, 15), c)
	})

	t.Run("Scan 非法类型报错", func(t *testing.T) {
		var c ClockTime
		assert.Error(t, c.Scan(3.14))
	})
}

func TestClockTime_JSON(t *testing.T) {
	t.Run("序列化", func(t *testing.T) {
		data, err := NewClock(9, 0).MarshalJSON()
		require.NoError(t, err)
		assert.Equal(t, `"09:00"`, string(data))
	})

	t.Run("反序列化", func(t *testing.T) {
		var c ClockTime
		require.NoError(t, c.UnmarshalJSON([]byte(`"17:30"`)))
		assert.Equal(t, NewClock(17, 30), c)
	})

	t.Run("非法输入报错", func(t *testing.T) {
		var c ClockTime
		assert.Error(t, c.UnmarshalJSON([]byte(`"25:00"`)))
	})
}
