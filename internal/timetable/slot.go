package timetable

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidTimeSlot 时间段非法（星期越界、时间格式错误或 start >= end）
var ErrInvalidTimeSlot = errors.New("时间段非法")

// Weekday 星期（ISO 编号：1=周一 … 6=周六，不含周日）
type Weekday int

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

var weekdayLabels = map[Weekday]string{
	Monday:    "周一",
	Tuesday:   "周二",
	Wednesday: "周三",
	Thursday:  "周四",
	Friday:    "周五",
	Saturday:  "周六",
}

// Valid 是否为周一至周六
func (d Weekday) Valid() bool {
	return d >= Monday && d <= Saturday
}

func (d Weekday) String() string {
	if l, ok := weekdayLabels[d]; ok {
		return l
	}
	return fmt.Sprintf("Weekday(%d)", int(d))
}

// Clock 当天零点起的分钟数，精度为分钟
type Clock int

// MinutesPerDay 一天的分钟数；24:00 作为结束时间合法
const MinutesPerDay = 24 * 60

// ParseClock 解析 "HH:MM" 或 "HH:MM:SS"（PostgreSQL time 列的文本形式）
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: 时间格式 %q", ErrInvalidTimeSlot, s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("%w: 小时 %q", ErrInvalidTimeSlot, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("%w: 分钟 %q", ErrInvalidTimeSlot, s)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("%w: 时间越界 %q", ErrInvalidTimeSlot, s)
	}
	// 精度为分钟，秒只接受 00
	if len(parts) == 3 {
		sec, err := strconv.Atoi(parts[2])
		if err != nil || sec != 0 {
			return 0, fmt.Errorf("%w: 秒 %q", ErrInvalidTimeSlot, s)
		}
	}
	return Clock(h*60 + m), nil
}

// MustParseClock 仅用于常量与测试数据
func MustParseClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// String 格式化为 "HH:MM"
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// MarshalText 使 JSON / YAML 中以 "HH:MM" 表示
func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText 解析 "HH:MM"
func (c *Clock) UnmarshalText(b []byte) error {
	v, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// TimeSlot 每周重复的一次上课时间，半开区间 [Start, End)
type TimeSlot struct {
	Day   Weekday `json:"day_of_week" yaml:"day"`
	Start Clock   `json:"start" yaml:"start"`
	End   Clock   `json:"end" yaml:"end"`
}

// NewTimeSlot 从文本构造并校验时间段
func NewTimeSlot(day int, start, end string) (TimeSlot, error) {
	s, err := ParseClock(start)
	if err != nil {
		return TimeSlot{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return TimeSlot{}, err
	}
	slot := TimeSlot{Day: Weekday(day), Start: s, End: e}
	if err := slot.Validate(); err != nil {
		return TimeSlot{}, err
	}
	return slot, nil
}

// Validate 校验星期与起止时间
func (s TimeSlot) Validate() error {
	if !s.Day.Valid() {
		return fmt.Errorf("%w: 星期 %d", ErrInvalidTimeSlot, int(s.Day))
	}
	if s.Start < 0 || s.End > MinutesPerDay || s.Start >= s.End {
		return fmt.Errorf("%w: %s-%s", ErrInvalidTimeSlot, s.Start, s.End)
	}
	return nil
}

func (s TimeSlot) String() string {
	return fmt.Sprintf("%s %s-%s", s.Day, s.Start, s.End)
}

// mustValid 引擎入参由调用方预先校验，非法时间段属于编程错误
func mustValid(s TimeSlot) {
	if err := s.Validate(); err != nil {
		panic(fmt.Sprintf("timetable: %v", err))
	}
}

// Overlaps 同一天且区间相交；端点相接（10:00-12:00 与 12:00-14:00）不算冲突
func Overlaps(a, b TimeSlot) bool {
	mustValid(a)
	mustValid(b)
	if a.Day != b.Day {
		return false
	}
	return a.Start < b.End && b.Start < a.End
}

// slotsOverlap 任意一对时间段相交
func slotsOverlap(xs, ys []TimeSlot) bool {
	for _, x := range xs {
		for _, y := range ys {
			if Overlaps(x, y) {
				return true
			}
		}
	}
	return false
}
