package service

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"grade-planner/backend/internal/timetable"
)

// ── ICS 导入解析 ────────────────────────────────────────────
//
// 将外部日历（打工、社团等）中每周重复的事件转为自定义时间块：
//   - 只接受 RRULE FREQ=WEEKLY 的事件，单次事件没有"每周"语义
//   - BYDAY 存在时按其展开星期，否则取 DTSTART 的星期
//   - 周日与跨午夜的事件无法放进周一至周六的网格，跳过
//   - 同名事件合并为一个时间块，重复的时间段去重
// ─────────────────────────────────────────────────────────────

const (
	icsMaxFileSize  = 2 * 1024 * 1024
	defaultTimezone = "Asia/Shanghai"
)

// ImportedBlock 解析得到的自定义时间块
type ImportedBlock struct {
	Label string
	Slots []timetable.TimeSlot
}

// ICSImportResult 解析结果；Skipped 为被跳过的事件数
type ICSImportResult struct {
	Blocks  []ImportedBlock
	Skipped int
}

var icsWeekdays = map[string]timetable.Weekday{
	"MO": timetable.Monday,
	"TU": timetable.Tuesday,
	"WE": timetable.Wednesday,
	"TH": timetable.Thursday,
	"FR": timetable.Friday,
	"SA": timetable.Saturday,
}

// ParseWeeklyBlocks 解析 ICS 内容
func ParseWeeklyBlocks(reader io.Reader, loc *time.Location) (*ICSImportResult, error) {
	cal, err := ics.ParseCalendar(io.LimitReader(reader, icsMaxFileSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrICSParseFailed, err)
	}
	if loc == nil {
		if loc, err = time.LoadLocation(defaultTimezone); err != nil {
			loc = time.Local
		}
	}

	res := &ICSImportResult{}
	index := make(map[string]int)
	seen := make(map[string]map[timetable.TimeSlot]bool)

	for _, evt := range cal.Events() {
		label, slots, ok := parseWeeklyEvent(evt, loc)
		if !ok {
			res.Skipped++
			continue
		}

		i, exists := index[label]
		if !exists {
			i = len(res.Blocks)
			index[label] = i
			seen[label] = make(map[timetable.TimeSlot]bool)
			res.Blocks = append(res.Blocks, ImportedBlock{Label: label})
		}
		for _, s := range slots {
			if seen[label][s] {
				continue
			}
			seen[label][s] = true
			res.Blocks[i].Slots = append(res.Blocks[i].Slots, s)
		}
	}

	return res, nil
}

func parseWeeklyEvent(evt *ics.VEvent, loc *time.Location) (string, []timetable.TimeSlot, bool) {
	summary := evt.GetProperty(ics.ComponentPropertySummary)
	if summary == nil || strings.TrimSpace(summary.Value) == "" {
		return "", nil, false
	}
	label := strings.TrimSpace(summary.Value)

	rruleProp := evt.GetProperty(ics.ComponentPropertyRrule)
	if rruleProp == nil {
		return "", nil, false
	}
	rule := parseRRule(rruleProp.Value)
	if rule.freq != "WEEKLY" {
		return "", nil, false
	}

	dtStart, err := parseICSDateTime(evt, ics.ComponentPropertyDtStart, loc)
	if err != nil {
		return "", nil, false
	}
	dtEnd, err := parseICSDateTime(evt, ics.ComponentPropertyDtEnd, loc)
	if err != nil {
		durProp := evt.GetProperty(ics.ComponentPropertyDuration)
		if durProp == nil {
			return "", nil, false
		}
		d, ok := parseICSDuration(durProp.Value)
		if !ok {
			return "", nil, false
		}
		dtEnd = dtStart.Add(d)
	}
	if dtEnd.YearDay() != dtStart.YearDay() || dtEnd.Year() != dtStart.Year() {
		// 跨午夜（恰好结束于 24:00 的除外）
		if !(dtEnd.Hour() == 0 && dtEnd.Minute() == 0 && dtEnd.Sub(dtStart) <= 24*time.Hour) {
			return "", nil, false
		}
	}

	start := dtStart.Format("15:04")
	end := dtEnd.Format("15:04")
	if end == "00:00" {
		end = "24:00"
	}

	days := rule.byDay
	if len(days) == 0 {
		days = []time.Weekday{dtStart.Weekday()}
	}

	slots := make([]timetable.TimeSlot, 0, len(days))
	for _, wd := range days {
		if wd == time.Sunday {
			continue
		}
		s, err := timetable.NewTimeSlot(int(wd), start, end)
		if err != nil {
			continue
		}
		slots = append(slots, s)
	}
	if len(slots) == 0 {
		return "", nil, false
	}
	return label, slots, true
}

// rruleParams RRULE 解析结果（只关心频率与星期）
type rruleParams struct {
	freq  string
	byDay []time.Weekday
}

// parseRRule 解析 RRULE 字符串（如 FREQ=WEEKLY;BYDAY=MO,WE）
func parseRRule(value string) rruleParams {
	var r rruleParams
	for _, part := range strings.Split(value, ";") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToUpper(kv[0]) {
		case "FREQ":
			r.freq = strings.ToUpper(kv[1])
		case "BYDAY":
			for _, d := range strings.Split(kv[1], ",") {
				d = strings.ToUpper(strings.TrimSpace(d))
				// 去掉 1MO / -1FR 之类的序号前缀
				if len(d) > 2 {
					d = d[len(d)-2:]
				}
				if d == "SU" {
					r.byDay = append(r.byDay, time.Sunday)
					continue
				}
				if wd, ok := icsWeekdays[d]; ok {
					r.byDay = append(r.byDay, time.Weekday(wd))
				}
			}
		}
	}
	return r
}

// parseICSDuration 支持 PnDTnHnMnS 与 PnW 两种形式
func parseICSDuration(v string) (time.Duration, bool) {
	v = strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(v)), "+")
	if !strings.HasPrefix(v, "P") {
		return 0, false
	}
	v = v[1:]

	var d time.Duration
	inTime := false
	num := ""
	for _, r := range v {
		switch {
		case r >= '0' && r <= '9':
			num += string(r)
		case r == 'T':
			inTime = true
		default:
			n, err := strconv.Atoi(num)
			if err != nil {
				return 0, false
			}
			num = ""
			switch {
			case r == 'W':
				d += time.Duration(n) * 7 * 24 * time.Hour
			case r == 'D':
				d += time.Duration(n) * 24 * time.Hour
			case r == 'H' && inTime:
				d += time.Duration(n) * time.Hour
			case r == 'M' && inTime:
				d += time.Duration(n) * time.Minute
			case r == 'S' && inTime:
				d += time.Duration(n) * time.Second
			default:
				return 0, false
			}
		}
	}
	return d, num == "" && d > 0
}

// parseICSDateTime 从 VEVENT 中解析日期时间属性
func parseICSDateTime(evt *ics.VEvent, propName ics.ComponentProperty, loc *time.Location) (time.Time, error) {
	prop := evt.GetProperty(propName)
	if prop == nil {
		return time.Time{}, fmt.Errorf("missing property %s", propName)
	}
	val := prop.Value

	tzid := ""
	for k, v := range prop.ICalParameters {
		if strings.ToUpper(k) == "TZID" && len(v) > 0 {
			tzid = v[0]
		}
	}

	for _, layout := range []string{"20060102T150405Z", "20060102T150405"} {
		t, err := time.Parse(layout, val)
		if err != nil {
			continue
		}
		if strings.HasSuffix(layout, "Z") {
			return t.In(loc), nil
		}
		if tzid != "" {
			if tzLoc, err := time.LoadLocation(tzid); err == nil {
				return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, tzLoc).In(loc), nil
			}
		}
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
	}

	// 全天事件（纯日期）没有时间段，不可导入
	return time.Time{}, fmt.Errorf("无法解析日期: %s", val)
}
