package timetable

// ItemKind 网格条目类型
type ItemKind string

const (
	ItemKindSection ItemKind = "section" // 固定的开班或预览组合中的开班
	ItemKindCustom  ItemKind = "custom"  // 课程模型之外的自定义时间块
)

// ScheduleItem 课表网格中的一个条目。
// 不可见条目不参与任何冲突计算。
type ScheduleItem struct {
	ID        string     `json:"id"`
	Kind      ItemKind   `json:"kind"`
	SectionID string     `json:"section_id,omitempty"`
	CourseID  string     `json:"course_id,omitempty"`
	Label     string     `json:"label"`
	Color     string     `json:"color,omitempty"`
	Slots     []TimeSlot `json:"slots"`
	Visible   bool       `json:"visible"`
}

// Conflict 一对时间重叠的条目，A < B（按 ID 字典序）
type Conflict struct {
	A string `json:"a"`
	B string `json:"b"`
}

func newConflict(x, y string) Conflict {
	if y < x {
		x, y = y, x
	}
	return Conflict{A: x, B: y}
}

// ConflictReport 冲突检测结果；ConflictingIDs 便于 O(1) 高亮查询
type ConflictReport struct {
	Conflicts      []Conflict          `json:"conflicts"`
	ConflictingIDs map[string]struct{} `json:"-"`
}

// Has 条目是否处于任何冲突中
func (r ConflictReport) Has(id string) bool {
	_, ok := r.ConflictingIDs[id]
	return ok
}

// IDs 冲突条目 ID，按首次出现顺序
func (r ConflictReport) IDs() []string {
	ids := make([]string, 0, len(r.ConflictingIDs))
	seen := make(map[string]bool, len(r.ConflictingIDs))
	for _, c := range r.Conflicts {
		for _, id := range [2]string{c.A, c.B} {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// DetectConflicts 对可见条目两两检查所有时间段对，整体重算、无增量状态。
// 不限制"每门课一个"：同一课程的两个开班放在一起也会被标记。
func DetectConflicts(items []ScheduleItem) ConflictReport {
	visible := make([]ScheduleItem, 0, len(items))
	for _, it := range items {
		if it.Visible {
			visible = append(visible, it)
		}
	}

	report := ConflictReport{
		Conflicts:      make([]Conflict, 0),
		ConflictingIDs: make(map[string]struct{}),
	}
	for i := 0; i < len(visible); i++ {
		for j := i + 1; j < len(visible); j++ {
			a, b := visible[i], visible[j]
			if a.ID == b.ID {
				continue
			}
			if !slotsOverlap(a.Slots, b.Slots) {
				continue
			}
			report.Conflicts = append(report.Conflicts, newConflict(a.ID, b.ID))
			report.ConflictingIDs[a.ID] = struct{}{}
			report.ConflictingIDs[b.ID] = struct{}{}
		}
	}
	return report
}

// PreviewItems 把组合转换为网格条目（全部可见）。
// 组合按构造无冲突，所以预览本身不会产生冲突。
func PreviewItems(c Combination, palette []string) []ScheduleItem {
	items := make([]ScheduleItem, 0, len(c.Sections))
	for i, s := range c.Sections {
		color := ""
		if len(palette) > 0 {
			color = palette[i%len(palette)]
		}
		items = append(items, ScheduleItem{
			ID:        "preview:" + s.ID,
			Kind:      ItemKindSection,
			SectionID: s.ID,
			CourseID:  s.CourseID,
			Label:     s.Code,
			Color:     color,
			Slots:     s.Slots,
			Visible:   true,
		})
	}
	return items
}
