package timetable

// DefaultCap 组合数量上限默认值
const DefaultCap = 100

// Combination 每门（有开班的）课程恰好选一个开班、互不冲突的一种方案。
// 生成后不可修改；Rank 在排序后填写（1 起）。
type Combination struct {
	Sections       []Section `json:"sections"`
	LectureCredits int       `json:"lecture_credits"`
	WorkCredits    int       `json:"work_credits"`
	Rank           int       `json:"rank"`
}

// Total 总学分（排序依据）
func (c Combination) Total() int {
	return c.LectureCredits + c.WorkCredits
}

// SectionIDs 按课程顺序返回所选开班 ID
func (c Combination) SectionIDs() []string {
	ids := make([]string, 0, len(c.Sections))
	for _, s := range c.Sections {
		ids = append(ids, s.ID)
	}
	return ids
}

// ── 回溯搜索 ────────────────────────────────────────────────
//
//   - 按输入顺序逐门课程深度优先，课程内按开班顺序尝试
//   - 与已选开班冲突的分支整棵剪掉
//   - 无开班的课程直接跳过，不阻塞后续课程
//   - 结果达到 limit 立即停止：返回的是"输入顺序下最先发现的 limit 个"，
//     不是"最好的 limit 个"，也不是随机样本
// ─────────────────────────────────────────────────────────────

// accumulator 带容量检查的结果收集器，在递归中按指针传递
type accumulator struct {
	limit  int
	result []Combination
}

func (a *accumulator) full() bool {
	return len(a.result) >= a.limit
}

// searchFrame 一次搜索的只读输入与可回退的当前选择
type searchFrame struct {
	courses []Course
	chosen  []Section
	lecture int
	work    int
}

// GenerateCombinations 枚举互不冲突的开班组合，最多 limit 个（limit < 1 时取 DefaultCap）。
// 空输入或无可行组合均返回空切片（非 nil）。
func GenerateCombinations(courses []Course, limit int) []Combination {
	if limit < 1 {
		limit = DefaultCap
	}
	acc := &accumulator{limit: limit, result: make([]Combination, 0)}
	if len(courses) == 0 {
		return acc.result
	}

	f := &searchFrame{
		courses: courses,
		chosen:  make([]Section, 0, len(courses)),
	}
	f.backtrack(0, acc)
	return acc.result
}

func (f *searchFrame) backtrack(i int, acc *accumulator) {
	if acc.full() {
		return
	}

	if i == len(f.courses) {
		if len(f.chosen) == 0 {
			return
		}
		picked := make([]Section, len(f.chosen))
		copy(picked, f.chosen)
		acc.result = append(acc.result, Combination{
			Sections:       picked,
			LectureCredits: f.lecture,
			WorkCredits:    f.work,
		})
		return
	}

	course := f.courses[i]
	if len(course.Sections) == 0 {
		f.backtrack(i+1, acc)
		return
	}

	for _, sec := range course.Sections {
		if acc.full() {
			return
		}
		if f.conflictsWithChosen(sec) {
			continue
		}

		f.chosen = append(f.chosen, sec)
		f.lecture += course.LectureCredits
		f.work += course.WorkCredits

		f.backtrack(i+1, acc)

		f.chosen = f.chosen[:len(f.chosen)-1]
		f.lecture -= course.LectureCredits
		f.work -= course.WorkCredits
	}
}

func (f *searchFrame) conflictsWithChosen(sec Section) bool {
	for _, c := range f.chosen {
		if SectionsConflict(sec, c) {
			return true
		}
	}
	return false
}
