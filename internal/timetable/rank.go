package timetable

import "sort"

// Stats 组合集合的学分统计，仅供展示，不用于过滤
type Stats struct {
	Count      int `json:"count"`
	MinLecture int `json:"min_lecture_credits"`
	MaxLecture int `json:"max_lecture_credits"`
	MinWork    int `json:"min_work_credits"`
	MaxWork    int `json:"max_work_credits"`
}

// RankResult 排序结果
type RankResult struct {
	Ranked []Combination `json:"ranked"`
	Stats  Stats         `json:"stats"`
}

// Rank 按总学分降序稳定排序（同分保持发现顺序），不修改入参
func Rank(combos []Combination) RankResult {
	ranked := make([]Combination, len(combos))
	copy(ranked, combos)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Total() > ranked[j].Total()
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	return RankResult{Ranked: ranked, Stats: ComputeStats(ranked)}
}

// ComputeStats 空集合时各项为 0
func ComputeStats(combos []Combination) Stats {
	if len(combos) == 0 {
		return Stats{}
	}
	st := Stats{
		Count:      len(combos),
		MinLecture: combos[0].LectureCredits,
		MaxLecture: combos[0].LectureCredits,
		MinWork:    combos[0].WorkCredits,
		MaxWork:    combos[0].WorkCredits,
	}
	for _, c := range combos[1:] {
		st.MinLecture = min(st.MinLecture, c.LectureCredits)
		st.MaxLecture = max(st.MaxLecture, c.LectureCredits)
		st.MinWork = min(st.MinWork, c.WorkCredits)
		st.MaxWork = max(st.MaxWork, c.WorkCredits)
	}
	return st
}

// Truncated 结果数等于上限时可能还有未枚举的组合
func Truncated(count, limit int) bool {
	if limit < 1 {
		limit = DefaultCap
	}
	return count >= limit
}
