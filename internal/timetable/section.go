package timetable

// SectionMeta 展示用元数据，不参与算法
type SectionMeta struct {
	Professors []string `json:"professors,omitempty" yaml:"professors"`
	Notes      string   `json:"notes,omitempty" yaml:"notes"`
}

// Section 课程的一个开班（一套每周上课时间）
type Section struct {
	ID       string      `json:"id" yaml:"id"`
	CourseID string      `json:"course_id" yaml:"course_id"`
	Code     string      `json:"code" yaml:"code"`
	Slots    []TimeSlot  `json:"slots" yaml:"slots"`
	Meta     SectionMeta `json:"meta" yaml:"meta"`
}

// Course 可选课程；学分仅用于排序
type Course struct {
	ID             string    `json:"id" yaml:"id"`
	Code           string    `json:"code" yaml:"code"`
	Name           string    `json:"name" yaml:"name"`
	LectureCredits int       `json:"lecture_credits" yaml:"lecture_credits"`
	WorkCredits    int       `json:"work_credits" yaml:"work_credits"`
	Sections       []Section `json:"sections" yaml:"sections"`
}

// SectionsConflict 两个开班的任意时间段相交即冲突
func SectionsConflict(x, y Section) bool {
	return slotsOverlap(x.Slots, y.Slots)
}

// SelfConflicting 开班自身的时间段是否互相重叠。
// 搜索不做此检查（由目录数据保证），仅供目录加载时告警。
func SelfConflicting(s Section) bool {
	for i := 0; i < len(s.Slots); i++ {
		for j := i + 1; j < len(s.Slots); j++ {
			if Overlaps(s.Slots[i], s.Slots[j]) {
				return true
			}
		}
	}
	return false
}

// ValidateCourses 校验所有时间段，供服务层在调用引擎前使用
func ValidateCourses(courses []Course) error {
	for _, c := range courses {
		for _, s := range c.Sections {
			for _, slot := range s.Slots {
				if err := slot.Validate(); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
