package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"grade-planner/backend/internal/timetable"
)

var (
	ErrCatalogEmpty     = errors.New("课程目录为空")
	ErrDuplicateCourse  = errors.New("课程代码重复")
	ErrUnknownCourse    = errors.New("目录中不存在该课程")
	ErrUnknownSection   = errors.New("课程中不存在该开班")
	ErrInvalidReference = errors.New("开班引用格式应为 课程代码:开班代码")
)

// catalogFile 目录文件格式：
//
//	courses:
//	  - code: MAC0110
//	    name: 计算机科学导论
//	    lecture_credits: 4
//	    sections:
//	      - code: A1
//	        professors: [张老师]
//	        slots:
//	          - {day: 1, start: "08:00", end: "10:00"}
type catalogFile struct {
	Courses []catalogCourse `yaml:"courses"`
}

type catalogCourse struct {
	Code           string           `yaml:"code"`
	Name           string           `yaml:"name"`
	LectureCredits int              `yaml:"lecture_credits"`
	WorkCredits    int              `yaml:"work_credits"`
	Sections       []catalogSection `yaml:"sections"`
}

type catalogSection struct {
	Code       string               `yaml:"code"`
	Professors []string             `yaml:"professors"`
	Notes      string               `yaml:"notes"`
	Slots      []timetable.TimeSlot `yaml:"slots"`
}

// LoadCatalog 读取 YAML 目录文件
func LoadCatalog(path string) ([]timetable.Course, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开目录文件失败: %w", err)
	}
	defer f.Close()
	return parseCatalog(f)
}

// parseCatalog 课程 ID 取课程代码，开班 ID 为 "课程代码-开班代码"
func parseCatalog(r io.Reader) ([]timetable.Course, error) {
	var file catalogFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrCatalogEmpty
		}
		return nil, fmt.Errorf("解析目录文件失败: %w", err)
	}
	if len(file.Courses) == 0 {
		return nil, ErrCatalogEmpty
	}

	seen := make(map[string]bool, len(file.Courses))
	courses := make([]timetable.Course, 0, len(file.Courses))
	for _, c := range file.Courses {
		if c.Code == "" {
			return nil, fmt.Errorf("课程缺少 code（%q）", c.Name)
		}
		if seen[c.Code] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCourse, c.Code)
		}
		seen[c.Code] = true

		course := timetable.Course{
			ID:             c.Code,
			Code:           c.Code,
			Name:           c.Name,
			LectureCredits: c.LectureCredits,
			WorkCredits:    c.WorkCredits,
			Sections:       make([]timetable.Section, 0, len(c.Sections)),
		}
		for _, s := range c.Sections {
			course.Sections = append(course.Sections, timetable.Section{
				ID:       c.Code + "-" + s.Code,
				CourseID: c.Code,
				Code:     s.Code,
				Slots:    s.Slots,
				Meta:     timetable.SectionMeta{Professors: s.Professors, Notes: s.Notes},
			})
		}
		courses = append(courses, course)
	}

	if err := timetable.ValidateCourses(courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// selectCourses 按 codes 顺序挑选课程；codes 为空时返回全部
func selectCourses(courses []timetable.Course, codes []string) ([]timetable.Course, error) {
	if len(codes) == 0 {
		return courses, nil
	}
	byCode := make(map[string]timetable.Course, len(courses))
	for _, c := range courses {
		byCode[c.Code] = c
	}
	out := make([]timetable.Course, 0, len(codes))
	for _, code := range codes {
		c, ok := byCode[code]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCourse, code)
		}
		out = append(out, c)
	}
	return out, nil
}

// findSection 解析 "MAC0110:A1"
func findSection(courses []timetable.Course, ref string) (timetable.Course, timetable.Section, error) {
	courseCode, sectionCode, ok := strings.Cut(ref, ":")
	if !ok || courseCode == "" || sectionCode == "" {
		return timetable.Course{}, timetable.Section{}, fmt.Errorf("%w: %q", ErrInvalidReference, ref)
	}
	for _, c := range courses {
		if c.Code != courseCode {
			continue
		}
		for _, s := range c.Sections {
			if s.Code == sectionCode {
				return c, s, nil
			}
		}
		return timetable.Course{}, timetable.Section{}, fmt.Errorf("%w: %s", ErrUnknownSection, ref)
	}
	return timetable.Course{}, timetable.Section{}, fmt.Errorf("%w: %s", ErrUnknownCourse, courseCode)
}
