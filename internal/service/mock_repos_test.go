package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"grade-planner/backend/internal/model"
	"grade-planner/backend/internal/repository"
	pkgerrors "grade-planner/backend/pkg/errors"
)

// ── Mock CatalogRepository ──

type mockCatalogRepo struct {
	courses map[string]*model.Course
	seq     int
	err     error
}

func newMockCatalogRepo() *mockCatalogRepo {
	return &mockCatalogRepo{courses: make(map[string]*model.Course)}
}

func (m *mockCatalogRepo) GetCourse(_ context.Context, id string) (*model.Course, error) {
	if m.err != nil {
		return nil, m.err
	}
	if c, ok := m.courses[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ListCoursesByIDs 按 ID 倒序返回，验证服务层自行恢复输入顺序
func (m *mockCatalogRepo) ListCoursesByIDs(_ context.Context, ids []string) ([]model.Course, error) {
	if m.err != nil {
		return nil, m.err
	}
	var result []model.Course
	for _, id := range ids {
		if c, ok := m.courses[id]; ok {
			result = append(result, *c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CourseID > result[j].CourseID })
	return result, nil
}

func (m *mockCatalogRepo) GetSection(_ context.Context, id string) (*model.Section, error) {
	for _, c := range m.courses {
		for i := range c.Sections {
			if c.Sections[i].SectionID == id {
				cp := c.Sections[i]
				return &cp, nil
			}
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCatalogRepo) ReplaceCourse(_ context.Context, course *model.Course) error {
	if m.err != nil {
		return m.err
	}
	for id, c := range m.courses {
		if c.Code == course.Code {
			course.CourseID = id
		}
	}
	if course.CourseID == "" {
		m.seq++
		course.CourseID = fmt.Sprintf("course-%d", m.seq)
	}
	for i := range course.Sections {
		m.seq++
		course.Sections[i].SectionID = fmt.Sprintf("sec-%d", m.seq)
		course.Sections[i].CourseID = course.CourseID
	}
	cp := *course
	m.courses[course.CourseID] = &cp
	return nil
}

// addCourse 测试辅助：直接放入课程，slots 形如 "1 08:00 10:00"
func (m *mockCatalogRepo) addCourse(id, code string, lecture, work int, sections map[string][]string) {
	c := &model.Course{CourseID: id, Code: code, Name: code, LectureCredits: lecture, WorkCredits: work}
	codes := make([]string, 0, len(sections))
	for sc := range sections {
		codes = append(codes, sc)
	}
	sort.Strings(codes)
	for _, sc := range codes {
		sec := model.Section{SectionID: sc, CourseID: id, Code: sc}
		for _, raw := range sections[sc] {
			var day int
			var start, end string
			fmt.Sscanf(raw, "%d %s %s", &day, &start, &end)
			sec.Slots = append(sec.Slots, model.SectionSlot{DayOfWeek: day, StartTime: start, EndTime: end})
		}
		c.Sections = append(c.Sections, sec)
	}
	m.courses[id] = c
}

// ── Mock PlanRepository ──

type mockPlanRepo struct {
	plans   map[string]*model.Plan
	order   []string
	deleted map[string]bool
	seq     int
}

func newMockPlanRepo() *mockPlanRepo {
	return &mockPlanRepo{plans: make(map[string]*model.Plan), deleted: make(map[string]bool)}
}

func (m *mockPlanRepo) Create(_ context.Context, plan *model.Plan) error {
	if plan.PlanID == "" {
		m.seq++
		plan.PlanID = fmt.Sprintf("plan-%d", m.seq)
	}
	if plan.Version == 0 {
		plan.Version = 1
	}
	plan.CreatedAt = time.Now()
	plan.UpdatedAt = plan.CreatedAt
	cp := *plan
	m.plans[plan.PlanID] = &cp
	m.order = append(m.order, plan.PlanID)
	return nil
}

func (m *mockPlanRepo) GetByID(_ context.Context, id string) (*model.Plan, error) {
	if p, ok := m.plans[id]; ok && !m.deleted[id] {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPlanRepo) ListByUser(_ context.Context, userID string) ([]model.Plan, error) {
	var result []model.Plan
	for _, id := range m.order {
		if p := m.plans[id]; p.UserID == userID && !m.deleted[id] {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (m *mockPlanRepo) CountByUser(_ context.Context, userID string) (int64, error) {
	var n int64
	for _, p := range m.plans {
		if p.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (m *mockPlanRepo) Update(_ context.Context, plan *model.Plan) error {
	stored, ok := m.plans[plan.PlanID]
	if !ok || stored.Version != plan.Version {
		return pkgerrors.ErrOptimisticLock
	}
	plan.Version++
	cp := *plan
	m.plans[plan.PlanID] = &cp
	return nil
}

func (m *mockPlanRepo) Delete(_ context.Context, id string, _ string) error {
	m.deleted[id] = true
	return nil
}

// ── Mock PlanCourseRepository ──

type mockPlanCourseRepo struct {
	rows    []*model.PlanCourse
	catalog *mockCatalogRepo
	seq     int
}

func newMockPlanCourseRepo(catalog *mockCatalogRepo) *mockPlanCourseRepo {
	return &mockPlanCourseRepo{catalog: catalog}
}

func (m *mockPlanCourseRepo) ListByPlan(_ context.Context, planID string) ([]model.PlanCourse, error) {
	var result []model.PlanCourse
	for _, r := range m.rows {
		if r.PlanID != planID {
			continue
		}
		cp := *r
		if c, ok := m.catalog.courses[r.CourseID]; ok {
			cc := *c
			cp.Course = &cc
		}
		result = append(result, cp)
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Position < result[j].Position })
	return result, nil
}

func (m *mockPlanCourseRepo) GetByPlanAndCourse(_ context.Context, planID, courseID string) (*model.PlanCourse, error) {
	for _, r := range m.rows {
		if r.PlanID == planID && r.CourseID == courseID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPlanCourseRepo) CountByPlan(_ context.Context, planID string) (int64, error) {
	var n int64
	for _, r := range m.rows {
		if r.PlanID == planID {
			n++
		}
	}
	return n, nil
}

func (m *mockPlanCourseRepo) Create(_ context.Context, pc *model.PlanCourse) error {
	m.seq++
	pc.PlanCourseID = fmt.Sprintf("pc-%d", m.seq)
	cp := *pc
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *mockPlanCourseRepo) Update(_ context.Context, pc *model.PlanCourse) error {
	for i, r := range m.rows {
		if r.PlanCourseID == pc.PlanCourseID {
			cp := *pc
			cp.Course = nil
			m.rows[i] = &cp
			return nil
		}
	}
	return nil
}

func (m *mockPlanCourseRepo) Delete(_ context.Context, planID, courseID string) error {
	kept := m.rows[:0]
	for _, r := range m.rows {
		if !(r.PlanID == planID && r.CourseID == courseID) {
			kept = append(kept, r)
		}
	}
	m.rows = kept
	return nil
}

func (m *mockPlanCourseRepo) PinSections(_ context.Context, planID string, pins map[string]string) error {
	for _, r := range m.rows {
		if sid, ok := pins[r.CourseID]; ok && r.PlanID == planID {
			id := sid
			r.PinnedSectionID = &id
		}
	}
	return nil
}

// ── Mock CustomItemRepository ──

type mockCustomItemRepo struct {
	items map[string]*model.CustomItem
	order []string
	seq   int
}

func newMockCustomItemRepo() *mockCustomItemRepo {
	return &mockCustomItemRepo{items: make(map[string]*model.CustomItem)}
}

func (m *mockCustomItemRepo) ListByPlan(_ context.Context, planID string) ([]model.CustomItem, error) {
	var result []model.CustomItem
	for _, id := range m.order {
		if it, ok := m.items[id]; ok && it.PlanID == planID {
			result = append(result, *it)
		}
	}
	return result, nil
}

func (m *mockCustomItemRepo) GetByID(_ context.Context, id string) (*model.CustomItem, error) {
	if it, ok := m.items[id]; ok {
		cp := *it
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCustomItemRepo) Create(_ context.Context, item *model.CustomItem) error {
	m.seq++
	item.CustomItemID = fmt.Sprintf("item-%d", m.seq)
	cp := *item
	m.items[item.CustomItemID] = &cp
	m.order = append(m.order, item.CustomItemID)
	return nil
}

func (m *mockCustomItemRepo) Replace(_ context.Context, item *model.CustomItem) error {
	cp := *item
	m.items[item.CustomItemID] = &cp
	return nil
}

func (m *mockCustomItemRepo) Delete(_ context.Context, id string) error {
	delete(m.items, id)
	return nil
}

// ── Mock JSONStore ──

type mockJSONStore struct {
	mu   sync.Mutex
	data map[string][]byte
	err  error
}

func newMockJSONStore() *mockJSONStore {
	return &mockJSONStore{data: make(map[string][]byte)}
}

func (m *mockJSONStore) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (m *mockJSONStore) SetJSON(_ context.Context, key string, v any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

func (m *mockJSONStore) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

// ── Mock EventPublisher ──

type publishedEvent struct {
	userID  string
	event   string
	payload any
}

type mockPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (m *mockPublisher) Publish(_ context.Context, userID, event string, payload any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, publishedEvent{userID: userID, event: event, payload: payload})
	return nil
}

func (m *mockPublisher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

// ── 组装 ──

type mockRepos struct {
	catalog    *mockCatalogRepo
	plan       *mockPlanRepo
	planCourse *mockPlanCourseRepo
	customItem *mockCustomItemRepo
}

func newMockRepository() (*repository.Repository, *mockRepos) {
	catalog := newMockCatalogRepo()
	m := &mockRepos{
		catalog:    catalog,
		plan:       newMockPlanRepo(),
		planCourse: newMockPlanCourseRepo(catalog),
		customItem: newMockCustomItemRepo(),
	}
	return &repository.Repository{
		Catalog:    m.catalog,
		Plan:       m.plan,
		PlanCourse: m.planCourse,
		CustomItem: m.customItem,
	}, m
}

// seedTwoCourses A: A1 周一 8-10 / A2 周二 8-10；B: B1 周一 9-11 / B2 周三 8-10
// 可行组合为 [A1,B2] [A2,B1] [A2,B2]
func seedTwoCourses(m *mockRepos) {
	m.catalog.addCourse("course-a", "MAC0110", 4, 0, map[string][]string{
		"A1": {"1 08:00 10:00"},
		"A2": {"2 08:00 10:00"},
	})
	m.catalog.addCourse("course-b", "MAC0121", 2, 1, map[string][]string{
		"B1": {"1 09:00 11:00"},
		"B2": {"3 08:00 10:00"},
	})
}
