package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"grade-planner/backend/internal/dto"
	"grade-planner/backend/internal/model"
	"grade-planner/backend/internal/repository"
	"grade-planner/backend/internal/timetable"
)

// PlanService 选课方案业务接口
//
// 方案中的课程分两种用途：
//   - 固定了开班的课程直接出现在课表网格上
//   - 所有可见课程（无论是否固定）作为组合生成的输入
type PlanService interface {
	ListPlans(ctx context.Context, userID string) ([]dto.PlanSummaryResponse, error)
	GetPlan(ctx context.Context, userID, planID string) (*dto.PlanResponse, error)
	CreatePlan(ctx context.Context, userID string, req *dto.CreatePlanRequest) (*dto.PlanResponse, error)
	RenamePlan(ctx context.Context, userID, planID string, req *dto.RenamePlanRequest) (*dto.PlanSummaryResponse, error)
	DeletePlan(ctx context.Context, userID, planID string) error

	AddCourse(ctx context.Context, userID, planID string, req *dto.AddCourseRequest) (*dto.PlanCourseResponse, error)
	UpdateCourse(ctx context.Context, userID, planID, courseID string, req *dto.UpdatePlanCourseRequest) (*dto.PlanCourseResponse, error)
	RemoveCourse(ctx context.Context, userID, planID, courseID string) error

	AddCustomItem(ctx context.Context, userID, planID string, req *dto.CustomItemRequest) (*dto.CustomItemResponse, error)
	UpdateCustomItem(ctx context.Context, userID, planID, itemID string, req *dto.CustomItemRequest) (*dto.CustomItemResponse, error)
	DeleteCustomItem(ctx context.Context, userID, planID, itemID string) error
	// ImportCustomItems 从 ICS 日历导入每周重复事件为自定义时间块
	ImportCustomItems(ctx context.Context, userID, planID string, reader io.Reader) ([]dto.CustomItemResponse, error)

	// CheckSectionConflicts 候选开班与当前课表（替换同课程已固定开班后）的冲突
	CheckSectionConflicts(ctx context.Context, userID, planID string, req *dto.CheckConflictsRequest) (*dto.CheckConflictsResponse, error)
	// GetGrid 课表网格；preview 时以当前浏览组合替换对应课程的固定开班
	GetGrid(ctx context.Context, userID, planID string, preview bool) (*dto.GridResponse, error)
	// ApplyCombination 把当前浏览的组合固定到方案
	ApplyCombination(ctx context.Context, userID, planID string) (*dto.ApplyCombinationResponse, error)
}

type planService struct {
	repo    *repository.Repository
	store   SessionStore
	palette []string
	logger  *zap.Logger
}

// NewPlanService 创建 PlanService 实例
func NewPlanService(repo *repository.Repository, store SessionStore, palette []string, logger *zap.Logger) PlanService {
	return &planService{repo: repo, store: store, palette: palette, logger: logger}
}

// ownedPlan 读取方案并校验归属
func ownedPlan(ctx context.Context, repo *repository.Repository, logger *zap.Logger, userID, planID string) (*model.Plan, error) {
	plan, err := repo.Plan.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		logger.Error("查询方案失败", zap.String("plan_id", planID), zap.Error(err))
		return nil, err
	}
	if plan.UserID != userID {
		return nil, ErrPlanNotOwner
	}
	return plan, nil
}

func (s *planService) color(i int) string {
	n := len(s.palette)
	if n == 0 {
		return "#64748b"
	}
	return s.palette[((i%n)+n)%n]
}

// ════════════════════════════════════════════════════════════
// 方案 CRUD
// ════════════════════════════════════════════════════════════

func (s *planService) ListPlans(ctx context.Context, userID string) ([]dto.PlanSummaryResponse, error) {
	plans, err := s.repo.Plan.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("列出方案失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.PlanSummaryResponse, 0, len(plans))
	for i := range plans {
		result = append(result, toPlanSummary(&plans[i]))
	}
	return result, nil
}

func (s *planService) GetPlan(ctx context.Context, userID, planID string) (*dto.PlanResponse, error) {
	plan, err := ownedPlan(ctx, s.repo, s.logger, userID, planID)
	if err != nil {
		return nil, err
	}
	return s.toPlanResponse(ctx, plan)
}

func (s *planService) CreatePlan(ctx context.Context, userID string, req *dto.CreatePlanRequest) (*dto.PlanResponse, error) {
	name := req.Name
	if name == "" {
		n, err := s.repo.Plan.CountByUser(ctx, userID)
		if err != nil {
			s.logger.Error("统计方案数量失败", zap.String("user_id", userID), zap.Error(err))
			return nil, err
		}
		name = fmt.Sprintf("方案 %d", n+1)
	}

	plan := &model.Plan{UserID: userID, Name: name}
	plan.Version = 1
	plan.CreatedBy = &userID
	plan.UpdatedBy = &userID

	if err := s.repo.Plan.Create(ctx, plan); err != nil {
		s.logger.Error("创建方案失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	return &dto.PlanResponse{
		PlanSummaryResponse: toPlanSummary(plan),
		Courses:             []dto.PlanCourseResponse{},
		CustomItems:         []dto.CustomItemResponse{},
	}, nil
}

func (s *planService) RenamePlan(ctx context.Context, userID, planID string, req *dto.RenamePlanRequest) (*dto.PlanSummaryResponse, error) {
	plan, err := ownedPlan(ctx, s.repo, s.logger, userID, planID)
	if err != nil {
		return nil, err
	}

	plan.Name = req.Name
	plan.Version = req.Version
	plan.UpdatedBy = &userID
	if err := s.repo.Plan.Update(ctx, plan); err != nil {
		s.logger.Warn("重命名方案失败", zap.String("plan_id", planID), zap.Error(err))
		return nil, err
	}

	resp := toPlanSummary(plan)
	return &resp, nil
}

func (s *planService) DeletePlan(ctx context.Context, userID, planID string) error {
	if _, err := ownedPlan(ctx, s.repo, s.logger, userID, planID); err != nil {
		return err
	}
	if err := s.repo.Plan.Delete(ctx, planID, userID); err != nil {
		s.logger.Error("删除方案失败", zap.String("plan_id", planID), zap.Error(err))
		return err
	}
	if err := s.store.Delete(ctx, planID); err != nil {
		s.logger.Warn("清理组合会话失败", zap.String("plan_id", planID), zap.Error(err))
	}
	return nil
}

func (s *planService) toPlanResponse(ctx context.Context, plan *model.Plan) (*dto.PlanResponse, error) {
	pcs, err := s.repo.PlanCourse.ListByPlan(ctx, plan.PlanID)
	if err != nil {
		s.logger.Error("查询方案课程失败", zap.String("plan_id", plan.PlanID), zap.Error(err))
		return nil, err
	}
	items, err := s.repo.CustomItem.ListByPlan(ctx, plan.PlanID)
	if err != nil {
		s.logger.Error("查询自定义时间块失败", zap.String("plan_id", plan.PlanID), zap.Error(err))
		return nil, err
	}

	resp := &dto.PlanResponse{
		PlanSummaryResponse: toPlanSummary(plan),
		Courses:             make([]dto.PlanCourseResponse, 0, len(pcs)),
		CustomItems:         make([]dto.CustomItemResponse, 0, len(items)),
	}
	for i := range pcs {
		pcResp, err := toPlanCourseResponse(&pcs[i], pcs[i].Course)
		if err != nil {
			return nil, err
		}
		resp.Courses = append(resp.Courses, *pcResp)
	}
	for i := range items {
		slots, err := customItemSlots(&items[i])
		if err != nil {
			return nil, err
		}
		resp.CustomItems = append(resp.CustomItems, toCustomItemResponse(&items[i], slots))
	}
	return resp, nil
}

func toPlanCourseResponse(pc *model.PlanCourse, c *model.Course) (*dto.PlanCourseResponse, error) {
	resp := &dto.PlanCourseResponse{
		CourseID:        pc.CourseID,
		PinnedSectionID: pc.PinnedSectionID,
		IsVisible:       pc.IsVisible,
		Color:           pc.Color,
		Sections:        []dto.SectionResponse{},
	}
	if c == nil {
		return resp, nil
	}
	course, err := toCourse(c)
	if err != nil {
		return nil, err
	}
	full := toCourseResponse(course)
	resp.Code = full.Code
	resp.Name = full.Name
	resp.LectureCredits = full.LectureCredits
	resp.WorkCredits = full.WorkCredits
	resp.Sections = full.Sections
	return resp, nil
}

// ════════════════════════════════════════════════════════════
// 方案课程
// ════════════════════════════════════════════════════════════

func (s *planService) getCourse(ctx context.Context, courseID string) (*model.Course, error) {
	c, err := s.repo.Catalog.GetCourse(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}
	return c, nil
}

func (s *planService) getPlanCourse(ctx context.Context, planID, courseID string) (*model.PlanCourse, error) {
	pc, err := s.repo.PlanCourse.GetByPlanAndCourse(ctx, planID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotInPlan
		}
		s.logger.Error("查询方案课程失败", zap.String("plan_id", planID), zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}
	return pc, nil
}

// AddCourse 幂等：课程已在方案中时直接返回现有记录
func (s *planService) AddCourse(ctx context.Context, userID, planID string, req *dto.AddCourseRequest) (*dto.PlanCourseResponse, error) {
	if _, err := ownedPlan(ctx, s.repo, s.logger, userID, planID); err != nil {
		return nil, err
	}
	course, err := s.getCourse(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.PlanCourse.GetByPlanAndCourse(ctx, planID, req.CourseID)
	if err == nil {
		return toPlanCourseResponse(existing, course)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询方案课程失败", zap.String("plan_id", planID), zap.Error(err))
		return nil, err
	}

	n, err := s.repo.PlanCourse.CountByPlan(ctx, planID)
	if err != nil {
		s.logger.Error("统计方案课程失败", zap.String("plan_id", planID), zap.Error(err))
		return nil, err
	}

	pc := &model.PlanCourse{
		PlanID:    planID,
		CourseID:  req.CourseID,
		IsVisible: true,
		Color:     s.color(int(n)),
		Position:  int(n),
	}
	if err := s.repo.PlanCourse.Create(ctx, pc); err != nil {
		s.logger.Error("加入课程失败", zap.String("plan_id", planID), zap.String("course_id", req.CourseID), zap.Error(err))
		return nil, err
	}

	return toPlanCourseResponse(pc, course)
}

func (s *planService) UpdateCourse(ctx context.Context, userID, planID, courseID string, req *dto.UpdatePlanCourseRequest) (*dto.PlanCourseResponse, error) {
	if _, err := ownedPlan(ctx, s.repo, s.logger, userID, planID); err != nil {
		return nil, err
	}
	pc, err := s.getPlanCourse(ctx, planID, courseID)
	if err != nil {
		return nil, err
	}

	switch {
	case req.ClearPin:
		pc.PinnedSectionID = nil
	case req.PinnedSectionID != nil:
		sec, err := s.repo.Catalog.GetSection(ctx, *req.PinnedSectionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrSectionNotFound
			}
			s.logger.Error("查询开班失败", zap.String("section_id", *req.PinnedSectionID), zap.Error(err))
			return nil, err
		}
		if sec.CourseID != courseID {
			return nil, ErrSectionNotInCourse
		}
		id := sec.SectionID
		pc.PinnedSectionID = &id
	}
	if req.IsVisible != nil {
		pc.IsVisible = *req.IsVisible
	}
	if req.Color != nil {
		pc.Color = *req.Color
	}

	if err := s.repo.PlanCourse.Update(ctx, pc); err != nil {
		s.logger.Error("更新方案课程失败", zap.String("plan_id", planID), zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}

	course, err := s.getCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return toPlanCourseResponse(pc, course)
}

func (s *planService) RemoveCourse(ctx context.Context, userID, planID, courseID string) error {
	if _, err := ownedPlan(ctx, s.repo, s.logger, userID, planID); err != nil {
		return err
	}
	if _, err := s.getPlanCourse(ctx, planID, courseID); err != nil {
		return err
	}
	if err := s.repo.PlanCourse.Delete(ctx, planID, courseID); err != nil {
		s.logger.Error("移除课程失败", zap.String("plan_id", planID), zap.String("course_id", courseID), zap.Error(err))
		return err
	}
	return nil
}

// ════════════════════════════════════════════════════════════
// 自定义时间块
// ════════════════════════════════════════════════════════════

func (s *planService) AddCustomItem(ctx context.Context, userID, planID string, req *dto.CustomItemRequest) (*dto.CustomItemResponse, error) {
	if _, err := ownedPlan(ctx, s.repo, s.logger, userID, planID); err != nil {
		return nil, err
	}
	slots, err := dto.ToTimeSlots(req.Slots)
	if err != nil {
		return nil, err
	}

	color := req.Color
	if color == "" {
		existing, err := s.repo.CustomItem.ListByPlan(ctx, planID)
		if err != nil {
			s.logger.Error("查询自定义时间块失败", zap.String("plan_id", planID), zap.Error(err))
			return nil, err
		}
		color = s.color(len(s.palette) - 1 - len(existing))
	}
	visible := true
	if req.IsVisible != nil {
		visible = *req.IsVisible
	}

	item := &model.CustomItem{
		PlanID:    planID,
		Label:     req.Label,
		Color:     color,
		IsVisible: visible,
		Slots:     toCustomItemSlotModels(slots),
	}
	if err := s.repo.CustomItem.Create(ctx, item); err != nil {
		s.logger.Error("创建自定义时间块失败", zap.String("plan_id", planID), zap.Error(err))
		return nil, err
	}

	resp := toCustomItemResponse(item, slots)
	return &resp, nil
}

func (s *planService) getCustomItem(ctx context.Context, planID, itemID string) (*model.CustomItem, error) {
	item, err := s.repo.CustomItem.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomItemNotFound
		}
		s.logger.Error("查询自定义时间块失败", zap.String("item_id", itemID), zap.Error(err))
		return nil, err
	}
	if item.PlanID != planID {
		return nil, ErrCustomItemNotFound
	}
	return item, nil
}

func (s *planService) UpdateCustomItem(ctx context.Context, userID, planID, itemID string, req *dto.CustomItemRequest) (*dto.CustomItemResponse, error) {
	if _, err := ownedPlan(ctx, s.repo, s.logger, userID, planID); err != nil {
		return nil, err
	}
	item, err := s.getCustomItem(ctx, planID, itemID)
	if err != nil {
		return nil, err
	}
	slots, err := dto.ToTimeSlots(req.Slots)
	if err != nil {
		return nil, err
	}

	item.Label = req.Label
	if req.Color != "" {
		item.Color = req.Color
	}
	if req.IsVisible != nil {
		item.IsVisible = *req.IsVisible
	}
	item.Slots = toCustomItemSlotModels(slots)

	if err := s.repo.CustomItem.Replace(ctx, item); err != nil {
		s.logger.Error("更新自定义时间块失败", zap.String("item_id", itemID), zap.Error(err))
		return nil, err
	}

	resp := toCustomItemResponse(item, slots)
	return &resp, nil
}

func (s *planService) DeleteCustomItem(ctx context.Context, userID, planID, itemID string) error {
	if _, err := ownedPlan(ctx, s.repo, s.logger, userID, planID); err != nil {
		return err
	}
	if _, err := s.getCustomItem(ctx, planID, itemID); err != nil {
		return err
	}
	if err := s.repo.CustomItem.Delete(ctx, itemID); err != nil {
		s.logger.Error("删除自定义时间块失败", zap.String("item_id", itemID), zap.Error(err))
		return err
	}
	return nil
}

func (s *planService) ImportCustomItems(ctx context.Context, userID, planID string, reader io.Reader) ([]dto.CustomItemResponse, error) {
	if _, err := ownedPlan(ctx, s.repo, s.logger, userID, planID); err != nil {
		return nil, err
	}

	parsed, err := ParseWeeklyBlocks(reader, nil)
	if err != nil {
		s.logger.Warn("ICS 解析失败", zap.String("plan_id", planID), zap.Error(err))
		return nil, err
	}
	if len(parsed.Blocks) == 0 {
		return nil, ErrICSEmpty
	}

	existing, err := s.repo.CustomItem.ListByPlan(ctx, planID)
	if err != nil {
		s.logger.Error("查询自定义时间块失败", zap.String("plan_id", planID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.CustomItemResponse, 0, len(parsed.Blocks))
	for i, b := range parsed.Blocks {
		item := &model.CustomItem{
			PlanID:    planID,
			Label:     b.Label,
			Color:     s.color(len(s.palette) - 1 - len(existing) - i),
			IsVisible: true,
			Slots:     toCustomItemSlotModels(b.Slots),
		}
		if err := s.repo.CustomItem.Create(ctx, item); err != nil {
			s.logger.Error("导入自定义时间块失败", zap.String("plan_id", planID), zap.Error(err))
			return nil, err
		}
		result = append(result, toCustomItemResponse(item, b.Slots))
	}

	s.logger.Info("ICS 导入完成",
		zap.String("plan_id", planID),
		zap.Int("imported", len(result)),
		zap.Int("skipped", parsed.Skipped),
	)
	return result, nil
}

// ════════════════════════════════════════════════════════════
// 课表网格与冲突
// ════════════════════════════════════════════════════════════

// 网格条目 ID 前缀
const (
	itemPrefixSection   = "section:"
	itemPrefixCustom    = "custom:"
	itemPrefixCandidate = "candidate:"
)

// gridInput 构建网格所需的方案数据
type gridInput struct {
	courses []model.PlanCourse
	items   []model.CustomItem
}

func (s *planService) loadGridInput(ctx context.Context, planID string) (*gridInput, error) {
	pcs, err := s.repo.PlanCourse.ListByPlan(ctx, planID)
	if err != nil {
		s.logger.Error("查询方案课程失败", zap.String("plan_id", planID), zap.Error(err))
		return nil, err
	}
	items, err := s.repo.CustomItem.ListByPlan(ctx, planID)
	if err != nil {
		s.logger.Error("查询自定义时间块失败", zap.String("plan_id", planID), zap.Error(err))
		return nil, err
	}
	return &gridInput{courses: pcs, items: items}, nil
}

// gridResult 网格条目与学分
type gridResult struct {
	items   []timetable.ScheduleItem
	lecture int
	work    int
}

// buildGrid 组装网格条目。preview 非 nil 时，组合覆盖的课程以预览开班代替固定开班；
// skipCourse 非空时跳过该课程的固定开班（冲突预检替换场景）。
func buildGrid(in *gridInput, preview *timetable.Combination, skipCourse string, palette []string) (*gridResult, error) {
	res := &gridResult{items: make([]timetable.ScheduleItem, 0, len(in.courses)+len(in.items))}

	byCourse := make(map[string]*model.PlanCourse, len(in.courses))
	for i := range in.courses {
		byCourse[in.courses[i].CourseID] = &in.courses[i]
	}

	previewed := make(map[string]bool)
	if preview != nil {
		preview = previewInPlan(preview, byCourse)
		for _, sec := range preview.Sections {
			previewed[sec.CourseID] = true
		}
	}

	for i := range in.courses {
		pc := &in.courses[i]
		if pc.CourseID == skipCourse || previewed[pc.CourseID] {
			continue
		}
		if pc.PinnedSectionID == nil || pc.Course == nil {
			continue
		}
		for j := range pc.Course.Sections {
			row := &pc.Course.Sections[j]
			if row.SectionID != *pc.PinnedSectionID {
				continue
			}
			sec, err := toSection(row)
			if err != nil {
				return nil, err
			}
			res.items = append(res.items, timetable.ScheduleItem{
				ID:        itemPrefixSection + sec.ID,
				Kind:      timetable.ItemKindSection,
				SectionID: sec.ID,
				CourseID:  pc.CourseID,
				Label:     pc.Course.Code + " " + sec.Code,
				Color:     pc.Color,
				Slots:     sec.Slots,
				Visible:   pc.IsVisible,
			})
			if pc.IsVisible {
				res.lecture += pc.Course.LectureCredits
				res.work += pc.Course.WorkCredits
			}
		}
	}

	if preview != nil {
		res.lecture += preview.LectureCredits
		res.work += preview.WorkCredits
		for _, it := range timetable.PreviewItems(*preview, palette) {
			if pc, ok := byCourse[it.CourseID]; ok {
				it.Color = pc.Color
				if pc.Course != nil {
					it.Label = pc.Course.Code + " " + it.Label
				}
			}
			res.items = append(res.items, it)
		}
	}

	for i := range in.items {
		item := &in.items[i]
		slots, err := customItemSlots(item)
		if err != nil {
			return nil, err
		}
		res.items = append(res.items, timetable.ScheduleItem{
			ID:      itemPrefixCustom + item.CustomItemID,
			Kind:    timetable.ItemKindCustom,
			Label:   item.Label,
			Color:   item.Color,
			Slots:   slots,
			Visible: item.IsVisible,
		})
	}

	return res, nil
}

// previewInPlan 去掉生成后已移出方案的课程，学分按保留的课程重新计算
func previewInPlan(c *timetable.Combination, byCourse map[string]*model.PlanCourse) *timetable.Combination {
	kept := timetable.Combination{Rank: c.Rank, Sections: make([]timetable.Section, 0, len(c.Sections))}
	for _, sec := range c.Sections {
		pc, ok := byCourse[sec.CourseID]
		if !ok {
			continue
		}
		kept.Sections = append(kept.Sections, sec)
		if pc.Course != nil {
			kept.LectureCredits += pc.Course.LectureCredits
			kept.WorkCredits += pc.Course.WorkCredits
		}
	}
	if len(kept.Sections) == len(c.Sections) {
		return c
	}
	return &kept
}

func (s *planService) GetGrid(ctx context.Context, userID, planID string, preview bool) (*dto.GridResponse, error) {
	if _, err := ownedPlan(ctx, s.repo, s.logger, userID, planID); err != nil {
		return nil, err
	}
	in, err := s.loadGridInput(ctx, planID)
	if err != nil {
		return nil, err
	}

	var combo *timetable.Combination
	if preview {
		c, _, err := currentCombination(ctx, s.store, planID)
		switch {
		case err == nil:
			combo = &c
		case errors.Is(err, ErrGenerationNotFound), errors.Is(err, ErrGenerationPending), errors.Is(err, ErrNoCombination):
			// 没有可预览的组合时退化为普通网格
		default:
			s.logger.Error("读取组合会话失败", zap.String("plan_id", planID), zap.Error(err))
			return nil, err
		}
	}

	grid, err := buildGrid(in, combo, "", s.palette)
	if err != nil {
		return nil, err
	}
	report := timetable.DetectConflicts(grid.items)

	return &dto.GridResponse{
		Items:          grid.items,
		Conflicts:      report.Conflicts,
		ConflictingIDs: report.IDs(),
		LectureCredits: grid.lecture,
		WorkCredits:    grid.work,
		Preview:        combo != nil,
	}, nil
}

func (s *planService) CheckSectionConflicts(ctx context.Context, userID, planID string, req *dto.CheckConflictsRequest) (*dto.CheckConflictsResponse, error) {
	if _, err := ownedPlan(ctx, s.repo, s.logger, userID, planID); err != nil {
		return nil, err
	}

	row, err := s.repo.Catalog.GetSection(ctx, req.SectionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSectionNotFound
		}
		s.logger.Error("查询开班失败", zap.String("section_id", req.SectionID), zap.Error(err))
		return nil, err
	}
	candidate, err := toSection(row)
	if err != nil {
		return nil, err
	}

	in, err := s.loadGridInput(ctx, planID)
	if err != nil {
		return nil, err
	}
	grid, err := buildGrid(in, nil, candidate.CourseID, s.palette)
	if err != nil {
		return nil, err
	}

	candidateID := itemPrefixCandidate + candidate.ID
	items := append(grid.items, timetable.ScheduleItem{
		ID:        candidateID,
		Kind:      timetable.ItemKindSection,
		SectionID: candidate.ID,
		CourseID:  candidate.CourseID,
		Slots:     candidate.Slots,
		Visible:   true,
	})
	report := timetable.DetectConflicts(items)

	labels := make(map[string]timetable.ScheduleItem, len(grid.items))
	for _, it := range grid.items {
		labels[it.ID] = it
	}

	resp := &dto.CheckConflictsResponse{
		SectionID:     candidate.ID,
		ConflictsWith: []dto.ConflictingItem{},
	}
	for _, c := range report.Conflicts {
		other := ""
		switch candidateID {
		case c.A:
			other = c.B
		case c.B:
			other = c.A
		default:
			continue
		}
		it := labels[other]
		resp.ConflictsWith = append(resp.ConflictsWith, dto.ConflictingItem{
			ID:    it.ID,
			Kind:  it.Kind,
			Label: it.Label,
		})
	}
	resp.HasConflict = len(resp.ConflictsWith) > 0
	return resp, nil
}

// ApplyCombination 仅固定仍在方案中的课程；组合生成后被移除的课程跳过
func (s *planService) ApplyCombination(ctx context.Context, userID, planID string) (*dto.ApplyCombinationResponse, error) {
	if _, err := ownedPlan(ctx, s.repo, s.logger, userID, planID); err != nil {
		return nil, err
	}

	combo, sess, err := currentCombination(ctx, s.store, planID)
	if err != nil {
		return nil, err
	}

	pcs, err := s.repo.PlanCourse.ListByPlan(ctx, planID)
	if err != nil {
		s.logger.Error("查询方案课程失败", zap.String("plan_id", planID), zap.Error(err))
		return nil, err
	}
	inPlan := make(map[string]bool, len(pcs))
	for _, pc := range pcs {
		inPlan[pc.CourseID] = true
	}

	pins := make(map[string]string, len(combo.Sections))
	for _, sec := range combo.Sections {
		if inPlan[sec.CourseID] {
			pins[sec.CourseID] = sec.ID
		}
	}
	if err := s.repo.PlanCourse.PinSections(ctx, planID, pins); err != nil {
		s.logger.Error("应用组合失败", zap.String("plan_id", planID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("已应用组合",
		zap.String("plan_id", planID),
		zap.Int("rank", combo.Rank),
		zap.Int("pinned", len(pins)),
	)
	return &dto.ApplyCombinationResponse{
		Rank:       combo.Rank,
		PinnedIDs:  pins,
		Generation: sess.Generation,
	}, nil
}
