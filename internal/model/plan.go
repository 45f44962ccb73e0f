package model

// Plan 用户选课方案，对应 plans
type Plan struct {
	PlanID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"plan_id"`
	UserID string `gorm:"type:uuid;not null;index"                       json:"user_id"`
	Name   string `gorm:"type:varchar(100);not null"                     json:"name"`
	VersionedModel

	// 关联
	Courses     []PlanCourse `gorm:"foreignKey:PlanID;references:PlanID" json:"courses,omitempty"`
	CustomItems []CustomItem `gorm:"foreignKey:PlanID;references:PlanID" json:"custom_items,omitempty"`
}

// TableName 指定表名
func (Plan) TableName() string { return "plans" }

// PlanCourse 方案中的课程，对应 plan_courses
// PinnedSectionID 为空表示尚未固定开班，只参与组合生成
type PlanCourse struct {
	PlanCourseID    string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"plan_course_id"`
	PlanID          string  `gorm:"type:uuid;not null"                             json:"plan_id"`
	CourseID        string  `gorm:"type:uuid;not null"                             json:"course_id"`
	PinnedSectionID *string `gorm:"type:uuid"                                      json:"pinned_section_id,omitempty"`
	IsVisible       bool    `gorm:"not null;default:true"                          json:"is_visible"`
	Color           string  `gorm:"type:varchar(9);not null"                       json:"color"`
	Position        int     `gorm:"not null;default:0"                             json:"position"`
	TimestampModel

	// 关联
	Course *Course `gorm:"foreignKey:CourseID;references:CourseID" json:"course,omitempty"`
}

// TableName 指定表名
func (PlanCourse) TableName() string { return "plan_courses" }

// CustomItem 自定义时间块（打工、社团等）对应 custom_items
type CustomItem struct {
	CustomItemID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"custom_item_id"`
	PlanID       string `gorm:"type:uuid;not null"                             json:"plan_id"`
	Label        string `gorm:"type:varchar(100);not null"                     json:"label"`
	Color        string `gorm:"type:varchar(9);not null"                       json:"color"`
	IsVisible    bool   `gorm:"not null;default:true"                          json:"is_visible"`
	TimestampModel

	// 关联
	Slots []CustomItemSlot `gorm:"foreignKey:CustomItemID;references:CustomItemID" json:"slots,omitempty"`
}

// TableName 指定表名
func (CustomItem) TableName() string { return "custom_items" }

// CustomItemSlot 自定义时间块的时间段，对应 custom_item_slots
type CustomItemSlot struct {
	CustomItemSlotID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"custom_item_slot_id"`
	CustomItemID     string `gorm:"type:uuid;not null"                             json:"custom_item_id"`
	DayOfWeek        int    `gorm:"type:smallint;not null"                         json:"day_of_week"`
	StartTime        string `gorm:"type:time;not null"                             json:"start_time"`
	EndTime          string `gorm:"type:time;not null"                             json:"end_time"`
}

// TableName 指定表名
func (CustomItemSlot) TableName() string { return "custom_item_slots" }
