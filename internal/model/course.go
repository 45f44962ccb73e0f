package model

// Course 课程目录表，对应 courses
type Course struct {
	CourseID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"course_id"`
	Code           string `gorm:"type:varchar(20);not null;uniqueIndex"          json:"code"`
	Name           string `gorm:"type:varchar(200);not null"                     json:"name"`
	LectureCredits int    `gorm:"type:smallint;not null;default:0"               json:"lecture_credits"`
	WorkCredits    int    `gorm:"type:smallint;not null;default:0"               json:"work_credits"`
	TimestampModel

	// 关联
	Sections []Section `gorm:"foreignKey:CourseID;references:CourseID" json:"sections,omitempty"`
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }

// Section 开班表，对应 sections
type Section struct {
	SectionID  string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"section_id"`
	CourseID   string      `gorm:"type:uuid;not null"                             json:"course_id"`
	Code       string      `gorm:"type:varchar(20);not null"                      json:"code"`
	Professors StringArray `gorm:"type:text[];not null;default:'{}'"              json:"professors"`
	Notes      string      `gorm:"type:text;not null;default:''"                  json:"notes"`
	TimestampModel

	// 关联
	Slots []SectionSlot `gorm:"foreignKey:SectionID;references:SectionID" json:"slots,omitempty"`
}

// TableName 指定表名
func (Section) TableName() string { return "sections" }

// SectionSlot 开班上课时间，对应 section_slots
type SectionSlot struct {
	SectionSlotID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"section_slot_id"`
	SectionID     string `gorm:"type:uuid;not null"                             json:"section_id"`
	DayOfWeek     int    `gorm:"type:smallint;not null"                         json:"day_of_week"` // 1-6
	StartTime     string `gorm:"type:time;not null"                             json:"start_time"`
	EndTime       string `gorm:"type:time;not null"                             json:"end_time"`
}

// TableName 指定表名
func (SectionSlot) TableName() string { return "section_slots" }
