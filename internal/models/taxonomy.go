package models

import "time"

// ExamType is the root of the taxonomy: ExamType -> ExamYear -> Subject.
type ExamType struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Name        string  `json:"name" gorm:"uniqueIndex;not null;size:100"`
	Description *string `json:"description" gorm:"type:text"`

	CreatedBy string    `json:"created_by" gorm:"not null;size:255"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Years []ExamYear `json:"years,omitempty" gorm:"foreignKey:ExamTypeID"`
}

func (ExamType) TableName() string {
	return "exam_types"
}

type ExamYear struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	ExamTypeID uint `json:"exam_type_id" gorm:"not null;index;uniqueIndex:idx_type_year"`
	Year       int  `json:"year" gorm:"not null;uniqueIndex:idx_type_year"`

	CreatedBy string    `json:"created_by" gorm:"not null;size:255"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ExamType *ExamType `json:"exam_type,omitempty" gorm:"foreignKey:ExamTypeID"`
	Subjects []Subject `json:"subjects,omitempty" gorm:"foreignKey:ExamYearID"`
}

func (ExamYear) TableName() string {
	return "exam_years"
}

type Subject struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	ExamYearID uint   `json:"exam_year_id" gorm:"not null;uniqueIndex:idx_year_subject"`
	Name       string `json:"name" gorm:"not null;size:100;uniqueIndex:idx_year_subject"`

	CreatedBy string    `json:"created_by" gorm:"not null;size:255"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ExamYear *ExamYear `json:"exam_year,omitempty" gorm:"foreignKey:ExamYearID"`
}

func (Subject) TableName() string {
	return "subjects"
}

// Exam is a published paper inside the taxonomy.
type Exam struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Title       string  `json:"title" gorm:"not null;size:200"`
	Description *string `json:"description" gorm:"type:text"`
	SubjectID   *uint   `json:"subject_id" gorm:"index"`

	CreatedBy string    `json:"created_by" gorm:"not null;index;size:255"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Subject *Subject `json:"subject,omitempty" gorm:"foreignKey:SubjectID"`
	Creator User     `json:"creator" gorm:"foreignKey:CreatedBy"`
}

func (Exam) TableName() string {
	return "exams"
}
