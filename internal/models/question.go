package models

import (
	"time"

	"gorm.io/datatypes"
)

type QuestionType string

const (
	QuestionMCQ    QuestionType = "mcq"
	QuestionTheory QuestionType = "theory"
)

const DefaultQuestionType = QuestionMCQ

type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "easy"
	DifficultyMedium DifficultyLevel = "medium"
	DifficultyHard   DifficultyLevel = "hard"
)

const DefaultDifficulty = DifficultyMedium

// AnswerFormat discriminates how CorrectAnswer is stored. List answers are
// JSON-encoded into the column; the format tag lets the read path decode
// them back symmetrically.
type AnswerFormat string

const (
	AnswerFormatString AnswerFormat = "string"
	AnswerFormatList   AnswerFormat = "list"
)

type Question struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	QuestionText string          `json:"question_text" gorm:"type:text;not null"`
	Type         QuestionType    `json:"type" gorm:"not null;default:mcq;index"`
	Difficulty   DifficultyLevel `json:"difficulty" gorm:"not null;default:medium;index"`

	// MCQ only; empty for theory questions.
	Options datatypes.JSON `json:"options" gorm:"type:jsonb"` // []string

	// CorrectAnswer holds either a plain string or a JSON-encoded string
	// list, disambiguated by AnswerFormat.
	CorrectAnswer string       `json:"correct_answer" gorm:"type:text"`
	AnswerFormat  AnswerFormat `json:"answer_format" gorm:"not null;default:string;size:10"`

	SubjectID *uint `json:"subject_id" gorm:"index"`

	Tags      datatypes.JSON `json:"tags" gorm:"type:jsonb"`       // []string
	MediaURLs datatypes.JSON `json:"media_urls" gorm:"type:jsonb"` // []string

	CreatedBy string    `json:"created_by" gorm:"not null;index;size:255"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Subject *Subject `json:"subject,omitempty" gorm:"foreignKey:SubjectID"`
	Creator User     `json:"creator" gorm:"foreignKey:CreatedBy"`
}

func (Question) TableName() string {
	return "questions"
}
