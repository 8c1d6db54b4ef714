package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ===== AUTH DTOs =====

type SignupRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Username string `json:"username" validate:"required,min=3,max=100,alphanum"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type SessionResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        *User        `json:"user"`
	Profile     *UserProfile `json:"profile"`
}

// ===== QUESTION DTOs =====

// FlexAnswer accepts the frontend's `correct_answer` field, which is either
// a plain string or a string list.
type FlexAnswer struct {
	Value  string
	Values []string
	IsList bool
}

func (a *FlexAnswer) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		a.Value = s
		a.IsList = false
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		a.Values = list
		a.IsList = true
		return nil
	}
	return fmt.Errorf("correct_answer must be a string or a list of strings")
}

func (a FlexAnswer) MarshalJSON() ([]byte, error) {
	if a.IsList {
		return json.Marshal(a.Values)
	}
	return json.Marshal(a.Value)
}

type QuestionCreateRequest struct {
	Text          string           `json:"text" validate:"required,max=5000"`
	Type          *QuestionType    `json:"type" validate:"omitempty,oneof=mcq theory"`
	Difficulty    *DifficultyLevel `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Options       []string         `json:"options" validate:"omitempty,max=10,dive,max=1000"`
	CorrectAnswer FlexAnswer       `json:"correct_answer"`
	SubjectID     *uint            `json:"subject_id"`
	Tags          []string         `json:"tags" validate:"omitempty,max=20,dive,max=50"`
	MediaURLs     []string         `json:"media_urls" validate:"omitempty,max=10,dive,url"`
}

type QuestionUpdateRequest struct {
	Text          *string          `json:"text" validate:"omitempty,min=1,max=5000"`
	Type          *QuestionType    `json:"type" validate:"omitempty,oneof=mcq theory"`
	Difficulty    *DifficultyLevel `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Options       []string         `json:"options" validate:"omitempty,max=10,dive,max=1000"`
	CorrectAnswer *FlexAnswer      `json:"correct_answer"`
	SubjectID     *uint            `json:"subject_id"`
	Tags          []string         `json:"tags" validate:"omitempty,max=20,dive,max=50"`
	MediaURLs     []string         `json:"media_urls" validate:"omitempty,max=10,dive,url"`
}

// ===== TAXONOMY DTOs =====

type ExamTypeCreateRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

type ExamTypeUpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

type ExamYearCreateRequest struct {
	ExamTypeID uint `json:"exam_type_id" validate:"required"`
	Year       int  `json:"year" validate:"required,min=1900,max=2100"`
}

type ExamYearUpdateRequest struct {
	Year *int `json:"year" validate:"omitempty,min=1900,max=2100"`
}

type SubjectCreateRequest struct {
	ExamYearID uint   `json:"exam_year_id" validate:"required"`
	Name       string `json:"name" validate:"required,min=1,max=100"`
}

type SubjectUpdateRequest struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=100"`
}

type ExamCreateRequest struct {
	Title       string  `json:"title" validate:"required,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	SubjectID   *uint   `json:"subject_id"`
}

type ExamUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	SubjectID   *uint   `json:"subject_id"`
}

// ===== PROFILE DTOs =====

type ProfileUpdateRequest struct {
	FullName  *string `json:"full_name" validate:"omitempty,min=1,max=100"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url,max=500"`
}

type RoleChangeRequest struct {
	Role UserRole `json:"role" validate:"required,oneof=student teacher examiner admin"`
}

// ===== ERROR RESPONSES =====

type ErrorResponse struct {
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
