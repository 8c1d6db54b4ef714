package services

import (
	"context"
	"io"

	"github.com/prepdesk/examprep-service/internal/models"
	"github.com/prepdesk/examprep-service/internal/permissions"
)

// ===== REQUEST/RESPONSE DTOs =====

type SignupRequest = models.SignupRequest
type LoginRequest = models.LoginRequest
type ForgotPasswordRequest = models.ForgotPasswordRequest
type ResetPasswordRequest = models.ResetPasswordRequest

type CreateQuestionRequest = models.QuestionCreateRequest
type UpdateQuestionRequest = models.QuestionUpdateRequest

// SignupResponse reports the created account. The account stays inactive
// until the emailed activation link is used.
type SignupResponse struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// UserDataResponse is the session snapshot handed to the frontend: identity
// plus every permission flag it needs to render.
type UserDataResponse struct {
	User      *models.User        `json:"user"`
	Profile   *models.UserProfile `json:"profile"`
	Questions permissions.Flags   `json:"questions"`
	Exams     permissions.Flags   `json:"exams"`
	Users     permissions.Flags   `json:"users"`
}

type QuestionResponse struct {
	*models.Question
	CorrectAnswer models.FlexAnswer `json:"correct_answer"`
	CanEdit       bool              `json:"can_edit"`
	CanDelete     bool              `json:"can_delete"`
}

type QuestionListResponse struct {
	Questions []*QuestionResponse `json:"questions"`
	Total     int64               `json:"total"`
	Page      int                 `json:"page"`
	Size      int                 `json:"size"`
	Flags     permissions.Flags   `json:"flags"`
}

type QuestionListParams struct {
	SubjectID  *uint
	Type       *models.QuestionType
	Difficulty *models.DifficultyLevel
	CreatedBy  *string
	Page       int
	Size       int
	SortBy     string
	SortOrder  string
}

type ExamResponse struct {
	*models.Exam
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
}

type ExamListResponse struct {
	Exams []*ExamResponse   `json:"exams"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Size  int               `json:"size"`
	Flags permissions.Flags `json:"flags"`
}

type ExamListParams struct {
	SubjectID *uint
	CreatedBy *string
	Page      int
	Size      int
}

type UserListParams struct {
	Query string
	Role  *models.UserRole
	Page  int
	Size  int
}

type UserListResponse struct {
	Users []*models.User `json:"users"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Size  int            `json:"size"`
}

// ImportResult summarizes a spreadsheet import.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// ===== SERVICE INTERFACES =====

type AuthService interface {
	Signup(ctx context.Context, req *SignupRequest) (*SignupResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*models.SessionResponse, error)
	Logout(ctx context.Context, userID string) error
	Activate(ctx context.Context, token string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	FetchUserData(ctx context.Context, userID string) (*UserDataResponse, error)

	// CreateAdmin provisions the bootstrap administrator from configured
	// credentials. Calling it when the admin exists is a no-op.
	CreateAdmin(ctx context.Context) error
}

type QuestionService interface {
	Create(ctx context.Context, req *CreateQuestionRequest, actor *models.UserProfile) (*QuestionResponse, error)
	GetByID(ctx context.Context, id uint, actor *models.UserProfile) (*QuestionResponse, error)
	Update(ctx context.Context, id uint, req *UpdateQuestionRequest, actor *models.UserProfile) (*QuestionResponse, error)
	Delete(ctx context.Context, id uint, actor *models.UserProfile) error
	List(ctx context.Context, params QuestionListParams, actor *models.UserProfile) (*QuestionListResponse, error)
}

type TaxonomyService interface {
	CreateExamType(ctx context.Context, req *models.ExamTypeCreateRequest, actor *models.UserProfile) (*models.ExamType, error)
	UpdateExamType(ctx context.Context, id uint, req *models.ExamTypeUpdateRequest, actor *models.UserProfile) (*models.ExamType, error)
	DeleteExamType(ctx context.Context, id uint, actor *models.UserProfile) error
	ListExamTypes(ctx context.Context, actor *models.UserProfile) ([]*models.ExamType, error)

	CreateExamYear(ctx context.Context, req *models.ExamYearCreateRequest, actor *models.UserProfile) (*models.ExamYear, error)
	UpdateExamYear(ctx context.Context, id uint, req *models.ExamYearUpdateRequest, actor *models.UserProfile) (*models.ExamYear, error)
	DeleteExamYear(ctx context.Context, id uint, actor *models.UserProfile) error
	ListExamYears(ctx context.Context, examTypeID uint, actor *models.UserProfile) ([]*models.ExamYear, error)

	CreateSubject(ctx context.Context, req *models.SubjectCreateRequest, actor *models.UserProfile) (*models.Subject, error)
	UpdateSubject(ctx context.Context, id uint, req *models.SubjectUpdateRequest, actor *models.UserProfile) (*models.Subject, error)
	DeleteSubject(ctx context.Context, id uint, actor *models.UserProfile) error
	ListSubjects(ctx context.Context, examYearID uint, actor *models.UserProfile) ([]*models.Subject, error)

	CreateExam(ctx context.Context, req *models.ExamCreateRequest, actor *models.UserProfile) (*ExamResponse, error)
	GetExam(ctx context.Context, id uint, actor *models.UserProfile) (*ExamResponse, error)
	UpdateExam(ctx context.Context, id uint, req *models.ExamUpdateRequest, actor *models.UserProfile) (*ExamResponse, error)
	DeleteExam(ctx context.Context, id uint, actor *models.UserProfile) error
	ListExams(ctx context.Context, params ExamListParams, actor *models.UserProfile) (*ExamListResponse, error)
}

type UserService interface {
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, userID string, req *models.ProfileUpdateRequest) (*models.UserProfile, error)
	List(ctx context.Context, params UserListParams, actor *models.UserProfile) (*UserListResponse, error)
	ChangeRole(ctx context.Context, userID string, role models.UserRole, actor *models.UserProfile) error
	SetActive(ctx context.Context, userID string, active bool, actor *models.UserProfile) error
}

type ImportExportService interface {
	ImportQuestions(ctx context.Context, r io.Reader, actor *models.UserProfile) (*ImportResult, error)
	ExportQuestions(ctx context.Context, params QuestionListParams, actor *models.UserProfile) ([]byte, error)
}

// ServiceManager wires and owns every service instance.
type ServiceManager interface {
	Auth() AuthService
	Question() QuestionService
	Taxonomy() TaxonomyService
	User() UserService
	ImportExport() ImportExportService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
