package services

import (
	"context"
	"strings"
	"sync"

	"gorm.io/gorm"

	"github.com/prepdesk/examprep-service/internal/models"
	"github.com/prepdesk/examprep-service/internal/repositories"
)

// mockRepository is an in-memory repositories.Repository for service tests.
// Transactions run fn directly against the same state; rollback is not
// simulated.
type mockRepository struct {
	mu sync.Mutex

	users       map[string]*models.User
	profiles    map[string]*models.UserProfile
	activations map[string]*models.ActivationToken
	resets      map[string]*models.PasswordResetToken
	questions   map[uint]*models.Question
	examTypes   map[uint]*models.ExamType
	examYears   map[uint]*models.ExamYear
	subjects    map[uint]*models.Subject
	exams       map[uint]*models.Exam

	nextID uint
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		users:       make(map[string]*models.User),
		profiles:    make(map[string]*models.UserProfile),
		activations: make(map[string]*models.ActivationToken),
		resets:      make(map[string]*models.PasswordResetToken),
		questions:   make(map[uint]*models.Question),
		examTypes:   make(map[uint]*models.ExamType),
		examYears:   make(map[uint]*models.ExamYear),
		subjects:    make(map[uint]*models.Subject),
		exams:       make(map[uint]*models.Exam),
	}
}

func (m *mockRepository) nextUint() uint {
	m.nextID++
	return m.nextID
}

func (m *mockRepository) User() repositories.UserRepository                 { return (*mockUserRepo)(m) }
func (m *mockRepository) Profile() repositories.ProfileRepository           { return (*mockProfileRepo)(m) }
func (m *mockRepository) ActivationToken() repositories.ActivationTokenRepository {
	return (*mockActivationRepo)(m)
}
func (m *mockRepository) PasswordResetToken() repositories.PasswordResetTokenRepository {
	return (*mockResetRepo)(m)
}
func (m *mockRepository) Question() repositories.QuestionRepository { return (*mockQuestionRepo)(m) }
func (m *mockRepository) ExamType() repositories.ExamTypeRepository { return (*mockExamTypeRepo)(m) }
func (m *mockRepository) ExamYear() repositories.ExamYearRepository { return (*mockExamYearRepo)(m) }
func (m *mockRepository) Subject() repositories.SubjectRepository   { return (*mockSubjectRepo)(m) }
func (m *mockRepository) Exam() repositories.ExamRepository         { return (*mockExamRepo)(m) }

func (m *mockRepository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func (m *mockRepository) Ping(ctx context.Context) error { return nil }
func (m *mockRepository) Close() error                   { return nil }

// ===== USERS =====

type mockUserRepo mockRepository

func (m *mockUserRepo) Create(_ context.Context, _ *gorm.DB, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, _ *gorm.DB, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, repositories.ErrNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, _ *gorm.DB, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, _ *gorm.DB, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *mockUserRepo) ExistsByEmailOrUsername(_ context.Context, _ *gorm.DB, email, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) || u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, _ *gorm.DB, userID, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (m *mockUserRepo) ConfirmEmail(_ context.Context, _ *gorm.DB, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	u.EmailConfirmed = true
	return nil
}

func (m *mockUserRepo) List(_ context.Context, _ *gorm.DB, filters repositories.UserFilters) ([]*models.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.User
	for _, u := range m.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

// ===== PROFILES =====

type mockProfileRepo mockRepository

func (m *mockProfileRepo) Create(_ context.Context, _ *gorm.DB, profile *models.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *profile
	if cp.ID == 0 {
		cp.ID = (*mockRepository)(m).nextUint()
		profile.ID = cp.ID
	}
	m.profiles[profile.UserID] = &cp
	return nil
}

func (m *mockProfileRepo) GetByUserID(_ context.Context, _ *gorm.DB, userID string) (*models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.profiles[userID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, repositories.ErrNotFound
}

func (m *mockProfileRepo) Update(_ context.Context, _ *gorm.DB, profile *models.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[profile.UserID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *profile
	m.profiles[profile.UserID] = &cp
	return nil
}

func (m *mockProfileRepo) SetActive(_ context.Context, _ *gorm.DB, userID string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	p.IsActive = active
	return nil
}

func (m *mockProfileRepo) SetRole(_ context.Context, _ *gorm.DB, userID string, role models.UserRole) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	p.Role = role
	return nil
}

// ===== ACTIVATION TOKENS =====

type mockActivationRepo mockRepository

func (m *mockActivationRepo) Create(_ context.Context, _ *gorm.DB, token *models.ActivationToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *token
	m.activations[token.Token] = &cp
	return nil
}

func (m *mockActivationRepo) GetByToken(_ context.Context, _ *gorm.DB, token string) (*models.ActivationToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.activations[token]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, repositories.ErrNotFound
}

func (m *mockActivationRepo) Delete(_ context.Context, _ *gorm.DB, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.activations, token)
	return nil
}

func (m *mockActivationRepo) DeleteForUser(_ context.Context, _ *gorm.DB, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, t := range m.activations {
		if t.UserID == userID {
			delete(m.activations, k)
		}
	}
	return nil
}

// ===== PASSWORD RESET TOKENS =====

type mockResetRepo mockRepository

func (m *mockResetRepo) Create(_ context.Context, _ *gorm.DB, token *models.PasswordResetToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *token
	m.resets[token.Token] = &cp
	return nil
}

func (m *mockResetRepo) GetByToken(_ context.Context, _ *gorm.DB, token string) (*models.PasswordResetToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.resets[token]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, repositories.ErrNotFound
}

func (m *mockResetRepo) Delete(_ context.Context, _ *gorm.DB, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.resets, token)
	return nil
}

func (m *mockResetRepo) DeleteForUser(_ context.Context, _ *gorm.DB, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, t := range m.resets {
		if t.UserID == userID {
			delete(m.resets, k)
		}
	}
	return nil
}

// ===== QUESTIONS =====

type mockQuestionRepo mockRepository

func (m *mockQuestionRepo) Create(_ context.Context, _ *gorm.DB, question *models.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if question.ID == 0 {
		question.ID = (*mockRepository)(m).nextUint()
	}
	cp := *question
	m.questions[question.ID] = &cp
	return nil
}

func (m *mockQuestionRepo) GetByID(_ context.Context, _ *gorm.DB, id uint) (*models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if q, ok := m.questions[id]; ok {
		cp := *q
		return &cp, nil
	}
	return nil, repositories.ErrNotFound
}

func (m *mockQuestionRepo) Update(_ context.Context, _ *gorm.DB, question *models.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.questions[question.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *question
	m.questions[question.ID] = &cp
	return nil
}

func (m *mockQuestionRepo) Delete(_ context.Context, _ *gorm.DB, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.questions[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.questions, id)
	return nil
}

func (m *mockQuestionRepo) List(_ context.Context, _ *gorm.DB, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Question
	for _, q := range m.questions {
		if filters.SubjectID != nil && (q.SubjectID == nil || *q.SubjectID != *filters.SubjectID) {
			continue
		}
		if filters.Type != nil && q.Type != *filters.Type {
			continue
		}
		cp := *q
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

// ===== TAXONOMY =====

type mockExamTypeRepo mockRepository

func (m *mockExamTypeRepo) Create(_ context.Context, _ *gorm.DB, examType *models.ExamType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if examType.ID == 0 {
		examType.ID = (*mockRepository)(m).nextUint()
	}
	cp := *examType
	m.examTypes[examType.ID] = &cp
	return nil
}

func (m *mockExamTypeRepo) GetByID(_ context.Context, _ *gorm.DB, id uint) (*models.ExamType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.examTypes[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, repositories.ErrNotFound
}

func (m *mockExamTypeRepo) Update(_ context.Context, _ *gorm.DB, examType *models.ExamType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.examTypes[examType.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *examType
	m.examTypes[examType.ID] = &cp
	return nil
}

func (m *mockExamTypeRepo) Delete(_ context.Context, _ *gorm.DB, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.examTypes[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.examTypes, id)
	return nil
}

func (m *mockExamTypeRepo) List(_ context.Context, _ *gorm.DB) ([]*models.ExamType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ExamType
	for _, t := range m.examTypes {
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockExamTypeRepo) ExistsByName(_ context.Context, _ *gorm.DB, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.examTypes {
		if strings.EqualFold(t.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

type mockExamYearRepo mockRepository

func (m *mockExamYearRepo) Create(_ context.Context, _ *gorm.DB, year *models.ExamYear) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if year.ID == 0 {
		year.ID = (*mockRepository)(m).nextUint()
	}
	cp := *year
	m.examYears[year.ID] = &cp
	return nil
}

func (m *mockExamYearRepo) GetByID(_ context.Context, _ *gorm.DB, id uint) (*models.ExamYear, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if y, ok := m.examYears[id]; ok {
		cp := *y
		return &cp, nil
	}
	return nil, repositories.ErrNotFound
}

func (m *mockExamYearRepo) Update(_ context.Context, _ *gorm.DB, year *models.ExamYear) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.examYears[year.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *year
	m.examYears[year.ID] = &cp
	return nil
}

func (m *mockExamYearRepo) Delete(_ context.Context, _ *gorm.DB, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.examYears[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.examYears, id)
	return nil
}

func (m *mockExamYearRepo) ListByExamType(_ context.Context, _ *gorm.DB, examTypeID uint) ([]*models.ExamYear, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ExamYear
	for _, y := range m.examYears {
		if y.ExamTypeID == examTypeID {
			cp := *y
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockExamYearRepo) ExistsByTypeAndYear(_ context.Context, _ *gorm.DB, examTypeID uint, year int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, y := range m.examYears {
		if y.ExamTypeID == examTypeID && y.Year == year {
			return true, nil
		}
	}
	return false, nil
}

type mockSubjectRepo mockRepository

func (m *mockSubjectRepo) Create(_ context.Context, _ *gorm.DB, subject *models.Subject) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if subject.ID == 0 {
		subject.ID = (*mockRepository)(m).nextUint()
	}
	cp := *subject
	m.subjects[subject.ID] = &cp
	return nil
}

func (m *mockSubjectRepo) GetByID(_ context.Context, _ *gorm.DB, id uint) (*models.Subject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.subjects[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, repositories.ErrNotFound
}

func (m *mockSubjectRepo) Update(_ context.Context, _ *gorm.DB, subject *models.Subject) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subjects[subject.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *subject
	m.subjects[subject.ID] = &cp
	return nil
}

func (m *mockSubjectRepo) Delete(_ context.Context, _ *gorm.DB, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subjects[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.subjects, id)
	return nil
}

func (m *mockSubjectRepo) ListByExamYear(_ context.Context, _ *gorm.DB, examYearID uint) ([]*models.Subject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Subject
	for _, s := range m.subjects {
		if s.ExamYearID == examYearID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockSubjectRepo) ExistsByYearAndName(_ context.Context, _ *gorm.DB, examYearID uint, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.subjects {
		if s.ExamYearID == examYearID && strings.EqualFold(s.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

type mockExamRepo mockRepository

func (m *mockExamRepo) Create(_ context.Context, _ *gorm.DB, exam *models.Exam) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if exam.ID == 0 {
		exam.ID = (*mockRepository)(m).nextUint()
	}
	cp := *exam
	m.exams[exam.ID] = &cp
	return nil
}

func (m *mockExamRepo) GetByID(_ context.Context, _ *gorm.DB, id uint) (*models.Exam, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.exams[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, repositories.ErrNotFound
}

func (m *mockExamRepo) Update(_ context.Context, _ *gorm.DB, exam *models.Exam) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.exams[exam.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *exam
	m.exams[exam.ID] = &cp
	return nil
}

func (m *mockExamRepo) Delete(_ context.Context, _ *gorm.DB, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.exams[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.exams, id)
	return nil
}

func (m *mockExamRepo) List(_ context.Context, _ *gorm.DB, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Exam
	for _, e := range m.exams {
		if filters.SubjectID != nil && (e.SubjectID == nil || *e.SubjectID != *filters.SubjectID) {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}
