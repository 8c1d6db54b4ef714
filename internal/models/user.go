package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleStudent  UserRole = "student"
	RoleTeacher  UserRole = "teacher"
	RoleExaminer UserRole = "examiner"
	RoleAdmin    UserRole = "admin"
)

// roleRanks orders roles from least to most privileged. Used by the
// hierarchical route guard, NOT by the resource permission matrix.
var roleRanks = map[UserRole]int{
	RoleStudent:  0,
	RoleTeacher:  1,
	RoleExaminer: 2,
	RoleAdmin:    3,
}

// Rank returns the position of the role in the hierarchy, or -1 for an
// unknown role.
func (r UserRole) Rank() int {
	if rank, ok := roleRanks[r]; ok {
		return rank
	}
	return -1
}

func (r UserRole) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// User is the credential identity. Application-facing account state (role,
// activation flag) lives in UserProfile; signup creates the two rows
// separately.
type User struct {
	ID           string `json:"id" gorm:"primaryKey;size:255"`
	Email        string `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Username     string `json:"username" gorm:"uniqueIndex;not null;size:100"`
	PasswordHash string `json:"-" gorm:"not null;size:255"`

	EmailConfirmed bool `json:"email_confirmed" gorm:"default:false"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Profile *UserProfile `json:"profile,omitempty" gorm:"foreignKey:UserID"`
}

func (User) TableName() string {
	return "users"
}

// UserProfile carries role and activation state. A profile with
// IsActive=false is rejected at login before any password check.
type UserProfile struct {
	ID       uint     `json:"id" gorm:"primaryKey"`
	UserID   string   `json:"user_id" gorm:"uniqueIndex;not null;size:255"`
	FullName string   `json:"full_name" gorm:"not null;size:100"`
	Role     UserRole `json:"role" gorm:"not null;default:student;size:20;index"`
	IsActive bool     `json:"is_active" gorm:"not null;default:false;index"`

	AvatarURL *string `json:"avatar_url" gorm:"size:500"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}
