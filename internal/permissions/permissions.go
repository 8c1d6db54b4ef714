package permissions

import (
	"strings"

	"github.com/prepdesk/examprep-service/internal/models"
)

type Resource string

const (
	ResourceExams     Resource = "exams"
	ResourceQuestions Resource = "questions"
	ResourceUsers     Resource = "users"
)

type Operation string

const (
	OpView   Operation = "view"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

type entry struct {
	role     models.UserRole
	resource Resource
	op       Operation
}

// matrix enumerates the allowed (role, resource, operation) triples
// explicitly per role. It is intentionally NOT derived from the role ranks
// used by CanAccessRoute; the two mechanisms gate different surfaces and are
// kept consistent by hand. Admin never consults the table.
var matrix = map[entry]bool{
	{models.RoleStudent, ResourceExams, OpView}:     true,
	{models.RoleStudent, ResourceQuestions, OpView}: true,

	{models.RoleTeacher, ResourceExams, OpView}:       true,
	{models.RoleTeacher, ResourceQuestions, OpView}:   true,
	{models.RoleTeacher, ResourceQuestions, OpCreate}: true,
	{models.RoleTeacher, ResourceQuestions, OpUpdate}: true,

	{models.RoleExaminer, ResourceExams, OpView}:       true,
	{models.RoleExaminer, ResourceExams, OpCreate}:     true,
	{models.RoleExaminer, ResourceExams, OpUpdate}:     true,
	{models.RoleExaminer, ResourceQuestions, OpView}:   true,
	{models.RoleExaminer, ResourceQuestions, OpCreate}: true,
	{models.RoleExaminer, ResourceQuestions, OpUpdate}: true,
	{models.RoleExaminer, ResourceQuestions, OpDelete}: true,
}

// HasPermission consults the flat permission matrix. Admins are always
// allowed; every triple absent from the matrix is denied.
func HasPermission(profile *models.UserProfile, resource Resource, op Operation) bool {
	if profile == nil {
		return false
	}
	if profile.Role == models.RoleAdmin {
		return true
	}
	return matrix[entry{profile.Role, resource, op}]
}

// HasRole reports whether the profile's rank meets the required rank. A nil
// profile never qualifies.
func HasRole(profile *models.UserProfile, required models.UserRole) bool {
	if profile == nil {
		return false
	}
	rank := profile.Role.Rank()
	if rank < 0 {
		return false
	}
	return rank >= required.Rank()
}

// Flags bundles the per-resource permission verdicts computed once per
// request; handlers attach them to responses so clients render the same
// affordances the server enforces.
type Flags struct {
	CanView   bool `json:"can_view"`
	CanCreate bool `json:"can_create"`
	CanUpdate bool `json:"can_update"`
	CanDelete bool `json:"can_delete"`
}

func FlagsFor(profile *models.UserProfile, resource Resource) Flags {
	return Flags{
		CanView:   HasPermission(profile, resource, OpView),
		CanCreate: HasPermission(profile, resource, OpCreate),
		CanUpdate: HasPermission(profile, resource, OpUpdate),
		CanDelete: HasPermission(profile, resource, OpDelete),
	}
}

// publicPaths is the allow-list for unauthenticated users.
var publicPaths = []string{"/", "/login", "/signup", "/auth"}

// routeRules maps path prefixes to the minimum rank required, checked in
// order so the more specific prefix wins.
var routeRules = []struct {
	prefix string
	role   models.UserRole
}{
	{"/admin", models.RoleAdmin},
	{"/exams/create", models.RoleExaminer},
	{"/dashboard", models.RoleStudent},
	{"/profile", models.RoleStudent},
	{"/questions", models.RoleStudent},
	{"/exams", models.RoleStudent},
}

// CanAccessRoute applies the coarse path-prefix rules that back the client's
// route guard. Unauthenticated users only pass for the public allow-list.
func CanAccessRoute(profile *models.UserProfile, path string) bool {
	if path == "" {
		path = "/"
	}
	if profile == nil {
		for _, p := range publicPaths {
			if path == p || strings.HasPrefix(path, p+"/") {
				return true
			}
		}
		return false
	}
	for _, rule := range routeRules {
		if path == rule.prefix || strings.HasPrefix(path, rule.prefix+"/") {
			return HasRole(profile, rule.role)
		}
	}
	// Authenticated users may reach anything without an explicit rule.
	return true
}
