// Package role holds the closed set of account roles and the single
// authorization predicate every mutating service entry point consults
// before touching state.
package role

// Role tags an account with its position in the hierarchy
// super_admin > admin > instructor > student.
type Role string

const (
	SuperAdmin Role = "super_admin"
	Admin      Role = "admin"
	Instructor Role = "instructor"
	Student    Role = "student"
)

var (
	All = []Role{SuperAdmin, Admin, Instructor, Student}

	priorities = map[Role]int{
		SuperAdmin: 40,
		Admin:      30,
		Instructor: 20,
		Student:    10,
	}
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := priorities[r]
	return ok
}

func (r Role) String() string { return string(r) }

// Priority returns the hierarchy rank of r; unknown roles rank 0.
func Priority(r Role) int {
	return priorities[r]
}

// Action enumerates everything the policy can rule on.
type Action string

const (
	AccountCreate     Action = "account:create"
	AccountUpdate     Action = "account:update"
	AccountDeactivate Action = "account:deactivate"
	AccountDelete     Action = "account:delete"

	CourseCreate Action = "course:create"
	CourseUpdate Action = "course:update"
	CourseDelete Action = "course:delete"

	SubjectCreate Action = "subject:create"
	SubjectDelete Action = "subject:delete"

	InstructorAssign Action = "instructor:assign"

	EnrollmentCreate Action = "enrollment:create"
	EnrollmentUpdate Action = "enrollment:update"

	GradeUpsert Action = "grade:upsert"
	GradeSubmit Action = "grade:submit"

	ReportRead Action = "report:read"
)

// account actions an admin may perform, per target role
var adminAccountActions = map[Role]map[Action]bool{
	Instructor: {
		AccountCreate:     true,
		AccountUpdate:     true,
		AccountDeactivate: true,
		AccountDelete:     true,
	},
	Student: {
		AccountDeactivate: true,
		AccountDelete:     true,
	},
}

// Can is the authorization predicate: given the actor's role, the action and
// (for account actions) the target's role, it returns whether the action is
// allowed. It is pure: no lookups, no side effects.
//
// A super_admin account is untouchable: nobody, including a super_admin,
// may modify, deactivate or delete one.
func Can(actor Role, action Action, target ...Role) bool {
	if !actor.Valid() {
		return false
	}

	switch action {
	case AccountCreate, AccountUpdate, AccountDeactivate, AccountDelete:
		if len(target) == 0 || !target[0].Valid() {
			return false
		}
		tgt := target[0]
		if tgt == SuperAdmin {
			return false
		}
		switch actor {
		case SuperAdmin:
			return true
		case Admin:
			return adminAccountActions[tgt][action]
		}
		return false

	case CourseCreate, CourseUpdate, CourseDelete, SubjectCreate, SubjectDelete:
		return actor == SuperAdmin

	case InstructorAssign:
		return actor == SuperAdmin || actor == Admin

	case EnrollmentCreate, EnrollmentUpdate:
		return actor == SuperAdmin || actor == Admin || actor == Instructor

	case GradeUpsert, GradeSubmit:
		// assignment and enrollment checks happen in the grade service
		return actor == Instructor

	case ReportRead:
		return true
	}
	return false
}
