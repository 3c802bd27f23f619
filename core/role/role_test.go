package role

import "testing"

func TestCan_accountActions(t *testing.T) {
	accountActions := []Action{AccountCreate, AccountUpdate, AccountDeactivate, AccountDelete}

	tests := []struct {
		name   string
		actor  Role
		action Action
		target Role
		want   bool
	}{
		{name: "super_admin creates admin", actor: SuperAdmin, action: AccountCreate, target: Admin, want: true},
		{name: "super_admin creates instructor", actor: SuperAdmin, action: AccountCreate, target: Instructor, want: true},
		{name: "super_admin creates student", actor: SuperAdmin, action: AccountCreate, target: Student, want: true},
		{name: "super_admin deletes admin", actor: SuperAdmin, action: AccountDelete, target: Admin, want: true},
		{name: "super_admin deletes super_admin", actor: SuperAdmin, action: AccountDelete, target: SuperAdmin, want: false},
		{name: "super_admin deactivates super_admin", actor: SuperAdmin, action: AccountDeactivate, target: SuperAdmin, want: false},
		{name: "super_admin updates super_admin", actor: SuperAdmin, action: AccountUpdate, target: SuperAdmin, want: false},

		{name: "admin creates instructor", actor: Admin, action: AccountCreate, target: Instructor, want: true},
		{name: "admin updates instructor", actor: Admin, action: AccountUpdate, target: Instructor, want: true},
		{name: "admin creates student", actor: Admin, action: AccountCreate, target: Student, want: false},
		{name: "admin creates admin", actor: Admin, action: AccountCreate, target: Admin, want: false},
		{name: "admin deactivates instructor", actor: Admin, action: AccountDeactivate, target: Instructor, want: true},
		{name: "admin deactivates student", actor: Admin, action: AccountDeactivate, target: Student, want: true},
		{name: "admin deletes student", actor: Admin, action: AccountDelete, target: Student, want: true},
		{name: "admin deletes admin", actor: Admin, action: AccountDelete, target: Admin, want: false},
		{name: "admin deletes super_admin", actor: Admin, action: AccountDelete, target: SuperAdmin, want: false},

		{name: "instructor deletes student", actor: Instructor, action: AccountDelete, target: Student, want: false},
		{name: "instructor creates student", actor: Instructor, action: AccountCreate, target: Student, want: false},
		{name: "student updates student", actor: Student, action: AccountUpdate, target: Student, want: false},

		{name: "unknown actor", actor: Role("registrar"), action: AccountCreate, target: Student, want: false},
		{name: "unknown target", actor: SuperAdmin, action: AccountCreate, target: Role("registrar"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Can(tt.actor, tt.action, tt.target); got != tt.want {
				t.Errorf("Can(%s, %s, %s) = %v, want %v", tt.actor, tt.action, tt.target, got, tt.want)
			}
		})
	}

	// missing target is always a deny for account actions
	for _, action := range accountActions {
		if Can(SuperAdmin, action) {
			t.Errorf("Can(super_admin, %s) without target = true, want false", action)
		}
	}
}

func TestCan_catalogAndGradeActions(t *testing.T) {
	tests := []struct {
		name   string
		actor  Role
		action Action
		want   bool
	}{
		{name: "super_admin creates course", actor: SuperAdmin, action: CourseCreate, want: true},
		{name: "super_admin deletes course", actor: SuperAdmin, action: CourseDelete, want: true},
		{name: "super_admin creates subject", actor: SuperAdmin, action: SubjectCreate, want: true},
		{name: "admin creates course", actor: Admin, action: CourseCreate, want: false},
		{name: "admin deletes subject", actor: Admin, action: SubjectDelete, want: false},
		{name: "instructor updates course", actor: Instructor, action: CourseUpdate, want: false},

		{name: "super_admin assigns instructors", actor: SuperAdmin, action: InstructorAssign, want: true},
		{name: "admin assigns instructors", actor: Admin, action: InstructorAssign, want: true},
		{name: "instructor assigns instructors", actor: Instructor, action: InstructorAssign, want: false},

		{name: "admin enrolls", actor: Admin, action: EnrollmentCreate, want: true},
		{name: "instructor enrolls", actor: Instructor, action: EnrollmentCreate, want: true},
		{name: "student enrolls", actor: Student, action: EnrollmentCreate, want: false},

		{name: "instructor upserts grade", actor: Instructor, action: GradeUpsert, want: true},
		{name: "instructor submits grades", actor: Instructor, action: GradeSubmit, want: true},
		{name: "admin upserts grade", actor: Admin, action: GradeUpsert, want: false},
		{name: "super_admin submits grades", actor: SuperAdmin, action: GradeSubmit, want: false},
		{name: "student upserts grade", actor: Student, action: GradeUpsert, want: false},

		{name: "student reads reports", actor: Student, action: ReportRead, want: true},
		{name: "unknown actor reads reports", actor: Role(""), action: ReportRead, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Can(tt.actor, tt.action); got != tt.want {
				t.Errorf("Can(%s, %s) = %v, want %v", tt.actor, tt.action, got, tt.want)
			}
		})
	}
}

// the predicate must be pure: identical inputs always yield identical results
func TestCan_deterministic(t *testing.T) {
	actions := []Action{
		AccountCreate, AccountUpdate, AccountDeactivate, AccountDelete,
		CourseCreate, CourseUpdate, CourseDelete, SubjectCreate, SubjectDelete,
		InstructorAssign, EnrollmentCreate, EnrollmentUpdate, GradeUpsert, GradeSubmit, ReportRead,
	}
	for _, actor := range All {
		for _, action := range actions {
			for _, target := range All {
				first := Can(actor, action, target)
				for i := 0; i < 3; i++ {
					if got := Can(actor, action, target); got != first {
						t.Fatalf("Can(%s, %s, %s) flapped: %v then %v", actor, action, target, first, got)
					}
				}
			}
		}
	}
}

func TestPriority(t *testing.T) {
	if !(Priority(SuperAdmin) > Priority(Admin) &&
		Priority(Admin) > Priority(Instructor) &&
		Priority(Instructor) > Priority(Student) &&
		Priority(Student) > 0) {
		t.Error("role hierarchy priorities out of order")
	}
	if Priority(Role("registrar")) != 0 {
		t.Error("unknown role must rank 0")
	}
}
