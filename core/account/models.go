package account

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/slps/canteen/core"
	"github.com/slps/canteen/core/sheet"
)

type Role string

// Roles
const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleStaff   Role = "staff"
)

const (
	// TeacherClass is the class recorded on orders placed by teachers.
	TeacherClass = "Teacher"

	googlePendingPassword = "GOOGLE_AUTH_PENDING"
	googlePendingClass    = "PENDING"
)

var (
	// errors
	ErrStudentNotFound    = errors.New("student not found")
	ErrTeacherNotFound    = errors.New("teacher not found")
	ErrStaffNotFound      = errors.New("staff not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionNotFound    = errors.New("session not found")
	ErrStaffIDExists      = errors.New("a teacher with this staff id already exists")
	ErrUserIDExists       = errors.New("a student with this user id already exists")
	ErrBadSchoolEmail     = errors.New("invalid school email format")
)

// column aliases, as found in the school's sheets
var (
	colAdmissionID = []string{"admissionId", "Admission ID", "admissionNo"}
	colUserID      = []string{"userId", "User ID"}
	colName        = []string{"name", "userName", "Student Name"}
	colPassword    = []string{"password"}
	colEmail       = []string{"email", "E-mail"}
	colClass       = []string{"className", "Class"}
	colStaffID     = []string{"staffId", "Staff ID"}
)

type (
	Student struct {
		AdmissionID  string `json:"admissionId"`
		UserID       string `json:"userId"`
		Name         string `json:"name"`
		Email        string `json:"email"`
		ClassName    string `json:"className"`
		PasswordHash string `json:"-"`
	}

	Teacher struct {
		StaffID      string `json:"staffId"`
		Name         string `json:"name"`
		Email        string `json:"email"`
		PasswordHash string `json:"-"`
	}

	Staff struct {
		StaffID      string `json:"staffId"`
		Name         string `json:"name"`
		Email        string `json:"email"`
		PasswordHash string `json:"-"`
	}

	// NewStudent contains information needed to register a Student.
	// UserID is only set when completing a pending Google registration.
	NewStudent struct {
		Name        string `json:"name" form:"name" validate:"notblank"`
		Email       string `json:"email" form:"email" validate:"notblank,email"`
		Password    string `json:"password" form:"password" validate:"notblank"`
		AdmissionID string `json:"admissionId" form:"admissionId" validate:"notblank"`
		ClassName   string `json:"className" form:"className" validate:"notblank"`
		UserID      string `json:"userId" form:"userId"`
	}

	NewTeacher struct {
		Name     string `json:"name" form:"name" validate:"notblank"`
		StaffID  string `json:"staffId" form:"staffId" validate:"notblank"`
		Password string `json:"password" form:"password" validate:"notblank"`
		Email    string `json:"email" form:"email" validate:"notblank,email"`
	}

	GoogleStudent struct {
		Email string `json:"email" form:"email" validate:"notblank,email"`
		Name  string `json:"name" form:"name" validate:"notblank"`
	}

	StudentLogin struct {
		UserID   string `json:"userId" form:"userId" validate:"notblank"`
		Password string `json:"password" form:"password" validate:"notblank"`
	}

	StaffLogin struct {
		StaffID  string `json:"staffId" form:"staffId" validate:"notblank"`
		Password string `json:"password" form:"password" validate:"notblank"`
	}

	// Session is the server-side state of a logged-in user.
	Session struct {
		ID        string    `json:"-"`
		LoggedIn  bool      `json:"loggedIn"`
		UserID    string    `json:"userId"`
		Role      Role      `json:"role"`
		Name      string    `json:"name"`
		Email     string    `json:"email,omitempty"`
		ClassName string    `json:"className,omitempty"`
		CreatedAt time.Time `json:"createdAt"`
	}

	SessionStore interface {
		Save(ctx context.Context, sess Session, ttl time.Duration) error
		// Get returns ErrSessionNotFound for unknown or expired sessions.
		Get(ctx context.Context, id string) (Session, error)
		Delete(ctx context.Context, id string) error
	}
)

func (nu *NewStudent) clean() {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.AdmissionID = core.CleanString(nu.AdmissionID)
	nu.ClassName = core.CleanString(nu.ClassName)
	nu.UserID = core.CleanString(nu.UserID)
}

func (nt *NewTeacher) clean() {
	nt.Name = core.CleanString(nt.Name)
	nt.StaffID = core.CleanString(nt.StaffID)
	nt.Email = core.CleanString(nt.Email, true /* lower */)
}

// Is reports whether the session belongs to a logged-in user with one of `roles`.
func (s Session) Is(roles ...Role) bool {
	if !s.LoggedIn {
		return false
	}
	for _, r := range roles {
		if s.Role == r {
			return true
		}
	}
	return false
}

func (s Session) Person() core.Person {
	return core.Person{ID: string(s.Role) + ":" + s.UserID, Name: s.Name, Email: s.Email}
}

func studentFromRow(t *sheet.Table, i int) Student {
	return Student{
		AdmissionID:  t.Value(i, colAdmissionID...),
		UserID:       t.Value(i, colUserID...),
		Name:         t.Value(i, colName...),
		Email:        t.Value(i, colEmail...),
		ClassName:    t.Value(i, colClass...),
		PasswordHash: t.Value(i, colPassword...),
	}
}

func teacherFromRow(t *sheet.Table, i int) Teacher {
	return Teacher{
		StaffID:      t.Value(i, colStaffID...),
		Name:         t.Value(i, colName...),
		Email:        t.Value(i, colEmail...),
		PasswordHash: t.Value(i, colPassword...),
	}
}

func staffFromRow(t *sheet.Table, i int) Staff {
	return Staff{
		StaffID:      t.Value(i, colStaffID...),
		Name:         t.Value(i, colName...),
		Email:        t.Value(i, colEmail...),
		PasswordHash: t.Value(i, colPassword...),
	}
}
