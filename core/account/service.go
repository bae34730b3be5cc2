package account

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/slps/canteen/core"
	"github.com/slps/canteen/core/sheet"
)

type Service struct {
	conf     *core.Config
	store    sheet.Store
	sessions SessionStore
	validate *validator.Validate
}

func NewService(conf *core.Config, store sheet.Store, sessions SessionStore, validate *validator.Validate) *Service {
	return &Service{
		conf:     conf,
		store:    store,
		sessions: sessions,
		validate: validate,
	}
}

// Counts are the number of registered accounts per role.
type Counts struct {
	Students int `json:"totalStudents"`
	Staff    int `json:"totalStaff"`
	Teachers int `json:"totalTeachers"`
}

// Sessions

// StartSession stores a new logged-in session for the given user.
func (svc *Service) StartSession(ctx context.Context, sess Session) (Session, error) {
	sess.ID = uuid.NewString()
	sess.LoggedIn = true
	sess.CreatedAt = time.Now().UTC()
	if err := svc.sessions.Save(ctx, sess, svc.conf.Server.SessionTTL); err != nil {
		return Session{}, errors.Wrap(err, "saving session")
	}
	return sess, nil
}

func (svc *Service) GetSession(ctx context.Context, id string) (Session, error) {
	return svc.sessions.Get(ctx, id)
}

func (svc *Service) EndSession(ctx context.Context, id string) error {
	return svc.sessions.Delete(ctx, id)
}

// Students

// RegisterStudent appends a new student with the next user id. When nu.UserID names a student
// left pending by a Google sign-up, that row is completed instead.
func (svc *Service) RegisterStudent(ctx context.Context, nu NewStudent) (Student, error) {
	nu.clean()
	if err := svc.validate.Struct(nu); err != nil {
		return Student{}, err
	}
	hash, err := HashPassword(nu.Password)
	if err != nil {
		return Student{}, errors.Wrap(err, "hashing password")
	}

	unlock := sheet.Lock(sheet.Students)
	defer unlock()

	t, err := sheet.Load(ctx, svc.store, sheet.Students)
	if err != nil {
		return Student{}, err
	}

	std := Student{
		AdmissionID:  nu.AdmissionID,
		UserID:       nu.UserID,
		Name:         nu.Name,
		Email:        nu.Email,
		ClassName:    nu.ClassName,
		PasswordHash: hash,
	}
	idx := -1
	if std.UserID != "" {
		if idx = t.Find(std.UserID, colUserID...); idx >= 0 && !isPending(studentFromRow(t, idx)) {
			return Student{}, core.NewValidationError(nil, core.FieldError{Field: "userId", Error: ErrUserIDExists.Error()})
		}
	} else {
		std.UserID = sheet.NextID(t, colUserID...)
	}

	row := studentRow(t, std)
	if idx >= 0 {
		err = svc.store.UpdateRow(ctx, sheet.Students, idx, row)
	} else {
		err = svc.store.Append(ctx, sheet.Students, row)
	}
	if err != nil {
		return Student{}, errors.Wrap(err, "saving student")
	}
	return std, nil
}

// ParseSchoolEmail extracts the admission id from a school email: s.18.20@slps.one -> 18/20.
func (svc *Service) ParseSchoolEmail(email string) (string, error) {
	email = core.CleanString(email, true /* lower */)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return "", ErrBadSchoolEmail
	}
	local, domain := email[:at], email[at+1:]
	if svc.conf.SchoolDomain != "" && !strings.EqualFold(domain, svc.conf.SchoolDomain) {
		return "", ErrBadSchoolEmail
	}
	parts := strings.Split(local, ".")
	if len(parts) < 3 || parts[1] == "" || parts[2] == "" {
		return "", ErrBadSchoolEmail
	}
	return parts[1] + "/" + parts[2], nil
}

// RegisterGoogleStudent records a student signed in with their school Google account.
// The row stays pending until completed with RegisterStudent.
func (svc *Service) RegisterGoogleStudent(ctx context.Context, gs GoogleStudent) (Student, error) {
	gs.Email = core.CleanString(gs.Email, true /* lower */)
	gs.Name = core.CleanString(gs.Name)
	if err := svc.validate.Struct(gs); err != nil {
		return Student{}, err
	}
	admissionID, err := svc.ParseSchoolEmail(gs.Email)
	if err != nil {
		return Student{}, core.NewValidationError(nil, core.FieldError{
			Field: "email",
			Error: "invalid email format, expected: s.XX.YY@" + svc.conf.SchoolDomain,
		})
	}
	hash, err := HashPassword(googlePendingPassword)
	if err != nil {
		return Student{}, errors.Wrap(err, "hashing password")
	}

	unlock := sheet.Lock(sheet.Students)
	defer unlock()

	t, err := sheet.Load(ctx, svc.store, sheet.Students)
	if err != nil {
		return Student{}, err
	}
	std := Student{
		AdmissionID:  admissionID,
		UserID:       sheet.NextID(t, colUserID...),
		Name:         gs.Name,
		Email:        gs.Email,
		ClassName:    googlePendingClass,
		PasswordHash: hash,
	}
	if err = svc.store.Append(ctx, sheet.Students, studentRow(t, std)); err != nil {
		return Student{}, errors.Wrap(err, "saving student")
	}
	return std, nil
}

func isPending(std Student) bool {
	return std.ClassName == googlePendingClass || CheckPassword(std.PasswordHash, googlePendingPassword, false)
}

func studentRow(t *sheet.Table, std Student) []string {
	if len(t.Header) == 0 {
		t.Header = sheet.Headers[sheet.Students]
	}
	return t.Row(map[string]string{
		t.HeaderFor(colAdmissionID...): std.AdmissionID,
		t.HeaderFor(colUserID...):      std.UserID,
		t.HeaderFor(colName...):        std.Name,
		t.HeaderFor(colPassword...):    std.PasswordHash,
		t.HeaderFor(colEmail...):       std.Email,
		t.HeaderFor(colClass...):       std.ClassName,
	})
}

func (svc *Service) AuthenticateStudent(ctx context.Context, login StudentLogin) (Student, error) {
	login.UserID = core.CleanString(login.UserID)
	if err := svc.validate.Struct(login); err != nil {
		return Student{}, err
	}
	std, err := svc.GetStudent(ctx, login.UserID)
	if err != nil {
		if errors.Cause(err) == ErrStudentNotFound {
			return Student{}, ErrInvalidCredentials
		}
		return Student{}, err
	}
	if isPending(std) || !CheckPassword(std.PasswordHash, login.Password, false) {
		return Student{}, ErrInvalidCredentials
	}
	return std, nil
}

func (svc *Service) GetStudent(ctx context.Context, userID string) (Student, error) {
	t, err := sheet.Load(ctx, svc.store, sheet.Students)
	if err != nil {
		return Student{}, err
	}
	idx := t.Find(userID, colUserID...)
	if idx < 0 || userID == "" {
		return Student{}, ErrStudentNotFound
	}
	return studentFromRow(t, idx), nil
}

func (svc *Service) ListStudents(ctx context.Context) ([]Student, error) {
	t, err := sheet.Load(ctx, svc.store, sheet.Students)
	if err != nil {
		return nil, err
	}
	students := make([]Student, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		students = append(students, studentFromRow(t, i))
	}
	return students, nil
}

// Teachers

func (svc *Service) RegisterTeacher(ctx context.Context, nt NewTeacher) (Teacher, error) {
	nt.clean()
	if err := svc.validate.Struct(nt); err != nil {
		return Teacher{}, err
	}
	hash, err := HashPassword(nt.Password)
	if err != nil {
		return Teacher{}, errors.Wrap(err, "hashing password")
	}

	unlock := sheet.Lock(sheet.Teachers)
	defer unlock()

	t, err := sheet.Load(ctx, svc.store, sheet.Teachers)
	if err != nil {
		return Teacher{}, err
	}
	if t.FindFold(nt.StaffID, colStaffID...) >= 0 {
		return Teacher{}, core.NewValidationError(nil, core.FieldError{Field: "staffId", Error: ErrStaffIDExists.Error()})
	}

	tch := Teacher{StaffID: nt.StaffID, Name: nt.Name, Email: nt.Email, PasswordHash: hash}
	if len(t.Header) == 0 {
		t.Header = sheet.Headers[sheet.Teachers]
	}
	row := t.Row(map[string]string{
		t.HeaderFor(colName...):     tch.Name,
		t.HeaderFor(colStaffID...):  tch.StaffID,
		t.HeaderFor(colPassword...): tch.PasswordHash,
		t.HeaderFor(colEmail...):    tch.Email,
	})
	if err = svc.store.Append(ctx, sheet.Teachers, row); err != nil {
		return Teacher{}, errors.Wrap(err, "saving teacher")
	}
	return tch, nil
}

func (svc *Service) AuthenticateTeacher(ctx context.Context, login StaffLogin) (Teacher, error) {
	login.StaffID = core.CleanString(login.StaffID)
	if err := svc.validate.Struct(login); err != nil {
		return Teacher{}, err
	}
	tch, err := svc.GetTeacher(ctx, login.StaffID)
	if err != nil {
		if errors.Cause(err) == ErrTeacherNotFound {
			return Teacher{}, ErrInvalidCredentials
		}
		return Teacher{}, err
	}
	if !CheckPassword(tch.PasswordHash, login.Password, false) {
		return Teacher{}, ErrInvalidCredentials
	}
	return tch, nil
}

func (svc *Service) GetTeacher(ctx context.Context, staffID string) (Teacher, error) {
	t, err := sheet.Load(ctx, svc.store, sheet.Teachers)
	if err != nil {
		return Teacher{}, err
	}
	idx := t.FindFold(staffID, colStaffID...)
	if idx < 0 || staffID == "" {
		return Teacher{}, ErrTeacherNotFound
	}
	return teacherFromRow(t, idx), nil
}

func (svc *Service) ListTeachers(ctx context.Context) ([]Teacher, error) {
	t, err := sheet.Load(ctx, svc.store, sheet.Teachers)
	if err != nil {
		return nil, err
	}
	teachers := make([]Teacher, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		teachers = append(teachers, teacherFromRow(t, i))
	}
	return teachers, nil
}

// Staff

// StaffLoginID appends the school domain to bare staff ids: "s.18.20" -> "s.18.20@slps.one".
func (svc *Service) StaffLoginID(staffID string) string {
	staffID = core.CleanString(staffID)
	if staffID != "" && !strings.Contains(staffID, "@") && svc.conf.SchoolDomain != "" {
		return staffID + "@" + svc.conf.SchoolDomain
	}
	return staffID
}

// AuthenticateStaff accepts hashed and legacy plaintext staff passwords.
func (svc *Service) AuthenticateStaff(ctx context.Context, login StaffLogin) (Staff, error) {
	login.StaffID = svc.StaffLoginID(login.StaffID)
	if err := svc.validate.Struct(login); err != nil {
		return Staff{}, err
	}
	stf, err := svc.GetStaff(ctx, login.StaffID)
	if err != nil {
		if errors.Cause(err) == ErrStaffNotFound {
			return Staff{}, ErrInvalidCredentials
		}
		return Staff{}, err
	}
	if !CheckPassword(stf.PasswordHash, login.Password, true) {
		return Staff{}, ErrInvalidCredentials
	}
	return stf, nil
}

func (svc *Service) GetStaff(ctx context.Context, staffID string) (Staff, error) {
	t, err := sheet.Load(ctx, svc.store, sheet.Staff)
	if err != nil {
		return Staff{}, err
	}
	idx := t.FindFold(staffID, append(colStaffID, colAdmissionID...)...)
	if idx < 0 || staffID == "" {
		return Staff{}, ErrStaffNotFound
	}
	return staffFromRow(t, idx), nil
}

func (svc *Service) ListStaff(ctx context.Context) ([]Staff, error) {
	t, err := sheet.Load(ctx, svc.store, sheet.Staff)
	if err != nil {
		return nil, err
	}
	staff := make([]Staff, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		staff = append(staff, staffFromRow(t, i))
	}
	return staff, nil
}

// AddStaff updates or creates a staff member.
func (svc *Service) AddStaff(ctx context.Context, staffID, name, email, pwd string) (Staff, bool, error) {
	staffID = svc.StaffLoginID(staffID)
	if staffID == "" {
		return Staff{}, false, core.NewValidationError(nil, core.FieldError{Field: "staffId", Error: "this field is required"})
	}
	if err := CheckPasswordPolicy(pwd, staffID, name, email); err != nil {
		return Staff{}, false, err
	}
	hash, err := HashPassword(pwd)
	if err != nil {
		return Staff{}, false, errors.Wrap(err, "hashing password")
	}

	unlock := sheet.Lock(sheet.Staff)
	defer unlock()

	t, err := sheet.Load(ctx, svc.store, sheet.Staff)
	if err != nil {
		return Staff{}, false, err
	}
	if len(t.Header) == 0 {
		t.Header = sheet.Headers[sheet.Staff]
	}

	stf := Staff{StaffID: staffID, Name: core.CleanString(name), Email: core.CleanString(email, true), PasswordHash: hash}
	idx := t.FindFold(staffID, colStaffID...)
	if idx >= 0 {
		old := staffFromRow(t, idx)
		if stf.Name == "" {
			stf.Name = old.Name
		}
		if stf.Email == "" {
			stf.Email = old.Email
		}
	}
	row := t.Row(map[string]string{
		t.HeaderFor(colStaffID...):  stf.StaffID,
		t.HeaderFor(colPassword...): stf.PasswordHash,
		t.HeaderFor(colName...):     stf.Name,
		t.HeaderFor(colEmail...):    stf.Email,
	})
	if idx >= 0 {
		err = svc.store.UpdateRow(ctx, sheet.Staff, idx, mergeRow(t.Rows[idx], row))
	} else {
		err = svc.store.Append(ctx, sheet.Staff, row)
	}
	if err != nil {
		return Staff{}, false, errors.Wrap(err, "saving staff")
	}
	return stf, idx < 0, nil
}

// ResetPassword sets a new password on the account identified by role and id.
func (svc *Service) ResetPassword(ctx context.Context, role Role, id, pwd string) error {
	var (
		table   string
		aliases []string
	)
	switch role {
	case RoleStudent:
		table, aliases = sheet.Students, colUserID
	case RoleTeacher:
		table, aliases = sheet.Teachers, colStaffID
	case RoleStaff:
		table, aliases = sheet.Staff, colStaffID
		id = svc.StaffLoginID(id)
	default:
		return core.NewValidationError(errors.Errorf("unknown role %q", role))
	}
	if err := CheckPasswordPolicy(pwd, id); err != nil {
		return err
	}
	hash, err := HashPassword(pwd)
	if err != nil {
		return errors.Wrap(err, "hashing password")
	}

	t, err := sheet.Load(ctx, svc.store, table)
	if err != nil {
		return err
	}
	idx := t.FindFold(id, aliases...)
	pwdCol := t.Column(colPassword...)
	if idx < 0 || id == "" {
		switch role {
		case RoleStudent:
			return ErrStudentNotFound
		case RoleTeacher:
			return ErrTeacherNotFound
		}
		return ErrStaffNotFound
	}
	if pwdCol < 0 {
		return errors.Errorf("%s has no password column", table)
	}
	return errors.Wrap(svc.store.UpdateCell(ctx, table, idx, pwdCol, hash), "saving password")
}

// Count returns the number of accounts per role.
func (svc *Service) Count(ctx context.Context) (Counts, error) {
	var counts Counts
	for table, dst := range map[string]*int{
		sheet.Students: &counts.Students,
		sheet.Staff:    &counts.Staff,
		sheet.Teachers: &counts.Teachers,
	} {
		t, err := sheet.Load(ctx, svc.store, table)
		if err != nil {
			return Counts{}, err
		}
		*dst = t.Len()
	}
	return counts, nil
}

// mergeRow overlays the non-empty cells of `row` on `old`.
func mergeRow(old, row []string) []string {
	out := make([]string, len(row))
	copy(out, row)
	for i := range out {
		if out[i] == "" && i < len(old) {
			out[i] = old[i]
		}
	}
	return out
}
