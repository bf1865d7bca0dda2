package account

import (
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

var (
	HashCost = bcrypt.DefaultCost // mockable; tests lower it to bcrypt.MinCost

	errUnknownRole          = errors.New("unknown role")
	errUnknownUserType      = errors.New("unknown user type")
	errUnknownInvoiceStatus = errors.New("unknown invoice status")
)

// Role is the closed set of account roles.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin" // privileged teacher
)

var Roles = []Role{RoleStudent, RoleTeacher, RoleAdmin}

func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return r, nil
	}
	return "", errors.Wrapf(errUnknownRole, "%q", s)
}

// UserType is the portal an account signs in through.
func (r Role) UserType() UserType {
	if r == RoleStudent {
		return UserTypeStudent
	}
	return UserTypeTeacher
}

func (r Role) IsAdmin() bool { return r == RoleAdmin }

// UserType selects the login entry point and the set of pages an identity may visit.
type UserType string

const (
	UserTypeStudent UserType = "student"
	UserTypeTeacher UserType = "teacher"
)

func ParseUserType(s string) (UserType, error) {
	switch t := UserType(s); t {
	case UserTypeStudent, UserTypeTeacher:
		return t, nil
	}
	return "", errors.Wrapf(errUnknownUserType, "%q", s)
}

// LoginRoute is the page anonymous and wrong-role visitors are sent to.
func (t UserType) LoginRoute() string {
	if t == UserTypeStudent {
		return "/student_login"
	}
	return "/teacher_login"
}

// DashboardRoute is the landing page after a successful login.
func (t UserType) DashboardRoute() string {
	if t == UserTypeStudent {
		return "/student_dashboard"
	}
	return "/teacher_dashboard"
}

type TeacherProfile struct {
	Status string `json:"status"`
}

type StudentProfile struct {
	StudentID       string    `json:"student_id"`
	AssignedTeacher string    `json:"assigned_teacher"` // teacher username
	CourseName      string    `json:"course_name"`
	ProgressPercent int       `json:"progress_percent"`
	NextClass       time.Time `json:"next_class"`
}

// Account is a stored credential record. Exactly one of Teacher and Student is set, according to Role.
type Account struct {
	Username     string          `json:"username"`
	PasswordHash []byte          `json:"-"`
	DisplayName  string          `json:"display_name"`
	Role         Role            `json:"role"`
	Email        string          `json:"email"`
	Teacher      *TeacherProfile `json:"teacher,omitempty"`
	Student      *StudentProfile `json:"student,omitempty"`
}

func (a *Account) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), HashCost)
	if err != nil {
		return err
	}
	a.PasswordHash = hash
	return nil
}

// CheckPassword compares pwd with the stored salted hash in constant time.
func (a *Account) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(pwd))
}

func (a Account) UserType() UserType { return a.Role.UserType() }
func (a Account) IsAdmin() bool      { return a.Role.IsAdmin() }
func (a Account) IsStudent() bool    { return a.Role == RoleStudent }

// Validate checks the invariants shared by every storage backend.
func (a Account) Validate() error {
	if a.Username == "" {
		return errors.New("username is required")
	}
	if _, err := ParseRole(string(a.Role)); err != nil {
		return err
	}
	if a.IsStudent() && a.Student == nil {
		return errors.Errorf("student %q has no student profile", a.Username)
	}
	if !a.IsStudent() && a.Teacher == nil {
		return errors.Errorf("teacher %q has no teacher profile", a.Username)
	}
	return nil
}

type InvoiceStatus string

const (
	InvoicePaid   InvoiceStatus = "Paid"
	InvoiceUnpaid InvoiceStatus = "Unpaid"
)

func ParseInvoiceStatus(s string) (InvoiceStatus, error) {
	switch st := InvoiceStatus(s); st {
	case InvoicePaid, InvoiceUnpaid:
		return st, nil
	}
	return "", errors.Wrapf(errUnknownInvoiceStatus, "%q", s)
}

// Invoice is owned by exactly one student. IDs follow the INV-YYYYMMDD scheme.
type Invoice struct {
	ID        string        `json:"id"`
	IssueDate time.Time     `json:"issue_date"`
	Amount    int64         `json:"amount"` // minor currency unit
	Status    InvoiceStatus `json:"status"`
}

func (inv Invoice) IsPaid() bool { return inv.Status == InvoicePaid }

func (inv Invoice) Validate() error {
	if inv.ID == "" {
		return errors.New("invoice id is required")
	}
	if inv.Amount <= 0 {
		return errors.Errorf("invoice %s: amount must be positive", inv.ID)
	}
	_, err := ParseInvoiceStatus(string(inv.Status))
	return err
}

var ErrDuplicateInvoice = errors.New("invoice id used twice for the same student")

// ValidateInvoices checks each invoice of one student and rejects repeated ids.
func ValidateInvoices(invoices []Invoice) error {
	seen := make(map[string]struct{}, len(invoices))
	for _, inv := range invoices {
		if err := inv.Validate(); err != nil {
			return errors.Wrap(err, "validating invoice")
		}
		if _, ok := seen[inv.ID]; ok {
			return errors.Wrap(ErrDuplicateInvoice, inv.ID)
		}
		seen[inv.ID] = struct{}{}
	}
	return nil
}
