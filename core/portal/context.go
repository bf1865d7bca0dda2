package portal

import (
	"time"

	"github.com/eduquest/academy/core/account"
	"github.com/eduquest/academy/core/course"
)

type (
	Profile struct {
		Username    string `json:"username"`
		DisplayName string `json:"display_name"`
		Email       string `json:"email"`
	}

	// Progress summarizes how far a student is through the modules of their course.
	Progress struct {
		Percent          int    `json:"percent"`
		TotalModules     int    `json:"total_modules"`
		ModulesCompleted int    `json:"modules_completed"`
		ModulesRemaining int    `json:"modules_remaining"`
		NextModule       string `json:"next_module"`
	}

	UpcomingClass struct {
		StartsAt time.Time `json:"starts_at"`
		Date     string    `json:"date"`
		Time     string    `json:"time"`
		Topic    string    `json:"topic"`
		Teacher  string    `json:"teacher"`
	}

	StudentContext struct {
		Profile         Profile           `json:"profile"`
		StudentID       string            `json:"student_id"`
		CourseName      string            `json:"course_name"`
		Course          course.Entry      `json:"course"`
		Invoices        []account.Invoice `json:"invoices"`
		TeacherName     string            `json:"teacher_name"`
		Progress        Progress          `json:"progress"`
		UpcomingClasses []UpcomingClass   `json:"upcoming_classes"`
	}

	StudentSummary struct {
		Username        string `json:"username"`
		DisplayName     string `json:"display_name"`
		StudentID       string `json:"student_id"`
		CourseName      string `json:"course_name"`
		ProgressPercent int    `json:"progress_percent"`
		AssignedTeacher string `json:"assigned_teacher"`
	}

	// TeacherContext is the teacher dashboard. AllStudents and AllTeachers are only set for admins.
	TeacherContext struct {
		Profile          Profile          `json:"profile"`
		Status           string           `json:"status"`
		IsAdmin          bool             `json:"is_admin"`
		AssignedStudents []StudentSummary `json:"assigned_students"`
		AllStudents      []StudentSummary `json:"all_students,omitempty"`
		AllTeachers      []string         `json:"all_teachers,omitempty"`
	}

	// Context is what a dashboard template is rendered with. Exactly one of Student and Teacher is set.
	Context struct {
		Identity account.Identity `json:"identity"`
		Student  *StudentContext  `json:"student,omitempty"`
		Teacher  *TeacherContext  `json:"teacher,omitempty"`
	}

	CourseContext struct {
		DisplayName string       `json:"display_name"`
		CourseName  string       `json:"course_name"`
		Course      course.Entry `json:"course"`
		Found       bool         `json:"found"`
		Progress    Progress     `json:"progress"`
	}

	InvoicesContext struct {
		DisplayName string            `json:"display_name"`
		Invoices    []account.Invoice `json:"invoices"`
		Outstanding int64             `json:"outstanding"` // sum of unpaid amounts
	}

	// InvoiceContext backs the payment options and international transfer pages.
	InvoiceContext struct {
		Username    string          `json:"username"`
		DisplayName string          `json:"display_name"`
		Invoice     account.Invoice `json:"invoice"`
		Reference   string          `json:"reference"` // transfer reference the student must quote
	}
)

func newProfile(acc account.Account) Profile {
	return Profile{Username: acc.Username, DisplayName: acc.DisplayName, Email: acc.Email}
}

func newStudentSummary(acc account.Account) StudentSummary {
	s := StudentSummary{Username: acc.Username, DisplayName: acc.DisplayName}
	if p := acc.Student; p != nil {
		s.StudentID = p.StudentID
		s.CourseName = p.CourseName
		s.ProgressPercent = p.ProgressPercent
		s.AssignedTeacher = p.AssignedTeacher
	}
	return s
}

func summarizeStudents(accounts []account.Account) []StudentSummary {
	students := make([]StudentSummary, 0, len(accounts))
	for _, acc := range accounts {
		students = append(students, newStudentSummary(acc))
	}
	return students
}

// newProgress maps a progress percentage onto the modules of a course.
// Courses without catalog details have no modules.
func newProgress(percent int, entry course.Entry, found bool) Progress {
	if percent < 0 {
		percent = 0
	} else if percent > 100 {
		percent = 100
	}
	p := Progress{Percent: percent}
	if !found {
		return p
	}
	p.TotalModules = len(entry.Modules)
	p.ModulesCompleted = percent * p.TotalModules / 100
	p.ModulesRemaining = p.TotalModules - p.ModulesCompleted
	if p.ModulesRemaining > 0 {
		p.NextModule = entry.Modules[p.ModulesCompleted]
	}
	return p
}
