package model

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ProgramGrant names a per-program permission held by a user
type ProgramGrant string

const (
	GrantAdmin  ProgramGrant = "admin"  // Program administration pages
	GrantReport ProgramGrant = "report" // Finance reports
	Grant1099   ProgramGrant = "1099"   // 1099 tax reports
)

// ValidProgramGrants lists every grant the store accepts
var ValidProgramGrants = []ProgramGrant{GrantAdmin, GrantReport, Grant1099}

// IsValid reports whether g is a known grant
func (g ProgramGrant) IsValid() bool {
	for _, v := range ValidProgramGrants {
		if g == v {
			return true
		}
	}
	return false
}

// User represents an application login.
// Flags mirror the permission columns of the application under test.
type User struct {
	ID        string  `json:"id"`
	Username  string  `json:"username"`
	Firstname string  `json:"first_name"`
	Lastname  string  `json:"last_name"`
	Email     string  `json:"email"`
	Hash      *string `json:"-"` // Never expose password hash

	IsStaff                       bool `json:"is_staff"`
	GPAdmin                       bool `json:"gp_admin"`
	CanView1099Reports            bool `json:"can_view_1099_reports"`
	CanViewTravelExceptionReports bool `json:"can_view_travel_exception_reports"`
	CanViewTravelFundingReports   bool `json:"can_view_travel_funding_reports"`
	CanManageUsers                bool `json:"can_manage_users"`

	AdminPrograms  []string `json:"admin_programs,omitempty"`
	ReportPrograms []string `json:"report_programs,omitempty"`
	Programs1099   []string `json:"programs_1099,omitempty"`

	CreatedOn time.Time `json:"created_on"`
}

// FullName returns "First Last"
func (u *User) FullName() string {
	switch {
	case u.Firstname == "":
		return u.Lastname
	case u.Lastname == "":
		return u.Firstname
	}
	return u.Firstname + " " + u.Lastname
}

// CheckPassword compares a plaintext password with the stored hash
func (u *User) CheckPassword(password string) error {
	if u.Hash == nil {
		return bcrypt.ErrMismatchedHashAndPassword
	}
	return bcrypt.CompareHashAndPassword([]byte(*u.Hash), []byte(password))
}

// HasGrant reports whether the user holds grant on programID
func (u *User) HasGrant(programID string, grant ProgramGrant) bool {
	for _, id := range u.grantList(grant) {
		if id == programID {
			return true
		}
	}
	return false
}

// AddGrant records grant on programID, ignoring duplicates
func (u *User) AddGrant(programID string, grant ProgramGrant) {
	if u.HasGrant(programID, grant) {
		return
	}
	switch grant {
	case GrantAdmin:
		u.AdminPrograms = append(u.AdminPrograms, programID)
	case GrantReport:
		u.ReportPrograms = append(u.ReportPrograms, programID)
	case Grant1099:
		u.Programs1099 = append(u.Programs1099, programID)
	}
}

func (u *User) grantList(grant ProgramGrant) []string {
	switch grant {
	case GrantAdmin:
		return u.AdminPrograms
	case GrantReport:
		return u.ReportPrograms
	case Grant1099:
		return u.Programs1099
	}
	return nil
}

// Validate checks required user fields
func (u *User) Validate() error {
	var errs []FieldError
	if u.Username == "" {
		errs = append(errs, FieldError{Field: "username", Message: "username is required"})
	}
	if len(u.Username) > MaxUsernameLength {
		errs = append(errs, FieldError{Field: "username", Message: "username is too long"})
	}
	return validationOrNil("user", errs)
}

// MaxUsernameLength matches the login form limit of the application under test
const MaxUsernameLength = 150
