package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/forgo/finance-fixtures/internal/database"
	"github.com/forgo/finance-fixtures/internal/model"
)

// grantFields maps a program grant to the user field holding its program links
var grantFields = map[model.ProgramGrant]string{
	model.GrantAdmin:  "admin_programs",
	model.GrantReport: "report_programs",
	model.Grant1099:   "programs_1099",
}

// CreateUser creates a user; usernames are unique
func (s *SurrealStore) CreateUser(ctx context.Context, user *model.User) error {
	query := `
		CREATE user CONTENT {
			username: $username,
			first_name: $first_name,
			last_name: $last_name,
			email: $email,
			hash: $hash,
			is_staff: $is_staff,
			gp_admin: $gp_admin,
			can_view_1099_reports: $can_view_1099_reports,
			can_view_travel_exception_reports: $can_view_travel_exception_reports,
			can_view_travel_funding_reports: $can_view_travel_funding_reports,
			can_manage_users: $can_manage_users,
			admin_programs: [],
			report_programs: [],
			programs_1099: [],
			created_on: time::now(),
			inserted_on: time::now()
		}
	`
	var hash interface{}
	if user.Hash != nil {
		hash = *user.Hash
	}
	vars := map[string]interface{}{
		"username":                          user.Username,
		"first_name":                        user.Firstname,
		"last_name":                         user.Lastname,
		"email":                             nilIfEmpty(user.Email),
		"hash":                              hash,
		"is_staff":                          user.IsStaff,
		"gp_admin":                          user.GPAdmin,
		"can_view_1099_reports":             user.CanView1099Reports,
		"can_view_travel_exception_reports": user.CanViewTravelExceptionReports,
		"can_view_travel_funding_reports":   user.CanViewTravelFundingReports,
		"can_manage_users":                  user.CanManageUsers,
	}

	results, err := s.db.Query(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return fmt.Errorf("%w: username %q already exists", database.ErrDuplicate, user.Username)
		}
		return err
	}

	created, err := extractCreatedRecord(results)
	if err != nil {
		return err
	}
	user.ID = created.ID
	user.CreatedOn = created.CreatedOn
	return nil
}

// GetUser retrieves a user by ID, including the password hash
func (s *SurrealStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	results, err := s.db.Query(ctx, `SELECT * FROM type::record($id)`, map[string]interface{}{"id": id})
	if err != nil {
		return nil, err
	}
	user, err := decodeUser(results)
	return user, wrapNotFound(err, "user", id)
}

// GetUserByUsername retrieves a user by login name
func (s *SurrealStore) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `SELECT * FROM user WHERE username = $username LIMIT 1`
	results, err := s.db.Query(ctx, query, map[string]interface{}{"username": username})
	if err != nil {
		return nil, err
	}
	user, err := decodeUser(results)
	return user, wrapNotFound(err, "user", username)
}

// GrantProgram links a program to one of the user's grant lists
func (s *SurrealStore) GrantProgram(ctx context.Context, userID, programID string, grant model.ProgramGrant) error {
	field, ok := grantFields[grant]
	if !ok {
		return fmt.Errorf("%w: unknown grant %q", database.ErrQuery, grant)
	}
	query := fmt.Sprintf(
		`UPDATE type::record($user) SET %[1]s = array::union(%[1]s ?? [], [type::record($program)])`, field)
	results, err := s.db.Query(ctx, query, map[string]interface{}{
		"user":    userID,
		"program": programID,
	})
	if err != nil {
		return err
	}
	if _, err := database.FirstRecord(results); err != nil {
		return wrapNotFound(err, "user", userID)
	}
	return nil
}

// decodeUser decodes a user and restores the hash hidden from JSON
func decodeUser(results []interface{}) (*model.User, error) {
	rec, err := database.FirstRecord(results)
	if err != nil {
		return nil, err
	}
	user, err := decodeRecord[model.User](rec)
	if err != nil {
		return nil, err
	}
	if m, ok := rec.(map[string]interface{}); ok {
		if h, ok := m["hash"].(string); ok && h != "" {
			user.Hash = &h
		}
	}
	return user, nil
}
