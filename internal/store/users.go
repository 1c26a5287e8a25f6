package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/erazemk/najdeno/internal/model"
)

const userColumns = `id, university_id, name, contact_info, phone_number, roles, created_at`

// CreateUser creates a new user. The ID is assigned here.
func CreateUser(ctx context.Context, db *sql.DB, u *model.User) (*model.User, error) {
	id := uuid.NewString()
	roles := u.Roles
	if len(roles) == 0 {
		roles = []model.Role{model.RoleUser}
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO users (id, university_id, name, contact_info, phone_number, roles)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, u.UniversityID, u.Name, nullString(u.ContactInfo), nullString(u.PhoneNumber), joinRoles(roles),
	)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	return GetUser(ctx, db, id)
}

// GetUser returns a user by ID, or nil if it does not exist.
func GetUser(ctx context.Context, db *sql.DB, id string) (*model.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetUserByUniversityID returns a user by university ID, or nil if it does not exist.
func GetUserByUniversityID(ctx context.Context, db *sql.DB, universityID string) (*model.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE university_id = ?`, universityID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by university id: %w", err)
	}
	return u, nil
}

// ListUsers returns all users.
func ListUsers(ctx context.Context, db *sql.DB) ([]model.User, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY university_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// SetUserRoles replaces a user's roles. It reports whether the user exists.
func SetUserRoles(ctx context.Context, db *sql.DB, id string, roles []model.Role) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE users SET roles = ? WHERE id = ?`, joinRoles(roles), id,
	)
	if err != nil {
		return false, fmt.Errorf("updating user roles: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking updated rows: %w", err)
	}
	return n > 0, nil
}

func scanUser(s rowScanner) (*model.User, error) {
	var u model.User
	var contact, phone sql.NullString
	var roles string
	if err := s.Scan(&u.ID, &u.UniversityID, &u.Name, &contact, &phone, &roles, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.ContactInfo = contact.String
	u.PhoneNumber = phone.String
	u.Roles = splitRoles(roles)
	return &u, nil
}

// joinRoles stores roles as a comma-separated list, deduplicated and sorted.
func joinRoles(roles []model.Role) string {
	set := model.NewRoleSet(roles...).Slice()
	parts := make([]string, len(set))
	for i, r := range set {
		parts[i] = string(r)
	}
	return strings.Join(parts, ",")
}

// splitRoles parses a stored role list. Unknown entries are dropped.
func splitRoles(s string) []model.Role {
	var roles []model.Role
	for _, part := range strings.Split(s, ",") {
		if r, ok := model.ParseRole(part); ok {
			roles = append(roles, r)
		}
	}
	return roles
}
