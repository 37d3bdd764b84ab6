package domain

const (
	RoleStaff = "STAFF"
	RoleAdmin = "ADMIN"
)

type User struct {
	ID    string `db:"id"`
	Email string `db:"email"`
	Name  string `db:"name"`
	Hash  string `db:"password_hash"`
	Role  string `db:"role"` // RoleStaff | RoleAdmin
}

// IsAdmin reports whether the user may reach the admin-gated endpoints.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
