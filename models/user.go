package models

// UserRole defines allowed roles in the system
type UserRole string

const (
	RoleAdmin UserRole = "admin"
)

// AdminUser is the console operator. There is a single one, configured at start-up.
type AdminUser struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Role  UserRole `json:"role"`
}
