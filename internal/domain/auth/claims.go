package auth

type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

// CanReview reports whether the role may decide corrections and exceptions.
func (r Role) CanReview() bool {
	return r == RoleManager || r == RoleAdmin
}

// Claims is the caller identity carried by an access token.
type Claims struct {
	UserID     string
	EmployeeID string
	Role       Role
}

// ClaimsFromMap reads the claims set by jwt.Service. Missing fields are left empty.
func ClaimsFromMap(m map[string]interface{}) Claims {
	var c Claims
	c.UserID, _ = m["user_id"].(string)
	c.EmployeeID, _ = m["employee_id"].(string)
	if role, ok := m["role"].(string); ok {
		c.Role = Role(role)
	}
	return c
}
