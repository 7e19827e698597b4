package domain

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

type User struct {
	Username    string
	Role        Role
	DisplayName string
	Description string
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
