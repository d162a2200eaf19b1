package models

// User is a credential record as persisted in the fallback store
type User struct {
	ID       string `json:"id"`
	Password string `json:"password,omitempty"`
	Role     string `json:"role"`
	Created  string `json:"created"`
}

// PublicUser is the API-facing view of a user, passwords never included
type PublicUser struct {
	ID      string `json:"id"`
	Role    string `json:"role"`
	Created string `json:"created"`
}

// Public strips the password for API responses
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Role: u.Role, Created: u.Created}
}

// IsAdmin reports whether the user has the admin role
func (u User) IsAdmin() bool {
	return u.Role == "admin"
}
