package models

// User captures application-facing fields for an authenticated identity.
type User struct {
	ID       int64  `json:"id" yaml:"id"`
	Username string `json:"username" yaml:"username"`
	FullName string `json:"full_name" yaml:"full_name"`
	Email    string `json:"email" yaml:"email"`
	Role     int    `json:"role" yaml:"role"`
	Disabled bool   `json:"disabled" yaml:"disabled"`
}

// UserCredential pairs a user with its stored password hash. It never leaves
// the storage and auth packages.
type UserCredential struct {
	User         `yaml:",inline"`
	PasswordHash string `json:"-" yaml:"password_hash"`
}
