package domain

type User struct {
	ID           int64   `json:"id"`
	Email        string  `json:"email"`
	PasswordHash string  `json:"-"`
	Name         *string `json:"name"`
}

// DisplayName returns the user's name, or "" when none was given.
func (u *User) DisplayName() string {
	if u.Name == nil {
		return ""
	}
	return *u.Name
}
