package domain

// User is an account known to the identity provider. Users own books and
// documents exclusively; nothing is shared between accounts.
type User struct {
	Syncable
	Email        string `json:"email"`
	DisplayName  string `json:"display_name"`
	PasswordHash string `json:"-"`
}
