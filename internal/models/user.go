package models

// User is an editor account.
type User struct {
	ID          int
	Username    string
	DisplayName string
}

// Identity represents a user's authentication method.
type Identity struct {
	ID             int
	UserID         int
	Provider       string
	ProviderUserID string
	PasswordHash   *string
}
