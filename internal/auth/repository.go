package auth

import (
	"database/sql"
	"fmt"

	"arbor/internal/models"
)

// Repository provides access to the user storage.
type Repository struct {
	DB *sql.DB
}

// NewRepository creates a new auth repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{DB: db}
}

// FindUserByUsername finds a user by username.
func (r *Repository) FindUserByUsername(username string) (*models.User, error) {
	var user models.User
	err := r.DB.QueryRow(
		"SELECT id, username, display_name FROM users WHERE username = ?", username).
		Scan(&user.ID, &user.Username, &user.DisplayName)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindIdentityByProvider finds an identity by provider and provider user id.
func (r *Repository) FindIdentityByProvider(provider, providerUserID string) (*models.Identity, error) {
	var identity models.Identity
	err := r.DB.QueryRow(
		"SELECT id, user_id, provider, provider_user_id, password_hash FROM identities WHERE provider = ? AND provider_user_id = ?",
		provider, providerUserID).
		Scan(&identity.ID, &identity.UserID, &identity.Provider, &identity.ProviderUserID, &identity.PasswordHash)
	if err != nil {
		return nil, err
	}
	return &identity, nil
}

// CreateUser creates a user together with their identity in a transaction.
func (r *Repository) CreateUser(user *models.User, identity *models.Identity) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec("INSERT INTO users (username, display_name) VALUES (?, ?)",
		user.Username, user.DisplayName)
	if err != nil {
		return fmt.Errorf("error creating user: %w", err)
	}
	userID, _ := res.LastInsertId()
	user.ID = int(userID)

	_, err = tx.Exec(
		"INSERT INTO identities (user_id, provider, provider_user_id, password_hash) VALUES (?, ?, ?, ?)",
		user.ID, identity.Provider, identity.ProviderUserID, identity.PasswordHash)
	if err != nil {
		return fmt.Errorf("error creating identity: %w", err)
	}

	return tx.Commit()
}
