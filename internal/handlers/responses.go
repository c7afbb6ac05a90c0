package handlers

import (
	"time"

	"navio/api/internal/models"
)

// userResponse is the wire shape for a user profile. The password hash
// never leaves the repository layer.
type userResponse struct {
	ID            string     `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	Role          string     `json:"role"`
	EmailVerified bool       `json:"emailVerified"`
	DeletedAt     *time.Time `json:"deletedAt"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func redactUser(u models.User) userResponse {
	return userResponse{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		Role:          string(u.Role),
		EmailVerified: u.Verified(),
		DeletedAt:     u.DeletedAt,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func redactUsers(users []models.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, redactUser(u))
	}
	return out
}

// nullableCursor turns the empty cursor into an explicit JSON null so
// clients can test nextCursor without special-casing "".
func nullableCursor(cursor string) any {
	if cursor == "" {
		return nil
	}
	return cursor
}
