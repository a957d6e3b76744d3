package dto

import (
	"time"

	"github.com/qa327/ticket-marketplace/internal/domain"
)

// UserRegisterRequest payload for new users.
type UserRegisterRequest struct {
	Name      string `json:"name" form:"name"`
	Email     string `json:"email" form:"email"`
	Password  string `json:"password" form:"password"`
	Password2 string `json:"password2" form:"password2"`
}

// UserLoginRequest payload for login.
type UserLoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}

// ProfileResponse is the caller's account with the ticket board and the
// caller's purchase history.
type ProfileResponse struct {
	User      UserResponse      `json:"user"`
	Tickets   []TicketResponse  `json:"tickets"`
	Purchases []PurchaseSummary `json:"purchases"`
}

// NewUserResponse maps a user without its credential.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Balance:   u.Balance,
		CreatedAt: u.CreatedAt,
	}
}
