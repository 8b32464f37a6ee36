package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// SignupRequest creates an account. At least one platform handle is required.
type SignupRequest struct {
	Username           string `json:"username" validate:"required,min=1,max=64"`
	Email              string `json:"email" validate:"required,email"`
	Password           string `json:"password" validate:"required,min=8,max=72"`
	LeetCodeUsername   string `json:"leetcode_username,omitempty" validate:"required_without_all=CodeforcesUsername CodeChefUsername"`
	CodeforcesUsername string `json:"codeforces_username,omitempty"`
	CodeChefUsername   string `json:"codechef_username,omitempty"`
}

// Handles returns the platform handles carried by the request.
func (r *SignupRequest) Handles() Handles {
	return Handles{
		LeetCode:   r.LeetCodeUsername,
		Codeforces: r.CodeforcesUsername,
		CodeChef:   r.CodeChefUsername,
	}
}

// LoginRequest represents the login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateHandlesRequest replaces the platform handles on an account.
type UpdateHandlesRequest struct {
	LeetCodeUsername   string `json:"leetcode_username,omitempty" validate:"required_without_all=CodeforcesUsername CodeChefUsername"`
	CodeforcesUsername string `json:"codeforces_username,omitempty"`
	CodeChefUsername   string `json:"codechef_username,omitempty"`
}

// Handles returns the platform handles carried by the request.
func (r *UpdateHandlesRequest) Handles() Handles {
	return Handles{
		LeetCode:   r.LeetCodeUsername,
		Codeforces: r.CodeforcesUsername,
		CodeChef:   r.CodeChefUsername,
	}
}

// User is the API view of a profile (never carries the password hash).
type User struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Handles   Handles   `json:"handles"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LoginResponse represents the login/signup response with user data and authentication token.
type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// Validate validates the SignupRequest using the validator.
func (r *SignupRequest) Validate() error {
	return validator.New().Struct(r)
}

// Validate validates the LoginRequest using the validator.
func (r *LoginRequest) Validate() error {
	return validator.New().Struct(r)
}

// Validate validates the UpdateHandlesRequest using the validator.
func (r *UpdateHandlesRequest) Validate() error {
	return validator.New().Struct(r)
}
