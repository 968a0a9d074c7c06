package dto

import "github.com/fixhub-dev/fixhub-api/internal/models"

// CreateUserRequest payload for admin user creation.
type CreateUserRequest struct {
	Email    string          `json:"email" validate:"required,email"`
	Password string          `json:"password" validate:"required,min=6"`
	FullName string          `json:"full_name" validate:"required"`
	Phone    string          `json:"phone"`
	Role     models.UserRole `json:"role" validate:"required,oneof=ADMIN TECHNICIAN CUSTOMER"`
}

// UpdateUserRequest payload for admin user updates.
type UpdateUserRequest struct {
	FullName string          `json:"full_name" validate:"required"`
	Phone    string          `json:"phone"`
	Role     models.UserRole `json:"role" validate:"required,oneof=ADMIN TECHNICIAN CUSTOMER"`
	Active   *bool           `json:"active"`
}

// UserQuery mirrors supported user listing filters.
type UserQuery struct {
	Role     string
	Active   string
	Search   string
	Page     int
	PageSize int
}
