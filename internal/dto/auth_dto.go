package dto

type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	// Length is checked in the service so the failure carries its own message.
	Password string `json:"password" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type UserDTO struct {
	Id    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AuthResponse is the body for login/signup. The refresh token travels
// separately as an httpOnly cookie.
type AuthResponse struct {
	Message     string  `json:"message"`
	User        UserDTO `json:"user"`
	AccessToken string  `json:"accessToken"`
}

type RefreshResponse struct {
	Message     string `json:"message"`
	AccessToken string `json:"accessToken"`
}
