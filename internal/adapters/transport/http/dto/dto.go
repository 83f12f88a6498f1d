package dto

type RegisterDTO struct {
	Username string `json:"username" validate:"required,alphanum,min=3,max=32"`
	Password string `json:"password" validate:"required,strongpwd"`
}

type LoginDTO struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RotateDTO carries the refresh token presented for rotation.
type RotateDTO struct {
	Token string `json:"token" validate:"required"`
}

type LogoutDTO struct {
	Token string `json:"token" validate:"required"`
}

type ValidateDTO struct {
	AccessToken string `json:"access_token" validate:"required"`
}
