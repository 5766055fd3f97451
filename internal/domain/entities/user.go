package entities

// User is the profile returned by the auth endpoints
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Age      int    `json:"age"`
	Gender   string `json:"gender"`
}

// AuthResponse is returned by login and register
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}

// Credentials are submitted to sign in
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Registration is submitted to create an account
type Registration struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Username string `json:"username" validate:"required,min=3,max=50"`
	Age      int    `json:"age" validate:"gte=1,lte=120"`
	Gender   string `json:"gender" validate:"oneof=Male Female Other"`
}

// PasswordResetRequest asks the backend to email a reset link
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// PasswordUpdate sets a new password using the token from the reset link
type PasswordUpdate struct {
	AccessToken string `json:"access_token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// Session is the persisted sign-in state
type Session struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
