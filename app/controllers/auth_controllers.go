package controllers

import (
	"net/http"

	"github.com/shashiranjanraj/meetup/app/services"
	"github.com/shashiranjanraj/meetup/pkg/ctx"
	"github.com/shashiranjanraj/meetup/pkg/response"
)

const (
	msgRegistrationOK = "User registration successful!"
	msgLoginOK        = "Login successful"
)

type AuthController struct {
	auth *services.AuthService
}

func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

// Password strength is checked by the service so that an email conflict
// is reported first.
type signupRequest struct {
	Email       string `json:"email" validate:"required,email,max=120"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName" validate:"required,min=3,max=20"`
	FirstName   string `json:"firstName" validate:"max=20"`
	LastName    string `json:"lastName" validate:"max=30"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type googleTokenRequest struct {
	AccessToken string `json:"access_token" validate:"required"`
}

// Signup handles POST /api/auth/sign-up.
func (ac *AuthController) Signup(c *ctx.Context) {
	var in signupRequest
	if !c.BindJSON(&in) {
		return
	}
	_, err := ac.auth.Signup(c.Context(), services.SignupInput{
		Email:       in.Email,
		Password:    in.Password,
		DisplayName: in.DisplayName,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
	})
	if err != nil {
		c.Fail(err)
		return
	}
	c.Message(http.StatusCreated, msgRegistrationOK)
}

// Token handles POST /api/auth/token.
func (ac *AuthController) Token(c *ctx.Context) {
	var in loginRequest
	if !c.BindJSON(&in) {
		return
	}
	token, err := ac.auth.Login(c.Context(), in.Email, in.Password)
	if err != nil {
		c.Fail(err)
		return
	}
	c.JSON(http.StatusOK, response.Envelope{Success: true, Message: msgLoginOK, Token: token})
}

// GoogleToken handles POST /api/auth/social/google/token.
func (ac *AuthController) GoogleToken(c *ctx.Context) {
	var in googleTokenRequest
	if !c.BindJSON(&in) {
		return
	}
	token, err := ac.auth.GoogleLogin(c.Context(), in.AccessToken)
	if err != nil {
		c.Fail(err)
		return
	}
	c.JSON(http.StatusOK, response.Envelope{Success: true, Message: msgLoginOK, Token: token})
}
