package controllers

import (
	"net/http"

	"github.com/shashiranjanraj/meetup/app/resources"
	"github.com/shashiranjanraj/meetup/app/services"
	"github.com/shashiranjanraj/meetup/pkg/ctx"
	"github.com/shashiranjanraj/meetup/pkg/resource"
)

const msgPasswordChanged = "Password changed successfully."

type UserController struct {
	users *services.UserService
}

func NewUserController(users *services.UserService) *UserController {
	return &UserController{users: users}
}

type updateUserRequest struct {
	Email                    *string `json:"email" validate:"omitempty,email,max=120"`
	DisplayName              *string `json:"displayName" validate:"omitempty,min=3,max=20"`
	FirstName                *string `json:"firstName" validate:"omitempty,max=20"`
	LastName                 *string `json:"lastName" validate:"omitempty,max=30"`
	ReceivePushNotifications *bool   `json:"receivePushNotifications"`
	HideEmail                *bool   `json:"hideEmail"`
	HideMe                   *bool   `json:"hideMe"`
	MaxDistanceKm            *int    `json:"maxDistanceKm"`
}

type changePasswordRequest struct {
	OldPassword        string `json:"oldPassword" validate:"required,min=6,max=20"`
	NewPassword        string `json:"newPassword" validate:"required,min=6,max=20"`
	ConfirmNewPassword string `json:"confirmNewPassword" validate:"required,min=6,max=20"`
}

type favouriteRequest struct {
	Item string `json:"item" validate:"required,min=3,max=50"`
}

func (uc *UserController) Me(c *ctx.Context) {
	u, err := uc.users.Retrieve(c.Context(), caller(c).ID)
	if err != nil {
		c.Fail(err)
		return
	}
	c.JSON(http.StatusOK, resources.User(*u))
}

func (uc *UserController) List(c *ctx.Context) {
	users, err := uc.users.List(c.Context())
	if err != nil {
		c.Fail(err)
		return
	}
	c.JSON(http.StatusOK, resource.Collection(resources.PublicUser, users))
}

// Update handles PUT /api/users/me. Keys outside the allow-list fail the
// whole request.
func (uc *UserController) Update(c *ctx.Context) {
	var in updateUserRequest
	if !c.BindJSONStrict(&in, services.UpdatableUserFields...) {
		return
	}
	u, err := uc.users.UpdateSelf(c.Context(), caller(c).ID, services.UpdateUserInput{
		Email:                    in.Email,
		DisplayName:              in.DisplayName,
		FirstName:                in.FirstName,
		LastName:                 in.LastName,
		ReceivePushNotifications: in.ReceivePushNotifications,
		HideEmail:                in.HideEmail,
		HideMe:                   in.HideMe,
		MaxDistanceKm:            in.MaxDistanceKm,
	})
	if err != nil {
		c.Fail(err)
		return
	}
	c.JSON(http.StatusOK, resources.User(*u))
}

func (uc *UserController) Delete(c *ctx.Context) {
	if err := uc.users.DeleteSelf(c.Context(), caller(c).ID); err != nil {
		c.Fail(err)
		return
	}
	c.NoContent()
}

func (uc *UserController) ChangePassword(c *ctx.Context) {
	var in changePasswordRequest
	if !c.BindJSON(&in) {
		return
	}
	if err := uc.users.ChangePassword(c.Context(), caller(c).ID, in.OldPassword, in.NewPassword, in.ConfirmNewPassword); err != nil {
		c.Fail(err)
		return
	}
	c.Message(http.StatusOK, msgPasswordChanged)
}

func (uc *UserController) AddFavourite(c *ctx.Context) {
	var in favouriteRequest
	if !c.BindJSON(&in) {
		return
	}
	u, err := uc.users.AddFavourite(c.Context(), caller(c).ID, in.Item)
	if err != nil {
		c.Fail(err)
		return
	}
	c.JSON(http.StatusOK, resources.User(*u))
}

func (uc *UserController) RemoveFavourite(c *ctx.Context) {
	var in favouriteRequest
	if !c.BindJSON(&in) {
		return
	}
	u, err := uc.users.RemoveFavourite(c.Context(), caller(c).ID, in.Item)
	if err != nil {
		c.Fail(err)
		return
	}
	c.JSON(http.StatusOK, resources.User(*u))
}
