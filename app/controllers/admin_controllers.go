package controllers

import (
	"net/http"

	"github.com/shashiranjanraj/meetup/app/services"
	"github.com/shashiranjanraj/meetup/pkg/ctx"
)

const (
	msgRoleAssigned = "Role assigned successfully"
	msgRoleRemoved  = "Role removed successfully"
)

type AdminController struct {
	admin *services.AdminService
}

func NewAdminController(admin *services.AdminService) *AdminController {
	return &AdminController{admin: admin}
}

type roleRequest struct {
	User string `json:"user" validate:"required"`
	Role string `json:"role" validate:"required"`
}

func (ac *AdminController) AddRole(c *ctx.Context) {
	var in roleRequest
	if !c.BindJSON(&in) {
		return
	}
	if err := ac.admin.AddRole(c.Context(), in.User, in.Role); err != nil {
		c.Fail(err)
		return
	}
	c.Message(http.StatusCreated, msgRoleAssigned)
}

func (ac *AdminController) RemoveRole(c *ctx.Context) {
	var in roleRequest
	if !c.BindJSON(&in) {
		return
	}
	if err := ac.admin.RemoveRole(c.Context(), in.User, in.Role); err != nil {
		c.Fail(err)
		return
	}
	c.Message(http.StatusOK, msgRoleRemoved)
}
