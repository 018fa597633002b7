// Package controllers binds HTTP requests to services. Handlers decode and
// validate the body, call one service method and render the result through
// app/resources.
package controllers

import (
	"github.com/shashiranjanraj/meetup/app/models"
	"github.com/shashiranjanraj/meetup/pkg/ctx"
	"github.com/shashiranjanraj/meetup/pkg/middleware"
)

// caller is the authenticated user. Routes using it sit behind
// middleware.Auth, whose authenticator yields *models.User.
func caller(c *ctx.Context) *models.User {
	id, _ := middleware.IdentityFromCtx(c.Context())
	u, _ := id.(*models.User)
	return u
}
