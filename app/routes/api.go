// Package routes maps the /api surface onto controllers.
package routes

import (
	"net/http"

	"github.com/shashiranjanraj/meetup/app/controllers"
	"github.com/shashiranjanraj/meetup/app/services"
	"github.com/shashiranjanraj/meetup/pkg/ctx"
	"github.com/shashiranjanraj/meetup/pkg/middleware"
	"github.com/shashiranjanraj/meetup/pkg/rbac"
	"github.com/shashiranjanraj/meetup/pkg/router"
	"github.com/shashiranjanraj/meetup/pkg/ws"
)

// Deps are the services the API is built from. Hub and GraphQL are
// optional; without them the matching endpoints answer 404.
type Deps struct {
	Auth   *services.AuthService
	Users  *services.UserService
	Admin  *services.AdminService
	Meets  *services.MeetService
	Events *services.EventService

	Hub     *ws.Hub
	GraphQL http.Handler
}

func RegisterAPI(r *router.Router, d Deps) {
	authController := controllers.NewAuthController(d.Auth)
	userController := controllers.NewUserController(d.Users)
	adminController := controllers.NewAdminController(d.Admin)
	meetController := controllers.NewMeetController(d.Meets)
	eventController := controllers.NewEventController(d.Events, d.Hub)

	api := r.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/sign-up", "auth.signup", ctx.Wrap(authController.Signup))
	auth.Post("/token", "auth.token", ctx.Wrap(authController.Token))
	auth.Post("/social/google/token", "auth.google", ctx.Wrap(authController.GoogleToken))

	// The socket handshake cannot carry headers from a browser.
	api.Get("/events/ws", "events.ws", ctx.Wrap(eventController.Stream), middleware.AuthQuery(d.Auth))

	protected := api.Group("", middleware.Auth(d.Auth))

	users := protected.Group("/users")
	users.Get("", "users.index", ctx.Wrap(userController.List))
	users.Get("/me", "users.me", ctx.Wrap(userController.Me))
	users.Put("/me", "users.update", ctx.Wrap(userController.Update))
	users.Delete("/me", "users.destroy", ctx.Wrap(userController.Delete))
	users.Post("/me/password/change", "users.password", ctx.Wrap(userController.ChangePassword))
	users.Post("/me/favourites/add", "users.favourites.add", ctx.Wrap(userController.AddFavourite))
	users.Post("/me/favourites/remove", "users.favourites.remove", ctx.Wrap(userController.RemoveFavourite))

	admin := protected.Group("/admin", rbac.HasRole("admin"))
	admin.Post("/roles/add", "admin.roles.add", ctx.Wrap(adminController.AddRole))
	admin.Post("/roles/remove", "admin.roles.remove", ctx.Wrap(adminController.RemoveRole))

	meets := protected.Group("/meets")
	meets.Get("", "meets.index", ctx.Wrap(meetController.List))
	meets.Post("", "meets.store", ctx.Wrap(meetController.Create))
	meets.Post("/geo-search", "meets.geo", ctx.Wrap(meetController.GeoSearch))
	meets.Get("/{id}", "meets.show", ctx.Wrap(meetController.Show))
	meets.Put("/{id}", "meets.update", ctx.Wrap(meetController.Update))
	meets.Delete("/{id}", "meets.destroy", ctx.Wrap(meetController.Delete))
	meets.Get("/{id}/attendees", "meets.attendees.index", ctx.Wrap(meetController.Attendees))
	meets.Post("/{id}/attendees", "meets.attendees.join", ctx.Wrap(meetController.Join))
	meets.Delete("/{id}/attendees", "meets.attendees.leave", ctx.Wrap(meetController.Leave))
	meets.Put("/{meetId}/attendees/{attendeeId}", "meets.attendees.veto", ctx.Wrap(meetController.Veto))
	meets.Post("/{meetId}/attendees/{attendeeId}/seen", "meets.attendees.seen", ctx.Wrap(meetController.Seen))

	protected.Get("/attendees", "attendees.index", ctx.Wrap(meetController.MyAttendees))
	protected.Get("/events", "events.index", ctx.Wrap(eventController.List))

	if d.GraphQL != nil {
		protected.Post("/graphql", "graphql", d.GraphQL.ServeHTTP)
	}
}
