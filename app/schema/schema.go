// Package schema is the read-only GraphQL view of the caller's data. It
// renders through app/resources, so every field matches the REST shape.
package schema

import (
	"context"
	"errors"

	"github.com/graphql-go/graphql"

	"github.com/shashiranjanraj/meetup/app/models"
	"github.com/shashiranjanraj/meetup/app/resources"
	"github.com/shashiranjanraj/meetup/app/services"
	"github.com/shashiranjanraj/meetup/pkg/apperr"
	gql "github.com/shashiranjanraj/meetup/pkg/graphql"
	"github.com/shashiranjanraj/meetup/pkg/logger"
	"github.com/shashiranjanraj/meetup/pkg/middleware"
	"github.com/shashiranjanraj/meetup/pkg/resource"
)

var pointType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Point",
	Fields: graphql.Fields{
		"type":        &graphql.Field{Type: graphql.String},
		"coordinates": &graphql.Field{Type: graphql.NewList(graphql.Float)},
	},
})

var membershipType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Membership",
	Fields: graphql.Fields{
		"role": &graphql.Field{Type: graphql.String},
	},
})

var userType = graphql.NewObject(graphql.ObjectConfig{
	Name: "User",
	Fields: graphql.Fields{
		"id":                       &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"email":                    &graphql.Field{Type: graphql.String},
		"displayName":              &graphql.Field{Type: graphql.String},
		"firstName":                &graphql.Field{Type: graphql.String},
		"lastName":                 &graphql.Field{Type: graphql.String},
		"active":                   &graphql.Field{Type: graphql.Boolean},
		"method":                   &graphql.Field{Type: graphql.String},
		"memberships":              &graphql.Field{Type: graphql.NewList(membershipType)},
		"receivePushNotifications": &graphql.Field{Type: graphql.Boolean},
		"hideEmail":                &graphql.Field{Type: graphql.Boolean},
		"hideMe":                   &graphql.Field{Type: graphql.Boolean},
		"maxDistanceKm":            &graphql.Field{Type: graphql.Int},
		"favourites":               &graphql.Field{Type: graphql.NewList(graphql.String)},
		"createdAt":                &graphql.Field{Type: graphql.DateTime},
	},
})

var meetType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Meet",
	Fields: graphql.Fields{
		"id":                &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"user":              &graphql.Field{Type: graphql.ID},
		"location":          &graphql.Field{Type: pointType},
		"locationName":      &graphql.Field{Type: graphql.String},
		"datetime":          &graphql.Field{Type: graphql.DateTime},
		"description":       &graphql.Field{Type: graphql.String},
		"totalParticipants": &graphql.Field{Type: graphql.Int},
		"createdAt":         &graphql.Field{Type: graphql.DateTime},
	},
})

var attendeeType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Attendee",
	Fields: graphql.Fields{
		"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"user":      &graphql.Field{Type: graphql.ID},
		"meet":      &graphql.Field{Type: graphql.ID},
		"message":   &graphql.Field{Type: graphql.String},
		"seen":      &graphql.Field{Type: graphql.Boolean},
		"state":     &graphql.Field{Type: graphql.String},
		"createdAt": &graphql.Field{Type: graphql.DateTime},
		"updatedAt": &graphql.Field{Type: graphql.DateTime},
	},
})

var eventType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Event",
	Fields: graphql.Fields{
		"id":             &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"user":           &graphql.Field{Type: graphql.ID},
		"meet":           &graphql.Field{Type: graphql.ID},
		"attendee":       &graphql.Field{Type: graphql.ID},
		"title":          &graphql.Field{Type: graphql.String},
		"description":    &graphql.Field{Type: graphql.String},
		"type":           &graphql.Field{Type: graphql.String},
		"actionRequired": &graphql.Field{Type: graphql.Boolean},
		"createdAt":      &graphql.Field{Type: graphql.DateTime},
	},
})

var errAnonymous = errors.New("authentication credentials were not provided")

// resolver is a field resolver that runs for an authenticated caller.
type resolver func(ctx context.Context, caller *models.User, args map[string]any) (any, error)

// authed rejects anonymous requests and hides internal errors behind the
// generic message.
func authed(fn resolver) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		id, _ := middleware.IdentityFromCtx(p.Context)
		u, ok := id.(*models.User)
		if !ok || u == nil {
			return nil, errAnonymous
		}
		out, err := fn(p.Context, u, p.Args)
		if err != nil {
			e := apperr.From(err)
			if e.Kind == apperr.KindInternal {
				logger.WithCtx(p.Context).Error("graphql resolver failed", "field", p.Info.FieldName, "error", err)
			}
			return nil, errors.New(e.Message)
		}
		return out, nil
	}
}

// New builds the schema over the application services.
func New(users *services.UserService, meets *services.MeetService, events *services.EventService) (graphql.Schema, error) {
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"me": &graphql.Field{
				Type: userType,
				Resolve: authed(func(ctx context.Context, caller *models.User, _ map[string]any) (any, error) {
					u, err := users.Retrieve(ctx, caller.ID)
					if err != nil {
						return nil, err
					}
					return resources.User(*u), nil
				}),
			},
			"myMeets": &graphql.Field{
				Type: graphql.NewList(meetType),
				Resolve: authed(func(ctx context.Context, caller *models.User, _ map[string]any) (any, error) {
					ms, err := meets.ListMine(ctx, caller.ID)
					if err != nil {
						return nil, err
					}
					return resource.Collection(resources.Meet, ms), nil
				}),
			},
			"meet": &graphql.Field{
				Type: meetType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: authed(func(ctx context.Context, _ *models.User, args map[string]any) (any, error) {
					id, _ := args["id"].(string)
					m, err := meets.Retrieve(ctx, id)
					if err != nil {
						return nil, err
					}
					return resources.Meet(*m), nil
				}),
			},
			"myAttendees": &graphql.Field{
				Type: graphql.NewList(attendeeType),
				Args: graphql.FieldConfigArgument{
					"state": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: authed(func(ctx context.Context, caller *models.User, args map[string]any) (any, error) {
					state, _ := args["state"].(string)
					rows, err := meets.ListMyAttendees(ctx, caller.ID, models.AttendeeState(state))
					if err != nil {
						return nil, err
					}
					return resource.Collection(resources.Attendee, rows), nil
				}),
			},
			"events": &graphql.Field{
				Type: graphql.NewList(eventType),
				Resolve: authed(func(ctx context.Context, caller *models.User, _ map[string]any) (any, error) {
					evs, err := events.ListMine(ctx, caller.ID)
					if err != nil {
						return nil, err
					}
					return resource.Collection(resources.Event, evs), nil
				}),
			},
		},
	})
	return gql.NewSchema(query)
}
