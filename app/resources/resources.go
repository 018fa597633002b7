// Package resources holds the API serializers.
package resources

import (
	"github.com/shashiranjanraj/meetup/app/models"
	"github.com/shashiranjanraj/meetup/app/services"
	"github.com/shashiranjanraj/meetup/pkg/resource"
)

// Point is a GeoJSON point. Coordinates are [longitude, latitude].
type Point struct {
	Type        string    `json:"type" validate:"required,eq=Point"`
	Coordinates []float64 `json:"coordinates" validate:"required,len=2"`
}

func NewPoint(lat, lng float64) Point {
	return Point{Type: "Point", Coordinates: []float64{lng, lat}}
}

// LatLng assumes a validated point.
func (p Point) LatLng() (lat, lng float64) {
	return p.Coordinates[1], p.Coordinates[0]
}

func memberships(u models.User) []resource.Map {
	out := make([]resource.Map, 0, len(u.Memberships))
	for _, m := range u.Memberships {
		out = append(out, resource.Map{"role": m.Role.Name})
	}
	return out
}

func favourites(u models.User) []string {
	if u.Favourites == nil {
		return []string{}
	}
	return u.Favourites
}

// User is the caller's own profile.
func User(u models.User) resource.Map {
	return resource.Map{
		"id":                       u.ID,
		"email":                    u.Email,
		"displayName":              u.DisplayName,
		"firstName":                u.FirstName,
		"lastName":                 u.LastName,
		"active":                   u.Active,
		"method":                   u.Method,
		"memberships":              memberships(u),
		"receivePushNotifications": u.ReceivePushNotifications,
		"hideEmail":                u.HideEmail,
		"hideMe":                   u.HideMe,
		"maxDistanceKm":            u.MaxDistanceKm,
		"favourites":               favourites(u),
		"createdAt":                u.CreatedAt,
	}
}

// PublicUser is what other users may see. The email is left out when the
// user hides it.
func PublicUser(u models.User) resource.Map {
	out := resource.Map{
		"id":          u.ID,
		"displayName": u.DisplayName,
		"firstName":   u.FirstName,
		"lastName":    u.LastName,
		"favourites":  favourites(u),
	}
	if !u.HideEmail {
		out["email"] = u.Email
	}
	return out
}

func Meet(m models.Meet) resource.Map {
	return resource.Map{
		"id":                m.ID,
		"user":              m.UserID,
		"location":          NewPoint(m.Latitude, m.Longitude),
		"locationName":      m.LocationName,
		"datetime":          m.Datetime,
		"description":       m.Description,
		"totalParticipants": m.TotalParticipants,
		"createdAt":         m.CreatedAt,
	}
}

// NearbyMeet is a geo-search hit with its owner's public profile.
func NearbyMeet(h services.NearbyHit) resource.Map {
	return resource.With(Meet(h.Meet), resource.Map{
		"user":       PublicUser(h.Owner),
		"distanceKm": h.DistanceKm,
	})
}

func Attendee(a models.Attendee) resource.Map {
	return resource.Map{
		"id":        a.ID,
		"user":      a.UserID,
		"meet":      a.MeetID,
		"message":   a.Message,
		"seen":      a.Seen,
		"state":     a.State,
		"createdAt": a.CreatedAt,
		"updatedAt": a.UpdatedAt,
	}
}

func Event(e models.Event) resource.Map {
	out := resource.Map{
		"id":             e.ID,
		"user":           e.UserID,
		"meet":           e.MeetID,
		"title":          e.Title,
		"description":    e.Description,
		"type":           e.Type,
		"actionRequired": e.ActionRequired,
		"createdAt":      e.CreatedAt,
	}
	if e.AttendeeID != "" {
		out["attendee"] = e.AttendeeID
	}
	return out
}
