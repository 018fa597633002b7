package repositories

import (
	"time"

	"github.com/shashiranjanraj/meetup/app/models"
)

// Document shapes. Memberships are embedded; meet locations are GeoJSON
// points so the 2dsphere index can serve $geoNear.

type membershipDoc struct {
	Role      string    `bson:"role"`
	CreatedAt time.Time `bson:"createdAt"`
}

type userDoc struct {
	ID                       string          `bson:"_id"`
	Email                    string          `bson:"email"`
	Password                 string          `bson:"password,omitempty"`
	DisplayName              string          `bson:"displayName"`
	FirstName                string          `bson:"firstName"`
	LastName                 string          `bson:"lastName"`
	Active                   bool            `bson:"active"`
	Method                   string          `bson:"method"`
	GoogleID                 string          `bson:"googleId,omitempty"`
	Memberships              []membershipDoc `bson:"memberships"`
	ReceivePushNotifications bool            `bson:"receivePushNotifications"`
	HideEmail                bool            `bson:"hideEmail"`
	HideMe                   bool            `bson:"hideMe"`
	MaxDistanceKm            int             `bson:"maxDistanceKm"`
	Favourites               []string        `bson:"favourites"`
	CreatedAt                time.Time       `bson:"createdAt"`
	UpdatedAt                time.Time       `bson:"updatedAt"`
}

type pointDoc struct {
	Type        string    `bson:"type"`
	Coordinates []float64 `bson:"coordinates"`
}

type meetDoc struct {
	ID                string    `bson:"_id"`
	User              string    `bson:"user"`
	Location          pointDoc  `bson:"location"`
	LocationName      string    `bson:"locationName"`
	Datetime          time.Time `bson:"datetime"`
	Description       string    `bson:"description"`
	TotalParticipants int       `bson:"totalParticipants"`
	CreatedAt         time.Time `bson:"createdAt"`
	UpdatedAt         time.Time `bson:"updatedAt"`
}

type nearbyDoc struct {
	meetDoc  `bson:",inline"`
	Distance float64 `bson:"distance"`
}

type attendeeDoc struct {
	ID        string    `bson:"_id"`
	User      string    `bson:"user"`
	Meet      string    `bson:"meet"`
	Message   string    `bson:"message"`
	Seen      bool      `bson:"seen"`
	State     string    `bson:"state"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

type eventDoc struct {
	ID             string    `bson:"_id"`
	User           string    `bson:"user"`
	Meet           string    `bson:"meet"`
	Attendee       string    `bson:"attendee,omitempty"`
	Title          string    `bson:"title"`
	Description    string    `bson:"description"`
	Type           string    `bson:"type"`
	ActionRequired bool      `bson:"actionRequired"`
	CreatedAt      time.Time `bson:"createdAt"`
	UpdatedAt      time.Time `bson:"updatedAt"`
}

// stamp fills missing ids and timestamps the way the GORM hooks do.
func stamp(id *string, created, updated *time.Time) {
	if *id == "" {
		*id = models.NewID()
	}
	now := time.Now().UTC()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

func toUserDoc(u *models.User) userDoc {
	ms := make([]membershipDoc, 0, len(u.Memberships))
	for _, m := range u.Memberships {
		ms = append(ms, membershipDoc{Role: m.Role.Name, CreatedAt: u.CreatedAt})
	}
	favs := u.Favourites
	if favs == nil {
		favs = []string{}
	}
	return userDoc{
		ID:                       u.ID,
		Email:                    u.Email,
		Password:                 u.Password,
		DisplayName:              u.DisplayName,
		FirstName:                u.FirstName,
		LastName:                 u.LastName,
		Active:                   u.Active,
		Method:                   u.Method,
		GoogleID:                 u.GoogleID,
		Memberships:              ms,
		ReceivePushNotifications: u.ReceivePushNotifications,
		HideEmail:                u.HideEmail,
		HideMe:                   u.HideMe,
		MaxDistanceKm:            u.MaxDistanceKm,
		Favourites:               favs,
		CreatedAt:                u.CreatedAt,
		UpdatedAt:                u.UpdatedAt,
	}
}

func (d userDoc) model() models.User {
	ms := make([]models.Membership, 0, len(d.Memberships))
	for _, m := range d.Memberships {
		ms = append(ms, models.Membership{UserID: d.ID, Role: models.Role{Name: m.Role}, CreatedAt: m.CreatedAt})
	}
	favs := d.Favourites
	if favs == nil {
		favs = []string{}
	}
	return models.User{
		ID:                       d.ID,
		Email:                    d.Email,
		Password:                 d.Password,
		DisplayName:              d.DisplayName,
		FirstName:                d.FirstName,
		LastName:                 d.LastName,
		Active:                   d.Active,
		Method:                   d.Method,
		GoogleID:                 d.GoogleID,
		Memberships:              ms,
		ReceivePushNotifications: d.ReceivePushNotifications,
		HideEmail:                d.HideEmail,
		HideMe:                   d.HideMe,
		MaxDistanceKm:            d.MaxDistanceKm,
		Favourites:               favs,
		CreatedAt:                d.CreatedAt,
		UpdatedAt:                d.UpdatedAt,
	}
}

func toMeetDoc(m *models.Meet) meetDoc {
	return meetDoc{
		ID:                m.ID,
		User:              m.UserID,
		Location:          pointDoc{Type: "Point", Coordinates: []float64{m.Longitude, m.Latitude}},
		LocationName:      m.LocationName,
		Datetime:          m.Datetime,
		Description:       m.Description,
		TotalParticipants: m.TotalParticipants,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func (d meetDoc) model() models.Meet {
	m := models.Meet{
		ID:                d.ID,
		UserID:            d.User,
		LocationName:      d.LocationName,
		Datetime:          d.Datetime,
		Description:       d.Description,
		TotalParticipants: d.TotalParticipants,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
	if len(d.Location.Coordinates) == 2 {
		m.Longitude = d.Location.Coordinates[0]
		m.Latitude = d.Location.Coordinates[1]
	}
	return m
}

func toAttendeeDoc(a *models.Attendee) attendeeDoc {
	return attendeeDoc{
		ID:        a.ID,
		User:      a.UserID,
		Meet:      a.MeetID,
		Message:   a.Message,
		Seen:      a.Seen,
		State:     string(a.State),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func (d attendeeDoc) model() models.Attendee {
	return models.Attendee{
		ID:        d.ID,
		UserID:    d.User,
		MeetID:    d.Meet,
		Message:   d.Message,
		Seen:      d.Seen,
		State:     models.AttendeeState(d.State),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func toEventDoc(e *models.Event) eventDoc {
	return eventDoc{
		ID:             e.ID,
		User:           e.UserID,
		Meet:           e.MeetID,
		Attendee:       e.AttendeeID,
		Title:          e.Title,
		Description:    e.Description,
		Type:           string(e.Type),
		ActionRequired: e.ActionRequired,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

func (d eventDoc) model() models.Event {
	return models.Event{
		ID:             d.ID,
		UserID:         d.User,
		MeetID:         d.Meet,
		AttendeeID:     d.Attendee,
		Title:          d.Title,
		Description:    d.Description,
		Type:           models.EventType(d.Type),
		ActionRequired: d.ActionRequired,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}
