package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser       = "user"
	RoleRestaurant = "restaurant"
	RoleAdmin      = "admin"
)

// Roles is the fixed role enumeration.
var Roles = []string{RoleUser, RoleRestaurant, RoleAdmin}

func ValidRole(name string) bool {
	for _, r := range Roles {
		if r == name {
			return true
		}
	}
	return false
}

const (
	MethodLocal  = "local"
	MethodGoogle = "google"
)

const (
	DefaultMaxDistanceKm = 5
	MinMaxDistanceKm     = 1
	MaxMaxDistanceKm     = 20
)

// NewID returns a fresh primary key. Both stores use string ids.
func NewID() string { return uuid.NewString() }

type Role struct {
	ID   uint   `gorm:"primaryKey" json:"-"`
	Name string `gorm:"uniqueIndex;size:20;not null" json:"role"`
}

// Membership links a user to one role.
type Membership struct {
	UserID    string    `gorm:"primaryKey;size:36" json:"-"`
	RoleID    uint      `gorm:"primaryKey;autoIncrement:false" json:"-"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"-"`
}

type User struct {
	ID                       string       `gorm:"primaryKey;size:36" json:"id"`
	Email                    string       `gorm:"uniqueIndex;size:120;not null" json:"email"`
	Password                 string       `gorm:"size:100" json:"-"`
	DisplayName              string       `gorm:"uniqueIndex;size:20;not null" json:"displayName"`
	FirstName                string       `gorm:"size:20" json:"firstName"`
	LastName                 string       `gorm:"size:30" json:"lastName"`
	Active                   bool         `gorm:"not null" json:"active"`
	Method                   string       `gorm:"size:10;not null" json:"method"`
	GoogleID                 string       `gorm:"size:64;index" json:"googleId,omitempty"`
	Memberships              []Membership `gorm:"constraint:OnDelete:CASCADE" json:"memberships"`
	ReceivePushNotifications bool         `gorm:"not null" json:"receivePushNotifications"`
	HideEmail                bool         `gorm:"not null" json:"hideEmail"`
	HideMe                   bool         `gorm:"not null" json:"hideMe"`
	MaxDistanceKm            int          `gorm:"not null" json:"maxDistanceKm"`
	Favourites               []string     `gorm:"serializer:json;type:text" json:"favourites"`
	CreatedAt                time.Time    `json:"createdAt"`
	UpdatedAt                time.Time    `json:"updatedAt"`
}

// NewUser returns a user with the account defaults applied.
func NewUser(email, displayName, method string) *User {
	return &User{
		ID:                       NewID(),
		Email:                    email,
		DisplayName:              displayName,
		Method:                   method,
		Active:                   true,
		ReceivePushNotifications: true,
		MaxDistanceKm:            DefaultMaxDistanceKm,
		Favourites:               []string{},
		Memberships:              []Membership{{Role: Role{Name: RoleUser}}},
	}
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = NewID()
	}
	return nil
}

func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Memberships))
	for _, m := range u.Memberships {
		names = append(names, m.Role.Name)
	}
	return names
}

func (u *User) HasRole(role string) bool {
	for _, m := range u.Memberships {
		if m.Role.Name == role {
			return true
		}
	}
	return false
}

func (u *User) IdentityID() string { return u.ID }

func (u *User) HasFavourite(item string) bool {
	for _, f := range u.Favourites {
		if f == item {
			return true
		}
	}
	return false
}
