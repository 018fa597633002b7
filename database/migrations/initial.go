package migrations

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shashiranjanraj/meetup/app/models"
	"github.com/shashiranjanraj/meetup/pkg/migration"
)

func init() {
	migration.Register("20260101000000_create_roles_table", &CreateRolesTable{})
	migration.Register("20260101000001_create_users_table", &CreateUsersTable{})
	migration.Register("20260101000002_create_meets_table", &CreateMeetsTable{})
	migration.Register("20260101000003_create_attendees_table", &CreateAttendeesTable{})
	migration.Register("20260101000004_create_events_table", &CreateEventsTable{})
}

// CreateRolesTable also inserts the fixed role rows.
type CreateRolesTable struct{}

func (m *CreateRolesTable) Up(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Role{}); err != nil {
		return err
	}
	rows := make([]models.Role, 0, len(models.Roles))
	for _, name := range models.Roles {
		rows = append(rows, models.Role{Name: name})
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

func (m *CreateRolesTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.Role{})
}

// CreateUsersTable creates users and the memberships join table.
type CreateUsersTable struct{}

func (m *CreateUsersTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.User{}, &models.Membership{})
}

func (m *CreateUsersTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.Membership{}, &models.User{})
}

type CreateMeetsTable struct{}

func (m *CreateMeetsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Meet{})
}

func (m *CreateMeetsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.Meet{})
}

type CreateAttendeesTable struct{}

func (m *CreateAttendeesTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Attendee{})
}

func (m *CreateAttendeesTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.Attendee{})
}

type CreateEventsTable struct{}

func (m *CreateEventsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Event{})
}

func (m *CreateEventsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.Event{})
}
