package seeders

import (
	"context"
	"errors"

	"github.com/shashiranjanraj/meetup/app/models"
	"github.com/shashiranjanraj/meetup/app/repositories"
	"github.com/shashiranjanraj/meetup/app/services"
	"github.com/shashiranjanraj/meetup/config"
	"github.com/shashiranjanraj/meetup/pkg/logger"
)

const adminDisplayName = "admin"

func init() {
	Register("admin", func(ctx context.Context, store repositories.Store) error {
		return Admin(ctx, store, config.AdminEmail(), config.AdminPassword())
	})
}

// Admin makes sure a local account with the admin role exists for email.
// An existing account keeps its password and only gains the role. Nothing
// happens when either credential is empty.
func Admin(ctx context.Context, store repositories.Store, email, password string) error {
	if email == "" || password == "" {
		logger.Info("admin seeder skipped: ADMIN_EMAIL or ADMIN_PASSWORD not set")
		return nil
	}

	u, err := store.Users().FindByEmail(ctx, services.NormalizeEmail(email))
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		u, err = services.NewAuthService(store, nil, nil).Signup(ctx, services.SignupInput{
			Email:       email,
			Password:    password,
			DisplayName: adminDisplayName,
		})
		if err != nil {
			return err
		}
	case err != nil:
		return err
	}

	if u.HasRole(models.RoleAdmin) {
		return nil
	}
	return services.NewAdminService(store, nil).AddRole(ctx, u.ID, models.RoleAdmin)
}
