package services

import (
	"context"
	"errors"
	"fmt"

	goaway "github.com/TwiN/go-away"

	"github.com/shashiranjanraj/meetup/app/models"
	"github.com/shashiranjanraj/meetup/app/repositories"
	"github.com/shashiranjanraj/meetup/pkg/apperr"
	"github.com/shashiranjanraj/meetup/pkg/auth"
	"github.com/shashiranjanraj/meetup/pkg/logger"
)

// UpdatableUserFields is the allow-list for self updates.
var UpdatableUserFields = []string{
	"email", "displayName", "firstName", "lastName",
	"receivePushNotifications", "hideEmail", "hideMe", "maxDistanceKm",
}

type UserService struct {
	store repositories.Store
	users *UserCache
}

func NewUserService(store repositories.Store, users *UserCache) *UserService {
	return &UserService{store: store, users: users}
}

func (s *UserService) Retrieve(ctx context.Context, id string) (*models.User, error) {
	u, err := s.store.Users().FindByID(ctx, id)
	if err != nil {
		return nil, lookup("retrieve user", "User", err)
	}
	return u, nil
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.store.Users().List(ctx)
	if err != nil {
		return nil, internal("list users", err)
	}
	return users, nil
}

// UpdateUserInput carries only the fields present in the request.
type UpdateUserInput struct {
	Email                    *string
	DisplayName              *string
	FirstName                *string
	LastName                 *string
	ReceivePushNotifications *bool
	HideEmail                *bool
	HideMe                   *bool
	MaxDistanceKm            *int
}

func (s *UserService) UpdateSelf(ctx context.Context, id string, in UpdateUserInput) (*models.User, error) {
	u, err := s.Retrieve(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Email != nil {
		email := NormalizeEmail(*in.Email)
		if email != u.Email {
			if err := s.ensureFree(ctx, s.store.Users().FindByEmail, email, msgEmailTaken); err != nil {
				return nil, err
			}
			u.Email = email
		}
	}
	if in.DisplayName != nil && *in.DisplayName != u.DisplayName {
		if err := s.ensureFree(ctx, s.store.Users().FindByDisplayName, *in.DisplayName, msgDisplayNameTaken); err != nil {
			return nil, err
		}
		u.DisplayName = *in.DisplayName
	}
	if in.MaxDistanceKm != nil {
		d := *in.MaxDistanceKm
		if d < models.MinMaxDistanceKm || d > models.MaxMaxDistanceKm {
			return nil, apperr.Unprocessable(map[string]string{
				"maxDistanceKm": fmt.Sprintf("must be between %d and %d", models.MinMaxDistanceKm, models.MaxMaxDistanceKm),
			})
		}
		u.MaxDistanceKm = d
	}
	if in.FirstName != nil {
		u.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		u.LastName = *in.LastName
	}
	if in.ReceivePushNotifications != nil {
		u.ReceivePushNotifications = *in.ReceivePushNotifications
	}
	if in.HideEmail != nil {
		u.HideEmail = *in.HideEmail
	}
	if in.HideMe != nil {
		u.HideMe = *in.HideMe
	}

	if err := s.store.Users().Update(ctx, u); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperr.Conflict(msgEmailTaken)
		}
		return nil, lookup("update user", "User", err)
	}
	s.users.Forget(ctx, id)
	return u, nil
}

func (s *UserService) ensureFree(ctx context.Context, find func(context.Context, string) (*models.User, error), value, msg string) error {
	_, err := find(ctx, value)
	switch {
	case err == nil:
		return apperr.Conflict(msg)
	case errors.Is(err, repositories.ErrNotFound):
		return nil
	default:
		return internal("update user: uniqueness", err)
	}
}

// ChangePassword replaces the password after checking the old one.
func (s *UserService) ChangePassword(ctx context.Context, id, oldPassword, newPassword, confirm string) error {
	if !validPassword(newPassword) {
		return apperr.Validation(msgWeakPassword)
	}
	if newPassword != confirm {
		return apperr.Validation("Passwords do not match.")
	}
	if newPassword == oldPassword {
		return apperr.Validation("New password must be different from the old password.")
	}

	// Loaded from the store: cached users carry no password hash.
	u, err := s.Retrieve(ctx, id)
	if err != nil {
		return err
	}
	if u.Password == "" || !auth.CheckPassword(u.Password, oldPassword) {
		return apperr.Validation("Old password is incorrect.")
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return internal("change password: hash", err)
	}
	u.Password = hash
	if err := s.store.Users().Update(ctx, u); err != nil {
		return lookup("change password", "User", err)
	}
	s.users.Forget(ctx, id)
	logger.WithCtx(ctx).Info("password changed", "user_id", id)
	return nil
}

// AddFavourite adds item to the user's favourites unless it is profane.
func (s *UserService) AddFavourite(ctx context.Context, id, item string) (*models.User, error) {
	if goaway.IsProfane(item) {
		return nil, apperr.Validation("Favourite contains inappropriate language.")
	}
	if err := s.store.Users().AddFavourite(ctx, id, item); err != nil {
		return nil, lookup("add favourite", "User", err)
	}
	s.users.Forget(ctx, id)
	return s.Retrieve(ctx, id)
}

func (s *UserService) RemoveFavourite(ctx context.Context, id, item string) (*models.User, error) {
	if err := s.store.Users().RemoveFavourite(ctx, id, item); err != nil {
		return nil, lookup("remove favourite", "User", err)
	}
	s.users.Forget(ctx, id)
	return s.Retrieve(ctx, id)
}

// DeleteSelf removes the user with their meets (and everything attached to
// them), their attendance rows and their events. Meets they were accepted
// into lose one participant.
func (s *UserService) DeleteSelf(ctx context.Context, id string) error {
	err := runTx(ctx, s.store, "delete_user", func(ctx context.Context, tx repositories.Store) error {
		owned, err := tx.Meets().ListIDsByOwner(ctx, id)
		if err != nil {
			return err
		}
		isOwned := make(map[string]bool, len(owned))
		for _, mid := range owned {
			isOwned[mid] = true
		}

		joined, err := tx.Attendees().ListByUser(ctx, id, "")
		if err != nil {
			return err
		}
		for _, a := range joined {
			if isOwned[a.MeetID] {
				continue
			}
			// Requests addressed to other owners go with the row.
			if err := tx.Events().DeleteByAttendee(ctx, a.ID); err != nil {
				return err
			}
			if a.State != models.StateAccepted {
				continue
			}
			if err := tx.Meets().IncrementParticipants(ctx, a.MeetID, -1); err != nil && !errors.Is(err, repositories.ErrNotFound) {
				return err
			}
		}

		if err := tx.Events().DeleteByMeets(ctx, owned); err != nil {
			return err
		}
		if err := tx.Attendees().DeleteByMeets(ctx, owned); err != nil {
			return err
		}
		if err := tx.Meets().DeleteByIDs(ctx, owned); err != nil {
			return err
		}
		if err := tx.Attendees().DeleteByUser(ctx, id); err != nil {
			return err
		}
		if err := tx.Events().DeleteByUser(ctx, id); err != nil {
			return err
		}
		return tx.Users().Delete(ctx, id)
	})
	if err != nil {
		return lookup("delete user", "User", err)
	}
	s.users.Forget(ctx, id)
	logger.WithCtx(ctx).Info("user deleted", "user_id", id)
	return nil
}
