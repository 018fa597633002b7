package repositories

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shashiranjanraj/meetup/app/models"
)

type gormUsers struct {
	db *gorm.DB
}

var userColumns = []string{
	"email", "password", "display_name", "first_name", "last_name", "active",
	"google_id", "receive_push_notifications", "hide_email", "hide_me",
	"max_distance_km", "favourites", "updated_at",
}

func (r *gormUsers) Create(ctx context.Context, u *models.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(u).Error; err != nil {
			return translate(err)
		}
		for i := range u.Memberships {
			role, err := findRole(tx, u.Memberships[i].Role.Name)
			if err != nil {
				return err
			}
			u.Memberships[i].UserID = u.ID
			u.Memberships[i].RoleID = role.ID
			u.Memberships[i].Role = *role
			if err := tx.Omit(clause.Associations).Create(&u.Memberships[i]).Error; err != nil {
				return translate(err)
			}
		}
		return nil
	})
}

func (r *gormUsers) first(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).
		Preload("Memberships.Role").
		Where(query, arg).
		First(&u).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *gormUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *gormUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *gormUsers) FindByDisplayName(ctx context.Context, name string) (*models.User, error) {
	return r.first(ctx, "display_name = ?", name)
}

func (r *gormUsers) FindByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return r.first(ctx, "google_id = ?", googleID)
}

func (r *gormUsers) FindByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []models.User
	err := r.db.WithContext(ctx).
		Preload("Memberships.Role").
		Where("id IN ?", ids).
		Find(&users).Error
	return users, translate(err)
}

func (r *gormUsers) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Preload("Memberships.Role").
		Order("created_at asc").
		Find(&users).Error
	return users, translate(err)
}

func (r *gormUsers) Update(ctx context.Context, u *models.User) error {
	res := r.db.WithContext(ctx).
		Model(u).
		Select(userColumns).
		Omit(clause.Associations).
		Updates(u)
	return affected(res)
}

func (r *gormUsers) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.Membership{}).Error; err != nil {
			return err
		}
		return affected(tx.Where("id = ?", id).Delete(&models.User{}))
	})
}

func (r *gormUsers) AddRole(ctx context.Context, userID, name string) error {
	db := r.db.WithContext(ctx)
	role, err := findRole(db, name)
	if err != nil {
		return err
	}
	m := models.Membership{UserID: userID, RoleID: role.ID}
	return translate(db.Omit(clause.Associations).Create(&m).Error)
}

func (r *gormUsers) RemoveRole(ctx context.Context, userID, name string) error {
	db := r.db.WithContext(ctx)
	role, err := findRole(db, name)
	if err != nil {
		return err
	}
	return affected(db.Where("user_id = ? AND role_id = ?", userID, role.ID).Delete(&models.Membership{}))
}

func (r *gormUsers) AddFavourite(ctx context.Context, userID, item string) error {
	return r.updateFavourites(ctx, userID, func(u *models.User) bool {
		if u.HasFavourite(item) {
			return false
		}
		u.Favourites = append(u.Favourites, item)
		return true
	})
}

func (r *gormUsers) RemoveFavourite(ctx context.Context, userID, item string) error {
	return r.updateFavourites(ctx, userID, func(u *models.User) bool {
		kept := u.Favourites[:0]
		for _, f := range u.Favourites {
			if f != item {
				kept = append(kept, f)
			}
		}
		changed := len(kept) != len(u.Favourites)
		u.Favourites = kept
		return changed
	})
}

func (r *gormUsers) updateFavourites(ctx context.Context, userID string, mutate func(u *models.User) bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.Select("id", "favourites").Where("id = ?", userID).First(&u).Error; err != nil {
			return translate(err)
		}
		if u.Favourites == nil {
			u.Favourites = []string{}
		}
		if !mutate(&u) {
			return nil
		}
		return tx.Model(&u).Select("favourites", "updated_at").Updates(&u).Error
	})
}

func findRole(db *gorm.DB, name string) (*models.Role, error) {
	var role models.Role
	if err := db.Where("name = ?", name).First(&role).Error; err != nil {
		return nil, translate(err)
	}
	return &role, nil
}
