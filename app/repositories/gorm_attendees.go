package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/meetup/app/models"
)

type gormAttendees struct {
	db *gorm.DB
}

func (r *gormAttendees) Create(ctx context.Context, a *models.Attendee) error {
	return translate(r.db.WithContext(ctx).Create(a).Error)
}

func (r *gormAttendees) first(ctx context.Context, query string, args ...interface{}) (*models.Attendee, error) {
	var a models.Attendee
	if err := r.db.WithContext(ctx).Where(query, args...).First(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *gormAttendees) FindInMeet(ctx context.Context, meetID, attendeeID string) (*models.Attendee, error) {
	return r.first(ctx, "id = ? AND meet_id = ?", attendeeID, meetID)
}

func (r *gormAttendees) FindByUserAndMeet(ctx context.Context, userID, meetID string) (*models.Attendee, error) {
	return r.first(ctx, "user_id = ? AND meet_id = ?", userID, meetID)
}

func (r *gormAttendees) ListByMeet(ctx context.Context, meetID string, state models.AttendeeState) ([]models.Attendee, error) {
	return r.list(ctx, "meet_id = ?", meetID, state)
}

func (r *gormAttendees) ListByUser(ctx context.Context, userID string, state models.AttendeeState) ([]models.Attendee, error) {
	return r.list(ctx, "user_id = ?", userID, state)
}

func (r *gormAttendees) list(ctx context.Context, query, arg string, state models.AttendeeState) ([]models.Attendee, error) {
	tx := r.db.WithContext(ctx).Where(query, arg)
	if state != "" {
		tx = tx.Where("state = ?", string(state))
	}
	var out []models.Attendee
	err := tx.Order("created_at asc").Find(&out).Error
	return out, translate(err)
}

func (r *gormAttendees) TransitionState(ctx context.Context, id string, from, to models.AttendeeState) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Attendee{}).
		Where("id = ? AND state = ?", id, string(from)).
		Updates(map[string]interface{}{"state": string(to), "updated_at": time.Now()})
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *gormAttendees) MarkSeen(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).
		Model(&models.Attendee{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"seen": true, "updated_at": time.Now()})
	return affected(res)
}

func (r *gormAttendees) Delete(ctx context.Context, id string) error {
	return affected(r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Attendee{}))
}

func (r *gormAttendees) DeleteByMeets(ctx context.Context, meetIDs []string) error {
	if len(meetIDs) == 0 {
		return nil
	}
	return translate(r.db.WithContext(ctx).Where("meet_id IN ?", meetIDs).Delete(&models.Attendee{}).Error)
}

func (r *gormAttendees) DeleteByUser(ctx context.Context, userID string) error {
	return translate(r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Attendee{}).Error)
}
