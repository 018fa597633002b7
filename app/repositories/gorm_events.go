package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/meetup/app/models"
)

type gormEvents struct {
	db *gorm.DB
}

func (r *gormEvents) Create(ctx context.Context, e *models.Event) error {
	return translate(r.db.WithContext(ctx).Create(e).Error)
}

func (r *gormEvents) ListByUser(ctx context.Context, userID string) ([]models.Event, error) {
	var out []models.Event
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&out).Error
	return out, translate(err)
}

func (r *gormEvents) ClearActionRequired(ctx context.Context, attendeeID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("attendee_id = ? AND action_required = ?", attendeeID, true).
		Update("action_required", false)
	return res.RowsAffected, translate(res.Error)
}

func (r *gormEvents) DeleteByAttendee(ctx context.Context, attendeeID string) error {
	return translate(r.db.WithContext(ctx).Where("attendee_id = ?", attendeeID).Delete(&models.Event{}).Error)
}

func (r *gormEvents) DeleteByMeets(ctx context.Context, meetIDs []string) error {
	if len(meetIDs) == 0 {
		return nil
	}
	return translate(r.db.WithContext(ctx).Where("meet_id IN ?", meetIDs).Delete(&models.Event{}).Error)
}

func (r *gormEvents) DeleteByUser(ctx context.Context, userID string) error {
	return translate(r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Event{}).Error)
}
