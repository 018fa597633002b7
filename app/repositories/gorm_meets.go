package repositories

import (
	"context"
	"sort"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/meetup/app/models"
	"github.com/shashiranjanraj/meetup/pkg/geo"
)

type gormMeets struct {
	db *gorm.DB
}

func (r *gormMeets) Create(ctx context.Context, m *models.Meet) error {
	return translate(r.db.WithContext(ctx).Create(m).Error)
}

func (r *gormMeets) FindByID(ctx context.Context, id string) (*models.Meet, error) {
	var m models.Meet
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (r *gormMeets) FindByIDs(ctx context.Context, ids []string) ([]models.Meet, error) {
	if len(ids) == 0 {
		return []models.Meet{}, nil
	}
	var meets []models.Meet
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("datetime asc").
		Find(&meets).Error
	return meets, translate(err)
}

func (r *gormMeets) ListIDsByOwner(ctx context.Context, ownerID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.Meet{}).
		Where("user_id = ?", ownerID).
		Pluck("id", &ids).Error
	return ids, translate(err)
}

func (r *gormMeets) Update(ctx context.Context, m *models.Meet) error {
	res := r.db.WithContext(ctx).
		Model(m).
		Select("location_name", "longitude", "latitude", "description", "updated_at").
		Updates(m)
	return affected(res)
}

func (r *gormMeets) Delete(ctx context.Context, id string) error {
	return affected(r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Meet{}))
}

func (r *gormMeets) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return translate(r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Meet{}).Error)
}

// Nearby narrows candidates with an indexed bounding box and ranks the
// survivors by great-circle distance.
func (r *gormMeets) Nearby(ctx context.Context, q NearbyQuery) ([]NearbyMeet, error) {
	box := geo.BoundingBox(q.Lat, q.Lng, q.RadiusKm)

	tx := r.db.WithContext(ctx).
		Where("latitude BETWEEN ? AND ?", box.MinLat, box.MaxLat).
		Where("longitude BETWEEN ? AND ?", box.MinLng, box.MaxLng).
		Where("datetime > ?", q.After)
	if q.ExcludeOwner != "" {
		tx = tx.Where("user_id <> ?", q.ExcludeOwner)
	}

	var candidates []models.Meet
	if err := tx.Find(&candidates).Error; err != nil {
		return nil, translate(err)
	}

	hits := make([]NearbyMeet, 0, len(candidates))
	for _, m := range candidates {
		d := geo.DistanceKm(q.Lat, q.Lng, m.Latitude, m.Longitude)
		if d <= q.RadiusKm {
			hits = append(hits, NearbyMeet{Meet: m, DistanceKm: d})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].DistanceKm < hits[j].DistanceKm })

	if q.Limit > 0 && len(hits) > q.Limit {
		hits = hits[:q.Limit]
	}
	return hits, nil
}

func (r *gormMeets) IncrementParticipants(ctx context.Context, id string, delta int) error {
	res := r.db.WithContext(ctx).
		Model(&models.Meet{}).
		Where("id = ?", id).
		UpdateColumn("total_participants", gorm.Expr("total_participants + ?", delta))
	return affected(res)
}
