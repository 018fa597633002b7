// Package services holds the business rules. Services talk to the store
// through repositories.Store, return *apperr.Error for every failure a
// client can act on, and fire committed events on the bus.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shashiranjanraj/meetup/app/models"
	"github.com/shashiranjanraj/meetup/app/repositories"
	"github.com/shashiranjanraj/meetup/pkg/apperr"
	"github.com/shashiranjanraj/meetup/pkg/cache"
	"github.com/shashiranjanraj/meetup/pkg/event"
	"github.com/shashiranjanraj/meetup/pkg/metrics"
)

// EventCreated is fired with a models.Event after the transaction that
// stored it commits.
const EventCreated = "event.created"

const (
	msgBodyInvalid      = "Request body invalid."
	msgEmailTaken       = "User with that email already exists."
	msgDisplayNameTaken = "User with that display name already exists."
	msgMeetStarted      = "Meet has already started."
)

// runTx runs fn in a store transaction and records its latency under op.
func runTx(ctx context.Context, store repositories.Store, op string, fn func(ctx context.Context, tx repositories.Store) error) (err error) {
	defer metrics.ObserveTx(op, time.Now(), &err)
	return store.Transaction(ctx, fn)
}

// internal passes API errors through and wraps everything else.
func internal(op string, err error) error {
	var e *apperr.Error
	if errors.As(err, &e) {
		return err
	}
	return apperr.Internal(fmt.Errorf("%s: %w", op, err))
}

// lookup maps a store miss to NotFound for entity.
func lookup(op, entity string, err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperr.NotFound(entity)
	}
	return internal(op, err)
}

func publish(ctx context.Context, bus *event.Bus, events []models.Event) {
	for _, e := range events {
		bus.Fire(ctx, EventCreated, e)
	}
}

// UserCache keeps authenticated users in Redis keyed by id. A nil cache
// disables it.
type UserCache struct {
	c   *cache.Cache
	ttl time.Duration
}

func NewUserCache(c *cache.Cache, ttl time.Duration) *UserCache {
	return &UserCache{c: c, ttl: ttl}
}

func userKey(id string) string { return "users:" + id }

func (uc *UserCache) Get(ctx context.Context, id string) (*models.User, bool) {
	if uc == nil {
		return nil, false
	}
	var u models.User
	if !uc.c.Get(ctx, userKey(id), &u) {
		return nil, false
	}
	return &u, true
}

func (uc *UserCache) Put(ctx context.Context, u *models.User) {
	if uc == nil {
		return
	}
	_ = uc.c.Set(ctx, userKey(u.ID), u, uc.ttl)
}

func (uc *UserCache) Forget(ctx context.Context, id string) {
	if uc == nil {
		return
	}
	_ = uc.c.Del(ctx, userKey(id))
}
