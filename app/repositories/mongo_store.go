package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/shashiranjanraj/meetup/app/models"
)

const (
	usersCollection     = "users"
	meetsCollection     = "meets"
	attendeesCollection = "attendees"
	eventsCollection    = "events"
)

// MongoStore is the document Store. Transactions need a replica set.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	return &MongoStore{client: client, db: client.Database(database)}
}

func (s *MongoStore) Users() UserRepository         { return &mongoUsers{c: s.db.Collection(usersCollection)} }
func (s *MongoStore) Meets() MeetRepository         { return &mongoMeets{c: s.db.Collection(meetsCollection)} }
func (s *MongoStore) Attendees() AttendeeRepository { return &mongoAttendees{c: s.db.Collection(attendeesCollection)} }
func (s *MongoStore) Events() EventRepository       { return &mongoEvents{c: s.db.Collection(eventsCollection)} }

// Transaction runs fn with a session context. A call made while a session
// is already active joins it.
func (s *MongoStore) Transaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx, s)
	}
	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("repositories: start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, s)
	})
	return err
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// EnsureIndexes creates the unique and geospatial indexes the store relies
// on. It is idempotent.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	specs := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "displayName", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "googleId", Value: 1}}, Options: options.Index().SetSparse(true)},
		},
		meetsCollection: {
			{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
			{Keys: bson.D{{Key: "user", Value: 1}}},
		},
		attendeesCollection: {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "meet", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "meet", Value: 1}, {Key: "state", Value: 1}}},
		},
		eventsCollection: {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "attendee", Value: 1}}},
			{Keys: bson.D{{Key: "meet", Value: 1}}},
		},
	}
	for name, idx := range specs {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("repositories: indexes on %s: %w", name, err)
		}
	}
	return nil
}

func translateMongo(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return err
	}
}

func matched(res *mongo.UpdateResult, err error) error {
	if err != nil {
		return translateMongo(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func findAll[D interface{ model() M }, M any](ctx context.Context, c *mongo.Collection, filter interface{}, opts ...*options.FindOptions) ([]M, error) {
	cur, err := c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, translateMongo(err)
	}
	var docs []D
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]M, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.model())
	}
	return out, nil
}

func findOne[D interface{ model() M }, M any](ctx context.Context, c *mongo.Collection, filter interface{}) (*M, error) {
	var d D
	if err := c.FindOne(ctx, filter).Decode(&d); err != nil {
		return nil, translateMongo(err)
	}
	m := d.model()
	return &m, nil
}

// ---- users ----

type mongoUsers struct {
	c *mongo.Collection
}

func (r *mongoUsers) Create(ctx context.Context, u *models.User) error {
	stamp(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	for i := range u.Memberships {
		if !models.ValidRole(u.Memberships[i].Role.Name) {
			return ErrNotFound
		}
		u.Memberships[i].UserID = u.ID
	}
	_, err := r.c.InsertOne(ctx, toUserDoc(u))
	return translateMongo(err)
}

func (r *mongoUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	return findOne[userDoc, models.User](ctx, r.c, bson.M{"_id": id})
}

func (r *mongoUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return findOne[userDoc, models.User](ctx, r.c, bson.M{"email": email})
}

func (r *mongoUsers) FindByDisplayName(ctx context.Context, name string) (*models.User, error) {
	return findOne[userDoc, models.User](ctx, r.c, bson.M{"displayName": name})
}

func (r *mongoUsers) FindByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return findOne[userDoc, models.User](ctx, r.c, bson.M{"googleId": googleID})
}

func (r *mongoUsers) FindByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return findAll[userDoc, models.User](ctx, r.c, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *mongoUsers) List(ctx context.Context) ([]models.User, error) {
	return findAll[userDoc, models.User](ctx, r.c, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
}

func (r *mongoUsers) Update(ctx context.Context, u *models.User) error {
	u.UpdatedAt = time.Now().UTC()
	d := toUserDoc(u)
	set := bson.M{
		"email":                    d.Email,
		"password":                 d.Password,
		"displayName":              d.DisplayName,
		"firstName":                d.FirstName,
		"lastName":                 d.LastName,
		"active":                   d.Active,
		"googleId":                 d.GoogleID,
		"receivePushNotifications": d.ReceivePushNotifications,
		"hideEmail":                d.HideEmail,
		"hideMe":                   d.HideMe,
		"maxDistanceKm":            d.MaxDistanceKm,
		"favourites":               d.Favourites,
		"updatedAt":                d.UpdatedAt,
	}
	return matched(r.c.UpdateOne(ctx, bson.M{"_id": u.ID}, bson.M{"$set": set}))
}

func (r *mongoUsers) Delete(ctx context.Context, id string) error {
	res, err := r.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translateMongo(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoUsers) AddRole(ctx context.Context, userID, role string) error {
	if !models.ValidRole(role) {
		return ErrNotFound
	}
	now := time.Now().UTC()
	res, err := r.c.UpdateOne(ctx,
		bson.M{"_id": userID, "memberships.role": bson.M{"$ne": role}},
		bson.M{
			"$push": bson.M{"memberships": membershipDoc{Role: role, CreatedAt: now}},
			"$set":  bson.M{"updatedAt": now},
		})
	if err != nil {
		return translateMongo(err)
	}
	if res.MatchedCount == 1 {
		return nil
	}
	n, err := r.c.CountDocuments(ctx, bson.M{"_id": userID})
	if err != nil {
		return translateMongo(err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrDuplicate
}

func (r *mongoUsers) RemoveRole(ctx context.Context, userID, role string) error {
	return matched(r.c.UpdateOne(ctx,
		bson.M{"_id": userID, "memberships.role": role},
		bson.M{
			"$pull": bson.M{"memberships": bson.M{"role": role}},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		}))
}

func (r *mongoUsers) AddFavourite(ctx context.Context, userID, item string) error {
	return matched(r.c.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{
		"$addToSet": bson.M{"favourites": item},
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
	}))
}

func (r *mongoUsers) RemoveFavourite(ctx context.Context, userID, item string) error {
	return matched(r.c.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{
		"$pull": bson.M{"favourites": item},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}))
}

// ---- meets ----

type mongoMeets struct {
	c *mongo.Collection
}

func (r *mongoMeets) Create(ctx context.Context, m *models.Meet) error {
	stamp(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	_, err := r.c.InsertOne(ctx, toMeetDoc(m))
	return translateMongo(err)
}

func (r *mongoMeets) FindByID(ctx context.Context, id string) (*models.Meet, error) {
	return findOne[meetDoc, models.Meet](ctx, r.c, bson.M{"_id": id})
}

func (r *mongoMeets) FindByIDs(ctx context.Context, ids []string) ([]models.Meet, error) {
	if len(ids) == 0 {
		return []models.Meet{}, nil
	}
	return findAll[meetDoc, models.Meet](ctx, r.c, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetSort(bson.D{{Key: "datetime", Value: 1}}))
}

func (r *mongoMeets) ListIDsByOwner(ctx context.Context, ownerID string) ([]string, error) {
	cur, err := r.c.Find(ctx, bson.M{"user": ownerID}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, translateMongo(err)
	}
	var rows []struct {
		ID string `bson:"_id"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids, nil
}

func (r *mongoMeets) Update(ctx context.Context, m *models.Meet) error {
	m.UpdatedAt = time.Now().UTC()
	d := toMeetDoc(m)
	return matched(r.c.UpdateOne(ctx, bson.M{"_id": m.ID}, bson.M{"$set": bson.M{
		"location":     d.Location,
		"locationName": d.LocationName,
		"description":  d.Description,
		"updatedAt":    d.UpdatedAt,
	}}))
}

func (r *mongoMeets) Delete(ctx context.Context, id string) error {
	res, err := r.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translateMongo(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoMeets) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.c.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	return translateMongo(err)
}

func (r *mongoMeets) Nearby(ctx context.Context, q NearbyQuery) ([]NearbyMeet, error) {
	query := bson.M{"datetime": bson.M{"$gt": q.After}}
	if q.ExcludeOwner != "" {
		query["user"] = bson.M{"$ne": q.ExcludeOwner}
	}
	pipeline := mongo.Pipeline{
		{{Key: "$geoNear", Value: bson.D{
			{Key: "near", Value: pointDoc{Type: "Point", Coordinates: []float64{q.Lng, q.Lat}}},
			{Key: "distanceField", Value: "distance"},
			{Key: "maxDistance", Value: q.RadiusKm * 1000},
			{Key: "spherical", Value: true},
			{Key: "query", Value: query},
		}}},
	}
	if q.Limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: q.Limit}})
	}

	cur, err := r.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, translateMongo(err)
	}
	var docs []nearbyDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	hits := make([]NearbyMeet, 0, len(docs))
	for _, d := range docs {
		hits = append(hits, NearbyMeet{Meet: d.meetDoc.model(), DistanceKm: d.Distance / 1000})
	}
	return hits, nil
}

func (r *mongoMeets) IncrementParticipants(ctx context.Context, id string, delta int) error {
	return matched(r.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"totalParticipants": delta},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}))
}

// ---- attendees ----

type mongoAttendees struct {
	c *mongo.Collection
}

func (r *mongoAttendees) Create(ctx context.Context, a *models.Attendee) error {
	stamp(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	_, err := r.c.InsertOne(ctx, toAttendeeDoc(a))
	return translateMongo(err)
}

func (r *mongoAttendees) FindInMeet(ctx context.Context, meetID, attendeeID string) (*models.Attendee, error) {
	return findOne[attendeeDoc, models.Attendee](ctx, r.c, bson.M{"_id": attendeeID, "meet": meetID})
}

func (r *mongoAttendees) FindByUserAndMeet(ctx context.Context, userID, meetID string) (*models.Attendee, error) {
	return findOne[attendeeDoc, models.Attendee](ctx, r.c, bson.M{"user": userID, "meet": meetID})
}

func (r *mongoAttendees) ListByMeet(ctx context.Context, meetID string, state models.AttendeeState) ([]models.Attendee, error) {
	return r.list(ctx, bson.M{"meet": meetID}, state)
}

func (r *mongoAttendees) ListByUser(ctx context.Context, userID string, state models.AttendeeState) ([]models.Attendee, error) {
	return r.list(ctx, bson.M{"user": userID}, state)
}

func (r *mongoAttendees) list(ctx context.Context, filter bson.M, state models.AttendeeState) ([]models.Attendee, error) {
	if state != "" {
		filter["state"] = string(state)
	}
	return findAll[attendeeDoc, models.Attendee](ctx, r.c, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
}

func (r *mongoAttendees) TransitionState(ctx context.Context, id string, from, to models.AttendeeState) (bool, error) {
	res, err := r.c.UpdateOne(ctx,
		bson.M{"_id": id, "state": string(from)},
		bson.M{"$set": bson.M{"state": string(to), "updatedAt": time.Now().UTC()}})
	if err != nil {
		return false, translateMongo(err)
	}
	return res.MatchedCount == 1, nil
}

func (r *mongoAttendees) MarkSeen(ctx context.Context, id string) error {
	return matched(r.c.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"seen": true, "updatedAt": time.Now().UTC()}}))
}

func (r *mongoAttendees) Delete(ctx context.Context, id string) error {
	res, err := r.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translateMongo(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoAttendees) DeleteByMeets(ctx context.Context, meetIDs []string) error {
	if len(meetIDs) == 0 {
		return nil
	}
	_, err := r.c.DeleteMany(ctx, bson.M{"meet": bson.M{"$in": meetIDs}})
	return translateMongo(err)
}

func (r *mongoAttendees) DeleteByUser(ctx context.Context, userID string) error {
	_, err := r.c.DeleteMany(ctx, bson.M{"user": userID})
	return translateMongo(err)
}

// ---- events ----

type mongoEvents struct {
	c *mongo.Collection
}

func (r *mongoEvents) Create(ctx context.Context, e *models.Event) error {
	stamp(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	_, err := r.c.InsertOne(ctx, toEventDoc(e))
	return translateMongo(err)
}

func (r *mongoEvents) ListByUser(ctx context.Context, userID string) ([]models.Event, error) {
	return findAll[eventDoc, models.Event](ctx, r.c, bson.M{"user": userID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

func (r *mongoEvents) ClearActionRequired(ctx context.Context, attendeeID string) (int64, error) {
	res, err := r.c.UpdateMany(ctx,
		bson.M{"attendee": attendeeID, "actionRequired": true},
		bson.M{"$set": bson.M{"actionRequired": false, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return 0, translateMongo(err)
	}
	return res.ModifiedCount, nil
}

func (r *mongoEvents) DeleteByAttendee(ctx context.Context, attendeeID string) error {
	_, err := r.c.DeleteMany(ctx, bson.M{"attendee": attendeeID})
	return translateMongo(err)
}

func (r *mongoEvents) DeleteByMeets(ctx context.Context, meetIDs []string) error {
	if len(meetIDs) == 0 {
		return nil
	}
	_, err := r.c.DeleteMany(ctx, bson.M{"meet": bson.M{"$in": meetIDs}})
	return translateMongo(err)
}

func (r *mongoEvents) DeleteByUser(ctx context.Context, userID string) error {
	_, err := r.c.DeleteMany(ctx, bson.M{"user": userID})
	return translateMongo(err)
}
