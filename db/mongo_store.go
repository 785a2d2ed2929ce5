package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"terrainhub/models"
	"terrainhub/rules"
)

const (
	CourtsCollection   = "terrains"
	CommentsCollection = "comments"
	ReportsCollection  = "reports"
	UsersCollection    = "users"
)

// MongoStore implements the service stores on top of a MongoDB database.
type MongoStore struct {
	courts   *mongo.Collection
	comments *mongo.Collection
	reports  *mongo.Collection
	users    *mongo.Collection
}

func NewMongoStore(database *mongo.Database) *MongoStore {
	return &MongoStore{
		courts:   database.Collection(CourtsCollection),
		comments: database.Collection(CommentsCollection),
		reports:  database.Collection(ReportsCollection),
		users:    database.Collection(UsersCollection),
	}
}

// EnsureIndexes creates the indexes the store relies on. The reports index
// is what rejects a second report from the same reporter.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	indexes := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{s.users, mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{s.reports, mongo.IndexModel{
			Keys:    bson.D{{Key: "type", Value: 1}, {Key: "targetId", Value: 1}, {Key: "reporterId", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{s.reports, mongo.IndexModel{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}}},
		{s.courts, mongo.IndexModel{Keys: bson.D{{Key: "location.lat", Value: 1}, {Key: "location.lng", Value: 1}}}},
		{s.courts, mongo.IndexModel{Keys: bson.D{{Key: "createdBy", Value: 1}, {Key: "createdAt", Value: -1}}}},
		{s.courts, mongo.IndexModel{Keys: bson.D{{Key: "ratings.userId", Value: 1}}}},
		{s.comments, mongo.IndexModel{Keys: bson.D{{Key: "terrainId", Value: 1}, {Key: "createdAt", Value: -1}}}},
	}
	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateOne(ctx, idx.model); err != nil {
			return fmt.Errorf("create index on %s: %w", idx.coll.Name(), err)
		}
	}
	return nil
}

// translate maps driver errors onto rule kinds.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%w: %s", rules.ErrNotFound, what)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %s", rules.ErrDuplicate, what)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter any, opts *options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

var newestFirstSort = bson.D{{Key: "createdAt", Value: -1}}

// Courts

func (s *MongoStore) InsertCourt(ctx context.Context, c *models.Court) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	_, err := s.courts.InsertOne(ctx, c)
	return translate(err, "insert court")
}

func (s *MongoStore) FindCourt(ctx context.Context, id primitive.ObjectID) (models.Court, error) {
	var c models.Court
	err := s.courts.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	return c, translate(err, "court "+id.Hex())
}

func (s *MongoStore) FindCourtNear(ctx context.Context, p rules.Point, tol float64) (models.Court, error) {
	filter := bson.M{
		"isDeleted":    bson.M{"$ne": true},
		"location.lat": bson.M{"$gte": p.Lat - tol, "$lte": p.Lat + tol},
		"location.lng": bson.M{"$gte": p.Lng - tol, "$lte": p.Lng + tol},
	}
	var c models.Court
	err := s.courts.FindOne(ctx, filter).Decode(&c)
	return c, translate(err, "court at "+rules.CoordinateRef(p.Lat, p.Lng))
}

func (s *MongoStore) ListCourts(ctx context.Context) ([]models.Court, error) {
	courts, err := findAll[models.Court](ctx, s.courts, bson.M{"isDeleted": bson.M{"$ne": true}}, options.Find().SetSort(newestFirstSort))
	return courts, translate(err, "list courts")
}

func (s *MongoStore) ListCourtsByOwner(ctx context.Context, owner string, limit int) ([]models.Court, error) {
	opts := options.Find().SetSort(newestFirstSort)
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	courts, err := findAll[models.Court](ctx, s.courts, bson.M{"createdBy": owner}, opts)
	return courts, translate(err, "list courts by owner")
}

func (s *MongoStore) CountCourtsByOwner(ctx context.Context, owner string) (int64, error) {
	n, err := s.courts.CountDocuments(ctx, bson.M{"createdBy": owner})
	return n, translate(err, "count courts")
}

func (s *MongoStore) ListCourtsRatedBy(ctx context.Context, userID string) ([]models.Court, error) {
	courts, err := findAll[models.Court](ctx, s.courts, bson.M{"ratings.userId": userID}, options.Find())
	return courts, translate(err, "list rated courts")
}

// replaceRevision writes doc when the stored revision still equals rev.
func replaceRevision(ctx context.Context, coll *mongo.Collection, id primitive.ObjectID, rev int64, doc any, what string) error {
	res, err := coll.ReplaceOne(ctx, bson.M{"_id": id, "revision": rev}, doc)
	if err != nil {
		return translate(err, what)
	}
	if res.MatchedCount == 0 {
		n, err := coll.CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return translate(err, what)
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", rules.ErrNotFound, what)
		}
		return fmt.Errorf("%w: %s", rules.ErrConflict, what)
	}
	return nil
}

func (s *MongoStore) ReplaceCourt(ctx context.Context, c *models.Court) error {
	next := c.Clone()
	next.Revision = c.Revision + 1
	if err := replaceRevision(ctx, s.courts, c.ID, c.Revision, next, "court "+c.ID.Hex()); err != nil {
		return err
	}
	c.Revision = next.Revision
	return nil
}

// Comments

func (s *MongoStore) InsertComment(ctx context.Context, c *models.Comment) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	_, err := s.comments.InsertOne(ctx, c)
	return translate(err, "insert comment")
}

func (s *MongoStore) FindComment(ctx context.Context, id primitive.ObjectID) (models.Comment, error) {
	var c models.Comment
	err := s.comments.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	return c, translate(err, "comment "+id.Hex())
}

func (s *MongoStore) ListComments(ctx context.Context, courtID primitive.ObjectID, limit int) ([]models.Comment, error) {
	opts := options.Find().SetSort(newestFirstSort)
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	comments, err := findAll[models.Comment](ctx, s.comments, bson.M{"terrainId": courtID, "isDeleted": bson.M{"$ne": true}}, opts)
	return comments, translate(err, "list comments")
}

func (s *MongoStore) ReplaceComment(ctx context.Context, c *models.Comment) error {
	next := c.Clone()
	next.Revision = c.Revision + 1
	if err := replaceRevision(ctx, s.comments, c.ID, c.Revision, next, "comment "+c.ID.Hex()); err != nil {
		return err
	}
	c.Revision = next.Revision
	return nil
}

// Reports

func (s *MongoStore) InsertReport(ctx context.Context, r *models.Report) error {
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	_, err := s.reports.InsertOne(ctx, r)
	return translate(err, "already reported")
}

func (s *MongoStore) FindReport(ctx context.Context, id primitive.ObjectID) (models.Report, error) {
	var r models.Report
	err := s.reports.FindOne(ctx, bson.M{"_id": id}).Decode(&r)
	return r, translate(err, "report "+id.Hex())
}

func (s *MongoStore) ListReports(ctx context.Context, status models.ReportStatus, limit int) ([]models.Report, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(newestFirstSort)
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	reports, err := findAll[models.Report](ctx, s.reports, filter, opts)
	return reports, translate(err, "list reports")
}

func (s *MongoStore) ResolveReport(ctx context.Context, id primitive.ObjectID, status models.ReportStatus, by string, at time.Time) (models.Report, error) {
	var r models.Report
	err := s.reports.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": models.ReportPending},
		bson.M{"$set": bson.M{"status": status, "resolvedAt": at, "resolvedBy": by}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, ferr := s.FindReport(ctx, id); ferr != nil {
			return models.Report{}, ferr
		}
		return models.Report{}, fmt.Errorf("%w: report %s already reviewed", rules.ErrConflict, id.Hex())
	}
	return r, translate(err, "resolve report")
}

func (s *MongoStore) DeleteReport(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.reports.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate(err, "delete report")
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: report %s", rules.ErrNotFound, id.Hex())
	}
	return nil
}

// Users

var returnAfter = options.FindOneAndUpdate().SetReturnDocument(options.After)

func (s *MongoStore) FindUser(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	return u, translate(err, "user "+email)
}

// seedFields returns the $setOnInsert document of a new user, minus the
// paths the same update already sets.
func seedFields(seed models.User, skip ...string) bson.M {
	doc := bson.M{
		"name":            seed.Name,
		"image":           seed.Image,
		"username":        seed.Username,
		"role":            seed.Role,
		"points":          seed.Points,
		"level":           seed.Level,
		"badges":          seed.Badges,
		"unlockedAvatars": seed.UnlockedAvatars,
		"unlockedBanners": seed.UnlockedBanners,
		"currentAvatar":   seed.CurrentAvatar,
		"currentBanner":   seed.CurrentBanner,
		"stats":           seed.Stats,
		"createdAt":       seed.CreatedAt,
		"updatedAt":       seed.UpdatedAt,
	}
	for _, k := range skip {
		delete(doc, k)
	}
	return doc
}

func (s *MongoStore) EnsureUser(ctx context.Context, seed models.User) (models.User, error) {
	var u models.User
	err := s.users.FindOneAndUpdate(ctx,
		bson.M{"email": seed.Email},
		bson.M{"$setOnInsert": seedFields(seed)},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&u)
	return u, translate(err, "ensure user "+seed.Email)
}

func ifNull(path string, def any) bson.M {
	return bson.M{"$ifNull": bson.A{"$" + path, def}}
}

// derivedLevel is floor(points/perLevel)+1 over the document's current points.
func derivedLevel(pointsPerLevel int) bson.M {
	if pointsPerLevel <= 0 {
		pointsPerLevel = rules.DefaultPolicy().PointsPerLevel
	}
	return bson.M{"$toInt": bson.M{"$add": bson.A{
		bson.M{"$floor": bson.M{"$divide": bson.A{bson.M{"$max": bson.A{"$points", 0}}, pointsPerLevel}}},
		1,
	}}}
}

// AddProgress runs as a pipeline update so the level is derived from the
// points the same write produced.
func (s *MongoStore) AddProgress(ctx context.Context, email string, delta models.ProgressDelta, pointsPerLevel int) (models.User, error) {
	counters := bson.D{
		{Key: "points", Value: bson.M{"$add": bson.A{ifNull("points", 0), delta.Points}}},
		{Key: "updatedAt", Value: time.Now().UTC()},
	}
	if delta.Stat != "" {
		path := "stats." + string(delta.Stat)
		counters = append(counters, bson.E{Key: path, Value: bson.M{"$add": bson.A{ifNull(path, 0), delta.StatDelta}}})
	}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: counters}},
		{{Key: "$set", Value: bson.D{{Key: "level", Value: derivedLevel(pointsPerLevel)}}}},
	}

	var u models.User
	err := s.users.FindOneAndUpdate(ctx, bson.M{"email": email}, pipeline, returnAfter).Decode(&u)
	return u, translate(err, "user "+email)
}

func (s *MongoStore) PushBadge(ctx context.Context, email string, badge models.UserBadge, cond rules.Predicate) (models.User, error) {
	filter := bson.M{
		"email":     email,
		"badges.id": bson.M{"$ne": badge.ID},
	}
	if field := cond.Field(); field != "" {
		filter[field] = bson.M{"$gte": cond.Threshold}
	}
	update := bson.M{
		"$push": bson.M{"badges": badge},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}

	var u models.User
	err := s.users.FindOneAndUpdate(ctx, filter, update, returnAfter).Decode(&u)
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return u, translate(err, "user "+email)
	}

	current, ferr := s.FindUser(ctx, email)
	if ferr != nil {
		return models.User{}, ferr
	}
	for _, b := range current.Badges {
		if b.ID == badge.ID {
			return models.User{}, fmt.Errorf("%w: %s", rules.ErrAlreadyUnlocked, badge.ID)
		}
	}
	return models.User{}, fmt.Errorf("%w: %s", rules.ErrConditionNotMet, badge.ID)
}

func (s *MongoStore) Purchase(ctx context.Context, email string, c rules.Category, item models.UnlockedItem, pointsPerLevel int) (models.User, error) {
	filter := bson.M{
		"email":                   email,
		"points":                  bson.M{"$gte": item.Cost},
		c.UnlockedField() + ".id": bson.M{"$ne": item.ID},
	}
	unlocked := bson.M{"$concatArrays": bson.A{
		ifNull(c.UnlockedField(), bson.A{}),
		bson.A{bson.M{"$literal": item}},
	}}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "points", Value: bson.M{"$subtract": bson.A{"$points", item.Cost}}},
			{Key: c.UnlockedField(), Value: unlocked},
			{Key: c.CurrentField(), Value: bson.M{"$literal": item.ID}},
			{Key: "updatedAt", Value: time.Now().UTC()},
		}}},
		{{Key: "$set", Value: bson.D{{Key: "level", Value: derivedLevel(pointsPerLevel)}}}},
	}

	var u models.User
	err := s.users.FindOneAndUpdate(ctx, filter, pipeline, returnAfter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, fmt.Errorf("%w: purchase of %s", rules.ErrConflict, item.ID)
	}
	return u, translate(err, "user "+email)
}

func (s *MongoStore) Equip(ctx context.Context, email string, c rules.Category, itemID string) (models.User, error) {
	filter := bson.M{"email": email}
	if itemID != models.DefaultItemID {
		filter[c.UnlockedField()+".id"] = itemID
	}
	update := bson.M{"$set": bson.M{c.CurrentField(): itemID, "updatedAt": time.Now().UTC()}}

	var u models.User
	err := s.users.FindOneAndUpdate(ctx, filter, update, returnAfter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, fmt.Errorf("%w: %s is locked", rules.ErrConflict, itemID)
	}
	return u, translate(err, "user "+email)
}

func (s *MongoStore) UpdateProfile(ctx context.Context, email string, in rules.ProfileInput, seed models.User) (models.User, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if in.Name != "" {
		set["name"] = in.Name
	}
	if in.Username != "" {
		set["username"] = in.Username
	}
	if in.Image != "" {
		set["image"] = in.Image
	}
	skip := make([]string, 0, len(set))
	for k := range set {
		skip = append(skip, k)
	}

	var u models.User
	err := s.users.FindOneAndUpdate(ctx,
		bson.M{"email": email},
		bson.M{"$set": set, "$setOnInsert": seedFields(seed, skip...)},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&u)
	return u, translate(err, "user "+email)
}

func (s *MongoStore) SetRole(ctx context.Context, email string, role models.Role) error {
	res, err := s.users.UpdateOne(ctx, bson.M{"email": email}, bson.M{"$set": bson.M{"role": role, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return translate(err, "user "+email)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: user %s", rules.ErrNotFound, email)
	}
	return nil
}
