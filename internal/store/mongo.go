package store

import (
	"context"
	"regexp"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/taskmanager/internal/apperr"
	"github.com/ayush/taskmanager/internal/models"
)

const (
	tasksCollection   = "tasks"
	classesCollection = "classes"
	usersCollection   = "users"
)

// insertion order
var byCreation = bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}

// EnsureIndexes creates the indexes the stores rely on. The unique username
// index is what turns a racing duplicate registration into a conflict.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return errors.Wrap(err, "users index")
	}
	_, err = db.Collection(tasksCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "owner", Value: 1}, {Key: "created_at", Value: 1}},
	})
	if err != nil {
		return errors.Wrap(err, "tasks index")
	}
	_, err = db.Collection(classesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "day", Value: 1}, {Key: "start_time", Value: 1}},
	})
	return errors.Wrap(err, "classes index")
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperr.ErrNotFound
	}
	return oid, nil
}

func findErr(op string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.ErrNotFound
	}
	return apperr.Store(op, err)
}

func duplicateErr(op string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return apperr.ErrConflict
	}
	return apperr.Store(op, err)
}

// ownerFilter matches a user's tasks, or the ownerless ones for "".
// A null query also matches documents without the field.
func ownerFilter(owner string) bson.M {
	if owner == "" {
		return bson.M{"owner": nil}
	}
	return bson.M{"owner": owner}
}

// MongoTaskStore handles task CRUD in MongoDB.
type MongoTaskStore struct {
	col *mongo.Collection
}

func NewMongoTaskStore(db *mongo.Database) *MongoTaskStore {
	return &MongoTaskStore{col: db.Collection(tasksCollection)}
}

func (s *MongoTaskStore) Insert(ctx context.Context, t *models.Task) error {
	now := time.Now()
	t.CreatedAt, t.UpdatedAt = now, now
	res, err := s.col.InsertOne(ctx, t)
	if err != nil {
		return apperr.Store("mongo insert task", err)
	}
	t.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *MongoTaskStore) List(ctx context.Context, owner string) ([]models.Task, error) {
	return s.find(ctx, ownerFilter(owner))
}

// Search matches text case-insensitively; query is taken literally.
func (s *MongoTaskStore) Search(ctx context.Context, owner, query string) ([]models.Task, error) {
	filter := ownerFilter(owner)
	filter["text"] = primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	return s.find(ctx, filter)
}

func (s *MongoTaskStore) find(ctx context.Context, filter bson.M) ([]models.Task, error) {
	cur, err := s.col.Find(ctx, filter, options.Find().SetSort(byCreation))
	if err != nil {
		return nil, apperr.Store("mongo find tasks", err)
	}
	defer cur.Close(ctx)

	var tasks []models.Task
	if err := cur.All(ctx, &tasks); err != nil {
		return nil, apperr.Store("mongo decode tasks", err)
	}
	return tasks, nil
}

func (s *MongoTaskStore) GetByID(ctx context.Context, id string) (*models.Task, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var t models.Task
	if err := s.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&t); err != nil {
		return nil, findErr("mongo get task", err)
	}
	return &t, nil
}

func (s *MongoTaskStore) Update(ctx context.Context, t *models.Task) error {
	t.UpdatedAt = time.Now()
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": t.ID}, bson.M{"$set": bson.M{
		"text":       t.Text,
		"completed":  t.Completed,
		"alarm":      t.Alarm,
		"updated_at": t.UpdatedAt,
	}})
	if err != nil {
		return apperr.Store("mongo update task", err)
	}
	if res.MatchedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (s *MongoTaskStore) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return apperr.Store("mongo delete task", err)
	}
	if res.DeletedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// MongoClassStore handles timetable CRUD in MongoDB.
type MongoClassStore struct {
	col *mongo.Collection
}

func NewMongoClassStore(db *mongo.Database) *MongoClassStore {
	return &MongoClassStore{col: db.Collection(classesCollection)}
}

func (s *MongoClassStore) Insert(ctx context.Context, c *models.Class) error {
	now := time.Now()
	c.CreatedAt, c.UpdatedAt = now, now
	res, err := s.col.InsertOne(ctx, c)
	if err != nil {
		return apperr.Store("mongo insert class", err)
	}
	c.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *MongoClassStore) List(ctx context.Context) ([]models.Class, error) {
	cur, err := s.col.Find(ctx, bson.M{}, options.Find().SetSort(byCreation))
	if err != nil {
		return nil, apperr.Store("mongo find classes", err)
	}
	defer cur.Close(ctx)

	var classes []models.Class
	if err := cur.All(ctx, &classes); err != nil {
		return nil, apperr.Store("mongo decode classes", err)
	}
	return classes, nil
}

func (s *MongoClassStore) GetByID(ctx context.Context, id string) (*models.Class, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var c models.Class
	if err := s.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&c); err != nil {
		return nil, findErr("mongo get class", err)
	}
	return &c, nil
}

func (s *MongoClassStore) Update(ctx context.Context, c *models.Class) error {
	c.UpdatedAt = time.Now()
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": c.ID}, bson.M{"$set": bson.M{
		"subject":    c.Subject,
		"day":        c.Day,
		"start_time": c.StartTime,
		"end_time":   c.EndTime,
		"alarm":      c.Alarm,
		"updated_at": c.UpdatedAt,
	}})
	if err != nil {
		return apperr.Store("mongo update class", err)
	}
	if res.MatchedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (s *MongoClassStore) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return apperr.Store("mongo delete class", err)
	}
	if res.DeletedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// userDoc is the stored shape of models.User.
type userDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Username       string             `bson:"username"`
	PasswordHash   string             `bson:"password"`
	Name           string             `bson:"name"`
	Bio            string             `bson:"bio"`
	ProfilePicture string             `bson:"profile_picture"`
	CreatedAt      time.Time          `bson:"created_at"`
}

func (d *userDoc) user() *models.User {
	return &models.User{
		ID:             d.ID.Hex(),
		Username:       d.Username,
		PasswordHash:   d.PasswordHash,
		Name:           d.Name,
		Bio:            d.Bio,
		ProfilePicture: d.ProfilePicture,
		CreatedAt:      d.CreatedAt,
	}
}

// MongoUserStore handles accounts in MongoDB.
type MongoUserStore struct {
	col *mongo.Collection
}

func NewMongoUserStore(db *mongo.Database) *MongoUserStore {
	return &MongoUserStore{col: db.Collection(usersCollection)}
}

func (s *MongoUserStore) CreateUser(ctx context.Context, username, hashedPassword string) (*models.User, error) {
	doc := userDoc{Username: username, PasswordHash: hashedPassword, CreatedAt: time.Now()}
	res, err := s.col.InsertOne(ctx, doc)
	if err != nil {
		return nil, duplicateErr("mongo insert user", err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.user(), nil
}

func (s *MongoUserStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"username": username})
}

func (s *MongoUserStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

func (s *MongoUserStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDoc
	if err := s.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, findErr("mongo get user", err)
	}
	return doc.user(), nil
}

func (s *MongoUserStore) UpdateProfile(ctx context.Context, id string, p models.Profile) error {
	return s.set(ctx, id, bson.M{"name": p.Name, "bio": p.Bio})
}

func (s *MongoUserStore) SetProfilePicture(ctx context.Context, id, key string) error {
	return s.set(ctx, id, bson.M{"profile_picture": key})
}

func (s *MongoUserStore) set(ctx context.Context, id string, fields bson.M) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": fields})
	if err != nil {
		return apperr.Store("mongo update user", err)
	}
	if res.MatchedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
