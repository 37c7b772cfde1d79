// Package mongo implements store.Store on MongoDB.
//
// Collections: projects (keyed by project id), users (keyed by user id),
// tasks (one document per task, carrying user_id so a user's tasks read as
// a sub-collection) and counters (per-project task sequence).
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/nexio-dev/nexbot/internal/records"
	"github.com/nexio-dev/nexbot/internal/store"
)

const (
	projectsCollection = "projects"
	usersCollection    = "users"
	tasksCollection    = "tasks"
	countersCollection = "counters"
)

// Store is the MongoDB-backed record store.
type Store struct {
	client   *mongo.Client
	projects *mongo.Collection
	users    *mongo.Collection
	tasks    *mongo.Collection
	counters *mongo.Collection
	logger   *zap.Logger
}

var _ store.Store = (*Store)(nil)

// connect is a package-level var to allow test injection.
var connect = mongo.Connect

// Open connects to uri, verifies the connection and ensures indexes.
func Open(ctx context.Context, uri, database string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client:   client,
		projects: db.Collection(projectsCollection),
		users:    db.Collection(usersCollection),
		tasks:    db.Collection(tasksCollection),
		counters: db.Collection(countersCollection),
		logger:   logger,
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo: indexes: %w", err)
	}

	logger.Info("mongo store ready", zap.String("database", database))
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	if _, err := s.projects.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "channel_id", Value: 1}}},
		{Keys: bson.D{{Key: "role_id", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("projects: %w", err)
	}
	if _, err := s.tasks.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "project_id", Value: 1}, {Key: "inserted", Value: 1}},
	}); err != nil {
		return fmt.Errorf("tasks: %w", err)
	}
	return nil
}

// Ping checks the server connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// --- Projects ---

// CreateProject inserts a project. The _id index rejects collisions.
func (s *Store) CreateProject(ctx context.Context, p *records.Project) error {
	if err := records.Validate(p); err != nil {
		return err
	}
	_, err := s.projects.InsertOne(ctx, p)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("project %q: %w", p.ID, store.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("inserting project %q: %w", p.ID, err)
	}
	return nil
}

// Project loads a project by id.
func (s *Store) Project(ctx context.Context, id string) (*records.Project, error) {
	return s.findProject(ctx, bson.M{"_id": id}, id)
}

// ProjectByChannel loads the project whose channel is channelID.
func (s *Store) ProjectByChannel(ctx context.Context, channelID string) (*records.Project, error) {
	return s.findProject(ctx, bson.M{"channel_id": channelID}, channelID)
}

// ProjectByGroup loads the project whose access role is groupID.
func (s *Store) ProjectByGroup(ctx context.Context, groupID string) (*records.Project, error) {
	return s.findProject(ctx, bson.M{"role_id": groupID}, groupID)
}

func (s *Store) findProject(ctx context.Context, filter bson.M, key string) (*records.Project, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}})

	var p records.Project
	err := s.projects.FindOne(ctx, filter, opts).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("project %q: %w", key, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading project %q: %w", key, err)
	}
	return &p, nil
}

// --- Tasks ---

// NextTaskSequence increments the project's counter with an upsert, so
// concurrent callers always see distinct values.
func (s *Store) NextTaskSequence(ctx context.Context, projectID string) (int, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter struct {
		Seq int `bson:"seq"`
	}
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": projectID},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("task sequence for %q: %w", projectID, err)
	}
	return counter.Seq, nil
}

// taskDoc is the stored shape of a task. Inserted orders a user's tasks.
type taskDoc struct {
	Key          string             `bson:"_id"`
	Inserted     primitive.ObjectID `bson:"inserted"`
	records.Task `bson:",inline"`
}

func taskKey(userID, taskID string) string {
	return userID + "/" + taskID
}

// CreateTask inserts a task under its assignee. The _id index rejects reuse
// of an id.
func (s *Store) CreateTask(ctx context.Context, t *records.Task) error {
	if err := records.Validate(t); err != nil {
		return err
	}
	_, err := s.tasks.InsertOne(ctx, taskDoc{
		Key:      taskKey(t.UserID, t.ID),
		Inserted: primitive.NewObjectID(),
		Task:     *t,
	})
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("task %q for %q: %w", t.ID, t.UserID, store.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("storing task %q for %q: %w", t.ID, t.UserID, err)
	}
	return nil
}

// TasksForUser returns every task of a user in insertion order.
func (s *Store) TasksForUser(ctx context.Context, userID string) ([]records.Task, error) {
	return s.findTasks(ctx, bson.M{"user_id": userID})
}

// TasksForUserInProject returns a user's tasks belonging to one project.
func (s *Store) TasksForUserInProject(ctx context.Context, userID, projectID string) ([]records.Task, error) {
	return s.findTasks(ctx, bson.M{"user_id": userID, "project_id": projectID})
}

func (s *Store) findTasks(ctx context.Context, filter bson.M) ([]records.Task, error) {
	cur, err := s.tasks.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "inserted", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}

	var docs []taskDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding tasks: %w", err)
	}
	tasks := make([]records.Task, 0, len(docs))
	for _, d := range docs {
		tasks = append(tasks, d.Task)
	}
	return tasks, nil
}

// --- Profiles ---

// PutProfile creates or overwrites a profile. Verified goes through $max so
// a stored true is kept.
func (s *Store) PutProfile(ctx context.Context, p *records.UserProfile) error {
	if err := records.Validate(p); err != nil {
		return err
	}
	set, err := profileDocument(p)
	if err != nil {
		return fmt.Errorf("encoding profile %q: %w", p.ID, err)
	}
	update := bson.M{
		"$set": set,
		"$max": bson.M{"verified": p.Verified},
	}
	if p.Location == nil {
		update["$unset"] = bson.M{"location": ""}
	}
	_, err = s.users.UpdateOne(ctx, bson.M{"_id": p.ID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("storing profile %q: %w", p.ID, err)
	}
	return nil
}

// Profile loads a profile by user id.
func (s *Store) Profile(ctx context.Context, userID string) (*records.UserProfile, error) {
	var p records.UserProfile
	err := s.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("profile %q: %w", userID, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading profile %q: %w", userID, err)
	}
	return &p, nil
}

// UpdateProfile sets only the fields present in u. It never upserts.
func (s *Store) UpdateProfile(ctx context.Context, userID string, u records.ProfileUpdate) (*records.UserProfile, error) {
	if err := records.Validate(u); err != nil {
		return nil, err
	}
	set := profileUpdateSet(u)
	if len(set) == 0 {
		return s.Profile(ctx, userID)
	}

	var p records.UserProfile
	err := s.users.FindOneAndUpdate(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("profile %q: %w", userID, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("updating profile %q: %w", userID, err)
	}
	return &p, nil
}

// profileDocument encodes p for $set, without the fields the update
// operators own.
func profileDocument(p *records.UserProfile) (bson.M, error) {
	raw, err := bson.Marshal(p)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	delete(doc, "_id")
	delete(doc, "verified")
	return doc, nil
}

// profileUpdateSet maps a partial update onto stored field names.
func profileUpdateSet(u records.ProfileUpdate) bson.M {
	set := bson.M{}
	if u.DisplayName != nil {
		set["display_name"] = *u.DisplayName
	}
	if u.Bio != nil {
		set["bio"] = *u.Bio
	}
	if u.RepositoryLink != nil {
		set["github"] = *u.RepositoryLink
	}
	if u.Location != nil {
		set["location"] = *u.Location
	}
	if u.Secret != nil {
		set["password"] = *u.Secret
	}
	if u.Verified {
		set["verified"] = true
	}
	return set
}
