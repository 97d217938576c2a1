// Package mongo stores workouts as documents in a MongoDB collection.
package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rwaynewhite15/logtivity/internal/domain"
)

// CollectionName is the collection workouts are stored in.
const CollectionName = "workouts"

// workoutDocument is the stored shape. Numeric fields written by other tools as
// doubles are truncated into the integer counters.
type workoutDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Exercise  string             `bson:"exercise"`
	Sets      int                `bson:"sets,truncate"`
	Reps      int                `bson:"reps,truncate"`
	Weight    float64            `bson:"weight"`
	Duration  float64            `bson:"duration"`
	CreatedAt time.Time          `bson:"date"`
}

func (d workoutDocument) toDomain() domain.Workout {
	return domain.Workout{
		ID:        d.ID.Hex(),
		Exercise:  d.Exercise,
		Sets:      d.Sets,
		Reps:      d.Reps,
		Weight:    d.Weight,
		Duration:  d.Duration,
		CreatedAt: d.CreatedAt.UTC(),
	}
}

// Repository provides MongoDB-backed persistence for workouts.
type Repository struct {
	collection *mongo.Collection
}

// NewRepository constructs a Repository over the workouts collection of db.
func NewRepository(db *mongo.Database) *Repository {
	return &Repository{collection: db.Collection(CollectionName)}
}

// Insert implements domain.Repository. Identifiers are fresh ObjectIDs.
func (r *Repository) Insert(ctx context.Context, workout domain.NewWorkout) (domain.Workout, error) {
	doc := workoutDocument{
		ID:       primitive.NewObjectID(),
		Exercise: workout.Exercise,
		Sets:     workout.Sets,
		Reps:     workout.Reps,
		Weight:   workout.Weight,
		Duration: workout.Duration,
		// BSON dates carry millisecond precision.
		CreatedAt: workout.CreatedAt.UTC().Truncate(time.Millisecond),
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return domain.Workout{}, err
	}
	return doc.toDomain(), nil
}

// List implements domain.Repository, ordering by _id which follows insertion.
func (r *Repository) List(ctx context.Context) ([]domain.Workout, error) {
	cursor, err := r.collection.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}

	var docs []workoutDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	results := make([]domain.Workout, 0, len(docs))
	for _, doc := range docs {
		results = append(results, doc.toDomain())
	}
	return results, nil
}

// Delete implements domain.Repository. An id that is not a valid ObjectID cannot
// match any document and is reported as absent.
func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}

	res, err := r.collection.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}
