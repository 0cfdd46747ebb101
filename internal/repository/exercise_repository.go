package repository

import (
	"context"
	"errors"
	"time"

	"exercise-service/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

var ErrNotFound = errors.New("not found")

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

type ExerciseFilter struct {
	Lang       string
	Level      models.Level
	Type       models.ExerciseType
	MaterialID string
	LessonID   string
	CreatedBy  string
	Limit      int64
	Skip       int64
}

type ExerciseRepository struct {
	Col *mongo.Collection
}

func NewExerciseRepository(db *mongo.Database) *ExerciseRepository {
	return &ExerciseRepository{Col: db.Collection("exercises")}
}

func (r *ExerciseRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.Col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "lang", Value: 1}, {Key: "level", Value: 1}, {Key: "type", Value: 1}}},
		{Keys: bson.D{{Key: "material_id", Value: 1}}},
		{Keys: bson.D{{Key: "lesson_id", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	return err
}

func (r *ExerciseRepository) Create(ctx context.Context, e *models.Exercise) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	_, err := r.Col.InsertOne(ctx, e)
	return err
}

func (r *ExerciseRepository) FindByID(ctx context.Context, id string) (*models.Exercise, error) {
	var e models.Exercise
	err := r.Col.FindOne(ctx, bson.M{"_id": id}).Decode(&e)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Update replaces the stored document, keeping its creation metadata.
func (r *ExerciseRepository) Update(ctx context.Context, e *models.Exercise) error {
	existing, err := r.FindByID(ctx, e.ID)
	if err != nil {
		return err
	}
	e.CreatedAt = existing.CreatedAt
	e.CreatedBy = existing.CreatedBy
	e.UpdatedAt = time.Now().UTC()

	res, err := r.Col.ReplaceOne(ctx, bson.M{"_id": e.ID}, e)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ExerciseRepository) Delete(ctx context.Context, id string) error {
	res, err := r.Col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ExerciseRepository) List(ctx context.Context, f ExerciseFilter) ([]models.Exercise, error) {
	query := bson.M{}
	if f.Lang != "" {
		query["lang"] = f.Lang
	}
	if f.Level != "" {
		query["level"] = f.Level
	}
	if f.Type != "" {
		query["type"] = f.Type
	}
	if f.MaterialID != "" {
		query["material_id"] = f.MaterialID
	}
	if f.LessonID != "" {
		query["lesson_id"] = f.LessonID
	}
	if f.CreatedBy != "" {
		query["created_by"] = f.CreatedBy
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit).
		SetSkip(f.Skip)

	cur, err := r.Col.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	exercises := []models.Exercise{}
	for cur.Next(ctx) {
		var e models.Exercise
		if err := cur.Decode(&e); err != nil {
			return nil, err
		}
		exercises = append(exercises, e)
	}
	return exercises, cur.Err()
}
