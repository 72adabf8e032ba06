package farms

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/NYARANGA-ROB/Smart/internal/models"
)

// Repository defines persistence operations for farms. Lookups return
// (nil, nil) when the farm does not exist.
type Repository interface {
	Create(ctx context.Context, f *models.Farm) error
	Get(ctx context.Context, id string) (*models.Farm, error)
	AddMember(ctx context.Context, id, uid string) error
	// ApplyPlan increments the farm's planned area and records the plan id.
	// Both mutations are field-level so concurrent plan creations merge.
	ApplyPlan(ctx context.Context, id, planID string, area float64) error
}

// MongoRepository implements Repository on the "farms" collection.
type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Create(ctx context.Context, f *models.Farm) error {
	now := time.Now().UTC()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	f.UpdatedAt = now
	if f.Members == nil {
		f.Members = []string{}
	}
	if f.CropPlans == nil {
		f.CropPlans = []string{}
	}
	_, err := r.col.InsertOne(ctx, f)
	return err
}

func (r *MongoRepository) Get(ctx context.Context, id string) (*models.Farm, error) {
	var f models.Farm
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&f); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &f, nil
}

func (r *MongoRepository) AddMember(ctx context.Context, id, uid string) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$addToSet": bson.M{"members": uid},
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
	})
	return err
}

func (r *MongoRepository) ApplyPlan(ctx context.Context, id, planID string, area float64) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc":      bson.M{"totalPlannedArea": area},
		"$addToSet": bson.M{"cropPlans": planID},
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
	})
	return err
}
