package users

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/NYARANGA-ROB/Smart/internal/models"
)

// Repository defines persistence operations for user profiles. Lookups
// return (nil, nil) when no profile exists.
type Repository interface {
	Create(ctx context.Context, p *models.UserProfile) error
	Get(ctx context.Context, uid string) (*models.UserProfile, error)
	// Update applies a partial $set of whitelisted fields.
	Update(ctx context.Context, uid string, fields map[string]interface{}) error
	// TouchLogin stamps lastLoginAt/updatedAt.
	TouchLogin(ctx context.Context, uid string) error
}

// MongoRepository implements Repository on the "users" collection.
type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Create(ctx context.Context, p *models.UserProfile) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	_, err := r.col.InsertOne(ctx, p)
	return err
}

func (r *MongoRepository) Get(ctx context.Context, uid string) (*models.UserProfile, error) {
	var p models.UserProfile
	if err := r.col.FindOne(ctx, bson.M{"_id": uid}).Decode(&p); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *MongoRepository) Update(ctx context.Context, uid string, fields map[string]interface{}) error {
	set := bson.M{"updatedAt": time.Now().UTC()}
	for k, v := range fields {
		set[k] = v
	}
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": uid}, bson.M{"$set": set})
	return err
}

func (r *MongoRepository) TouchLogin(ctx context.Context, uid string) error {
	now := time.Now().UTC()
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": uid}, bson.M{
		"$set": bson.M{"lastLoginAt": now, "updatedAt": now},
	})
	return err
}
