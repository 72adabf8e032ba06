package crops

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/NYARANGA-ROB/Smart/internal/models"
)

// ProgressUpdate captures one workflow-stage update on a plan. Costs and
// Harvested are additive deltas; Notes is the full replacement text computed
// by the caller from the stored plan.
type ProgressUpdate struct {
	Stage     string
	Completed bool
	Notes     *string
	Costs     map[string]float64
	Harvested float64
}

// PlanRepository defines persistence operations for crop plans. Lookups
// return (nil, nil) when the plan does not exist.
type PlanRepository interface {
	Create(ctx context.Context, p *models.CropPlan) error
	Get(ctx context.Context, id string) (*models.CropPlan, error)
	ListByFarm(ctx context.Context, farmID string) ([]*models.CropPlan, error)
	// ApplyProgress merges an update at field level: the stage flag is a
	// single dotted $set, cost/yield deltas are $inc. The document is never
	// replaced wholesale, so concurrent stage updates compose.
	ApplyProgress(ctx context.Context, id string, upd ProgressUpdate) error
}

// MongoPlanRepository implements PlanRepository on "cropPlans".
type MongoPlanRepository struct {
	col *mongo.Collection
}

func NewMongoPlanRepository(col *mongo.Collection) *MongoPlanRepository {
	return &MongoPlanRepository{col: col}
}

func (r *MongoPlanRepository) Create(ctx context.Context, p *models.CropPlan) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	_, err := r.col.InsertOne(ctx, p)
	return err
}

func (r *MongoPlanRepository) Get(ctx context.Context, id string) (*models.CropPlan, error) {
	var p models.CropPlan
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *MongoPlanRepository) ListByFarm(ctx context.Context, farmID string) ([]*models.CropPlan, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"farmId": farmID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*models.CropPlan{}
	for cur.Next(ctx) {
		var p models.CropPlan
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, cur.Err()
}

func (r *MongoPlanRepository) ApplyProgress(ctx context.Context, id string, upd ProgressUpdate) error {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if upd.Stage != "" {
		set["progress."+upd.Stage] = upd.Completed
	}
	if upd.Notes != nil {
		set["notes"] = *upd.Notes
	}
	inc := bson.M{}
	var total float64
	for k, v := range upd.Costs {
		inc["costs."+k] = v
		total += v
	}
	if total != 0 {
		inc["costs.total"] = total
	}
	if upd.Harvested != 0 {
		inc["yields.actual"] = upd.Harvested
	}
	update := bson.M{"$set": set}
	if len(inc) > 0 {
		update["$inc"] = inc
	}
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

// CatalogRepository reads the static "crops" catalog.
type CatalogRepository interface {
	Get(ctx context.Context, id string) (*models.Crop, error)
}

type MongoCatalogRepository struct {
	col *mongo.Collection
}

func NewMongoCatalogRepository(col *mongo.Collection) *MongoCatalogRepository {
	return &MongoCatalogRepository{col: col}
}

func (r *MongoCatalogRepository) Get(ctx context.Context, id string) (*models.Crop, error) {
	var c models.Crop
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}
