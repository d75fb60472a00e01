package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fieldforce/location-tracker/internal/core/domain"
)

const collectionLatest = "latest_positions"

// LatestPositionRepository keeps one document per identity, keyed by its ID.
type LatestPositionRepository struct {
	col *mongo.Collection
}

func NewLatestPositionRepository(db *mongo.Database) *LatestPositionRepository {
	return &LatestPositionRepository{col: db.Collection(collectionLatest)}
}

type latestDoc struct {
	UserID    string    `bson:"_id"`
	SampleID  string    `bson:"sample_id"`
	Location  geoPoint  `bson:"location"`
	Timestamp time.Time `bson:"timestamp"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Upsert replaces the stored position only if it is not newer than lp. When a
// newer record exists the filter misses, the upsert tries to insert a second
// document with the same _id, and the resulting duplicate-key error means stale.
//
// Two first writes for the same identity can both miss and race on the insert;
// the loser retries once against the now existing document.
func (r *LatestPositionRepository) Upsert(ctx context.Context, lp *domain.LatestPosition) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	applied, err := r.upsertOnce(ctx, lp)
	if err == nil || !mongo.IsDuplicateKeyError(err) {
		return applied, err
	}
	applied, err = r.upsertOnce(ctx, lp)
	if err != nil && mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	return applied, err
}

func (r *LatestPositionRepository) upsertOnce(ctx context.Context, lp *domain.LatestPosition) (bool, error) {

	filter := bson.M{
		"_id":       lp.UserID,
		"timestamp": bson.M{"$lte": lp.Timestamp.UTC()},
	}
	update := bson.M{"$set": bson.M{
		"sample_id":  lp.SampleID,
		"location":   newGeoPoint(lp.Point.Lon, lp.Point.Lat),
		"timestamp":  lp.Timestamp.UTC(),
		"updated_at": time.Now().UTC(),
	}}

	_, err := r.col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, err
		}
		return false, fmt.Errorf("upsert latest position: %w", err)
	}
	return true, nil
}

func (r *LatestPositionRepository) FindByUser(ctx context.Context, userID string) (*domain.LatestPosition, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d latestDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": userID}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNoLocation
		}
		return nil, fmt.Errorf("find latest position: %w", err)
	}
	return d.toDomain()
}

func (r *LatestPositionRepository) FindAll(ctx context.Context) ([]*domain.LatestPosition, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find latest positions: %w", err)
	}
	defer cur.Close(ctx)

	var docs []latestDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode latest positions: %w", err)
	}
	out := make([]*domain.LatestPosition, 0, len(docs))
	for i := range docs {
		lp, err := docs[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, lp)
	}
	return out, nil
}

func (d *latestDoc) toDomain() (*domain.LatestPosition, error) {
	point, err := domain.NewPoint(d.Location.Coordinates)
	if err != nil {
		return nil, fmt.Errorf("latest position %s: %w", d.UserID, err)
	}
	return &domain.LatestPosition{
		UserID:    d.UserID,
		SampleID:  d.SampleID,
		Point:     point,
		Timestamp: d.Timestamp.UTC(),
	}, nil
}
