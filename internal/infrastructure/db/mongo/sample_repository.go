package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fieldforce/location-tracker/internal/core/domain"
	"github.com/fieldforce/location-tracker/internal/core/geo"
	"github.com/fieldforce/location-tracker/internal/core/ports"
)

const collectionLocations = "locations"

// withinSlack widens the $centerSphere cap so borderline samples survive the
// prefilter; the service recomputes exact distances.
const withinSlack = 1.01

// SampleRepository implements ports.SampleRepository.
type SampleRepository struct {
	col *mongo.Collection
}

func NewSampleRepository(db *mongo.Database) *SampleRepository {
	return &SampleRepository{col: db.Collection(collectionLocations)}
}

type sampleDoc struct {
	ID            primitive.ObjectID     `bson:"_id,omitempty"`
	UserID        string                 `bson:"user_id"`
	Location      geoPoint               `bson:"location"`
	Accuracy      *float64               `bson:"accuracy,omitempty"`
	Altitude      *float64               `bson:"altitude,omitempty"`
	Speed         *float64               `bson:"speed,omitempty"`
	BatteryLevel  *int                   `bson:"battery_level,omitempty"`
	ActivityType  string                 `bson:"activity_type"`
	Address       *domain.Address        `bson:"address,omitempty"`
	Metadata      *domain.DeviceMetadata `bson:"metadata,omitempty"`
	Timestamp     time.Time              `bson:"timestamp"`
	ReceivedAt    time.Time              `bson:"received_at"`
	StoredOffline bool                   `bson:"stored_offline"`
}

func toSampleDoc(s *domain.LocationSample) sampleDoc {
	return sampleDoc{
		UserID:        s.UserID,
		Location:      newGeoPoint(s.Point.Lon, s.Point.Lat),
		Accuracy:      s.Accuracy,
		Altitude:      s.Altitude,
		Speed:         s.Speed,
		BatteryLevel:  s.BatteryLevel,
		ActivityType:  string(s.ActivityType),
		Address:       s.Address,
		Metadata:      s.Metadata,
		Timestamp:     s.Timestamp.UTC(),
		ReceivedAt:    s.ReceivedAt.UTC(),
		StoredOffline: s.StoredOffline,
	}
}

func (d *sampleDoc) toDomain() (*domain.LocationSample, error) {
	point, err := domain.NewPoint(d.Location.Coordinates)
	if err != nil {
		return nil, fmt.Errorf("sample %s: %w", d.ID.Hex(), err)
	}
	return &domain.LocationSample{
		ID:            d.ID.Hex(),
		UserID:        d.UserID,
		Point:         point,
		Accuracy:      d.Accuracy,
		Altitude:      d.Altitude,
		Speed:         d.Speed,
		BatteryLevel:  d.BatteryLevel,
		ActivityType:  domain.ParseActivityType(d.ActivityType),
		Address:       d.Address,
		Metadata:      d.Metadata,
		Timestamp:     d.Timestamp.UTC(),
		ReceivedAt:    d.ReceivedAt.UTC(),
		StoredOffline: d.StoredOffline,
	}, nil
}

// EnsureIndexes creates the spatial index and the per-identity time index.
func (r *SampleRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *SampleRepository) Insert(ctx context.Context, s *domain.LocationSample) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.InsertOne(ctx, toSampleDoc(s))
	if err != nil {
		return fmt.Errorf("insert sample: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Errorf("insert sample: unexpected id type %T", res.InsertedID)
	}
	s.ID = oid.Hex()
	return nil
}

func (r *SampleRepository) FindByID(ctx context.Context, id string) (*domain.LocationSample, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNoLocation
	}
	return r.findOne(ctx, bson.M{"_id": oid}, nil)
}

func (r *SampleRepository) Newest(ctx context.Context, userID string) (*domain.LocationSample, error) {
	return r.findOne(ctx, bson.M{"user_id": userID},
		options.FindOne().SetSort(bson.D{{Key: "timestamp", Value: -1}}))
}

func (r *SampleRepository) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*domain.LocationSample, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if opts == nil {
		opts = options.FindOne()
	}
	var d sampleDoc
	if err := r.col.FindOne(ctx, filter, opts).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNoLocation
		}
		return nil, err
	}
	return d.toDomain()
}

func (r *SampleRepository) History(ctx context.Context, f ports.HistoryFilter) ([]*domain.LocationSample, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"user_id": f.UserID}
	ts := bson.M{}
	if !f.From.IsZero() {
		ts["$gte"] = f.From.UTC()
	}
	if !f.To.IsZero() {
		ts["$lte"] = f.To.UTC()
	}
	if len(ts) > 0 {
		filter["timestamp"] = ts
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count samples: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetSkip(int64(f.Page-1) * int64(f.Limit)).
		SetLimit(int64(f.Limit))
	items, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *SampleRepository) Within(ctx context.Context, origin domain.Point, radiusMeters float64, since time.Time) ([]*domain.LocationSample, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"location": bson.M{
			"$geoWithin": bson.M{
				"$centerSphere": bson.A{
					bson.A{origin.Lon, origin.Lat},
					geo.RadiusRadians(radiusMeters) * withinSlack,
				},
			},
		},
		"timestamp": bson.M{"$gte": since.UTC()},
	}
	return r.find(ctx, filter, options.Find())
}

func (r *SampleRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.LocationSample, error) {
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find samples: %w", err)
	}
	defer cur.Close(ctx)

	out := []*domain.LocationSample{}
	for cur.Next(ctx) {
		var d sampleDoc
		if err := cur.Decode(&d); err != nil {
			return nil, fmt.Errorf("decode sample: %w", err)
		}
		s, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, cur.Err()
}
