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
)

const collectionUsers = "users"

// IdentityRepository implements ports.IdentityRepository over the users collection.
type IdentityRepository struct {
	coll *mongo.Collection
}

func NewIdentityRepository(db *mongo.Database) *IdentityRepository {
	return &IdentityRepository{coll: db.Collection(collectionUsers)}
}

type mongoIdentity struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"name"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash"`
	Role         string             `bson:"role"`
	Status       string             `bson:"status"`
	Active       bool               `bson:"active"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

func (m *mongoIdentity) toDomain() *domain.Identity {
	return &domain.Identity{
		ID:           m.ID.Hex(),
		Name:         m.Name,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Role:         m.Role,
		Status:       m.Status,
		Active:       m.Active,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func (r *IdentityRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "active", Value: 1}}},
	})
	return err
}

func (r *IdentityRepository) Create(ctx context.Context, identity *domain.Identity) (*domain.Identity, error) {
	doc := mongoIdentity{
		Name:         identity.Name,
		Email:        identity.Email,
		PasswordHash: identity.PasswordHash,
		Role:         identity.Role,
		Status:       identity.Status,
		Active:       identity.Active,
		CreatedAt:    identity.CreatedAt,
		UpdatedAt:    identity.UpdatedAt,
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}
	return doc.toDomain(), nil
}

func (r *IdentityRepository) FindByID(ctx context.Context, id string) (*domain.Identity, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// Not an ObjectID, so it cannot name a stored identity.
		return nil, domain.ErrIdentityNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *IdentityRepository) FindByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *IdentityRepository) findOne(ctx context.Context, filter bson.M) (*domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var m mongoIdentity
	if err := r.coll.FindOne(ctx, filter).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return m.toDomain(), nil
}

func (r *IdentityRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*domain.Identity, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	out := make(map[string]*domain.Identity, len(oids))
	if len(oids) == 0 {
		return out, nil
	}

	identities, err := r.find(ctx, bson.M{"_id": bson.M{"$in": oids}}, nil)
	if err != nil {
		return nil, err
	}
	for _, i := range identities {
		out[i.ID] = i
	}
	return out, nil
}

func (r *IdentityRepository) ListActive(ctx context.Context) ([]*domain.Identity, error) {
	return r.find(ctx, bson.M{"active": true}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
}

func (r *IdentityRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if opts == nil {
		opts = options.Find()
	}
	cur, err := r.coll.Find(ctx, filter, opts.SetProjection(bson.M{"password_hash": 0}))
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoIdentity
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	out := make([]*domain.Identity, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}
