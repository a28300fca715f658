package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"serene/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var ErrProfileNotFound = errors.New("profile not found")

// ProfileRepository defines the interface for profile data access
type ProfileRepository interface {
	FindByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.Profile, error)
	Create(ctx context.Context, profile *domain.Profile) error
	Update(ctx context.Context, profile *domain.Profile) error
	DeleteByUserID(ctx context.Context, userID primitive.ObjectID) error
}

type profileRepository struct {
	coll *mongo.Collection
}

// NewProfileRepository creates a new instance of ProfileRepository
func NewProfileRepository(db *mongo.Database) ProfileRepository {
	return &profileRepository{coll: db.Collection("profiles")}
}

func (r *profileRepository) FindByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.Profile, error) {
	profile := &domain.Profile{}
	err := r.coll.FindOne(ctx, bson.M{"user_id": userID}).Decode(profile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}
	return profile, nil
}

func (r *profileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	now := time.Now().UTC()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	res, err := r.coll.InsertOne(ctx, profile)
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		profile.ID = oid
	}
	return nil
}

// Update replaces the whole document. Concurrent updates to the same profile
// can clobber each other; there is no version field (single user editing
// their own data keeps contention negligible).
func (r *profileRepository) Update(ctx context.Context, profile *domain.Profile) error {
	profile.UpdatedAt = time.Now().UTC()

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": profile.ID}, profile)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// DeleteByUserID removes the user's profile. Deleting a missing profile is
// not an error so account deletion can cascade unconditionally.
func (r *profileRepository) DeleteByUserID(ctx context.Context, userID primitive.ObjectID) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"user_id": userID}); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return nil
}
