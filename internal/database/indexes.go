package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Index names referenced by the repositories when classifying duplicate-key
// errors, so conflicts can name the colliding field.
const (
	UsersEmailIndex    = "users_email_unique"
	UsersUsernameIndex = "users_username_unique"
	ProfilesUserIndex  = "profiles_user_id_unique"
)

// EnsureIndexes creates the unique indexes the application relies on.
// CreateOne is idempotent for identical definitions, so this runs at every
// startup the way schema migrations would.
func EnsureIndexes(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	logger.Info("Ensuring database indexes")

	users := db.Collection("users")
	userIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(UsersEmailIndex),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(UsersUsernameIndex),
		},
	}
	if _, err := users.Indexes().CreateMany(ctx, userIndexes); err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	profiles := db.Collection("profiles")
	profileIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName(ProfilesUserIndex),
	}
	if _, err := profiles.Indexes().CreateOne(ctx, profileIndex); err != nil {
		return fmt.Errorf("failed to create profile index: %w", err)
	}

	logger.Info("Database indexes ready")
	return nil
}
