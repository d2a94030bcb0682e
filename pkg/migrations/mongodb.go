package migrations

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureUserDirectoryCollection creates the user_directory collection and
// its indexes if they do not exist yet.
func EnsureUserDirectoryCollection(ctx context.Context, db *mongo.Database) error {
	collection := db.Collection("user_directory")

	collections, err := db.ListCollectionNames(ctx, map[string]interface{}{"name": "user_directory"})
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	collectionExists := false
	for _, name := range collections {
		if name == "user_directory" {
			collectionExists = true
			break
		}
	}

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_user_directory_user_id").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "group_id", Value: 1}},
			Options: options.Index().SetName("idx_user_directory_group_id"),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: -1}},
			Options: options.Index().SetName("idx_user_directory_updated_at"),
		},
	}

	_, err = collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		if !strings.Contains(err.Error(), "already exists") {
			return fmt.Errorf("failed to create indexes: %w", err)
		}
	}

	if !collectionExists {
		// Collection is created implicitly by the index build above.
		return nil
	}

	return nil
}
