package provider

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"chatpipe/pkg/models"
)

// MongoDirectory reads naming records from the user_directory collection.
type MongoDirectory struct {
	collection *mongo.Collection
}

func NewMongoDirectory(db *mongo.Database) *MongoDirectory {
	return &MongoDirectory{collection: db.Collection("user_directory")}
}

func (m *MongoDirectory) Name() string {
	return "mongodb"
}

type directoryDoc struct {
	UserID       string `bson:"user_id"`
	NickName     string `bson:"nick_name"`
	FriendRemark string `bson:"friend_remark"`
	NameCard     string `bson:"name_card"`
}

func (m *MongoDirectory) FetchNames(ctx context.Context, ids []string) (map[string]models.MemberInfo, error) {
	if len(ids) == 0 {
		return map[string]models.MemberInfo{}, nil
	}

	cursor, err := m.collection.Find(ctx, bson.M{"user_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to query user directory: %w", err)
	}
	defer cursor.Close(ctx)

	result := make(map[string]models.MemberInfo, len(ids))
	for cursor.Next(ctx) {
		var doc directoryDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode directory document: %w", err)
		}
		result[doc.UserID] = models.MemberInfo{
			UserID:       doc.UserID,
			NickName:     doc.NickName,
			FriendRemark: doc.FriendRemark,
			NameCard:     doc.NameCard,
		}
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate directory cursor: %w", err)
	}

	return result, nil
}
