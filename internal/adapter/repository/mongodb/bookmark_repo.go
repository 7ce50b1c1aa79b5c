package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/tfrhyde/vaquero-marketplace/internal/listing/domain"
	"github.com/tfrhyde/vaquero-marketplace/internal/platform/logger"
)

const bookmarksCollection = "bookmarks"

type BookmarkRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewBookmarkRepository(db *mongo.Database, log *logger.Logger) *BookmarkRepository {
	return &BookmarkRepository{
		collection: db.Collection(bookmarksCollection),
		logger:     log.Named("BookmarkRepository"),
	}
}

// EnsureIndexes creates the unique (user_id, listing_id) index that Add relies on.
func (r *BookmarkRepository) EnsureIndexes(ctx context.Context) error {
	return ensureIndexes(ctx, r.collection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "listing_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "listing_id", Value: 1}}},
	})
}

func (r *BookmarkRepository) Add(ctx context.Context, bookmark *domain.Bookmark) error {
	doc := bookmarkDocument{
		UserID:    bookmark.UserID,
		ListingID: bookmark.ListingID,
		CreatedAt: bookmark.CreatedAt,
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			r.logger.Debug("Bookmark already exists",
				zap.String("user_id", bookmark.UserID), zap.String("listing_id", bookmark.ListingID))
			return fmt.Errorf("%w: %v", domain.ErrConflict, err)
		}
		r.logger.Error("InsertOne failed", zap.String("user_id", bookmark.UserID), zap.Error(err))
		return err
	}
	return nil
}

func (r *BookmarkRepository) Remove(ctx context.Context, userID, listingID string) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"user_id": userID, "listing_id": listingID}); err != nil {
		r.logger.Error("DeleteOne failed", zap.String("user_id", userID), zap.String("listing_id", listingID), zap.Error(err))
		return err
	}
	return nil
}

func (r *BookmarkRepository) Exists(ctx context.Context, userID, listingID string) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"user_id": userID, "listing_id": listingID}, options.Count().SetLimit(1))
	if err != nil {
		r.logger.Error("CountDocuments failed", zap.String("user_id", userID), zap.Error(err))
		return false, err
	}
	return n > 0, nil
}

// ListBookmarkedListings joins bookmarks to listings. Bookmarks of deleted listings drop out of the $unwind.
func (r *BookmarkRepository) ListBookmarkedListings(ctx context.Context, userID string) ([]*domain.Listing, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userID}}},
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         listingsCollection,
			"localField":   "listing_id",
			"foreignField": "_id",
			"as":           "listing",
		}}},
		{{Key: "$unwind", Value: "$listing"}},
		{{Key: "$replaceRoot", Value: bson.M{"newRoot": "$listing"}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		r.logger.Error("Aggregate failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []listingDocument
	if err := cursor.All(ctx, &docs); err != nil {
		r.logger.Error("Cursor All failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return toDomainListings(docs), nil
}

func (r *BookmarkRepository) DeleteByListings(ctx context.Context, listingIDs []string) (int64, error) {
	if len(listingIDs) == 0 {
		return 0, nil
	}
	res, err := r.collection.DeleteMany(ctx, bson.M{"listing_id": bson.M{"$in": listingIDs}})
	if err != nil {
		r.logger.Error("DeleteMany by listings failed", zap.Int("listings", len(listingIDs)), zap.Error(err))
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *BookmarkRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		r.logger.Error("DeleteMany by user failed", zap.String("user_id", userID), zap.Error(err))
		return 0, err
	}
	return res.DeletedCount, nil
}
