package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/tfrhyde/vaquero-marketplace/internal/listing/domain"
	"github.com/tfrhyde/vaquero-marketplace/internal/platform/logger"
)

const listingsCollection = "listings"

type ListingRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewListingRepository(db *mongo.Database, log *logger.Logger) *ListingRepository {
	return &ListingRepository{
		collection: db.Collection(listingsCollection),
		logger:     log.Named("ListingRepository"),
	}
}

// EnsureIndexes creates the indexes the feed and owner queries rely on.
func (r *ListingRepository) EnsureIndexes(ctx context.Context) error {
	return ensureIndexes(ctx, r.collection, []mongo.IndexModel{
		{Keys: bson.D{{Key: "sold", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
}

func (r *ListingRepository) Create(ctx context.Context, listing *domain.Listing) error {
	if _, err := r.collection.InsertOne(ctx, toListingDocument(listing)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: listing %s", domain.ErrConflict, listing.ID)
		}
		r.logger.Error("InsertOne failed", zap.String("listing_id", listing.ID), zap.Error(err))
		return err
	}
	return nil
}

func (r *ListingRepository) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	var doc listingDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("FindOne failed", zap.String("listing_id", id), zap.Error(err))
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *ListingRepository) Update(ctx context.Context, listing *domain.Listing) (*domain.Listing, error) {
	update := bson.M{"$set": bson.M{
		"title":         listing.Title,
		"description":   listing.Description,
		"price":         listing.Price,
		"category":      listing.Category,
		"item_location": listing.Location,
		"image_url":     listing.ImageURL,
		"updated_at":    listing.UpdatedAt,
	}}
	return r.findOneAndUpdate(ctx, listing.ID, listing.OwnerID, update)
}

// ToggleSold negates the stored flag in a single pipeline update.
func (r *ListingRepository) ToggleSold(ctx context.Context, id, ownerID string) (*domain.Listing, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"sold":       bson.M{"$not": bson.A{"$sold"}},
			"updated_at": "$$NOW",
		}}},
	}
	return r.findOneAndUpdate(ctx, id, ownerID, pipeline)
}

func (r *ListingRepository) findOneAndUpdate(ctx context.Context, id, ownerID string, update interface{}) (*domain.Listing, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc listingDocument
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id, "user_id": ownerID}, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("FindOneAndUpdate failed", zap.String("listing_id", id), zap.Error(err))
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *ListingRepository) Delete(ctx context.Context, id, ownerID string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "user_id": ownerID})
	if err != nil {
		r.logger.Error("DeleteOne failed", zap.String("listing_id", id), zap.Error(err))
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ListingRepository) ListUnsold(ctx context.Context) ([]*domain.Listing, error) {
	return r.find(ctx, bson.M{"sold": false})
}

func (r *ListingRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Listing, error) {
	return r.find(ctx, bson.M{"user_id": ownerID})
}

func (r *ListingRepository) find(ctx context.Context, filter bson.M) ([]*domain.Listing, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		r.logger.Error("Find failed", zap.Any("filter", filter), zap.Error(err))
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []listingDocument
	if err := cursor.All(ctx, &docs); err != nil {
		r.logger.Error("Cursor All failed", zap.Error(err))
		return nil, err
	}
	return toDomainListings(docs), nil
}

func (r *ListingRepository) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"user_id": ownerID})
	if err != nil {
		r.logger.Error("DeleteMany failed", zap.String("owner_id", ownerID), zap.Error(err))
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *ListingRepository) ImageURLs(ctx context.Context) ([]string, error) {
	values, err := r.collection.Distinct(ctx, "image_url", bson.M{"image_url": bson.M{"$nin": bson.A{nil, ""}}})
	if err != nil {
		r.logger.Error("Distinct failed", zap.Error(err))
		return nil, err
	}
	urls := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			urls = append(urls, s)
		}
	}
	return urls, nil
}
