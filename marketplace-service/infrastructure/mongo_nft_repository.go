package infrastructure

import (
	"context"

	"github.com/draftea/nft-marketplace/marketplace-service/domain"
	"github.com/draftea/nft-marketplace/shared/models"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	_ domain.NFTRepository = (*MongoNFTRepository)(nil)
	_ domain.NFTSearcher   = (*MongoNFTRepository)(nil)
)

// MongoNFTRepository stores nfts as whole documents in the nfts collection
type MongoNFTRepository struct {
	collection *mongo.Collection
}

func NewMongoNFTRepository(db *mongo.Database) *MongoNFTRepository {
	return &MongoNFTRepository{collection: db.Collection("nfts")}
}

func (r *MongoNFTRepository) FindByID(ctx context.Context, id models.ID) (*domain.NFT, error) {
	var nft domain.NFT
	err := r.collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&nft)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to find nft")
	}
	return &nft, nil
}

// Save inserts version 1 documents and otherwise replaces the document stored at Version-1
func (r *MongoNFTRepository) Save(ctx context.Context, nft *domain.NFT) error {
	if nft.Version.Value <= 1 {
		if _, err := r.collection.InsertOne(ctx, nft); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return errors.Wrapf(domain.ErrConcurrentModification, "nft %s already exists", nft.ID)
			}
			return errors.Wrap(err, "failed to insert nft")
		}
		return nil
	}

	filter := bson.M{"_id": nft.ID.String(), "version.value": nft.Version.Value - 1}
	result, err := r.collection.ReplaceOne(ctx, filter, nft)
	if err != nil {
		return errors.Wrap(err, "failed to update nft")
	}
	if result.MatchedCount == 0 {
		return errors.Wrapf(domain.ErrConcurrentModification, "nft %s at version %d", nft.ID, nft.Version.Value)
	}
	return nil
}

func (r *MongoNFTRepository) ReplaceByID(ctx context.Context, id models.ID, nft *domain.NFT) error {
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": id.String()}, nft, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrapf(err, "failed to replace nft %s", id)
	}
	return nil
}

func (r *MongoNFTRepository) DeleteByID(ctx context.Context, id models.ID) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id.String()}); err != nil {
		return errors.Wrapf(err, "failed to delete nft %s", id)
	}
	return nil
}

// Search returns one page of live nfts matching query, newest first
func (r *MongoNFTRepository) Search(ctx context.Context, query domain.NFTQuery) (*domain.NFTPage, error) {
	filter := searchDocument(query)

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count nfts")
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamps.created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(query.Offset())).
		SetLimit(int64(query.Limit))
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search nfts")
	}

	nfts := []*domain.NFT{}
	if err := cursor.All(ctx, &nfts); err != nil {
		return nil, errors.Wrap(err, "failed to decode nfts")
	}
	return &domain.NFTPage{NFTs: nfts, Total: total, Page: query.Page, Limit: query.Limit}, nil
}

func searchDocument(query domain.NFTQuery) bson.M {
	filter := bson.M{"timestamps.deleted_at": bson.M{"$exists": false}}
	if query.Owner != "" {
		filter["owner"] = query.Owner
	}
	if query.CreatorWallet != "" {
		filter["creator_wallet"] = query.CreatorWallet
	}
	if query.Status != "" {
		filter["status"] = string(query.Status)
	}
	if query.IsListed != nil {
		filter["is_listed"] = *query.IsListed
	}
	return filter
}

// EnsureIndexes creates the lookup indexes the marketplace relies on.
// Pending mints have no address yet, so mint uniqueness only covers set values.
func (r *MongoNFTRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "mint", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"mint": bson.M{"$gt": ""}}),
		},
		{Keys: bson.D{{Key: "owner", Value: 1}}},
		{Keys: bson.D{{Key: "timestamps.created_at", Value: -1}}},
	})
	return errors.Wrap(err, "failed to create nft indexes")
}
