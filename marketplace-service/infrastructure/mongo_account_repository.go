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

var _ domain.AccountRepository = (*MongoAccountRepository)(nil)

// MongoAccountRepository stores accounts in the accounts collection
type MongoAccountRepository struct {
	collection *mongo.Collection
}

func NewMongoAccountRepository(db *mongo.Database) *MongoAccountRepository {
	return &MongoAccountRepository{collection: db.Collection("accounts")}
}

func (r *MongoAccountRepository) FindByWallet(ctx context.Context, wallet string) (*domain.Account, error) {
	var account domain.Account
	err := r.collection.FindOne(ctx, bson.M{"wallet": wallet}).Decode(&account)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to find account by wallet")
	}
	return &account, nil
}

func (r *MongoAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if _, err := r.collection.InsertOne(ctx, account); err != nil {
		return errors.Wrap(err, "failed to insert account")
	}
	return nil
}

func (r *MongoAccountRepository) DeleteByID(ctx context.Context, id models.ID) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id.String()}); err != nil {
		return errors.Wrapf(err, "failed to delete account %s", id)
	}
	return nil
}

func (r *MongoAccountRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "wallet", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return errors.Wrap(err, "failed to create account indexes")
}
