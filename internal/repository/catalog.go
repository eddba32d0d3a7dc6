package repository

import (
	"context"
	"errors"

	"github.com/LucasLaguilio/Doce-Traco-backend/internal/domain"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const productsCollection = "produtos"

type productDocument struct {
	ID          primitive.ObjectID `bson:"_id"`
	Name        string             `bson:"nome"`
	Price       float64            `bson:"preco"`
	ImageURL    string             `bson:"urlfoto"`
	Description string             `bson:"descricao"`
}

// mongoCatalog reads products owned by the product CRUD module. The cart
// never writes to it.
type mongoCatalog struct {
	collection *mongo.Collection
}

func NewMongoCatalog(db *mongo.Database) ProductCatalog {
	return &mongoCatalog{collection: db.Collection(productsCollection)}
}

func (c *mongoCatalog) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	id, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return nil, domain.ErrProductNotFound
	}

	opts := options.FindOne().SetProjection(bson.M{"nome": 1, "preco": 1, "urlfoto": 1, "descricao": 1})

	var doc productDocument
	err = c.collection.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProductNotFound
		}
		return nil, wrapDriverErr("failed to get product", err)
	}

	return &domain.Product{
		ID:          productID,
		Name:        doc.Name,
		Price:       decimal.NewFromFloat(doc.Price),
		ImageURL:    doc.ImageURL,
		Description: doc.Description,
	}, nil
}
