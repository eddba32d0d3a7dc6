package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LucasLaguilio/Doce-Traco-backend/internal/domain"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	cartsCollection = "Carrinho"
	usersCollection = "usuarios"
)

type cartDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"usuarioId"`
	Items     []lineDocument     `bson:"itens"`
	UpdatedAt time.Time          `bson:"dataAtualizacao"`
	Total     float64            `bson:"total"`
	Version   int64              `bson:"versao,omitempty"`
}

type lineDocument struct {
	ProductID   string  `bson:"produtoId"`
	Quantity    int     `bson:"quantidade"`
	UnitPrice   float64 `bson:"precoUnitario"`
	Name        string  `bson:"nome"`
	ImageURL    string  `bson:"urlfoto"`
	Description string  `bson:"descricao"`
}

func toDocument(c *domain.Cart) cartDocument {
	doc := cartDocument{
		UserID:    c.UserID,
		Items:     make([]lineDocument, len(c.Lines)),
		UpdatedAt: c.UpdatedAt,
		Total:     c.Total.InexactFloat64(),
		Version:   c.Version,
	}
	for i, l := range c.Lines {
		doc.Items[i] = lineDocument{
			ProductID:   l.ProductID,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice.InexactFloat64(),
			Name:        l.Name,
			ImageURL:    l.ImageURL,
			Description: l.Description,
		}
	}
	return doc
}

func (d cartDocument) toDomain() *domain.Cart {
	cart := &domain.Cart{
		ID:        d.ID.Hex(),
		UserID:    d.UserID,
		Lines:     make([]domain.CartLine, len(d.Items)),
		UpdatedAt: d.UpdatedAt,
		Version:   d.Version,
	}
	for i, it := range d.Items {
		cart.Lines[i] = domain.CartLine{
			ProductID:   it.ProductID,
			Quantity:    it.Quantity,
			UnitPrice:   decimal.NewFromFloat(it.UnitPrice),
			Name:        it.Name,
			ImageURL:    it.ImageURL,
			Description: it.Description,
		}
	}
	// the stored total is informational; the lines are authoritative
	cart.Recalculate()
	return cart
}

type mongoRepository struct {
	collection *mongo.Collection
}

func (m mongoRepository) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	var doc cartDocument

	filter := bson.M{"usuarioId": userID}
	err := m.collection.FindOne(ctx, filter).Decode(&doc)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCartNotFound
		}
		return nil, wrapDriverErr("failed to get cart", err)
	}

	return doc.toDomain(), nil
}

func (m mongoRepository) SaveCart(ctx context.Context, cart *domain.Cart) error {
	if cart.IsNew() {
		return m.insertCart(ctx, cart)
	}

	// carts written before versioning have no versao field
	filter := bson.M{"usuarioId": cart.UserID, "versao": cart.Version}
	if cart.Version == 0 {
		filter["versao"] = bson.M{"$exists": false}
	}

	doc := toDocument(cart)
	update := bson.M{
		"$set": bson.M{
			"itens":           doc.Items,
			"total":           doc.Total,
			"dataAtualizacao": doc.UpdatedAt,
		},
		"$inc": bson.M{"versao": 1},
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return wrapDriverErr("failed to update cart", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrConflict
	}

	cart.Version++
	return nil
}

func (m mongoRepository) insertCart(ctx context.Context, cart *domain.Cart) error {
	doc := toDocument(cart)
	doc.Version = 1

	result, err := m.collection.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// another request created the cart first
			return domain.ErrConflict
		}
		return wrapDriverErr("failed to create cart", err)
	}

	if id, ok := result.InsertedID.(primitive.ObjectID); ok {
		cart.ID = id.Hex()
	}
	cart.Version = doc.Version
	return nil
}

func (m mongoRepository) DeleteCart(ctx context.Context, userID string) error {
	filter := bson.M{"usuarioId": userID}

	result, err := m.collection.DeleteOne(ctx, filter)
	if err != nil {
		return wrapDriverErr("failed to delete cart", err)
	}

	if result.DeletedCount == 0 {
		return domain.ErrCartNotFound
	}

	return nil
}

// ownedCartDocument is one row of the admin listing. The cart fields are
// spelled out because the driver does not decode into unexported embedded
// structs.
type ownedCartDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	UserID     string             `bson:"usuarioId"`
	Items      []lineDocument     `bson:"itens"`
	UpdatedAt  time.Time          `bson:"dataAtualizacao"`
	Total      float64            `bson:"total"`
	Version    int64              `bson:"versao,omitempty"`
	OwnerName  string             `bson:"usuarioNome"`
	OwnerEmail string             `bson:"usuarioEmail"`
}

func (d ownedCartDocument) toDomain() domain.OwnedCart {
	cart := cartDocument{
		ID:        d.ID,
		UserID:    d.UserID,
		Items:     d.Items,
		UpdatedAt: d.UpdatedAt,
		Total:     d.Total,
		Version:   d.Version,
	}
	return domain.OwnedCart{
		Cart:       *cart.toDomain(),
		OwnerName:  d.OwnerName,
		OwnerEmail: d.OwnerEmail,
	}
}

func (m mongoRepository) ListCartsWithOwners(ctx context.Context) ([]domain.OwnedCart, error) {
	// usuarioId holds the hex form of the user's ObjectID
	pipeline := mongo.Pipeline{
		{{Key: "$lookup", Value: bson.M{
			"from": usersCollection,
			"let":  bson.M{"uid": "$usuarioId"},
			"pipeline": bson.A{
				bson.M{"$match": bson.M{"$expr": bson.M{"$eq": bson.A{bson.M{"$toString": "$_id"}, "$$uid"}}}},
				bson.M{"$project": bson.M{"nome": 1, "email": 1}},
			},
			"as": "dadosUsuario",
		}}},
		{{Key: "$unwind", Value: bson.M{
			"path":                       "$dadosUsuario",
			"preserveNullAndEmptyArrays": true,
		}}},
		{{Key: "$project", Value: bson.M{
			"_id":             1,
			"usuarioId":       1,
			"itens":           1,
			"dataAtualizacao": 1,
			"total":           1,
			"versao":          1,
			"usuarioNome":     bson.M{"$ifNull": bson.A{"$dadosUsuario.nome", "Usuário Deletado"}},
			"usuarioEmail":    bson.M{"$ifNull": bson.A{"$dadosUsuario.email", "N/A"}},
		}}},
	}

	cursor, err := m.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, wrapDriverErr("failed to list carts", err)
	}
	defer cursor.Close(ctx)

	var docs []ownedCartDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, wrapDriverErr("failed to decode carts", err)
	}

	carts := make([]domain.OwnedCart, 0, len(docs))
	for _, d := range docs {
		carts = append(carts, d.toDomain())
	}
	return carts, nil
}

func (m *mongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "usuarioId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// EnsureCartIndexes creates the unique usuarioId index that backs the
// one-cart-per-user rule and insert conflict detection.
func EnsureCartIndexes(ctx context.Context, db *mongo.Database) error {
	repo := &mongoRepository{collection: db.Collection(cartsCollection)}
	return repo.CreateIndexes(ctx)
}

func NewMongoRepository(db *mongo.Database) CartRepository {
	return &mongoRepository{
		collection: db.Collection(cartsCollection),
	}
}
