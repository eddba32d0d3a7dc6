package repository

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestOwnedCartDocument_DecodesListingRow(t *testing.T) {
	id := primitive.NewObjectID()
	updated := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	row, err := bson.Marshal(bson.M{
		"_id":             id,
		"usuarioId":       "u1",
		"itens":           bson.A{bson.M{"produtoId": "p1", "quantidade": 3, "precoUnitario": 2.5, "nome": "Bolo", "urlfoto": "bolo.png", "descricao": "Chocolate"}},
		"dataAtualizacao": updated,
		"total":           7.5,
		"versao":          int64(4),
		"usuarioNome":     "Ana",
		"usuarioEmail":    "ana@example.com",
	})
	require.NoError(t, err)

	var doc ownedCartDocument
	require.NoError(t, bson.Unmarshal(row, &doc))
	owned := doc.toDomain()

	assert.Equal(t, id.Hex(), owned.Cart.ID)
	assert.Equal(t, "u1", owned.Cart.UserID)
	assert.Equal(t, int64(4), owned.Cart.Version)
	assert.True(t, owned.Cart.UpdatedAt.Equal(updated))
	require.Len(t, owned.Cart.Lines, 1)
	assert.Equal(t, 3, owned.Cart.Lines[0].Quantity)
	assert.Equal(t, "Bolo", owned.Cart.Lines[0].Name)
	assert.True(t, owned.Cart.Total.Equal(decimal.RequireFromString("7.5")))
	assert.Equal(t, "Ana", owned.OwnerName)
	assert.Equal(t, "ana@example.com", owned.OwnerEmail)
}
