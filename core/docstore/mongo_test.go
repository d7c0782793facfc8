package docstore

import (
	"testing"

	"collection-sync/core/catalog"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestMongoFilter(t *testing.T) {
	wishlist := InPartition(catalog.Wishlist)

	tests := []struct {
		name string
		q    Query
		want bson.M
	}{
		{"Empty", Query{}, bson.M{}},
		{"ByID", ByID("book9"), bson.M{"_id": "book9"}},
		{"Partition", wishlist, bson.M{"inWishlist": true}},
		{"Composite", Query{Title: "Dune", ArtistOrAuthor: "Frank Herbert"}, bson.M{"title": "Dune", "artistOrAuthor": "Frank Herbert"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mongoFilter(tt.q))
		})
	}

	assert.Equal(t, "dev_records", CollectionName("dev_", catalog.KindRecord))
}
