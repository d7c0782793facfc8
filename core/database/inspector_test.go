package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTableColumns(t *testing.T) {
	db, err := Connect(Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)

	err = db.Exec("CREATE TABLE records (id TEXT PRIMARY KEY, in_wishlist NUMERIC, body TEXT)").Error
	require.NoError(t, err)

	columns, err := GetTableColumns(db, "records")
	require.NoError(t, err)
	require.Len(t, columns, 3)

	colMap := make(map[string]ColumnInfo)
	for _, col := range columns {
		colMap[col.Field] = col
	}
	assert.Equal(t, "text", colMap["id"].Type)
	assert.Equal(t, "PRI", colMap["id"].Key)
	assert.Equal(t, "numeric", colMap["in_wishlist"].Type)

	assert.Equal(t, []string{"title"}, MissingColumns(columns, "id", "body", "title"))
	assert.Empty(t, MissingColumns(columns, "ID", "Body"))

	cols, err := GetTableColumns(db, "non_existent")
	assert.NoError(t, err)
	assert.Empty(t, cols)
}
