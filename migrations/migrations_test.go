package migrations

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaIsEmbedded(t *testing.T) {
	files, err := fs.Glob(FS, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)
	assert.Equal(t, "0001_init.sql", files[0])

	body, err := fs.ReadFile(FS, "0001_init.sql")
	require.NoError(t, err)
	schema := string(body)
	for _, want := range []string{
		"CONSTRAINT orders_order_number_key UNIQUE (order_number)",
		"CHECK (stock >= 0)",
		"CHECK (quantity >= 1)",
		"ON DELETE SET NULL",
		"UNIQUE (user_id, product_id, size)",
	} {
		assert.Contains(t, schema, want)
	}
}
