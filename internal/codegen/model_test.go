package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelName(t *testing.T) {
	for table, want := range map[string]string{
		"users":       "User",
		"order_items": "OrderItem",
		"categories":  "Category",
	} {
		assert.Equal(t, want, ModelName(table), table)
	}
	assert.Equal(t, "OrderItem.php", ModelFile("order_items"))
}

func TestModelSource(t *testing.T) {
	src, err := ModelSource("order_items")
	require.NoError(t, err)
	assert.Contains(t, src, "namespace App\\Models;")
	assert.Contains(t, src, "class OrderItem extends Model\n{\n    use HasFactory;\n")
	assert.Contains(t, src, "protected $table = 'order_items';")
}
