package cart

import (
	"testing"

	"github.com/angelmondragon/rugstore-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(v string) *string { return &v }

func TestMergeLineAppendsNewPair(t *testing.T) {
	product := uuid.New()
	res := mergeLine(nil, product, 2, strPtr("5x8"))
	assert.Equal(t, -1, res.Index)
	assert.Equal(t, 2, res.Line.Quantity)
	require.NotNil(t, res.Line.Size)
	assert.Equal(t, "5x8", *res.Line.Size)
	assert.Equal(t, 0, res.Line.Position)
}

func TestMergeLineSumsExactMatch(t *testing.T) {
	product := uuid.New()
	lines := []models.CartLine{{ProductID: product, Quantity: 1, Size: strPtr("5x8")}}
	res := mergeLine(lines, product, 3, strPtr("5x8"))
	assert.Equal(t, 0, res.Index)
	assert.Equal(t, 4, res.Line.Quantity)
	assert.Equal(t, 1, lines[0].Quantity, "input lines are not mutated")
}

func TestMergeLineSumsNilSizes(t *testing.T) {
	product := uuid.New()
	lines := []models.CartLine{{ProductID: product, Quantity: 2}}
	res := mergeLine(lines, product, 1, strPtr("  "))
	assert.Equal(t, 0, res.Index)
	assert.Equal(t, 3, res.Line.Quantity)
	assert.Nil(t, res.Line.Size)
}

func TestMergeLineSizingOverwritesQuantity(t *testing.T) {
	product := uuid.New()
	lines := []models.CartLine{{ProductID: product, Quantity: 3}}
	res := mergeLine(lines, product, 2, strPtr("8x10"))
	assert.Equal(t, 0, res.Index)
	assert.Equal(t, 2, res.Line.Quantity)
	require.NotNil(t, res.Line.Size)
	assert.Equal(t, "8x10", *res.Line.Size)
}

func TestMergeLineDifferentSizeAppends(t *testing.T) {
	product := uuid.New()
	other := uuid.New()
	lines := []models.CartLine{
		{ProductID: product, Quantity: 1, Size: strPtr("5x8"), Position: 0},
		{ProductID: other, Quantity: 1, Position: 4},
	}
	res := mergeLine(lines, product, 1, strPtr("8x10"))
	assert.Equal(t, -1, res.Index)
	assert.Equal(t, 5, res.Line.Position)
}

func TestMergeLineNilSizeDoesNotTouchSizedLine(t *testing.T) {
	product := uuid.New()
	lines := []models.CartLine{{ProductID: product, Quantity: 1, Size: strPtr("5x8")}}
	res := mergeLine(lines, product, 1, nil)
	assert.Equal(t, -1, res.Index)
	assert.Nil(t, res.Line.Size)
}
