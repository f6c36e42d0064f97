package cart

import (
	"strings"

	"github.com/angelmondragon/rugstore-backend/pkg/db/models"
	"github.com/google/uuid"
)

// mergeResult says how an add should be applied. Index is -1 for a new line.
type mergeResult struct {
	Index int
	Line  models.CartLine
}

// mergeLine applies an add of qty units of (productID, size) to lines:
//  1. an exact (product, size) match, nil matching nil, gains qty;
//  2. otherwise, when a size is given and the product has a size-less line,
//     that line takes the size and its quantity becomes qty;
//  3. otherwise a new line is appended.
func mergeLine(lines []models.CartLine, productID uuid.UUID, qty int, size *string) mergeResult {
	size = normalizeSize(size)

	for i, line := range lines {
		if line.ProductID == productID && sameSize(normalizeSize(line.Size), size) {
			line.Quantity += qty
			return mergeResult{Index: i, Line: line}
		}
	}

	if size != nil {
		for i, line := range lines {
			if line.ProductID == productID && normalizeSize(line.Size) == nil {
				sized := *size
				line.Size = &sized
				line.Quantity = qty
				return mergeResult{Index: i, Line: line}
			}
		}
	}

	position := 0
	for _, line := range lines {
		if line.Position >= position {
			position = line.Position + 1
		}
	}
	return mergeResult{
		Index: -1,
		Line: models.CartLine{
			ProductID: productID,
			Quantity:  qty,
			Size:      size,
			Position:  position,
		},
	}
}

func normalizeSize(size *string) *string {
	if size == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*size)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func sameSize(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
