package mongodb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlannedLineDocument_ToDomain(t *testing.T) {
	done := 2.5
	tests := []struct {
		name string
		doc  plannedLineDocument
		done string
	}{
		{"done present", plannedLineDocument{ProductID: "A", Expected: 10, Done: &done}, "2.5"},
		{"done absent", plannedLineDocument{ProductID: "A", Expected: 10}, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := tt.doc.toDomain()

			assert.Equal(t, "A", line.ProductID)
			assert.Equal(t, "10", line.Expected.String())
			assert.Equal(t, tt.done, line.Done.String())
		})
	}
}

func TestRealizedLineDocument_ToDomain(t *testing.T) {
	doc := realizedLineDocument{
		LineID:       "ml-1",
		ProductID:    "A",
		ProductName:  "Desk",
		Quantity:     0.1,
		UoM:          "Units",
		Lot:          "LOT-7",
		LocationFrom: &locationDocument{ID: "8", Name: "WH/Stock"},
		Sequence:     3,
	}

	line := doc.toDomain()

	assert.Equal(t, "ml-1", line.ID)
	assert.Equal(t, "0.1", line.Quantity.String())
	assert.Equal(t, "WH/Stock", line.SourceLocation.Name)
	assert.Empty(t, line.DestinationLocation.Name)
	assert.Equal(t, "LOT-7", line.Lot)
	assert.Equal(t, int64(3), line.Sequence)
}
