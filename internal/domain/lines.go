package domain

import (
	"github.com/shopspring/decimal"
)

// PlannedLine is one expected movement of the operation's plan
type PlannedLine struct {
	ProductID   string
	ProductName string
	Expected    decimal.Decimal
	Done        decimal.Decimal
	Sequence    int64
}

// LocationRef names a stock location
type LocationRef struct {
	ID   string
	Name string
}

// RealizedLine is one scan-backed movement actually recorded against the operation
type RealizedLine struct {
	ID                  string
	ProductID           string
	ProductName         string
	Quantity            decimal.Decimal
	UoM                 string
	Lot                 string
	SourceLocation      LocationRef
	DestinationLocation LocationRef
	Sequence            int64
}

// RealizedLineRow is the display projection of a RealizedLine
type RealizedLineRow struct {
	ID           string
	ProductID    string
	ProductName  string
	Quantity     decimal.Decimal
	UoM          string
	Lot          string
	LocationFrom string
	LocationTo   string
}

// ProjectRows turns realized lines into display rows, keeping their order.
// Nested references collapse to their display labels; missing ones become "".
func ProjectRows(lines []RealizedLine) []RealizedLineRow {
	rows := make([]RealizedLineRow, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, RealizedLineRow{
			ID:           line.ID,
			ProductID:    line.ProductID,
			ProductName:  line.ProductName,
			Quantity:     line.Quantity,
			UoM:          line.UoM,
			Lot:          line.Lot,
			LocationFrom: line.SourceLocation.Name,
			LocationTo:   line.DestinationLocation.Name,
		})
	}
	return rows
}
