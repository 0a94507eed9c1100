package ledger

import "agri-market-api-server/internal/models"

// Weight-based units and their kg equivalents. Count-based units (piece, dozen)
// have no weight factor and never convert.
var kgPerUnit = map[string]float64{
	"kg":      1,
	"quintal": 100,
	"ton":     1000,
	"liter":   1, // approximate, for liquids
}

// ConvertQuantity expresses q in the target unit. When either unit has no
// conversion factor the value passes through unchanged.
func ConvertQuantity(q models.Quantity, unit string) float64 {
	if q.Unit == unit {
		return q.Value
	}
	from, okFrom := kgPerUnit[q.Unit]
	to, okTo := kgPerUnit[unit]
	if !okFrom || !okTo || to == 0 {
		return q.Value
	}
	return q.Value * from / to
}
