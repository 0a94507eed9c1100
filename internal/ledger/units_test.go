package ledger

import (
	"testing"

	"agri-market-api-server/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestConvertQuantity(t *testing.T) {
	cases := []struct {
		name     string
		quantity models.Quantity
		target   string
		want     float64
	}{
		{"same unit", models.Quantity{Value: 50, Unit: "kg"}, "kg", 50},
		{"quintal to kg", models.Quantity{Value: 2, Unit: "quintal"}, "kg", 200},
		{"ton to kg", models.Quantity{Value: 1.5, Unit: "ton"}, "kg", 1500},
		{"kg to quintal", models.Quantity{Value: 250, Unit: "kg"}, "quintal", 2.5},
		{"kg to ton", models.Quantity{Value: 500, Unit: "kg"}, "ton", 0.5},
		{"unknown source unit passes through", models.Quantity{Value: 30, Unit: "crate"}, "kg", 30},
		{"unknown target unit passes through", models.Quantity{Value: 30, Unit: "kg"}, "crate", 30},
		{"empty units pass through", models.Quantity{Value: 30}, "", 30},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ConvertQuantity(tc.quantity, tc.target))
		})
	}
}
