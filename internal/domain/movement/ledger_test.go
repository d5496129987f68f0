package movement

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructors_Balanced(t *testing.T) {
	sale := NewSale(1, 10, 4, 7, 2)
	assert.Equal(t, -4, sale.Quantity)
	assert.Equal(t, 6, sale.StockAfter)
	assert.Equal(t, RefSale, sale.ReferenceType)
	assert.True(t, sale.Balanced())

	purchase := NewPurchase(1, 6, 20, 3, 1, "Pembelian barang")
	assert.Equal(t, 26, purchase.StockAfter)
	assert.True(t, purchase.Balanced())

	adj := NewAdjustment(1, 26, 25, 1, "manual")
	assert.Equal(t, -1, adj.Quantity)
	assert.True(t, adj.Balanced())
}

func TestReconcile(t *testing.T) {
	tests := []struct {
		name       string
		stock      int
		summary    Summary
		consistent bool
	}{
		{"无流水且库存为0", 0, Summary{ItemID: 1}, true},
		{"无流水但有库存", 5, Summary{ItemID: 1}, false},
		{"账实相符", 6, Summary{ItemID: 1, Count: 2, Sum: 6, LastAfter: 6}, true},
		{"合计不符", 7, Summary{ItemID: 1, Count: 2, Sum: 6, LastAfter: 7}, false},
		{"最后一条after不符", 6, Summary{ItemID: 1, Count: 2, Sum: 6, LastAfter: 5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Reconcile(tt.stock, tt.summary)
			assert.Equal(t, tt.consistent, r.Consistent)
			assert.Equal(t, tt.summary.Sum, r.LedgerSum)
			if tt.summary.Count == 0 {
				assert.Nil(t, r.LastAfter)
			} else {
				assert.Equal(t, tt.summary.LastAfter, *r.LastAfter)
			}
		})
	}
}
