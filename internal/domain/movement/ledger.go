package movement

// Summary 单个商品的流水汇总
type Summary struct {
	ItemID    uint
	Count     int
	Sum       int // Σ Quantity
	LastAfter int // 最后一条流水的StockAfter，Count为0时无意义
}

// Reconciliation 库存与流水的对账结果
type Reconciliation struct {
	ItemID     uint `json:"item_id"`
	Stock      int  `json:"stock"`
	LedgerSum  int  `json:"ledger_sum"`
	LastAfter  *int `json:"last_after"`
	Consistent bool `json:"consistent"`
}

// Reconcile 账实核对
// 商品从0库存建档，因此 stock == Σ quantity；有流水时最后一条的after也必须等于stock
func Reconcile(stock int, s Summary) Reconciliation {
	r := Reconciliation{
		ItemID:    s.ItemID,
		Stock:     stock,
		LedgerSum: s.Sum,
	}
	r.Consistent = stock == s.Sum
	if s.Count > 0 {
		last := s.LastAfter
		r.LastAfter = &last
		r.Consistent = r.Consistent && last == stock
	}
	return r
}
