package sale

// Line 结账请求中的一行
type Line struct {
	ItemID int64
	Qty    int64
}

// MergedLine 合并校验后的行
type MergedLine struct {
	ItemID uint
	Qty    int
}

// MergeLines 校验并合并重复商品行，按首次出现的顺序返回
// 同一商品出现两次（2和3）与一行数量5等价
func MergeLines(lines []Line) ([]MergedLine, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	index := make(map[uint]int, len(lines))
	merged := make([]MergedLine, 0, len(lines))
	for i, line := range lines {
		if line.ItemID <= 0 {
			return nil, NewLineError(i, "id")
		}
		if line.Qty <= 0 || line.Qty > maxLineQty {
			return nil, NewLineError(i, "qty")
		}

		id := uint(line.ItemID)
		if pos, ok := index[id]; ok {
			merged[pos].Qty += int(line.Qty)
			if merged[pos].Qty > maxLineQty {
				return nil, NewLineError(i, "qty")
			}
			continue
		}
		index[id] = len(merged)
		merged = append(merged, MergedLine{ItemID: id, Qty: int(line.Qty)})
	}
	return merged, nil
}

// maxLineQty 单个商品的数量上限，防止数量相乘溢出
const maxLineQty = 1_000_000

// ItemIDs 去重后的商品ID
func ItemIDs(lines []MergedLine) []uint {
	ids := make([]uint, len(lines))
	for i, line := range lines {
		ids[i] = line.ItemID
	}
	return ids
}
