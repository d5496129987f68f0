package sale

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/xiebiao/minipos/pkg/errors"
)

func TestFormatInvoiceNo(t *testing.T) {
	ts := time.Date(2024, 3, 15, 14, 30, 5, 0, time.Local)

	assert.Equal(t, "TRX-20240315-143005-042", FormatInvoiceNo(ts, 42))
	assert.Equal(t, "TRX-20240315-143005-000", FormatInvoiceNo(ts, 0))
	assert.Equal(t, "TRX-20240315-143005-999", FormatInvoiceNo(ts, 999))
}

func TestGenerateInvoiceNo(t *testing.T) {
	for i := 0; i < 200; i++ {
		no := GenerateInvoiceNo()
		require.True(t, IsValidInvoiceNo(no), "单号格式错误: %s", no)
	}
	assert.False(t, IsValidInvoiceNo("TRX-2024-1"))
	assert.False(t, IsValidInvoiceNo("ORD1699248000123456"))
}

func TestMergeLines(t *testing.T) {
	t.Run("合并重复商品", func(t *testing.T) {
		merged, err := MergeLines([]Line{{ItemID: 3, Qty: 2}, {ItemID: 1, Qty: 1}, {ItemID: 3, Qty: 3}})
		require.NoError(t, err)
		assert.Equal(t, []MergedLine{{ItemID: 3, Qty: 5}, {ItemID: 1, Qty: 1}}, merged)
		assert.Equal(t, []uint{3, 1}, ItemIDs(merged))
	})

	t.Run("空购物车", func(t *testing.T) {
		_, err := MergeLines(nil)
		assert.ErrorIs(t, err, ErrEmptyCart)
	})

	tests := []struct {
		name    string
		lines   []Line
		message string
	}{
		{"ID为0", []Line{{ItemID: 0, Qty: 1}}, "items[0].id 必须为正整数"},
		{"ID为负", []Line{{ItemID: 1, Qty: 1}, {ItemID: -2, Qty: 1}}, "items[1].id 必须为正整数"},
		{"数量为0", []Line{{ItemID: 1, Qty: 0}}, "items[0].qty 必须为正整数"},
		{"数量为负", []Line{{ItemID: 1, Qty: -5}}, "items[0].qty 必须为正整数"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MergeLines(tt.lines)
			require.ErrorIs(t, err, ErrInvalidLine)

			var appErr *apperrors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, apperrors.ErrCodeInvalidParams, appErr.Code)
			assert.Equal(t, tt.message, appErr.Message)
		})
	}
}

func TestNewSale_TotalAndChange(t *testing.T) {
	items := []Item{
		NewItem(1, "Indomie Goreng", 3500, 10, 50),
		NewItem(2, "Teh Botol", 4000, 3, 20),
	}
	s := NewSale("TRX-20240315-143005-042", 2, items, 50000)

	assert.Equal(t, int64(35000), items[0].Subtotal)
	assert.Equal(t, int64(47000), s.Total)
	assert.Equal(t, int64(3000), s.Change)
	assert.Equal(t, 13, s.ItemCount())
	assert.False(t, s.Underpaid())

	under := NewSale("TRX-20240315-143005-043", 2, items, 40000)
	assert.Equal(t, int64(-7000), under.Change)
	assert.True(t, under.Underpaid())
}

func TestSale_CheckAmounts(t *testing.T) {
	ok := NewSale("", 2, []Item{NewItem(1, "Indomie Goreng", 3500, 10, 50)}, 50000)
	assert.NoError(t, ok.CheckAmounts())

	tests := []struct {
		name  string
		items []Item
	}{
		{"单行小计溢出", []Item{NewItem(1, "Emas Batangan", 9_300_000_000_000, 1_000_000, 1_000_000)}},
		{"合计溢出", []Item{
			NewItem(1, "Emas Batangan", 1_000_000_000_000, 1_000_000, 1_000_000),
			NewItem(2, "Emas Batangan 2", 1_000_000_000_000, 1_000_000, 1_000_000),
			NewItem(3, "Emas Batangan 3", 1_000_000_000_000, 1_000_000, 1_000_000),
			NewItem(4, "Emas Batangan 4", 1_000_000_000_000, 1_000_000, 1_000_000),
			NewItem(5, "Emas Batangan 5", 1_000_000_000_000, 1_000_000, 1_000_000),
			NewItem(6, "Emas Batangan 6", 1_000_000_000_000, 1_000_000, 1_000_000),
			NewItem(7, "Emas Batangan 7", 1_000_000_000_000, 1_000_000, 1_000_000),
			NewItem(8, "Emas Batangan 8", 1_000_000_000_000, 1_000_000, 1_000_000),
			NewItem(9, "Emas Batangan 9", 1_000_000_000_000, 1_000_000, 1_000_000),
			NewItem(10, "Emas Batangan 10", 1_000_000_000_000, 1_000_000, 1_000_000),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSale("", 2, tt.items, 1)
			err := s.CheckAmounts()
			assert.ErrorIs(t, err, ErrAmountOutOfRange)
		})
	}
}

func TestFingerprint(t *testing.T) {
	a := []MergedLine{{ItemID: 1, Qty: 2}, {ItemID: 7, Qty: 1}}
	b := []MergedLine{{ItemID: 7, Qty: 1}, {ItemID: 1, Qty: 2}}

	assert.Equal(t, Fingerprint(3, a, 10000), Fingerprint(3, b, 10000), "行顺序不影响指纹")
	assert.NotEqual(t, Fingerprint(3, a, 10000), Fingerprint(3, a, 20000))
	assert.NotEqual(t, Fingerprint(3, a, 10000), Fingerprint(4, a, 10000))
	assert.NotEqual(t, Fingerprint(3, a, 10000), Fingerprint(3, []MergedLine{{ItemID: 1, Qty: 3}, {ItemID: 7, Qty: 1}}, 10000))
	assert.Len(t, Fingerprint(3, a, 10000), 64)
}
