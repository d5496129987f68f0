package sale

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Reservation 幂等键占用结果
//
// Acquired为true表示本次请求持有该键，应继续结账；
// 否则Fingerprint和InvoiceNo是先前请求留下的记录，InvoiceNo为空说明先前的结账尚未完成。
type Reservation struct {
	Acquired    bool
	Fingerprint string
	InvoiceNo   string
}

// IdempotencyStore 结账幂等键存储（Idempotency-Key请求头）
type IdempotencyStore interface {
	// Reserve 原子占用key，已存在时返回现有记录
	Reserve(ctx context.Context, key, fingerprint string, ttl time.Duration) (Reservation, error)

	// Complete 结账提交后登记单号
	Complete(ctx context.Context, key, invoiceNo string, ttl time.Duration) error

	// Release 结账失败时释放，允许用同一个key重试
	Release(ctx context.Context, key string) error
}

// Fingerprint 对合并后的结账内容取摘要，用来判断同一个key是否被用于不同的购物车
// 行的先后顺序不影响结果
func Fingerprint(cashierID uint, lines []MergedLine, paid int64) string {
	sorted := append([]MergedLine(nil), lines...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ItemID < sorted[j].ItemID })

	var b strings.Builder
	fmt.Fprintf(&b, "%d|%d", cashierID, paid)
	for _, l := range sorted {
		fmt.Fprintf(&b, "|%d:%d", l.ItemID, l.Qty)
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
