package sale

import (
	"fmt"
	"math/rand"
	"regexp"
	"time"
)

// 单号格式：TRX-YYYYMMDD-HHMMSS-NNN，NNN为3位随机数
// 例如 TRX-20240315-143005-042
// 同一秒内有1000个后缀可选，冲突由唯一索引发现后重新生成
var invoicePattern = regexp.MustCompile(`^TRX-\d{8}-\d{6}-\d{3}$`)

// FormatInvoiceNo 按时间和后缀拼出单号
func FormatInvoiceNo(t time.Time, suffix int) string {
	return fmt.Sprintf("TRX-%s-%03d", t.Format("20060102-150405"), suffix%1000)
}

// GenerateInvoiceNo 使用当前本地时间生成单号
func GenerateInvoiceNo() string {
	return FormatInvoiceNo(time.Now(), rand.Intn(1000))
}

// IsValidInvoiceNo 单号格式校验
func IsValidInvoiceNo(no string) bool {
	return invoicePattern.MatchString(no)
}
