package handler

import (
	"context"
	"math"
	"strings"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xiebiao/minipos/internal/application/checkout"
	"github.com/xiebiao/minipos/internal/domain/sale"
	apperrors "github.com/xiebiao/minipos/pkg/errors"
)

// CheckoutServer CheckoutServiceServer实现，与HTTP接口共用用例
type CheckoutServer struct {
	checkout *checkout.UseCase
	query    *checkout.QueryUseCase
}

func NewCheckoutServer(checkoutUseCase *checkout.UseCase, queryUseCase *checkout.QueryUseCase) *CheckoutServer {
	return &CheckoutServer{checkout: checkoutUseCase, query: queryUseCase}
}

var _ CheckoutServiceServer = (*CheckoutServer)(nil)

// Checkout 结账
func (s *CheckoutServer) Checkout(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return nil, toStatus(apperrors.ErrUnauthorized)
	}

	fields := req.GetFields()
	paid, ok := integer(fields["paid"])
	if !ok {
		return nil, toStatus(apperrors.ErrInvalidParams.WithMessage("paid 必须为整数"))
	}

	result, err := s.checkout.Execute(ctx, checkout.Request{
		CashierID:      identity.UserID,
		Lines:          lines(fields["items"]),
		Paid:           paid,
		IdempotencyKey: strings.TrimSpace(fields["idempotency_key"].GetStringValue()),
	})
	if err != nil {
		return nil, toStatus(err)
	}

	out, err := saleStruct(result.Sale, result.Replayed)
	if err != nil {
		return nil, toStatus(apperrors.Wrap(err, "序列化销售单失败"))
	}
	return out, nil
}

// GetSale 按单号查询
func (s *CheckoutServer) GetSale(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	invoiceNo := req.GetFields()["invoice_no"].GetStringValue()
	found, err := s.query.GetByInvoiceNo(ctx, invoiceNo)
	if err != nil {
		return nil, toStatus(err)
	}
	out, err := saleStruct(found, false)
	if err != nil {
		return nil, toStatus(apperrors.Wrap(err, "序列化销售单失败"))
	}
	return out, nil
}

// lines 非整数的id/qty按0处理，由领域层报出具体的行号
func lines(v *structpb.Value) []sale.Line {
	list := v.GetListValue().GetValues()
	out := make([]sale.Line, len(list))
	for i, entry := range list {
		f := entry.GetStructValue().GetFields()
		id, _ := integer(f["id"])
		qty, _ := integer(f["qty"])
		out[i] = sale.Line{ItemID: id, Qty: qty}
	}
	return out
}

// integer Struct中的数字都是double，只接受没有小数部分的值
func integer(v *structpb.Value) (int64, bool) {
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, false
	}
	f := n.NumberValue
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, false
	}
	return int64(f), true
}

func saleStruct(s *sale.Sale, replayed bool) (*structpb.Struct, error) {
	items := make([]interface{}, len(s.Items))
	for i, it := range s.Items {
		items[i] = map[string]interface{}{
			"id":       int64(it.InventoryID),
			"name":     it.Name,
			"price":    it.Price,
			"stock":    it.StockBefore,
			"qty":      it.Qty,
			"subtotal": it.Subtotal,
		}
	}
	return structpb.NewStruct(map[string]interface{}{
		"id":        int64(s.ID),
		"invoiceNo": s.InvoiceNo,
		"total":     s.Total,
		"paid":      s.Paid,
		"change":    s.Change,
		"cashierId": int64(s.CashierID),
		"createdAt": s.CreatedAt.Format(time.RFC3339),
		"items":     items,
		"replayed":  replayed,
	})
}
