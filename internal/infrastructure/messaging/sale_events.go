// Package messaging 销售事件异步投递
//
// 结账提交后事件提交到ants协程池，由协程池经熔断器发布到RabbitMQ。
// 发布失败只记录日志和指标，不影响已提交的销售单。
package messaging

import (
	"context"
	"errors"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/xiebiao/minipos/internal/domain/sale"
	"github.com/xiebiao/minipos/pkg/circuitbreaker"
	"github.com/xiebiao/minipos/pkg/metrics"
)

// RoutingKeySaleCompleted 销售完成事件
const RoutingKeySaleCompleted = "sale.completed"

// Broker 消息发布端，*mq.Publisher实现了该接口
type Broker interface {
	Publish(ctx context.Context, routingKey, messageID string, message interface{}) error
}

// SaleEvent sale.completed消息体
type SaleEvent struct {
	SaleID    uint            `json:"sale_id"`
	InvoiceNo string          `json:"invoice_no"`
	Total     int64           `json:"total"`
	Paid      int64           `json:"paid"`
	Change    int64           `json:"change"`
	CashierID uint            `json:"cashier_id"`
	Items     []SaleEventItem `json:"items"`
	CreatedAt time.Time       `json:"created_at"`
}

type SaleEventItem struct {
	InventoryID uint   `json:"inventory_id"`
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	Qty         int    `json:"qty"`
	Subtotal    int64  `json:"subtotal"`
}

// NewSaleEvent 由已提交的销售单生成事件
func NewSaleEvent(s *sale.Sale) SaleEvent {
	items := make([]SaleEventItem, len(s.Items))
	for i, it := range s.Items {
		items[i] = SaleEventItem{
			InventoryID: it.InventoryID,
			Name:        it.Name,
			Price:       it.Price,
			Qty:         it.Qty,
			Subtotal:    it.Subtotal,
		}
	}
	return SaleEvent{
		SaleID:    s.ID,
		InvoiceNo: s.InvoiceNo,
		Total:     s.Total,
		Paid:      s.Paid,
		Change:    s.Change,
		CashierID: s.CashierID,
		Items:     items,
		CreatedAt: s.CreatedAt,
	}
}

// Options 投递参数
type Options struct {
	Workers         int
	PublishTimeout  time.Duration
	BreakerTimeout  time.Duration
	BreakerFailures uint32
}

// SalePublisher 实现checkout.EventPublisher
type SalePublisher struct {
	broker  Broker
	pool    *ants.Pool
	breaker *circuitbreaker.CircuitBreaker
	timeout time.Duration
}

// NewSalePublisher 创建协程池和熔断器
// 协程池为非阻塞模式，池满时丢弃事件而不是阻塞结账
func NewSalePublisher(broker Broker, opts Options) (*SalePublisher, error) {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = 3 * time.Second
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = 5
	}

	pool, err := ants.NewPool(opts.Workers,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(p interface{}) {
			zap.L().Error("销售事件投递panic", zap.Any("panic", p))
		}),
	)
	if err != nil {
		return nil, err
	}

	failures := opts.BreakerFailures
	breaker := circuitbreaker.NewCircuitBreaker("sale-events", circuitbreaker.Config{
		Timeout:     opts.BreakerTimeout,
		ReadyToTrip: func(c circuitbreaker.Counts) bool { return c.ConsecutiveFailures >= failures },
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			metrics.SetGaugeVec(metrics.CircuitBreakerState, map[string]string{"name": name}, float64(to))
			zap.L().Warn("熔断器状态变化",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	metrics.SetGaugeVec(metrics.CircuitBreakerState, map[string]string{"name": breaker.Name()}, float64(breaker.State()))

	return &SalePublisher{
		broker:  broker,
		pool:    pool,
		breaker: breaker,
		timeout: opts.PublishTimeout,
	}, nil
}

// SaleCompleted 非阻塞提交，立即返回
func (p *SalePublisher) SaleCompleted(s *sale.Sale) {
	event := NewSaleEvent(s)
	err := p.pool.Submit(func() {
		p.publish(event)
	})
	if err != nil {
		metrics.MessagesPublishedTotal.WithLabelValues(RoutingKeySaleCompleted, "dropped").Inc()
		zap.L().Warn("销售事件未投递", zap.String("invoice_no", event.InvoiceNo), zap.Error(err))
	}
}

func (p *SalePublisher) publish(event SaleEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	err := p.breaker.Execute(ctx, func(ctx context.Context) error {
		return p.broker.Publish(ctx, RoutingKeySaleCompleted, event.InvoiceNo, event)
	})

	name := p.breaker.Name()
	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(name, "success").Inc()
		metrics.MessagesPublishedTotal.WithLabelValues(RoutingKeySaleCompleted, "success").Inc()
	case errors.Is(err, circuitbreaker.ErrOpenState):
		metrics.CircuitBreakerRequests.WithLabelValues(name, "rejected").Inc()
		metrics.MessagesPublishedTotal.WithLabelValues(RoutingKeySaleCompleted, "rejected").Inc()
		zap.L().Warn("熔断器打开，丢弃销售事件", zap.String("invoice_no", event.InvoiceNo))
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(name, "failure").Inc()
		metrics.MessagesPublishedTotal.WithLabelValues(RoutingKeySaleCompleted, "failure").Inc()
		zap.L().Error("发布销售事件失败", zap.String("invoice_no", event.InvoiceNo), zap.Error(err))
	}
}

// BreakerState 当前熔断器状态
func (p *SalePublisher) BreakerState() circuitbreaker.State {
	return p.breaker.State()
}

// Close 等待进行中的投递完成
func (p *SalePublisher) Close(timeout time.Duration) error {
	return p.pool.ReleaseTimeout(timeout)
}
