package tracing

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// installRecorder 安装内存Span记录器，测试不依赖Collector
func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return recorder
}

func TestInitTracer_Disabled(t *testing.T) {
	shutdown, err := InitTracer(Options{Enabled: false})
	if err != nil {
		t.Fatalf("未启用时不应返回错误: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("关闭失败: %v", err)
	}
}

func TestStartSpan_ChildInheritsTrace(t *testing.T) {
	installRecorder(t)

	ctx, root := StartSpan(context.Background(), "Checkout")
	defer root.End()

	_, child := StartSpan(ctx, "LockInventory")
	defer child.End()

	if child.SpanContext().TraceID() != root.SpanContext().TraceID() {
		t.Errorf("子Span的TraceID不匹配: root=%s, child=%s",
			root.SpanContext().TraceID(), child.SpanContext().TraceID())
	}
	if child.SpanContext().SpanID() == root.SpanContext().SpanID() {
		t.Error("子Span的SpanID不应与根Span相同")
	}
}

func TestEndSpan_RecordsError(t *testing.T) {
	recorder := installRecorder(t)

	_, span := StartSpan(context.Background(), "Checkout")
	EndSpan(span, errors.New("库存不足"))

	ended := recorder.Ended()
	if len(ended) != 1 {
		t.Fatalf("期望1个已结束Span，实际%d个", len(ended))
	}
	if ended[0].Status().Code != codes.Error {
		t.Errorf("Span状态错误: %v", ended[0].Status())
	}
	if len(ended[0].Events()) == 0 {
		t.Error("错误未记录为Span事件")
	}
}

func TestExtractTraceID(t *testing.T) {
	installRecorder(t)

	t.Run("从有效Context提取", func(t *testing.T) {
		ctx, span := StartSpan(context.Background(), "GetSale")
		defer span.End()

		if id := ExtractTraceID(ctx); len(id) != 32 {
			t.Errorf("TraceID长度错误: expected=32, got=%d", len(id))
		}
		if id := ExtractSpanID(ctx); len(id) != 16 {
			t.Errorf("SpanID长度错误: expected=16, got=%d", len(id))
		}
	})

	t.Run("无Span的Context", func(t *testing.T) {
		if id := ExtractTraceID(context.Background()); id != "" {
			t.Errorf("期望空字符串，实际: %s", id)
		}
	})
}
