package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/minipos/internal/application/ledger"
	"github.com/xiebiao/minipos/pkg/response"
)

// Pinger 依赖健康检查
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler 存活与就绪检查
type HealthHandler struct {
	checks map[string]Pinger
	audit  *ledger.AuditUseCase
}

// NewHealthHandler checks的key作为依赖名出现在/health响应中；audit可为nil
func NewHealthHandler(checks map[string]Pinger, audit *ledger.AuditUseCase) *HealthHandler {
	return &HealthHandler{checks: checks, audit: audit}
}

// Ping 存活检查
// @Summary  存活检查
// @Tags     运维
// @Produce  json
// @Success  200 {object} response.Response
// @Router   /ping [get]
func (h *HealthHandler) Ping(c *gin.Context) {
	response.Success(c, gin.H{"message": "pong"})
}

// Health 逐个检查依赖，任一失败返回503
// @Summary  就绪检查
// @Tags     运维
// @Produce  json
// @Success  200 {object} response.Response
// @Failure  503 {object} response.Response
// @Router   /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	body := response.Response{Code: 0, Message: "healthy", Data: deps}
	if status != http.StatusOK {
		body.Code = 50000
		body.Message = "unhealthy"
	}
	c.JSON(status, body)
}

// LedgerAudit 立即执行一次全量对账
// @Summary      全量库存对账
// @Tags         运维
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=ledger.Report}
// @Router       /api/v1/ledger/audit [post]
func (h *HealthHandler) LedgerAudit(c *gin.Context) {
	report, err := h.audit.Run(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, report)
}
