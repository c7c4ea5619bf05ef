package scan

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/sony/gobreaker"

	"github.com/dwarvesf/drain-watcher/internal/detector"
	"github.com/dwarvesf/drain-watcher/internal/explorer"
	"github.com/dwarvesf/drain-watcher/internal/utils/config"
	"github.com/dwarvesf/drain-watcher/internal/utils/logger"
	"github.com/dwarvesf/drain-watcher/internal/view"
	"github.com/dwarvesf/drain-watcher/internal/watcher"
)

type ScanRequest struct {
	Address string `uri:"address" json:"address" validate:"required,eth_addr"`
	Days    *int   `form:"days" json:"days,omitempty" validate:"omitempty,min=0,max=365"`
}

type handler struct {
	watcher   watcher.IWatcher
	validate  *validator.Validate
	logger    *logger.Logger
	appConfig *config.AppConfig
}

func New(watcher watcher.IWatcher, logger *logger.Logger, appConfig *config.AppConfig) IHandler {
	return &handler{
		watcher:   watcher,
		validate:  validator.New(),
		logger:    logger,
		appConfig: appConfig,
	}
}

// Scan godoc
// @Summary Scan an address for stealth drains
// @Description Checks the recent outgoing transactions of an address for micro payments and transfers to fresh addresses
// @id scanAddress
// @Tags Scan
// @Accept json
// @Produce json
// @Param address path string true "watched address"
// @Param days query int false "trailing window in days"
// @Success 200 {object} watcher.ScanResult "no_outgoing, clean or suspicious"
// @Success 206 {object} watcher.ScanResult "incomplete, some recipients could not be checked"
// @Failure 400 {object} view.ErrorResponse
// @Failure 502 {object} view.ErrorResponse
// @Failure 503 {object} view.ErrorResponse
// @Router /scan/{address} [get]
func (h *handler) Scan(c *gin.Context) {
	var req ScanRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, view.CreateResponse[any](nil, err, req, "invalid request"))
		return
	}
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, view.CreateResponse[any](nil, err, req, "invalid request"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		h.logger.Error("[Scan][Validate]", map[string]string{
			"address": req.Address,
			"error":   err.Error(),
		})
		c.JSON(http.StatusBadRequest, view.CreateResponse[any](nil, err, req, "invalid request"))
		return
	}

	days := h.appConfig.Detector.WindowDays
	if req.Days != nil {
		days = *req.Days
	}

	result, err := h.watcher.Scan(c.Request.Context(), req.Address, days)
	if err != nil {
		h.logger.Error("[Scan][watcher.Scan]", map[string]string{
			"address": req.Address,
			"error":   err.Error(),
		})
		status, message := errorStatus(err)
		c.JSON(status, view.CreateResponse[any](nil, err, req, message))
		return
	}

	status := http.StatusOK
	if result.Status == watcher.StatusIncomplete {
		status = http.StatusPartialContent
	}
	c.JSON(status, view.CreateResponse[any](result, nil, nil, ""))
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, detector.ErrInvalidConfiguration):
		return http.StatusBadRequest, "invalid request"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return http.StatusServiceUnavailable, "explorer temporarily unavailable"
	case errors.Is(err, explorer.ErrRateLimited):
		return http.StatusServiceUnavailable, "explorer rate limit reached"
	default:
		return http.StatusBadGateway, "failed to fetch transactions"
	}
}
