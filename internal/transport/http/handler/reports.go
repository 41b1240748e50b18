package handler

import (
	"bytes"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sakashimaa/etech-storefront/internal/reports"
	"github.com/sakashimaa/etech-storefront/internal/transport/http/middleware"
	"github.com/sakashimaa/etech-storefront/pkg/mylogger"
	"go.uber.org/zap"
)

const (
	defaultTopLimit = 5
	dateLayout      = "2006-01-02"
)

type ReportHandler struct {
	loc    *time.Location
	logger *zap.Logger
}

// NewReportHandler buckets days in timezone, falling back to UTC when it does not load.
func NewReportHandler(timezone string, logger *zap.Logger) *ReportHandler {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		logger.Warn("unknown reports timezone, using UTC", zap.String("timezone", timezone), zap.Error(err))
		loc = time.UTC
	}
	return &ReportHandler{loc: loc, logger: logger}
}

func (h *ReportHandler) Summary(c *fiber.Ctx) error {
	from, to, err := h.parseRange(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	limit := c.QueryInt("limit", defaultTopLimit)
	if limit <= 0 {
		return badRequest(c, "limit must be positive")
	}

	all, err := middleware.Session(c).Admin.FetchOrders(c.UserContext())
	if err != nil {
		return replyError(c, h.logger, "build reports", err)
	}
	selected := reports.InRange(all, from, to)

	return reply(c, fiber.StatusOK, fiber.Map{
		"from":          formatDay(from),
		"to":            formatDay(to),
		"timezone":      h.loc.String(),
		"orders":        len(selected),
		"salesByDay":    reports.SalesByDay(selected, h.loc),
		"ordersPerDay":  reports.OrdersPerDay(selected, h.loc),
		"ordersPerWeek": reports.OrdersPerWeek(selected, h.loc),
		"topProducts":   reports.TopProducts(selected, limit),
		"topBrands":     reports.TopBrands(selected, limit),
		"payments":      reports.PaymentBreakdown(selected),
	})
}

func (h *ReportHandler) ExportCSV(c *fiber.Ctx) error {
	from, to, err := h.parseRange(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	all, err := middleware.Session(c).Admin.FetchOrders(c.UserContext())
	if err != nil {
		return replyError(c, h.logger, "export orders", err)
	}
	selected := reports.InRange(all, from, to)

	var buf bytes.Buffer
	if err := reports.WriteCSV(&buf, selected, h.loc); err != nil {
		return replyError(c, h.logger, "export orders", err)
	}

	mylogger.Info(c.UserContext(), h.logger, "orders exported", zap.Int("rows", len(selected)))

	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Attachment("orders-" + time.Now().In(h.loc).Format(dateLayout) + ".csv")
	return c.Status(fiber.StatusOK).Send(buf.Bytes())
}

func (h *ReportHandler) parseRange(c *fiber.Ctx) (time.Time, time.Time, error) {
	from, err := h.parseDay(c, "from")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := h.parseDay(c, "to")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "to must not be before from")
	}
	return from, to, nil
}

func (h *ReportHandler) parseDay(c *fiber.Ctx, name string) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, nil
	}

	day, err := time.ParseInLocation(dateLayout, raw, h.loc)
	if err != nil {
		return time.Time{}, fiber.NewError(fiber.StatusBadRequest, name+" must be a date like "+dateLayout)
	}
	return day, nil
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}
