package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"carbon-analytics-service/internal/http/middleware"
	"carbon-analytics-service/internal/model"
	"carbon-analytics-service/internal/service"
)

const (
	dateLayout             = "2006-01-02"
	defaultPredictionCount = 7
)

var errBadRequest = errors.New("bad request")

type analyticsService interface {
	CarbonSummary(ctx context.Context, rng model.DateRange) (*model.CarbonSummary, error)
	CarbonTrends(ctx context.Context, filter model.AnalyticsFilter) ([]model.TrendPoint, error)
	CarbonByModel(ctx context.Context, rng model.DateRange) ([]model.ModelBreakdown, error)
	DrivingSummary(ctx context.Context, vin string, rng model.DateRange) (*model.DrivingSummary, error)
	DrivingTimeSeries(ctx context.Context, vin string, filter model.AnalyticsFilter) ([]model.TimeSeriesPoint, error)
	VehicleHeatmap(ctx context.Context, vin string, rng model.DateRange, value model.HeatmapValue) ([]model.HeatmapPoint, error)
	Predictions(ctx context.Context, vin string, period model.PredictionPeriod, count int) ([]model.Prediction, error)
}

type emissionService interface {
	Record(ctx context.Context, report model.TripReport) (*model.EmissionRecord, error)
	VehicleEmissions(ctx context.Context, vin string, window model.TimeWindow) ([]model.EmissionRecord, error)
	TotalReduction(ctx context.Context, vin string, window model.TimeWindow) (*model.VehicleReduction, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	analytics analyticsService
	emissions emissionService
	db        pinger
	log       zerolog.Logger
}

func NewHandler(analytics analyticsService, emissions emissionService, db pinger, log zerolog.Logger) *Handler {
	return &Handler{analytics: analytics, emissions: emissions, db: db, log: log}
}

func (h *Handler) Register(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	r.GET("/healthz", h.health)

	carbon := r.Group("/analytics/carbon")
	carbon.Use(authMiddleware)
	carbon.GET("/summary", h.getCarbonSummary)
	carbon.GET("/trends", h.getCarbonTrends)
	carbon.GET("/by-model", h.getCarbonByModel)

	vehicle := r.Group("/vehicles/:vin/analytics")
	vehicle.Use(authMiddleware)
	vehicle.GET("", h.getDrivingSummary)
	vehicle.GET("/timeseries", h.getDrivingTimeSeries)
	vehicle.GET("/heatmap", h.getHeatmap)
	vehicle.GET("/predictions", h.getPredictions)

	emissions := r.Group("/vehicles/:vin/emissions")
	emissions.Use(authMiddleware)
	emissions.GET("", h.listEmissions)
	emissions.POST("", h.recordTrip)
	emissions.GET("/total-reduction", h.getTotalReduction)
}

func (h *Handler) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.log.Warn().Err(err).Msg("health check failed")
		c.JSON(http.StatusServiceUnavailable, errorResponse("database unavailable"))
		return
	}
	c.JSON(http.StatusOK, successResponse(gin.H{"status": "ok"}))
}

func (h *Handler) getCarbonSummary(c *gin.Context) {
	rng, err := parseDateRange(c)
	if err != nil {
		h.handleError(c, err)
		return
	}

	summary, err := h.analytics.CarbonSummary(c.Request.Context(), rng)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(summary))
}

func (h *Handler) getCarbonTrends(c *gin.Context) {
	filter, err := parseAnalyticsFilter(c)
	if err != nil {
		h.handleError(c, err)
		return
	}

	trends, err := h.analytics.CarbonTrends(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(trends))
}

func (h *Handler) getCarbonByModel(c *gin.Context) {
	rng, err := parseDateRange(c)
	if err != nil {
		h.handleError(c, err)
		return
	}

	breakdown, err := h.analytics.CarbonByModel(c.Request.Context(), rng)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(breakdown))
}

func (h *Handler) getDrivingSummary(c *gin.Context) {
	rng, err := parseDateRange(c)
	if err != nil {
		h.handleError(c, err)
		return
	}

	summary, err := h.analytics.DrivingSummary(c.Request.Context(), vinParam(c), rng)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(summary))
}

func (h *Handler) getDrivingTimeSeries(c *gin.Context) {
	filter, err := parseAnalyticsFilter(c)
	if err != nil {
		h.handleError(c, err)
		return
	}

	series, err := h.analytics.DrivingTimeSeries(c.Request.Context(), vinParam(c), filter)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(series))
}

func (h *Handler) getHeatmap(c *gin.Context) {
	rng, err := parseDateRange(c)
	if err != nil {
		h.handleError(c, err)
		return
	}
	value := model.ParseHeatmapValue(query(c, "value_type", "valueType"))

	points, err := h.analytics.VehicleHeatmap(c.Request.Context(), vinParam(c), rng, value)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(points))
}

func (h *Handler) getPredictions(c *gin.Context) {
	period := model.ParsePredictionPeriod(query(c, "period"))

	count := defaultPredictionCount
	if raw := query(c, "count"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.handleError(c, fmt.Errorf("%w: count must be an integer", errBadRequest))
			return
		}
		count = parsed
	}

	predictions, err := h.analytics.Predictions(c.Request.Context(), vinParam(c), period, count)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(predictions))
}

func (h *Handler) listEmissions(c *gin.Context) {
	window, err := parseTimeWindow(c)
	if err != nil {
		h.handleError(c, err)
		return
	}

	records, err := h.emissions.VehicleEmissions(c.Request.Context(), vinParam(c), window)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(records))
}

func (h *Handler) getTotalReduction(c *gin.Context) {
	window, err := parseTimeWindow(c)
	if err != nil {
		h.handleError(c, err)
		return
	}

	total, err := h.emissions.TotalReduction(c.Request.Context(), vinParam(c), window)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(total))
}

type tripRequest struct {
	VIN        string     `json:"vin"`
	DistanceKm *float64   `json:"distance_km" binding:"required"`
	EnergyKwh  *float64   `json:"energy_kwh" binding:"required"`
	Latitude   *float64   `json:"latitude"`
	Longitude  *float64   `json:"longitude"`
	OccurredAt *time.Time `json:"occurred_at"`
}

// recordTrip stores one trip for the vehicle in the path. The body may repeat
// the VIN but must not name another vehicle; a missing timestamp means now.
func (h *Handler) recordTrip(c *gin.Context) {
	var req tripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	vin := vinParam(c)
	if body := strings.TrimSpace(req.VIN); body != "" && body != vin {
		h.handleError(c, fmt.Errorf("%w: body vin %q does not match path vin %q", errBadRequest, body, vin))
		return
	}

	report := model.TripReport{
		VIN:        vin,
		DistanceKm: *req.DistanceKm,
		EnergyKwh:  *req.EnergyKwh,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		OccurredAt: time.Now().UTC(),
	}
	if req.OccurredAt != nil {
		report.OccurredAt = *req.OccurredAt
	}

	record, err := h.emissions.Record(c.Request.Context(), report)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(record))
}

func parseAnalyticsFilter(c *gin.Context) (model.AnalyticsFilter, error) {
	rng, err := parseDateRange(c)
	if err != nil {
		return model.AnalyticsFilter{}, err
	}
	return model.AnalyticsFilter{
		Range:   rng,
		GroupBy: model.ParseGroupBy(query(c, "group_by", "groupBy")),
	}, nil
}

// parseDateRange reads start_date and end_date. Missing dates stay zero and
// are filled in by the service.
func parseDateRange(c *gin.Context) (model.DateRange, error) {
	var rng model.DateRange
	var err error
	if rng.From, err = parseDate(query(c, "start_date", "startDate"), "start_date"); err != nil {
		return rng, err
	}
	if rng.To, err = parseDate(query(c, "end_date", "endDate"), "end_date"); err != nil {
		return rng, err
	}
	return rng, nil
}

func parseDate(raw, name string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(dateLayout, raw); err == nil {
		return parsed, nil
	}
	// Full timestamps are accepted and truncated to their day.
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return model.StartOfDay(parsed), nil
	}
	return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD", errBadRequest, name)
}

// parseTimeWindow reads start_time and end_time as RFC 3339 instants or plain
// dates. A missing bound leaves that side open.
func parseTimeWindow(c *gin.Context) (model.TimeWindow, error) {
	var window model.TimeWindow
	var err error
	if window.From, err = parseInstant(query(c, "start_time", "startTime"), "start_time"); err != nil {
		return window, err
	}
	if window.To, err = parseInstant(query(c, "end_time", "endTime"), "end_time"); err != nil {
		return window, err
	}
	return window, nil
}

func parseInstant(raw, name string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed.UTC(), nil
	}
	if parsed, err := time.Parse(dateLayout, raw); err == nil {
		return parsed, nil
	}
	return time.Time{}, fmt.Errorf("%w: %s must be an RFC 3339 timestamp or YYYY-MM-DD", errBadRequest, name)
}

// query returns the first non-empty value among the given parameter names.
func query(c *gin.Context, names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(c.Query(name)); v != "" {
			return v
		}
	}
	return ""
}

func vinParam(c *gin.Context) string {
	return strings.TrimSpace(c.Param("vin"))
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, service.ErrInvalidRange), errors.Is(err, service.ErrInvalidTrip):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, context.Canceled):
		c.Status(499)
	default:
		h.log.Error().Err(err).Str("request_id", middleware.RequestIDFrom(c)).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func successResponse(data interface{}) gin.H {
	return gin.H{"data": data}
}

func errorResponse(message string) gin.H {
	return gin.H{"error": message}
}
