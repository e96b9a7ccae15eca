package memorial

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/willow/pkg/matching"
	"github.com/Ramsey-B/willow/pkg/metrics"
	"github.com/Ramsey-B/willow/pkg/models"
	"github.com/Ramsey-B/willow/pkg/tracing"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Store persists and loads memorials
type Store interface {
	Create(ctx context.Context, c models.MemorialCandidate) (*models.Memorial, error)
	Get(ctx context.Context, id string) (*models.Memorial, error)
}

// CreateMemorialResponse is the created record plus any duplicates found for it
type CreateMemorialResponse struct {
	*models.Memorial
	PotentialDuplicates []models.DuplicateMatch `json:"potential_duplicates"`
}

// Handler serves memorial routes
type Handler struct {
	store   Store
	service *matching.Service
	logger  ectologger.Logger
	metrics *metrics.Metrics
}

// NewHandler creates a memorial handler
func NewHandler(store Store, service *matching.Service, logger ectologger.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		store:   store,
		service: service,
		logger:  logger,
		metrics: m,
	}
}

// Register registers memorial routes
func (h *Handler) Register(g *echo.Group) {
	g.POST("", h.Create)
	g.POST("/duplicates", h.CheckDuplicates)
	g.GET("/:id", h.Get)
}

// Create stores a memorial and checks it against existing records. A failed
// duplicate check is logged; the memorial is still created.
func (h *Handler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "memorial_handler.Create")
	defer span.End()

	var req models.CreateMemorialRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := matching.ValidateCandidate(req.ToCandidate()); err != nil {
		return fmt.Errorf("invalid memorial: %w", err)
	}

	memorial, err := h.store.Create(ctx, req.ToCandidate())
	if err != nil {
		return err
	}
	h.metrics.RecordMemorialCreated()

	resp := CreateMemorialResponse{
		Memorial:            memorial,
		PotentialDuplicates: []models.DuplicateMatch{},
	}

	report, err := h.service.CheckDuplicates(ctx, memorial.MemorialCandidate, nil)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).WithField("memorial_id", memorial.ID).Warn("Duplicate check failed for new memorial")
	} else {
		resp.PotentialDuplicates = report.Matches
	}

	return c.JSON(http.StatusCreated, resp)
}

// Get returns a memorial by id
func (h *Handler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "memorial_handler.Get")
	defer span.End()

	memorial, err := h.store.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, memorial)
}

// CheckDuplicates scores a candidate against existing memorials without storing it
func (h *Handler) CheckDuplicates(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "memorial_handler.CheckDuplicates")
	defer span.End()

	var req models.CheckDuplicatesRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	report, err := h.service.CheckDuplicates(ctx, req.Candidate, req.Threshold)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, report)
}
