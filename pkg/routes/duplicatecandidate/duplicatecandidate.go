package duplicatecandidate

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	dcrepo "github.com/Ramsey-B/willow/internal/repositories/duplicatecandidate"
	"github.com/Ramsey-B/willow/pkg/appctx"
	"github.com/Ramsey-B/willow/pkg/models"
	"github.com/Ramsey-B/willow/pkg/tracing"
)

// Store is the review queue
type Store interface {
	Get(ctx context.Context, id string) (*models.DuplicateCandidate, error)
	ListPending(ctx context.Context, limit int) ([]models.DuplicateCandidate, error)
	ListByMemorial(ctx context.Context, memorialID string, status string) ([]models.DuplicateCandidate, error)
	UpdateStatus(ctx context.Context, id string, status string, resolvedBy string) (*models.DuplicateCandidate, error)
}

// Handler serves review queue routes
type Handler struct {
	store  Store
	logger ectologger.Logger
}

// NewHandler creates a review queue handler
func NewHandler(store Store, logger ectologger.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Register registers duplicate candidate routes
func (h *Handler) Register(g *echo.Group) {
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("/:id/approve", h.resolve(models.DuplicateCandidateStatusApproved))
	g.POST("/:id/reject", h.resolve(models.DuplicateCandidateStatusRejected))
	g.POST("/:id/defer", h.resolve(models.DuplicateCandidateStatusDeferred))
}

// List returns entries for a memorial when memorial_id is given, otherwise the pending queue
func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "duplicatecandidate_handler.List")
	defer span.End()

	status := c.QueryParam("status")
	if status != "" && !dcrepo.IsValidStatus(status) {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid status %q", status)
	}

	var (
		candidates []models.DuplicateCandidate
		err        error
	)

	if memorialID := c.QueryParam("memorial_id"); memorialID != "" {
		candidates, err = h.store.ListByMemorial(ctx, memorialID, status)
	} else {
		if status != "" && status != models.DuplicateCandidateStatusPending {
			return httperror.NewHTTPError(http.StatusBadRequest, "memorial_id is required to list resolved candidates")
		}
		limit, _ := strconv.Atoi(c.QueryParam("limit"))
		candidates, err = h.store.ListPending(ctx, limit)
	}
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, candidates)
}

// Get returns one review entry
func (h *Handler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "duplicatecandidate_handler.Get")
	defer span.End()

	candidate, err := h.store.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, candidate)
}

func (h *Handler) resolve(status string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		ctx, span := tracing.StartSpan(ctx, "duplicatecandidate_handler.Resolve")
		defer span.End()

		id := c.Param("id")
		resolvedBy := appctx.GetUserID(ctx)

		candidate, err := h.store.UpdateStatus(ctx, id, status, resolvedBy)
		if err != nil {
			return err
		}

		h.logger.WithContext(ctx).WithFields(map[string]any{
			"duplicate_candidate_id": id,
			"status":                 status,
			"resolved_by":            resolvedBy,
		}).Info("Resolved duplicate candidate")

		return c.JSON(http.StatusOK, candidate)
	}
}
