package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/propops/property_ops_backend/internal/apperrors"
	portssvc "github.com/propops/property_ops_backend/internal/core/ports/services"
	"github.com/propops/property_ops_backend/internal/dto"
	"github.com/propops/property_ops_backend/internal/middleware"
)

// recurringHandler handles HTTP requests for recurring payment definitions
// and their monthly ledger rows.
type recurringHandler struct {
	recurringService portssvc.RecurringSvcFacade
}

// newRecurringHandler creates a new recurringHandler.
func newRecurringHandler(rs portssvc.RecurringSvcFacade) *recurringHandler {
	return &recurringHandler{
		recurringService: rs,
	}
}

// RegisterRecurringRoutes registers routes related to recurring payments.
func RegisterRecurringRoutes(rg *gin.RouterGroup, recurringService portssvc.RecurringSvcFacade) {
	h := newRecurringHandler(recurringService)

	recurring := rg.Group("/recurring-payments")
	{
		recurring.POST("", h.createRecurringPayment)
		recurring.GET("", h.listRecurringPayments)
		recurring.GET("/:id", h.getRecurringPayment)
		recurring.PATCH("/:id", h.updateRecurringPayment)
		recurring.GET("/:id/snapshots", h.listSnapshots)
	}
}

// createRecurringPayment godoc
// @Summary Create a recurring payment definition
// @Description Creates a definition and backfills its monthly ledger rows from the start month to the current month in one transaction
// @Tags recurring-payments
// @Accept  json
// @Produce  json
// @Param   payment body dto.CreateRecurringPaymentRequest true "Definition details"
// @Success 201 {object} dto.CreateRecurringPaymentResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} map[string]string "Definition already exists or ledger row conflict"
// @Failure 500 {object} map[string]string "Failed to create recurring payment"
// @Security BearerAuth
// @Router /recurring-payments [post]
func (h *recurringHandler) createRecurringPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateRecurringPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateRecurringPayment", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	creatorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("Creator user ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("definition_id", req.ID), slog.String("creator_user_id", creatorUserID))
	logger.Info("Received request to create recurring payment", slog.String("vendor", req.Vendor), slog.String("start_month", req.StartMonthKey))

	resp, err := h.recurringService.CreateRecurringPayment(c.Request.Context(), req, creatorUserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			logger.Warn("Validation error creating recurring payment", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else if errors.Is(err, apperrors.ErrDuplicate) || errors.Is(err, apperrors.ErrConflict) {
			logger.Warn("Conflict creating recurring payment", slog.String("error", err.Error()))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to create recurring payment in service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create recurring payment"})
		}
		return
	}

	logger.Info("Recurring payment created successfully", slog.Int("rows_inserted", resp.RowsInserted), slog.Int("rows_updated", resp.RowsUpdated))
	c.JSON(http.StatusCreated, resp)
}

// getRecurringPayment godoc
// @Summary Get a recurring payment definition by ID
// @Description Retrieves a single recurring payment definition
// @Tags recurring-payments
// @Produce  json
// @Param   id path string true "Definition ID"
// @Success 200 {object} dto.RecurringPaymentResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Definition not found"
// @Failure 500 {object} map[string]string "Failed to retrieve recurring payment"
// @Security BearerAuth
// @Router /recurring-payments/{id} [get]
func (h *recurringHandler) getRecurringPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	definitionID := c.Param("id")

	logger = logger.With(slog.String("definition_id", definitionID))
	logger.Info("Received request to get recurring payment")

	def, err := h.recurringService.GetRecurringPayment(c.Request.Context(), definitionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Recurring payment not found")
			c.JSON(http.StatusNotFound, gin.H{"error": "Recurring payment not found"})
		} else {
			logger.Error("Failed to get recurring payment from service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve recurring payment"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToRecurringPaymentResponse(def))
}

// listRecurringPayments godoc
// @Summary List recurring payment definitions
// @Description Retrieves a paginated list of recurring payment definitions
// @Tags recurring-payments
// @Produce  json
// @Param   limit query int false "Limit number of results" default(20)
// @Param   nextToken query string false "Pagination token from a previous response"
// @Success 200 {object} dto.ListRecurringPaymentsResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to list recurring payments"
// @Security BearerAuth
// @Router /recurring-payments [get]
func (h *recurringHandler) listRecurringPayments(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for ListRecurringPayments", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	logger.Info("Received request to list recurring payments", slog.Int("limit", params.Limit))

	resp, err := h.recurringService.ListRecurringPayments(c.Request.Context(), params)
	if err != nil {
		logger.Error("Failed to list recurring payments from service", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list recurring payments"})
		return
	}

	logger.Info("Recurring payments listed successfully", slog.Int("count", len(resp.Payments)))
	c.JSON(http.StatusOK, resp)
}

// updateRecurringPayment godoc
// @Summary Update a recurring payment definition
// @Description Applies a partial update to a definition and propagates amount/due-day changes onto unpaid rows from the current month forward
// @Tags recurring-payments
// @Accept  json
// @Produce  json
// @Param   id path string true "Definition ID to update"
// @Param   payment body dto.UpdateRecurringPaymentRequest true "Fields to update"
// @Success 200 {object} dto.UpdateRecurringPaymentResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Definition not found"
// @Failure 409 {object} map[string]string "Ledger row conflict"
// @Failure 500 {object} map[string]string "Failed to update recurring payment"
// @Security BearerAuth
// @Router /recurring-payments/{id} [patch]
func (h *recurringHandler) updateRecurringPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	definitionID := c.Param("id")

	var req dto.UpdateRecurringPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UpdateRecurringPayment", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	updaterUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("Updater user ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("definition_id", definitionID), slog.String("updater_user_id", updaterUserID))
	logger.Info("Received request to update recurring payment")

	resp, err := h.recurringService.UpdateRecurringPayment(c.Request.Context(), definitionID, req, updaterUserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Recurring payment not found for update")
			c.JSON(http.StatusNotFound, gin.H{"error": "Recurring payment not found"})
		} else if errors.Is(err, apperrors.ErrValidation) {
			logger.Warn("Validation error updating recurring payment", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else if errors.Is(err, apperrors.ErrConflict) {
			logger.Warn("Conflict updating recurring payment", slog.String("error", err.Error()))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to update recurring payment in service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update recurring payment"})
		}
		return
	}

	logger.Info("Recurring payment updated successfully", slog.Int("unpaid_rows_updated", resp.UnpaidRowsUpdated), slog.Int("auto_marked_paid", resp.AutoMarkedPaid))
	c.JSON(http.StatusOK, resp)
}

// listSnapshots godoc
// @Summary List ledger rows for a recurring payment
// @Description Retrieves the monthly expense rows generated from a definition, newest month first
// @Tags recurring-payments
// @Produce  json
// @Param   id path string true "Definition ID"
// @Param   limit query int false "Limit number of results" default(24)
// @Param   nextToken query string false "Pagination token from a previous response"
// @Success 200 {object} dto.ListSnapshotsResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Definition not found"
// @Failure 500 {object} map[string]string "Failed to list ledger rows"
// @Security BearerAuth
// @Router /recurring-payments/{id}/snapshots [get]
func (h *recurringHandler) listSnapshots(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	definitionID := c.Param("id")

	var params dto.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for ListSnapshots", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	logger = logger.With(slog.String("definition_id", definitionID))
	logger.Info("Received request to list ledger rows", slog.Int("limit", params.Limit))

	resp, err := h.recurringService.ListSnapshots(c.Request.Context(), definitionID, params)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Recurring payment not found for snapshot listing")
			c.JSON(http.StatusNotFound, gin.H{"error": "Recurring payment not found"})
		} else {
			logger.Error("Failed to list ledger rows from service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list ledger rows"})
		}
		return
	}

	logger.Info("Ledger rows listed successfully", slog.Int("count", len(resp.Snapshots)))
	c.JSON(http.StatusOK, resp)
}
