package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chatpipe/internal/logger"
	"chatpipe/pkg/errors"
	"chatpipe/pkg/models"
)

type BaseHandler struct {
	Service Service
	Logger  logger.Logger
}

func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	h.Logger.ErrorwCtx(c.Request.Context(), "Request error", "error", err, "path", c.Request.URL.Path)

	status := errors.ToHTTPStatus(err)
	response := errors.ToErrorResponse(err)

	c.JSON(status, response)
}

type Handler struct {
	BaseHandler
}

func NewHandler(service Service, log logger.Logger) *Handler {
	return &Handler{
		BaseHandler: BaseHandler{
			Service: service,
			Logger:  log,
		},
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		rules := v1.Group("/rules/suppression")
		{
			rules.GET("", h.ListRules)
			rules.POST("", h.CreateRule)
			rules.GET("/:id", h.GetRule)
			rules.PUT("/:id", h.UpdateRule)
			rules.DELETE("/:id", h.DeleteRule)
		}

		messages := v1.Group("/messages")
		{
			messages.POST("/derive", h.Derive)
			messages.POST("/classify", h.Classify)
			messages.POST("/preview", h.Preview)
		}

		names := v1.Group("/names")
		{
			names.POST("/batch", h.BatchNames)
		}
	}
}

// ListRules godoc
// @Summary      List all suppression rules
// @Description  Get a list of all suppression rules
// @Tags         suppression-rules
// @Accept       json
// @Produce      json
// @Success      200  {array}    SuppressionRule
// @Failure      500  {object}  errors.ErrorResponse
// @Router       /rules/suppression [get]
func (h *Handler) ListRules(c *gin.Context) {
	rules, err := h.Service.ListSuppressionRules(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, rules)
}

// CreateRule godoc
// @Summary      Create a new suppression rule
// @Description  Create a new suppression rule with the provided data
// @Tags         suppression-rules
// @Accept       json
// @Produce      json
// @Param        rule  body       CreateSuppressionRuleRequest  true  "Suppression rule data"
// @Success      201   {object}   SuppressionRule
// @Failure      400   {object}  errors.ErrorResponse
// @Failure      409   {object}  errors.ErrorResponse
// @Failure      500   {object}  errors.ErrorResponse
// @Router       /rules/suppression [post]
func (h *Handler) CreateRule(c *gin.Context) {
	var req CreateSuppressionRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithCause(err)))
		return
	}

	rule, err := h.Service.CreateSuppressionRule(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, rule)
}

// GetRule godoc
// @Summary      Get a suppression rule by ID
// @Description  Get a specific suppression rule by its ID
// @Tags         suppression-rules
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Rule ID"
// @Success      200  {object}   SuppressionRule
// @Failure      404  {object}  errors.ErrorResponse
// @Failure      500  {object}  errors.ErrorResponse
// @Router       /rules/suppression/{id} [get]
func (h *Handler) GetRule(c *gin.Context) {
	id := c.Param("id")
	rule, err := h.Service.GetSuppressionRule(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, rule)
}

// UpdateRule godoc
// @Summary      Update a suppression rule
// @Description  Update an existing suppression rule by ID
// @Tags         suppression-rules
// @Accept       json
// @Produce      json
// @Param        id    path      string                        true  "Rule ID"
// @Param        rule  body       UpdateSuppressionRuleRequest  true  "Updated rule data"
// @Success      200   {object}   SuppressionRule
// @Failure      400   {object}  errors.ErrorResponse
// @Failure      404   {object}  errors.ErrorResponse
// @Failure      500   {object}  errors.ErrorResponse
// @Router       /rules/suppression/{id} [put]
func (h *Handler) UpdateRule(c *gin.Context) {
	id := c.Param("id")
	var req UpdateSuppressionRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithCause(err)))
		return
	}

	rule, err := h.Service.UpdateSuppressionRule(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, rule)
}

// DeleteRule godoc
// @Summary      Delete a suppression rule
// @Description  Delete a suppression rule by ID
// @Tags         suppression-rules
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Rule ID"
// @Success      204  "No Content"
// @Failure      404  {object}  errors.ErrorResponse
// @Failure      500  {object}  errors.ErrorResponse
// @Router       /rules/suppression/{id} [delete]
func (h *Handler) DeleteRule(c *gin.Context) {
	id := c.Param("id")
	err := h.Service.DeleteSuppressionRule(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Derive godoc
// @Summary      Derive cell data and preview for a message
// @Description  Run one message envelope through the derivation pipeline, producing both the cell data and the preview string
// @Tags         messages
// @Accept       json
// @Produce      json
// @Param        envelope  body       models.MessageEnvelope  true  "Message envelope"
// @Success      200       {object}   models.DerivedRecord
// @Failure      400       {object}  errors.ErrorResponse
// @Failure      500       {object}  errors.ErrorResponse
// @Router       /messages/derive [post]
func (h *Handler) Derive(c *gin.Context) {
	var env models.MessageEnvelope
	if err := c.ShouldBindJSON(&env); err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithCause(err)))
		return
	}

	record, err := h.Service.Derive(c.Request.Context(), &env)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// Classify godoc
// @Summary      Classify a message into cell data
// @Description  Run one message envelope through classification only
// @Tags         messages
// @Accept       json
// @Produce      json
// @Param        envelope  body       models.MessageEnvelope  true  "Message envelope"
// @Success      200       {object}   ClassifyResponse
// @Failure      400       {object}  errors.ErrorResponse
// @Failure      500       {object}  errors.ErrorResponse
// @Router       /messages/classify [post]
func (h *Handler) Classify(c *gin.Context) {
	var env models.MessageEnvelope
	if err := c.ShouldBindJSON(&env); err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithCause(err)))
		return
	}

	resp, err := h.Service.Classify(c.Request.Context(), &env)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Preview godoc
// @Summary      Resolve the preview string for a message
// @Description  Run one message envelope through display-string resolution only
// @Tags         messages
// @Accept       json
// @Produce      json
// @Param        envelope  body       models.MessageEnvelope  true  "Message envelope"
// @Success      200       {object}   PreviewResponse
// @Failure      400       {object}  errors.ErrorResponse
// @Failure      500       {object}  errors.ErrorResponse
// @Router       /messages/preview [post]
func (h *Handler) Preview(c *gin.Context) {
	var env models.MessageEnvelope
	if err := c.ShouldBindJSON(&env); err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithCause(err)))
		return
	}

	resp, err := h.Service.Preview(c.Request.Context(), &env)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// BatchNames godoc
// @Summary      Resolve display names for a batch of user IDs
// @Description  Look up display names through the configured directory, falling back to the raw ID on a miss
// @Tags         names
// @Accept       json
// @Produce      json
// @Param        request  body       BatchNamesRequest  true  "User IDs to resolve"
// @Success      200      {object}   BatchNamesResponse
// @Failure      400      {object}  errors.ErrorResponse
// @Failure      503      {object}  errors.ErrorResponse
// @Router       /names/batch [post]
func (h *Handler) BatchNames(c *gin.Context) {
	var req BatchNamesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithCause(err)))
		return
	}

	names, err := h.Service.BatchNames(c.Request.Context(), req.UserIDs)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, BatchNamesResponse{Names: names})
}
