package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"portfolio-analytics/internal/models"
	"portfolio-analytics/internal/services"
)

// AnalysisController handles the analysis HTTP surface.
type AnalysisController struct {
	service *services.AnalysisService
	logger  *logrus.Logger
}

func NewAnalysisController(service *services.AnalysisService, logger *logrus.Logger) *AnalysisController {
	if logger == nil {
		logger = logrus.New()
	}
	return &AnalysisController{
		service: service,
		logger:  logger,
	}
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Analyze handles POST /api/analysis.
func (ac *AnalysisController) Analyze(c *gin.Context) {
	var req services.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid request body",
			Details: bindErrorDetails(err),
		})
		return
	}

	report, err := ac.service.Analyze(c.Request.Context(), &req)
	if err != nil {
		ac.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// bindErrorDetails flattens gin's binding errors into a readable message,
// listing the offending fields when the validator produced them.
func bindErrorDetails(err error) string {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		fields := make([]string, 0, len(validationErrs))
		for _, fe := range validationErrs {
			fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
		}
		return "invalid fields: " + strings.Join(fields, ", ")
	}
	return err.Error()
}

// respondError maps the error taxonomy onto HTTP status codes: malformed
// input is 400, degraded/misaligned data under strict mode is 422, anything
// else is 500.
func (ac *AnalysisController) respondError(c *gin.Context, err error) {
	var validationErr *models.ValidationError
	var divisionErr *models.DivisionByZeroError
	var alignmentErr *models.AlignmentError
	var insufficientErr *models.InsufficientDataError
	var strictErr *models.StrictModeError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation failed",
			Details: validationErr.Error(),
		})
	case errors.As(err, &divisionErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid value series",
			Details: divisionErr.Error(),
		})
	case errors.As(err, &alignmentErr):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "series misaligned",
			Details: alignmentErr.Error(),
		})
	case errors.As(err, &insufficientErr):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "insufficient data",
			Details: insufficientErr.Error(),
		})
	case errors.As(err, &strictErr):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "strict mode failure",
			Details: strictErr.Error(),
		})
	default:
		ac.logger.WithError(err).Error("Analysis request failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "internal server error",
		})
	}
}
