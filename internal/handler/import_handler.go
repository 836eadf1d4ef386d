package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ledgerfeed/importer/internal/domain"
	"github.com/ledgerfeed/importer/internal/service"
	"github.com/ledgerfeed/importer/pkg/logger"
)

type ImportHandler struct {
	service service.ImportService
	logger  *logger.Logger
}

func NewImportHandler(service service.ImportService, log *logger.Logger) *ImportHandler {
	return &ImportHandler{
		service: service,
		logger:  log,
	}
}

// StartConversion accepts a multipart upload with an optional "file" part and
// a mandatory "config" part, runs the conversion and returns the job
// identifier. The identifier can be polled even when conversion failed.
func (h *ImportHandler) StartConversion(c echo.Context) error {
	ctx := c.Request().Context()

	h.logger.Info(ctx, "Handling conversion request")

	configData, err := h.formPart(c, "config")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "config is required",
		})
	}

	content, err := h.formPart(c, "file")
	if err != nil {
		content = nil
	}

	identifier, err := h.service.StartConversion(ctx, content, configData)
	if err != nil {
		if identifier == "" {
			h.logger.Error(ctx, "Failed to start conversion",
				"error", err,
			)
			return c.JSON(http.StatusInternalServerError, map[string]string{
				"error": "failed to start conversion",
			})
		}

		// The job exists and carries the failure detail in its status record.
		return c.JSON(http.StatusOK, map[string]interface{}{
			"identifier": identifier,
			"phase":      domain.JobPhaseErrored,
		})
	}

	h.logger.Info(ctx, "Conversion successful",
		"identifier", identifier,
	)

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"identifier": identifier,
		"phase":      domain.JobPhaseDone,
	})
}

// StartSubmission pushes a finished conversion to the ledger. The request
// body is the same import configuration used for the conversion.
func (h *ImportHandler) StartSubmission(c echo.Context) error {
	ctx := c.Request().Context()
	identifier := c.Param("id")

	configData, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "config body is required",
		})
	}

	if err := h.service.StartSubmission(ctx, identifier, configData); err != nil {
		if errors.Is(err, domain.ErrConfigDecode) {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": err.Error(),
			})
		}

		// The submission status record carries the failure detail.
		return c.JSON(http.StatusOK, map[string]interface{}{
			"identifier": identifier,
			"phase":      domain.JobPhaseErrored,
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"identifier": identifier,
		"phase":      domain.JobPhaseDone,
	})
}

func (h *ImportHandler) ConversionStatus(c echo.Context) error {
	return h.status(c, h.service.ConversionStatus)
}

func (h *ImportHandler) SubmissionStatus(c echo.Context) error {
	return h.status(c, h.service.SubmissionStatus)
}

// Preview returns the column headers and example values of a delimited file
// so a collaborator can build the role mapping.
func (h *ImportHandler) Preview(c echo.Context) error {
	ctx := c.Request().Context()

	configData, err := h.formPart(c, "config")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "config is required",
		})
	}
	content, err := h.formPart(c, "file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "file is required",
		})
	}

	preview, err := h.service.Preview(ctx, content, configData)
	if err != nil {
		if errors.Is(err, domain.ErrConfigDecode) || errors.Is(err, domain.ErrUnsupportedSource) {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": err.Error(),
			})
		}

		h.logger.Error(ctx, "Failed to build preview",
			"error", err,
		)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to build preview",
		})
	}

	return c.JSON(http.StatusOK, preview)
}

// MatchAccounts pairs the configuration's aggregator accounts with candidate
// ledger accounts.
func (h *ImportHandler) MatchAccounts(c echo.Context) error {
	ctx := c.Request().Context()

	configData, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "config body is required",
		})
	}

	matches, err := h.service.MatchAccounts(ctx, configData)
	if err != nil {
		if errors.Is(err, domain.ErrConfigDecode) || errors.Is(err, domain.ErrUnsupportedSource) {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": err.Error(),
			})
		}

		h.logger.Error(ctx, "Failed to match accounts",
			"error", err,
		)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to match accounts",
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"matches": matches,
	})
}

func (h *ImportHandler) status(c echo.Context, find func(ctx context.Context, identifier string) (*domain.JobStatus, error)) error {
	ctx := c.Request().Context()
	identifier := c.Param("id")

	record, err := find(ctx, identifier)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{
				"error": "job not found",
			})
		}

		h.logger.Error(ctx, "Failed to load job status",
			"identifier", identifier,
			"error", err,
		)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to load job status",
		})
	}

	return c.JSON(http.StatusOK, record)
}

func (h *ImportHandler) formPart(c echo.Context, name string) ([]byte, error) {
	file, err := c.FormFile(name)
	if err != nil {
		return nil, err
	}

	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	return io.ReadAll(src)
}
