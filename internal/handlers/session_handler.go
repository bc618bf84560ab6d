package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"aihiring/candidate-pipeline/internal/models"
	"aihiring/candidate-pipeline/internal/pipeline"
	"aihiring/candidate-pipeline/internal/services"
)

type SessionHandler struct {
	orchestrator *pipeline.Orchestrator
	qdrant       services.QdrantService // nil when no vector index is configured
}

func NewSessionHandler(orchestrator *pipeline.Orchestrator, qdrant services.QdrantService) *SessionHandler {
	return &SessionHandler{
		orchestrator: orchestrator,
		qdrant:       qdrant,
	}
}

// HandleStatus handles GET /evaluate/status/:candidate_id.
func (h *SessionHandler) HandleStatus(c *fiber.Ctx) error {
	candidateID := c.Params("candidate_id")

	sess, err := h.orchestrator.Session(candidateID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(models.StatusResponse{
			Status:      "not_found",
			CandidateID: candidateID,
		})
	}

	return c.JSON(models.StatusResponse{
		Status:      "in_progress",
		CandidateID: candidateID,
		JDID:        sess.JDID,
		Stage:       sess.Stage().String(),
	})
}

// HandleCancel handles DELETE /evaluate/cancel/:candidate_id.
func (h *SessionHandler) HandleCancel(c *fiber.Ctx) error {
	candidateID := c.Params("candidate_id")

	if err := h.orchestrator.Cancel(candidateID); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Evaluation cancelled",
	})
}

// HandleHealth handles GET /health.
func (h *SessionHandler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":             "healthy",
		"active_evaluations": h.orchestrator.ActiveSessions(),
	})
}

// HandleSearch handles GET /candidates/search?jd=...&limit=N against the
// vector index of finalized candidates.
func (h *SessionHandler) HandleSearch(c *fiber.Ctx) error {
	if h.qdrant == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "candidate search is unavailable: no vector index configured",
		})
	}

	jdText := strings.TrimSpace(c.Query("jd"))
	if jdText == "" {
		return respondError(c, pipeline.NewValidationError("jd query parameter is required"))
	}
	limit := c.QueryInt("limit", 5)

	hits, err := h.qdrant.SearchCandidates(c.Context(), jdText, limit)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"status":     "success",
		"candidates": hits,
	})
}

// respondError maps the error taxonomy onto HTTP status codes. Error text is
// returned as-is; services never embed credentials in error messages.
func respondError(c *fiber.Ctx, err error) error {
	var validationErr *pipeline.ValidationError
	var preconditionErr *pipeline.PreconditionViolation
	var serviceErr *pipeline.ServiceError

	switch {
	case errors.Is(err, pipeline.ErrSessionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found. Please restart the evaluation from /evaluate/start",
		})
	case errors.As(err, &validationErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": validationErr.Error(),
		})
	case errors.As(err, &preconditionErr):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": preconditionErr.Error(),
		})
	case errors.As(err, &serviceErr):
		status := fiber.StatusBadGateway
		if serviceErr.Transient {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}
