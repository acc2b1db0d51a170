// Package api is the HTTP edge: route wiring, request decoding and the
// error-to-status mapping. Business logic lives in the market and learning
// services.
package api

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"skillroad/server/internal/learning"
	"skillroad/server/internal/model"
	"skillroad/server/internal/portal"
	"skillroad/server/internal/store"
)

// userIDHeader is set by the authenticating gateway in front of this
// service. Requests without it are rejected.
const userIDHeader = "x-user-id"

// MarketService is the job-market surface the handlers call.
type MarketService interface {
	Search(ctx context.Context, userID string, q portal.Query, limit int) ([]model.JobListing, portal.Stats, error)
	SaveListing(ctx context.Context, l model.JobListing) (*model.JobListing, error)
	MarketData(ctx context.Context, jobRole, location string) (*model.JobMarketData, error)
	TrendingSkills(ctx context.Context, limit int) ([]model.TrendingSkill, error)
	Searches(ctx context.Context, userID string) ([]model.UserJobSearch, error)
}

// LearningService is the roadmap surface the handlers call.
type LearningService interface {
	GenerateRoadmap(ctx context.Context, userID, jobRole, experienceLevel string) (*model.RoadmapDetail, error)
	Roadmaps(ctx context.Context, userID string) ([]model.Roadmap, error)
	RoadmapDetail(ctx context.Context, userID string, roadmapID int) (*model.RoadmapDetail, error)
	Progress(ctx context.Context, userID string, roadmapID int) (*learning.ProgressSummary, error)
	RecordProgress(ctx context.Context, userID string, upd learning.ProgressUpdate) (*model.UserProgress, error)
	SubmitAssessment(ctx context.Context, userID string, assessmentID int, answers []int) (*learning.AssessmentResult, error)
}

// Server holds the handler dependencies.
type Server struct {
	market   MarketService
	learning LearningService
	logger   *zap.Logger
}

// New builds the fiber application with all routes registered.
func New(marketSvc MarketService, learningSvc LearningService, logger *zap.Logger) *fiber.App {
	s := &Server{market: marketSvc, learning: learningSvc, logger: logger}

	app := fiber.New(fiber.Config{
		AppName:               "skillroad",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(fiberlogger.New())

	app.Get("/health", s.handleHealth)

	api := app.Group("/api", s.requireUser)

	api.Get("/jobs/search", s.handleJobSearch)
	api.Get("/jobs/market-analysis", s.handleMarketAnalysis)
	api.Get("/jobs/trending-skills", s.handleTrendingSkills)
	api.Get("/jobs/user-searches", s.handleUserSearches)
	api.Post("/jobs/save", s.handleSaveListing)

	api.Post("/roadmaps/generate", s.handleGenerateRoadmap)
	api.Get("/roadmaps", s.handleListRoadmaps)
	api.Get("/roadmaps/:id", s.handleRoadmapDetail)
	api.Post("/progress", s.handleRecordProgress)
	api.Get("/progress/:roadmapId", s.handleProgress)
	api.Post("/assessments/:id/submit", s.handleSubmitAssessment)

	return app
}

// requireUser extracts the gateway-provided user identity.
func (s *Server) requireUser(c *fiber.Ctx) error {
	userID := c.Get(userIDHeader)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "missing " + userIDHeader + " header",
		})
	}
	c.Locals("userID", userID)
	return c.Next()
}

func userID(c *fiber.Ctx) string {
	id, _ := c.Locals("userID").(string)
	return id
}

// writeError maps service errors onto HTTP statuses.
func (s *Server) writeError(c *fiber.Ctx, err error) error {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": verr.Msg})
	case errors.Is(err, store.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "not found"})
	default:
		s.logger.Error("request failed",
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "internal server error"})
	}
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
