package api

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"skillroad/server/internal/learning"
	"skillroad/server/internal/model"
	"skillroad/server/internal/portal"
)

// ─── Job market ──────────────────────────────────────────────────────────────

func (s *Server) handleJobSearch(c *fiber.Ctx) error {
	q := portal.Query{
		Role:            c.Query("jobRole"),
		Location:        c.Query("location"),
		ExperienceLevel: c.Query("experienceLevel"),
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	listings, stats, err := s.market.Search(c.UserContext(), userID(c), q, limit)
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"jobs":       listings,
		"totalCount": len(listings),
		"searchParams": fiber.Map{
			"jobRole":         q.Role,
			"location":        q.Location,
			"experienceLevel": q.ExperienceLevel,
		},
		"stats": stats,
	})
}

func (s *Server) handleSaveListing(c *fiber.Ctx) error {
	var listing model.JobListing
	if err := c.BodyParser(&listing); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid request body"})
	}

	saved, err := s.market.SaveListing(c.UserContext(), listing)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(saved)
}

func (s *Server) handleMarketAnalysis(c *fiber.Ctx) error {
	data, err := s.market.MarketData(c.UserContext(), c.Query("jobRole"), c.Query("location"))
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(data)
}

func (s *Server) handleUserSearches(c *fiber.Ctx) error {
	searches, err := s.market.Searches(c.UserContext(), userID(c))
	if err != nil {
		return s.writeError(c, err)
	}
	if searches == nil {
		searches = []model.UserJobSearch{}
	}
	return c.JSON(searches)
}

func (s *Server) handleTrendingSkills(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit"))

	skills, err := s.market.TrendingSkills(c.UserContext(), limit)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"skills":      skills,
		"lastUpdated": time.Now().UTC(),
	})
}

// ─── Learning path ───────────────────────────────────────────────────────────

type generateRoadmapRequest struct {
	JobRole         string `json:"jobRole"`
	ExperienceLevel string `json:"experienceLevel"`
}

func (s *Server) handleGenerateRoadmap(c *fiber.Ctx) error {
	var req generateRoadmapRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid request body"})
	}

	detail, err := s.learning.GenerateRoadmap(c.UserContext(), userID(c), req.JobRole, req.ExperienceLevel)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(detail)
}

func (s *Server) handleListRoadmaps(c *fiber.Ctx) error {
	roadmaps, err := s.learning.Roadmaps(c.UserContext(), userID(c))
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(fiber.Map{"roadmaps": roadmaps})
}

func (s *Server) handleRoadmapDetail(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return s.writeError(c, err)
	}

	detail, err := s.learning.RoadmapDetail(c.UserContext(), userID(c), id)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(detail)
}

func (s *Server) handleProgress(c *fiber.Ctx) error {
	roadmapID, err := pathID(c, "roadmapId")
	if err != nil {
		return s.writeError(c, err)
	}

	summary, err := s.learning.Progress(c.UserContext(), userID(c), roadmapID)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(summary)
}

func (s *Server) handleRecordProgress(c *fiber.Ctx) error {
	var upd learning.ProgressUpdate
	if err := c.BodyParser(&upd); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid request body"})
	}

	progress, err := s.learning.RecordProgress(c.UserContext(), userID(c), upd)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(progress)
}

type submitAssessmentRequest struct {
	Answers []int `json:"answers"`
}

func (s *Server) handleSubmitAssessment(c *fiber.Ctx) error {
	assessmentID, err := pathID(c, "id")
	if err != nil {
		return s.writeError(c, err)
	}

	var req submitAssessmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid request body"})
	}

	result, err := s.learning.SubmitAssessment(c.UserContext(), userID(c), assessmentID, req.Answers)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(result)
}

func pathID(c *fiber.Ctx, name string) (int, error) {
	id, err := strconv.Atoi(c.Params(name))
	if err != nil || id < 1 {
		return 0, &model.ValidationError{Msg: name + " must be a positive integer"}
	}
	return id, nil
}
