package server

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"postvibe/analysis"
	"postvibe/db"
	"postvibe/geo"
	"postvibe/models"
	"postvibe/search"
	"postvibe/sentiment"
)

// Inbound contract: count is clamped here, before the core ever sees it.
const (
	CountDefault = 15
	CountMax     = 100
)

// Analyzer is the pipeline entry point the HTTP layer drives.
type Analyzer interface {
	Search(ctx context.Context, params analysis.Params) (*analysis.Report, error)
	Trends(ctx context.Context) (*analysis.TrendsReport, error)
	Overtime(ctx context.Context, keyword string, location string) ([]models.DayAverage, error)
}

type ServerConfig struct {
	// The analyzer to run searches through
	Analyzer Analyzer
}

// Returns a fiber.App instance serving the postvibe JSON API
func Server(config *ServerConfig) *fiber.App {
	app := fiber.New()

	// Middleware to track the latency of each request
	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		log.WithFields(log.Fields{
			"method":  c.Method(),
			"route":   c.Route().Path,
			"latency": time.Since(start),
		}).Info("Request")
		return err
	})

	app.Use(requestid.New(requestid.ConfigDefault))
	app.Use(compress.New())
	app.Use(cors.New(cors.Config{
		AllowHeaders: "Cache-Control",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Get("/api/search", func(c *fiber.Ctx) error {
		keyword := strings.TrimSpace(c.Query("keyword"))
		if keyword == "" {
			return badRequest(c, "missing search keyword")
		}

		count, err := parseCount(c.Query("count"))
		if err != nil {
			return badRequest(c, err.Error())
		}

		location := strings.TrimSpace(c.Query("location"))

		report, searchErr := config.Analyzer.Search(c.UserContext(), analysis.Params{
			Keyword:  keyword,
			Count:    count,
			Location: location,
		})
		if searchErr != nil {
			return pipelineError(c, searchErr)
		}

		return c.JSON(report)
	})

	app.Get("/api/trends", func(c *fiber.Ctx) error {
		trends, err := config.Analyzer.Trends(c.UserContext())
		if err != nil {
			return pipelineError(c, err)
		}
		return c.JSON(trends)
	})

	app.Get("/api/overtime", func(c *fiber.Ctx) error {
		keyword := strings.TrimSpace(c.Query("keyword"))
		if keyword == "" {
			return badRequest(c, "missing search keyword")
		}

		series, err := config.Analyzer.Overtime(c.UserContext(), keyword, strings.TrimSpace(c.Query("location")))
		if err != nil {
			return pipelineError(c, err)
		}
		return c.JSON(series)
	})

	return app
}

// parseCount applies the inbound contract: default 15, clamped to at most
// 100, rejecting zero and negatives.
func parseCount(raw string) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return CountDefault, nil
	}

	count, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("count must be a number between 1 and 100")
	}
	if count <= 0 {
		return 0, errors.New("count must be a number between 1 and 100")
	}
	if count > CountMax {
		count = CountMax
	}
	return count, nil
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": message})
}

// pipelineError maps the pipeline's error taxonomy onto distinct statuses
// and user-facing messages. The core only guarantees the identities stay
// distinguishable; the wording lives here.
func pipelineError(c *fiber.Ctx, err error) error {
	log.WithFields(log.Fields{
		"error": err,
	}).Error("Pipeline request failed")

	switch {
	case errors.Is(err, search.ErrNoResults):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "the search API returned no results for that query",
		})
	case errors.Is(err, search.ErrUnsupportedLanguage):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "that account does not post in a supported language",
		})
	case errors.Is(err, geo.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "could not identify that location",
		})
	case errors.Is(err, sentiment.ErrClassification):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "trouble analyzing one or more of the results for that search",
		})
	case errors.Is(err, db.ErrDatabase), errors.Is(err, db.ErrNoPosts):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "trouble interacting with the database",
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "something went wrong, please try again later",
		})
	}
}
