package api

import (
	"fmt"
	"strconv"
	"time"

	"github.com/1F47E/geo-explored/pkg/feed"
	"github.com/1F47E/geo-explored/pkg/models"
	"github.com/gofiber/fiber/v2"
)

// PointsResponse wraps a list of points
type PointsResponse struct {
	Count  int               `json:"count"`
	Points []models.GeoPoint `json:"points"`
}

func pointsResponse(points []models.GeoPoint) PointsResponse {
	if points == nil {
		points = []models.GeoPoint{}
	}
	return PointsResponse{Count: len(points), Points: points}
}

// requiredFloat parses a mandatory numeric query parameter
func requiredFloat(c *fiber.Ctx, name string) (float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", name)
	}
	return v, nil
}

// HealthHandler returns a basic liveness check.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		version := deps.Version
		if version == "" {
			version = "dev"
		}
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).String(),
			"version": version,
		})
	}
}

// ReadyHandler reports ready once the index has been hydrated
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		checks := make(map[string]string)
		ready := true

		if deps.Index.Stats().Hydrated {
			checks["index"] = "ok"
		} else {
			checks["index"] = "hydrating"
			ready = false
		}

		if deps.NATS != nil {
			if deps.NATS.IsConnected() {
				checks["nats"] = "ok"
			} else {
				checks["nats"] = "disconnected"
			}
		} else {
			checks["nats"] = "not configured"
		}

		status, code := "ready", fiber.StatusOK
		if !ready {
			status, code = "not ready", fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": checks,
		})
	}
}

// QueryHandler returns the explored points inside a bounding box.
func QueryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var edges [4]float64
		for i, name := range []string{"south", "west", "north", "east"} {
			v, err := requiredFloat(c, name)
			if err != nil {
				return errBadRequest(c, err.Error())
			}
			edges[i] = v
		}

		box := models.NewBoundingBox(edges[0], edges[1], edges[2], edges[3])
		points, err := deps.Index.Query(c.UserContext(), box)
		if err != nil {
			return indexError(c, err)
		}
		return c.JSON(pointsResponse(points))
	}
}

// AllHandler returns every explored point.
func AllHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		points, err := deps.Index.All(c.UserContext())
		if err != nil {
			return indexError(c, err)
		}
		return c.JSON(pointsResponse(points))
	}
}

// CheckHandler answers whether a point has already been explored.
func CheckHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat, err := requiredFloat(c, "lat")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		lon, err := requiredFloat(c, "lon")
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		seen, err := deps.Index.IsExplored(c.UserContext(), models.NewGeoPoint(lat, lon))
		if err != nil {
			return indexError(c, err)
		}
		return c.JSON(fiber.Map{
			"lat":      lat,
			"lon":      lon,
			"explored": seen,
		})
	}
}

// FixesHandler accepts a single fix or an array of fixes.
func FixesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		points, err := feed.DecodeFixes(c.Body())
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		if len(points) == 1 {
			res, err := deps.Index.Insert(points[0])
			if err != nil {
				return indexError(c, err)
			}
			return c.JSON(fiber.Map{"result": res.String()})
		}
		return c.JSON(deps.Index.InsertBatch(points))
	}
}

// StatsHandler returns the index counters.
func StatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(deps.Index.Stats())
	}
}

// FlushHandler writes pending points to the store now.
func FlushHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Index.Flush(c.UserContext()); err != nil {
			return indexError(c, err)
		}
		return c.JSON(deps.Index.Stats())
	}
}
