package insights

import (
	"errors"
	"strconv"
	"strings"

	"backend-everywhere/internal/auth"
	"backend-everywhere/internal/lookup"
	"backend-everywhere/internal/place"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/places", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		views, err := svc.Places(c.UserContext(), userID)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(views)
	})

	r.Get("/places/home-work", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		hw, err := svc.HomeWork(c.UserContext(), userID)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(hw)
	})

	r.Get("/places/top-spot", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		top, err := svc.TopSpot(c.UserContext(), userID)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(top)
	})

	r.Get("/stats/weekly", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		offset := 0
		if raw := c.Query("offset"); raw != "" {
			if offset, err = strconv.Atoi(raw); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "offset must be an integer")
			}
		}
		week, err := svc.Weekly(c.UserContext(), userID, offset)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(week)
	})

	r.Get("/stats/stays", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		stays, err := svc.Stays(c.UserContext(), userID)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(stays)
	})

	r.Get("/stats/explored", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		width, err := optionalFloat(c.Query("width"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "width must be a number")
		}
		at, err := coordinate(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		explored, err := svc.Explored(c.UserContext(), userID, width, at)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(explored)
	})

	r.Get("/recommendations", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		at, err := coordinate(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		kind := strings.ToLower(c.Query("type"))
		if at == nil {
			// Home and work recommendations default to the detected place.
			if at, err = svc.anchor(c.UserContext(), userID, kind); err != nil {
				return toHTTPError(err)
			}
		}
		venues := svc.Recommend(c.UserContext(), lookup.RecommendRequest{
			Latitude:     at.Latitude,
			Longitude:    at.Longitude,
			Kind:         kind,
			Category:     c.Query("category"),
			IgnoreRadius: c.QueryBool("ignore_radius", false),
		})
		return c.JSON(venues)
	})
}

var errNoCoordinate = errors.New("lat and lon required")

// coordinate parses the optional lat/lon query pair.
func coordinate(c *fiber.Ctx) (*Coordinate, error) {
	rawLat, rawLon := c.Query("lat"), c.Query("lon")
	if rawLat == "" && rawLon == "" {
		return nil, nil
	}
	lat, err := strconv.ParseFloat(rawLat, 64)
	if err != nil || lat < -90 || lat > 90 {
		return nil, errors.New("lat must be a latitude")
	}
	lon, err := strconv.ParseFloat(rawLon, 64)
	if err != nil || lon < -180 || lon > 180 {
		return nil, errors.New("lon must be a longitude")
	}
	return &Coordinate{Latitude: lat, Longitude: lon}, nil
}

func optionalFloat(raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseFloat(raw, 64)
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, place.ErrStorageUnavailable):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	case errors.Is(err, ErrNoTopSpot):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, errNoCoordinate):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
