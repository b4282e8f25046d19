package insights

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"backend-everywhere/internal/lookup"
	"backend-everywhere/internal/store"

	"github.com/gofiber/fiber/v2"
)

func withUser(id string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user_id", id)
		return c.Next()
	}
}

func newTestApp(svc *Service) *fiber.App {
	app := fiber.New()
	RegisterRoutes(app, svc, withUser("user-1"))
	return app
}

func get(t *testing.T, app *fiber.App, path string) *http.Response {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	if err != nil {
		t.Fatalf("request %s: %v", path, err)
	}
	return resp
}

func TestInsightsHandlers(t *testing.T) {
	f := newFixture(t)
	f.seedPlaces(t)
	app := newTestApp(f.svc)

	for _, path := range []string{
		"/places",
		"/places/home-work",
		"/places/top-spot",
		"/stats/weekly?offset=-1",
		"/stats/stays",
		"/stats/explored?width=15",
		"/stats/explored?lat=53.35&lon=-6.26",
	} {
		if resp := get(t, app, path); resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected ok, got %d", path, resp.StatusCode)
		}
	}

	resp := get(t, app, "/places")
	var views []PlaceView
	if err := json.NewDecoder(resp.Body).Decode(&views); err != nil {
		t.Fatalf("decode places: %v", err)
	}
	if len(views) != len(dublinPlaces) || views[0].Label != "🏠 Spot" {
		t.Fatalf("unexpected places %+v", views)
	}
}

func TestInsightsHandlersBadInput(t *testing.T) {
	f := newFixture(t)
	app := newTestApp(f.svc)

	for _, path := range []string{
		"/stats/weekly?offset=abc",
		"/stats/explored?width=wide",
		"/stats/explored?lat=91&lon=0",
		"/recommendations?lat=53.3",
		"/recommendations?type=cafe",
	} {
		if resp := get(t, app, path); resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected bad request, got %d", path, resp.StatusCode)
		}
	}
}

func TestInsightsHandlersTopSpotMissing(t *testing.T) {
	f := newFixture(t)
	app := newTestApp(f.svc)

	if resp := get(t, app, "/places/top-spot"); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected not found, got %d", resp.StatusCode)
	}
}

func TestInsightsHandlersStorageUnavailable(t *testing.T) {
	svc := NewService(failingPlaces{}, failingTrail{}, nil, nil, nil, Settings{})
	app := newTestApp(svc)

	for _, path := range []string{"/places", "/places/home-work", "/stats/weekly", "/recommendations?type=home"} {
		if resp := get(t, app, path); resp.StatusCode != http.StatusServiceUnavailable {
			t.Fatalf("%s: expected service unavailable, got %d", path, resp.StatusCode)
		}
	}
}

func TestRecommendationsHandler(t *testing.T) {
	f := newFixture(t)
	f.seedPlaces(t)
	f.searcher.venues = []lookup.Venue{
		{Name: "St Stephen's Green", Rating: 4.7, UserRatingsTotal: 900, BusinessStatus: "OPERATIONAL", Types: []string{"park"}, Photos: []lookup.Photo{{Reference: "p"}}},
	}
	app := newTestApp(f.svc)

	for _, path := range []string{"/recommendations?type=home", "/recommendations?lat=53.34&lon=-6.26&category=park"} {
		resp := get(t, app, path)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected ok, got %d", path, resp.StatusCode)
		}
		var venues []lookup.Venue
		if err := json.NewDecoder(resp.Body).Decode(&venues); err != nil {
			t.Fatalf("decode venues: %v", err)
		}
		if len(venues) != 1 {
			t.Fatalf("%s: expected one venue, got %d", path, len(venues))
		}
	}
}

func TestInsightsHandlersRequireUser(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app, NewService(store.NewMemory(), store.NewMemory(), nil, nil, nil, Settings{}), func(c *fiber.Ctx) error { return c.Next() })

	if resp := get(t, app, "/places"); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized, got %d", resp.StatusCode)
	}
}
