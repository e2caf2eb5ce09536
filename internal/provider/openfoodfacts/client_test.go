package openfoodfacts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, status int, body string) *Client {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/product/3017620422003.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("User-Agent") == "" {
			t.Error("missing User-Agent")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return &Client{BaseURL: ts.URL, HTTPClient: ts.Client()}
}

func TestLookupBarcodePrefersServingValues(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.StatusOK, `{
  "status": 1,
  "product": {
    "product_name": "Nutella",
    "brands": "Ferrero",
    "serving_size": "15 g",
    "image_front_small_url": "https://images.example/nutella.jpg",
    "nutriments": {
      "energy-kcal_serving": 80.4,
      "energy-kcal_100g": 539,
      "proteins_serving": 0.94,
      "carbohydrates_serving": 8.63,
      "fat_serving": 4.64,
      "sugars_serving": 8.42,
      "sodium_serving": 0.0062
    }
  }
}`)

	p, err := c.LookupBarcode(context.Background(), "3017620422003")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if p == nil {
		t.Fatal("expected a product")
	}
	if p.FoodName != "Nutella (Ferrero)" || p.Brand == nil || *p.Brand != "Ferrero" {
		t.Errorf("name/brand = %q/%v", p.FoodName, p.Brand)
	}
	if p.ServingSize != "15 g" {
		t.Errorf("serving size = %q", p.ServingSize)
	}
	if p.Calories != 80 || p.ProteinG != 0.9 || p.CarbsG != 8.6 || p.FatG != 4.6 {
		t.Errorf("macros = %+v", p.Macros)
	}
	if p.SugarG == nil || *p.SugarG != 8.4 {
		t.Errorf("sugar = %v", p.SugarG)
	}
	if p.FiberG != nil {
		t.Errorf("fiber should be absent, got %v", *p.FiberG)
	}
	if p.SodiumMg == nil || *p.SodiumMg != 6 {
		t.Errorf("sodium = %v", p.SodiumMg)
	}
	if p.ImageURL == nil {
		t.Error("missing image url")
	}
}

func TestLookupBarcodeFallsBackToPer100gAndSalt(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.StatusOK, `{
  "status": 1,
  "product": {
    "product_name": "Crackers",
    "serving_size": "30 g",
    "nutriments": {
      "energy-kcal_100g": 452.6,
      "proteins_100g": 9.96,
      "carbohydrates_100g": 68,
      "fat_100g": 15.06,
      "salt_100g": 1.0
    }
  }
}`)

	p, err := c.LookupBarcode(context.Background(), "3017620422003")
	if err != nil || p == nil {
		t.Fatalf("lookup = %v, %v", p, err)
	}
	if p.ServingSize != "100g" {
		t.Errorf("serving size = %q, want 100g", p.ServingSize)
	}
	if p.FoodName != "Crackers" || p.Brand != nil {
		t.Errorf("name = %q brand = %v", p.FoodName, p.Brand)
	}
	if p.Calories != 453 || p.ProteinG != 10 || p.FatG != 15.1 {
		t.Errorf("macros = %+v", p.Macros)
	}
	if p.SodiumMg == nil || *p.SodiumMg != 400 {
		t.Errorf("sodium from salt = %v, want 400", p.SodiumMg)
	}
}

func TestLookupBarcodeNotFound(t *testing.T) {
	t.Parallel()

	for name, tc := range map[string]struct {
		status int
		body   string
	}{
		"status zero": {http.StatusOK, `{"status": 0, "status_verbose": "product not found"}`},
		"http 404":    {http.StatusNotFound, `{"status": 0}`},
	} {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, tc.status, tc.body)
			p, err := c.LookupBarcode(context.Background(), "3017620422003")
			if err != nil || p != nil {
				t.Errorf("lookup = %v, %v; want nil, nil", p, err)
			}
		})
	}
}

func TestLookupBarcodeUpstreamFailure(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.StatusBadGateway, `oops`)
	if _, err := c.LookupBarcode(context.Background(), "3017620422003"); err == nil {
		t.Error("expected error on 502")
	}
}

func TestSodiumMg(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		n    map[string]any
		want *float64
	}{
		{"salt only", map[string]any{"salt_100g": 1.0}, ptr(400.0)},
		{"direct sodium wins", map[string]any{"sodium_100g": 0.5, "salt_100g": 1.0}, ptr(500.0)},
		{"string value", map[string]any{"salt_100g": "0.25"}, ptr(100.0)},
		{"absent", map[string]any{}, nil},
	}
	for _, tc := range cases {
		got := SodiumMg(tc.n, "_100g")
		switch {
		case tc.want == nil && got != nil:
			t.Errorf("%s: got %v, want nil", tc.name, *got)
		case tc.want != nil && (got == nil || *got != *tc.want):
			t.Errorf("%s: got %v, want %v", tc.name, got, *tc.want)
		}
	}
}

func ptr(v float64) *float64 { return &v }
