package openfoodfacts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cherryfit/cherryfit/internal/model"
)

const (
	defaultBaseURL = "https://world.openfoodfacts.org"
	userAgent      = "CherryFit/1.0 (health tracking app)"
	per100gServing = "100g"
)

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// LookupBarcode fetches and normalizes one product. An unknown barcode yields
// (nil, nil); any other failure is an error.
func (c *Client) LookupBarcode(ctx context.Context, barcode string) (*model.BarcodeProduct, error) {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	u := fmt.Sprintf("%s/api/v2/product/%s.json", base, url.PathEscape(barcode))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create openfoodfacts request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute openfoodfacts request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read openfoodfacts response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openfoodfacts request failed with status %d", resp.StatusCode)
	}

	var parsed offResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode openfoodfacts response: %w", err)
	}
	if parsed.Status != 1 || parsed.Product == nil {
		return nil, nil
	}

	return normalize(barcode, parsed.Product), nil
}

// normalize prefers per-serving values whenever the product declares
// per-serving energy, and falls back to per-100g otherwise.
func normalize(barcode string, p *offProduct) *model.BarcodeProduct {
	n := p.Nutriments
	suffix := "_100g"
	servingSize := per100gServing
	if _, ok := parseFloatAny(n["energy-kcal_serving"]); ok {
		suffix = "_serving"
		servingSize = strings.TrimSpace(p.ServingSize)
		if servingSize == "" {
			servingSize = per100gServing
		}
	}

	value := func(key string) float64 {
		v, _ := parseFloatAny(n[key+suffix])
		return v
	}
	optional := func(key string) *float64 {
		v, ok := parseFloatAny(n[key+suffix])
		if !ok {
			return nil
		}
		r := model.Round1(v)
		return &r
	}

	name := strings.TrimSpace(p.ProductName)
	if name == "" {
		name = "Unknown Product"
	}
	var brand *string
	if b := strings.TrimSpace(p.Brands); b != "" {
		brand = &b
		name = fmt.Sprintf("%s (%s)", name, b)
	}
	var imageURL *string
	if img := strings.TrimSpace(p.ImageFrontSmallURL); img != "" {
		imageURL = &img
	}

	return &model.BarcodeProduct{
		Barcode:     barcode,
		FoodName:    name,
		Brand:       brand,
		ServingSize: servingSize,
		Macros: model.Macros{
			Calories: math.Round(value("energy-kcal")),
			ProteinG: model.Round1(value("proteins")),
			CarbsG:   model.Round1(value("carbohydrates")),
			FatG:     model.Round1(value("fat")),
			FiberG:   optional("fiber"),
			SugarG:   optional("sugars"),
			SodiumMg: SodiumMg(n, suffix),
		},
		ImageURL: imageURL,
	}
}

// SodiumMg reads direct sodium in grams, or derives it from salt at 400 mg per
// gram when sodium is absent. Result is rounded to whole milligrams.
func SodiumMg(n map[string]any, suffix string) *float64 {
	if g, ok := parseFloatAny(n["sodium"+suffix]); ok {
		mg := math.Round(g * 1000)
		return &mg
	}
	if g, ok := parseFloatAny(n["salt"+suffix]); ok {
		mg := math.Round(g * 400)
		return &mg
	}
	return nil
}

func parseFloatAny(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

type offResponse struct {
	Status  int         `json:"status"`
	Product *offProduct `json:"product"`
}

type offProduct struct {
	ProductName        string         `json:"product_name"`
	Brands             string         `json:"brands"`
	ServingSize        string         `json:"serving_size"`
	ImageFrontSmallURL string         `json:"image_front_small_url"`
	Nutriments         map[string]any `json:"nutriments"`
}
