package fitbit

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cherryfit/cherryfit/internal/model"
	"golang.org/x/oauth2"
)

const (
	defaultBaseURL = "https://api.fitbit.com"

	// UnitCalories is Fitbit's unit id for an amount expressed in kcal.
	UnitCalories = 304

	MealBreakfast = 1
	MealLunch     = 3
	MealDinner    = 5
	MealAnytime   = 7
)

// Endpoint is the Fitbit OAuth 2.0 endpoint. Fitbit expects client
// credentials in the Authorization header.
var Endpoint = oauth2.Endpoint{
	AuthURL:   "https://www.fitbit.com/oauth2/authorize",
	TokenURL:  "https://api.fitbit.com/oauth2/token",
	AuthStyle: oauth2.AuthStyleInHeader,
}

// Scopes requested on connect.
var Scopes = []string{"nutrition", "profile"}

// MealTypeID maps a meal to Fitbit's numeric meal type. Anything unrecognized
// is logged as "anytime".
func MealTypeID(meal model.MealType) int {
	switch meal {
	case model.MealBreakfast:
		return MealBreakfast
	case model.MealLunch:
		return MealLunch
	case model.MealDinner:
		return MealDinner
	default:
		return MealAnytime
	}
}

// FoodLogEntry is one food-log creation call.
type FoodLogEntry struct {
	FoodName   string
	MealTypeID int
	Calories   float64
	Date       string
}

// EntryFromLog builds the provider call for a food log, dated by the calendar
// day of logged_at.
func EntryFromLog(log *model.FoodLog) FoodLogEntry {
	return FoodLogEntry{
		FoodName:   log.FoodName,
		MealTypeID: MealTypeID(log.MealType),
		Calories:   log.Calories,
		Date:       log.LoggedAt.Date(),
	}
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func (c *Client) LogFood(ctx context.Context, accessToken string, entry FoodLogEntry) error {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	params := url.Values{}
	params.Set("foodName", entry.FoodName)
	params.Set("mealTypeId", strconv.Itoa(entry.MealTypeID))
	params.Set("unitId", strconv.Itoa(UnitCalories))
	params.Set("amount", strconv.FormatFloat(entry.Calories, 'f', -1, 64))
	params.Set("date", entry.Date)

	u := fmt.Sprintf("%s/1/user/-/foods/log.json?%s", base, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return fmt.Errorf("create fitbit request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute fitbit request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("fitbit food log failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return nil
}
