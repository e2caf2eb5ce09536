package model

import (
	"errors"
	"fmt"
	"strings"
)

type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

func (m MealType) Valid() bool {
	switch m {
	case MealBreakfast, MealLunch, MealDinner, MealSnack:
		return true
	}
	return false
}

type Source string

const (
	SourceLabelScan  Source = "label_scan"
	SourceBarcode    Source = "barcode"
	SourcePhotoAI    Source = "photo_ai"
	SourceRestaurant Source = "restaurant"
	SourceManual     Source = "manual"
	SourceQuickLog   Source = "quick_log"
)

func (s Source) Valid() bool {
	switch s {
	case SourceLabelScan, SourceBarcode, SourcePhotoAI, SourceRestaurant, SourceManual, SourceQuickLog:
		return true
	}
	return false
}

const (
	MinServings = 0.25
	MaxServings = 99
)

var ErrInvalidRecord = errors.New("invalid record")

// Macros is the per-serving nutrition profile shared by logs, catalog items and goals.
type Macros struct {
	Calories float64  `db:"calories" json:"calories"`
	ProteinG float64  `db:"protein_g" json:"protein_g"`
	CarbsG   float64  `db:"carbs_g" json:"carbs_g"`
	FatG     float64  `db:"fat_g" json:"fat_g"`
	FiberG   *float64 `db:"fiber_g" json:"fiber_g"`
	SugarG   *float64 `db:"sugar_g" json:"sugar_g"`
	SodiumMg *float64 `db:"sodium_mg" json:"sodium_mg"`
}

func (m Macros) Validate() error {
	if m.Calories < 0 || m.ProteinG < 0 || m.CarbsG < 0 || m.FatG < 0 {
		return fmt.Errorf("%w: macros must be non-negative", ErrInvalidRecord)
	}
	for _, v := range []*float64{m.FiberG, m.SugarG, m.SodiumMg} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%w: macros must be non-negative", ErrInvalidRecord)
		}
	}
	return nil
}

type FoodLog struct {
	ID           string   `db:"id" json:"id"`
	UserID       string   `db:"user_id" json:"-"`
	FoodName     string   `db:"food_name" json:"food_name"`
	MealType     MealType `db:"meal_type" json:"meal_type"`
	Source       Source   `db:"source" json:"source"`
	ServingSize  string   `db:"serving_size" json:"serving_size"`
	Servings     float64  `db:"servings" json:"servings"`
	Macros
	PhotoURL     *string  `db:"photo_url" json:"photo_url"`
	AIConfidence *float64 `db:"ai_confidence" json:"ai_confidence"`
	Pushed       bool     `db:"pushed" json:"-"`
	Synced       bool     `db:"synced" json:"-"`
	LoggedAt     Time     `db:"logged_at" json:"logged_at"`
	CreatedAt    Time     `db:"created_at" json:"created_at"`
	UpdatedAt    Time     `db:"updated_at" json:"updated_at"`
}

// Validate checks the record against the shared wire schema.
func (l *FoodLog) Validate() error {
	if l.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidRecord)
	}
	name := strings.TrimSpace(l.FoodName)
	if name == "" || len(name) > 255 {
		return fmt.Errorf("%w: food_name must be 1-255 characters", ErrInvalidRecord)
	}
	if !l.MealType.Valid() {
		return fmt.Errorf("%w: unknown meal_type %q", ErrInvalidRecord, l.MealType)
	}
	if !l.Source.Valid() {
		return fmt.Errorf("%w: unknown source %q", ErrInvalidRecord, l.Source)
	}
	if l.ServingSize == "" || len(l.ServingSize) > 100 {
		return fmt.Errorf("%w: serving_size must be 1-100 characters", ErrInvalidRecord)
	}
	if l.Servings < MinServings || l.Servings > MaxServings {
		return fmt.Errorf("%w: servings must be between %.2f and %d", ErrInvalidRecord, MinServings, MaxServings)
	}
	if err := l.Macros.Validate(); err != nil {
		return err
	}
	if l.AIConfidence != nil && (*l.AIConfidence < 0 || *l.AIConfidence > 1) {
		return fmt.Errorf("%w: ai_confidence must be between 0 and 1", ErrInvalidRecord)
	}
	if l.LoggedAt.IsZero() || l.CreatedAt.IsZero() || l.UpdatedAt.IsZero() {
		return fmt.Errorf("%w: logged_at, created_at and updated_at are required", ErrInvalidRecord)
	}
	return nil
}

// FoodLogInput carries the fields a caller supplies when logging food.
type FoodLogInput struct {
	FoodName     string
	MealType     MealType
	Source       Source
	ServingSize  string
	Servings     float64
	Macros       Macros
	PhotoURL     *string
	AIConfidence *float64
	LoggedAt     *Time
}

// FoodLogPatch lists every mutable field of a food log. Nil fields are left unchanged.
type FoodLogPatch struct {
	FoodName     *string
	MealType     *MealType
	Source       *Source
	ServingSize  *string
	Servings     *float64
	Calories     *float64
	ProteinG     *float64
	CarbsG       *float64
	FatG         *float64
	FiberG       *float64
	SugarG       *float64
	SodiumMg     *float64
	PhotoURL     *string
	AIConfidence *float64
	LoggedAt     *Time
}

// Validate applies the record rules to the fields the patch sets.
func (p FoodLogPatch) Validate() error {
	if p.FoodName != nil {
		name := strings.TrimSpace(*p.FoodName)
		if name == "" || len(name) > 255 {
			return fmt.Errorf("%w: food_name must be 1-255 characters", ErrInvalidRecord)
		}
	}
	if p.MealType != nil && !p.MealType.Valid() {
		return fmt.Errorf("%w: unknown meal_type %q", ErrInvalidRecord, *p.MealType)
	}
	if p.Source != nil && !p.Source.Valid() {
		return fmt.Errorf("%w: unknown source %q", ErrInvalidRecord, *p.Source)
	}
	if p.ServingSize != nil && (*p.ServingSize == "" || len(*p.ServingSize) > 100) {
		return fmt.Errorf("%w: serving_size must be 1-100 characters", ErrInvalidRecord)
	}
	if p.Servings != nil && (*p.Servings < MinServings || *p.Servings > MaxServings) {
		return fmt.Errorf("%w: servings must be between %.2f and %d", ErrInvalidRecord, MinServings, MaxServings)
	}
	for _, v := range []*float64{p.Calories, p.ProteinG, p.CarbsG, p.FatG, p.FiberG, p.SugarG, p.SodiumMg} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%w: macros must be non-negative", ErrInvalidRecord)
		}
	}
	if p.AIConfidence != nil && (*p.AIConfidence < 0 || *p.AIConfidence > 1) {
		return fmt.Errorf("%w: ai_confidence must be between 0 and 1", ErrInvalidRecord)
	}
	if p.LoggedAt != nil && p.LoggedAt.IsZero() {
		return fmt.Errorf("%w: logged_at is required", ErrInvalidRecord)
	}
	return nil
}
