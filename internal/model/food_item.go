package model

const DefaultServingSize = "1 serving"

// FoodItem is a reusable catalog entry with a fixed per-serving profile.
type FoodItem struct {
	ID          string  `db:"id" json:"id"`
	UserID      string  `db:"user_id" json:"-"`
	Barcode     *string `db:"barcode" json:"barcode"`
	Name        string  `db:"name" json:"name"`
	Brand       *string `db:"brand" json:"brand"`
	Macros
	ServingSize string `db:"serving_size" json:"serving_size"`
	IsFavorite  bool   `db:"is_favorite" json:"is_favorite"`
	UseCount    int    `db:"use_count" json:"use_count"`
	CreatedAt   Time   `db:"created_at" json:"created_at"`
	UpdatedAt   Time   `db:"updated_at" json:"updated_at"`
}

type FoodItemInput struct {
	Name        string
	Brand       *string
	Barcode     *string
	Macros      Macros
	ServingSize string
}
