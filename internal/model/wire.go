package model

import "encoding/json"

type FoodLogSyncRequest struct {
	Logs []*FoodLog `json:"logs"`
}

type HealthMetricSyncRequest struct {
	Metrics []*HealthMetric `json:"metrics"`
}

// RawFoodLogSyncRequest is the relay's view of a food-log batch: records stay
// undecoded until each one is handled.
type RawFoodLogSyncRequest struct {
	Logs []json.RawMessage `json:"logs"`
}

type RawHealthMetricSyncRequest struct {
	Metrics []json.RawMessage `json:"metrics"`
}

// SyncResponse acknowledges a batch upsert: ids that were stored and a count of
// rejected records.
type SyncResponse struct {
	Synced []string `json:"synced"`
	Failed int      `json:"failed"`
}

type FitbitPushRequest struct {
	LogIDs []string `json:"log_ids"`
}

type FitbitPushResponse struct {
	Pushed []string `json:"pushed"`
	Total  int      `json:"total"`
}

type PhotoUploadResponse struct {
	PhotoURL string `json:"photo_url"`
}

// BarcodeProduct is a normalized nutrition profile for a scanned product.
type BarcodeProduct struct {
	Barcode     string  `json:"barcode"`
	FoodName    string  `json:"food_name"`
	Brand       *string `json:"brand"`
	ServingSize string  `json:"serving_size"`
	Macros
	ImageURL    *string `json:"image_url"`
	FromCatalog bool    `json:"from_catalog"`
}
