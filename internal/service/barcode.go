package service

import (
	"context"
	"fmt"

	"github.com/cherryfit/cherryfit/internal/model"
	"github.com/cherryfit/cherryfit/internal/repository"
)

// BarcodeService resolves a scanned code on the device: the local catalog
// wins, otherwise the relay is asked. Not found is (nil, nil).
type BarcodeService struct {
	items repository.FoodItemRepository
	relay RelayTransport
}

func NewBarcodeService(items repository.FoodItemRepository, relay RelayTransport) *BarcodeService {
	return &BarcodeService{items: items, relay: relay}
}

func (s *BarcodeService) Lookup(ctx context.Context, ownerID, barcode string) (*model.BarcodeProduct, error) {
	code, err := NormalizeBarcode(barcode)
	if err != nil {
		return nil, err
	}

	item, err := s.items.FindByBarcode(ctx, ownerID, code)
	if err != nil {
		return nil, fmt.Errorf("catalog lookup: %w", err)
	}
	if item != nil {
		return &model.BarcodeProduct{
			Barcode:     code,
			FoodName:    item.Name,
			Brand:       item.Brand,
			ServingSize: item.ServingSize,
			Macros:      item.Macros,
			FromCatalog: true,
		}, nil
	}

	return s.relay.LookupBarcode(ctx, ownerID, code)
}

// Remember adds a looked-up product to the catalog, or bumps the use count of
// the catalog entry it came from.
func (s *BarcodeService) Remember(ctx context.Context, ownerID string, product *model.BarcodeProduct) (*model.FoodItem, error) {
	existing, err := s.items.FindByBarcode(ctx, ownerID, product.Barcode)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if err := s.items.IncrementUseCount(ctx, ownerID, existing.ID); err != nil {
			return nil, err
		}
		existing.UseCount++
		return existing, nil
	}

	barcode := product.Barcode
	return s.items.Save(ctx, ownerID, model.FoodItemInput{
		Name:        product.FoodName,
		Brand:       product.Brand,
		Barcode:     &barcode,
		Macros:      product.Macros,
		ServingSize: product.ServingSize,
	})
}
