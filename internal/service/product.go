package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cherryfit/cherryfit/internal/model"
)

const (
	minBarcodeLength = 8
	maxBarcodeLength = 14
)

// UpstreamTimeout bounds every call the relay makes to a third-party API.
const UpstreamTimeout = 15 * time.Second

var ErrInvalidBarcode = errors.New("barcode must be 8-14 characters")

// ProductSource resolves a barcode against an external product database.
// An unknown barcode is (nil, nil).
type ProductSource interface {
	LookupBarcode(ctx context.Context, barcode string) (*model.BarcodeProduct, error)
}

// NormalizeBarcode trims and length-checks a scanned code.
func NormalizeBarcode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if len(code) < minBarcodeLength || len(code) > maxBarcodeLength {
		return "", ErrInvalidBarcode
	}
	return code, nil
}

// ProductLookupService is the relay's barcode endpoint backend.
type ProductLookupService struct {
	source ProductSource
}

func NewProductLookupService(source ProductSource) *ProductLookupService {
	return &ProductLookupService{source: source}
}

func (s *ProductLookupService) Lookup(ctx context.Context, barcode string) (*model.BarcodeProduct, error) {
	code, err := NormalizeBarcode(barcode)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, UpstreamTimeout)
	defer cancel()

	product, err := s.source.LookupBarcode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("product lookup %s: %w", code, err)
	}
	return product, nil
}
