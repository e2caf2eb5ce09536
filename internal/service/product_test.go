package service

import (
	"context"
	"errors"
	"testing"

	"github.com/cherryfit/cherryfit/internal/model"
)

type stubSource struct {
	product *model.BarcodeProduct
	err     error
	got     string
}

func (s *stubSource) LookupBarcode(ctx context.Context, barcode string) (*model.BarcodeProduct, error) {
	s.got = barcode
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("lookup without deadline")
	}
	return s.product, s.err
}

func TestProductLookup(t *testing.T) {
	ctx := context.Background()

	found := &stubSource{product: &model.BarcodeProduct{Barcode: "12345678"}}
	p, err := NewProductLookupService(found).Lookup(ctx, "12345678")
	if err != nil || p == nil || found.got != "12345678" {
		t.Errorf("Lookup = %+v, %v (source got %q)", p, err, found.got)
	}

	p, err = NewProductLookupService(&stubSource{}).Lookup(ctx, "12345678")
	if err != nil || p != nil {
		t.Errorf("not found = %+v, %v", p, err)
	}

	if _, err := NewProductLookupService(&stubSource{err: errors.New("502")}).Lookup(ctx, "12345678"); err == nil {
		t.Error("upstream error swallowed")
	}

	if _, err := NewProductLookupService(&stubSource{}).Lookup(ctx, "123"); !errors.Is(err, ErrInvalidBarcode) {
		t.Errorf("short code err = %v", err)
	}
}
