package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cherryfit/cherryfit/internal/service"
)

type BarcodeHandler struct {
	productService *service.ProductLookupService
}

func NewBarcodeHandler(productService *service.ProductLookupService) *BarcodeHandler {
	return &BarcodeHandler{
		productService: productService,
	}
}

// Lookup answers 404 when the product database has no match and 502 when it
// could not be asked, so clients can tell the two apart.
func (h *BarcodeHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	product, err := h.productService.Lookup(r.Context(), code)
	if errors.Is(err, service.ErrInvalidBarcode) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		slog.Error("barcode lookup failed", "error", err, "barcode", code)
		writeError(w, http.StatusBadGateway, "product lookup failed")
		return
	}
	if product == nil {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}

	writeJSON(w, http.StatusOK, product)
}
