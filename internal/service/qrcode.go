package service

import (
	"context"
	"fmt"

	"github.com/skip2/go-qrcode"
)

type QRGenerator interface {
	Generate(orderID string) ([]byte, error)
}

// DefaultQRGenerator encodes the public order-tracking link.
type DefaultQRGenerator struct {
	BaseURL string
}

func (g DefaultQRGenerator) Generate(orderID string) ([]byte, error) {
	qrData := fmt.Sprintf("%s/order.html?order_id=%s", g.BaseURL, orderID)
	return qrcode.Encode(qrData, qrcode.Medium, 256)
}

// OrderQR returns the PNG QR code for an order, generating and caching it on
// first request.
func (s *OrderService) OrderQR(ctx context.Context, cache QRCache, generator QRGenerator, orderID string) ([]byte, error) {
	if cache != nil {
		if png, err := cache.Get(ctx, orderID); err == nil && len(png) > 0 {
			return png, nil
		}
	}
	orders, err := s.repo.ListOrders()
	if err != nil {
		return nil, err
	}
	found := false
	for _, o := range orders {
		if o.ID == orderID {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrOrderNotFound)
	}
	png, err := generator.Generate(orderID)
	if err != nil {
		return nil, err
	}
	if cache != nil {
		if err := cache.Set(ctx, orderID, png); err == nil {
			return png, nil
		}
	}
	return png, nil
}
