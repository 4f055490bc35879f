package service

import (
	"context"
	"errors"

	"nutrijus/internal/domain"
)

// Quantities are clamped to this range; decrementing to zero removes the
// entry instead.
const maxCartQuantity = 99

var ErrUnknownProduct = errors.New("unknown product")

type CartService struct {
	store    CartStorage
	products ProductRepository
}

func NewCartService(store CartStorage, products ProductRepository) *CartService {
	return &CartService{store: store, products: products}
}

func (s *CartService) Get(ctx context.Context, cartID string) (domain.Cart, error) {
	return s.store.Get(ctx, cartID)
}

// Add changes the quantity of a product by delta, inserting a new entry when
// none exists. A resulting quantity of zero or less removes the entry; every
// mutation persists the whole cart.
func (s *CartService) Add(ctx context.Context, cartID, productID string, delta int) (domain.Cart, error) {
	products, err := s.products.ListProducts()
	if err != nil {
		return domain.Cart{}, err
	}
	if _, ok := FindProduct(products, productID); !ok {
		return domain.Cart{}, ErrUnknownProduct
	}

	cart, err := s.store.Get(ctx, cartID)
	if err != nil {
		return domain.Cart{}, err
	}

	found := false
	items := cart.Items[:0]
	for _, item := range cart.Items {
		if item.ProductID != productID {
			items = append(items, item)
			continue
		}
		found = true
		item.Quantity = clampQuantity(item.Quantity + delta)
		if item.Quantity > 0 {
			items = append(items, item)
		}
	}
	if !found && delta > 0 {
		items = append(items, domain.CartItem{ProductID: productID, Quantity: clampQuantity(delta)})
	}
	cart.Items = items

	if err := s.store.Save(ctx, cart); err != nil {
		return domain.Cart{}, err
	}
	return cart, nil
}

func (s *CartService) Remove(ctx context.Context, cartID, productID string) (domain.Cart, error) {
	cart, err := s.store.Get(ctx, cartID)
	if err != nil {
		return domain.Cart{}, err
	}
	items := cart.Items[:0]
	for _, item := range cart.Items {
		if item.ProductID != productID {
			items = append(items, item)
		}
	}
	cart.Items = items
	if err := s.store.Save(ctx, cart); err != nil {
		return domain.Cart{}, err
	}
	return cart, nil
}

func (s *CartService) Clear(ctx context.Context, cartID string) error {
	return s.store.Delete(ctx, cartID)
}

func clampQuantity(q int) int {
	if q > maxCartQuantity {
		return maxCartQuantity
	}
	if q < 0 {
		return 0
	}
	return q
}
