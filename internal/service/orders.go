package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"time"

	"nutrijus/internal/domain"
)

var (
	ErrEmptyOrder      = errors.New("order has no items")
	ErrMissingName     = errors.New("customer name is required")
	ErrMissingPlace    = errors.New("delivery place is required")
	ErrInvalidPhone    = errors.New("invalid phone number")
	ErrInvalidQuantity = errors.New("item quantity must be at least 1")
	ErrOrderNotFound   = errors.New("order not found")
)

// Local mobile numbers: nine digits, operator prefixes only.
var phonePattern = regexp.MustCompile(`^(62|65|66|67|68|69)[0-9]{7}$`)

type OrderService struct {
	repo        OrderRepository
	products    ProductRepository
	carts       CartStorage
	notifier    Notifier
	events      EventPublisher
	adminNumber string
}

func NewOrderService(repo OrderRepository, products ProductRepository, carts CartStorage) *OrderService {
	return &OrderService{repo: repo, products: products, carts: carts}
}

// WithNotifier wires outbound order notifications to the given contact.
func (s *OrderService) WithNotifier(notifier Notifier, adminNumber string) *OrderService {
	s.notifier = notifier
	s.adminNumber = adminNumber
	return s
}

func (s *OrderService) WithEvents(events EventPublisher) *OrderService {
	s.events = events
	return s
}

func (s *OrderService) List() ([]domain.Order, error) {
	return s.repo.ListOrders()
}

// Place runs the order pipeline: validate the draft, price its items from the
// catalog, assign identifier and timestamps, persist, then clear the cart and
// fire side effects. Side effects (notifications, events) are fire-and-forget;
// their failures are logged and never fail the order.
func (s *OrderService) Place(ctx context.Context, draft domain.Order, cartID string) (domain.Order, error) {
	if len(draft.Items) == 0 && cartID != "" && s.carts != nil {
		cart, err := s.carts.Get(ctx, cartID)
		if err != nil {
			return domain.Order{}, fmt.Errorf("load cart: %w", err)
		}
		for _, item := range cart.Items {
			draft.Items = append(draft.Items, domain.OrderItem{ProductID: item.ProductID, Quantity: item.Quantity})
		}
	}

	if err := validateDraft(draft); err != nil {
		return domain.Order{}, err
	}

	products, err := s.products.ListProducts()
	if err != nil {
		return domain.Order{}, fmt.Errorf("load catalog: %w", err)
	}

	itemsTotal := 0
	for i, item := range draft.Items {
		prod, ok := FindProduct(products, item.ProductID)
		if !ok {
			continue
		}
		draft.Items[i].ProductID = prod.ID
		draft.Items[i].Price = prod.Price
		draft.Items[i].PurchasePrice = prod.ProductionCost
		itemsTotal += prod.Price * item.Quantity
	}

	// An admin-supplied total wins over the computed one.
	if draft.Total <= 0 {
		draft.Total = itemsTotal
		if draft.Delivery != domain.DeliveryPickup {
			draft.Total += domain.DeliveryFee
		}
	}

	now := time.Now()
	draft.ID = strconv.FormatInt(now.UnixMilli(), 10)
	draft.CreatedAt = now.Format(time.RFC3339)
	if draft.Date == "" {
		draft.Date = now.Format("2006-01-02")
	}
	if draft.Status == "" {
		draft.Status = domain.StatusPending
	}
	if draft.Delivery == "" {
		draft.Delivery = draft.CustomerInfo.DeliveryPlace
	}

	if err := s.repo.CreateOrder(&draft); err != nil {
		return domain.Order{}, fmt.Errorf("store order: %w", err)
	}

	if cartID != "" && s.carts != nil {
		if err := s.carts.Delete(ctx, cartID); err != nil {
			log.Printf("[orders] failed to clear cart %s: %v", cartID, err)
		}
	}

	s.fireSideEffects(draft)
	return draft, nil
}

func (s *OrderService) fireSideEffects(order domain.Order) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if s.events != nil {
			event := domain.OrderEvent{
				Type:      "order_placed",
				OrderID:   order.ID,
				Total:     order.Total,
				ItemCount: len(order.Items),
				Timestamp: time.Now().Format(time.RFC3339),
			}
			if err := s.events.PublishOrderEvent(ctx, event); err != nil {
				log.Printf("[orders] failed to publish order event: %v", err)
			}
		}

		if s.notifier == nil {
			return
		}
		if s.adminNumber != "" {
			msg := fmt.Sprintf("New order %s from %s (%s): %d FCFA",
				order.ID, order.CustomerInfo.Name, order.CustomerInfo.Phone, order.Total)
			if err := s.notifier.Send(ctx, s.adminNumber, msg); err != nil {
				log.Printf("[orders] admin notification failed: %v", err)
			}
		}
		if order.CustomerInfo.IsWhatsapp && order.CustomerInfo.Phone != "" {
			msg := fmt.Sprintf("Thank you for your order! Reference %s, total %d FCFA. We will contact you shortly.",
				order.ID, order.Total)
			if err := s.notifier.Send(ctx, order.CustomerInfo.Phone, msg); err != nil {
				log.Printf("[orders] customer notification failed: %v", err)
			}
		}
	}()
}

func validateDraft(draft domain.Order) error {
	if len(draft.Items) == 0 {
		return ErrEmptyOrder
	}
	for _, item := range draft.Items {
		if item.Quantity < 1 {
			return ErrInvalidQuantity
		}
	}
	if draft.CustomerInfo.Name == "" {
		return ErrMissingName
	}
	if !phonePattern.MatchString(draft.CustomerInfo.Phone) {
		return ErrInvalidPhone
	}
	if draft.CustomerInfo.DeliveryPlace == "" {
		return ErrMissingPlace
	}
	return nil
}

// Bulk records a batch of back-office orders in a single write. Records come
// in ready-made (already priced and usually delivered); only identifiers are
// filled in when missing.
func (s *OrderService) Bulk(ctx context.Context, orders []domain.Order) (int, error) {
	if len(orders) == 0 {
		return 0, ErrEmptyOrder
	}
	now := time.Now()
	for i := range orders {
		if orders[i].CreatedAt == "" {
			orders[i].CreatedAt = now.Format(time.RFC3339)
		}
		if orders[i].Date == "" {
			orders[i].Date = now.Format("2006-01-02")
		}
		if orders[i].Status == "" {
			orders[i].Status = domain.StatusDelivered
		}
	}
	if err := s.repo.CreateOrders(orders); err != nil {
		return 0, err
	}
	return len(orders), nil
}

func (s *OrderService) UpdateAt(index int, o domain.Order) (domain.Order, error) {
	return s.repo.UpdateOrderAt(index, o)
}

func (s *OrderService) UpdateByID(id string, o domain.Order) (domain.Order, error) {
	return s.repo.UpdateOrderByID(id, o)
}

func (s *OrderService) DeleteAt(index int) (domain.Order, error) {
	return s.repo.DeleteOrderAt(index)
}

func (s *OrderService) DeleteByID(id string) (domain.Order, error) {
	return s.repo.DeleteOrderByID(id)
}

// MigrateLegacyItems rewrites order items whose productId holds a product
// name to the product's identifier. Returns the number of rewritten items.
func (s *OrderService) MigrateLegacyItems() (int, error) {
	products, err := s.products.ListProducts()
	if err != nil {
		return 0, err
	}
	nameToID := make(map[string]string, len(products))
	for _, p := range products {
		if p.Name != "" && p.ID != "" {
			nameToID[p.Name] = p.ID
		}
	}

	orders, err := s.repo.ListOrders()
	if err != nil {
		return 0, err
	}
	changed := 0
	for i := range orders {
		for j := range orders[i].Items {
			if id, ok := nameToID[orders[i].Items[j].ProductID]; ok && orders[i].Items[j].ProductID != id {
				orders[i].Items[j].ProductID = id
				changed++
			}
		}
	}
	if changed == 0 {
		return 0, nil
	}
	if err := s.repo.ReplaceOrders(orders); err != nil {
		return 0, err
	}
	log.Printf("[orders] migrated %d legacy order items to product ids", changed)
	return changed, nil
}
