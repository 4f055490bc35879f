package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"nutrijus/internal/domain"
)

// SessionStore keeps admin session tokens server-side so that admin API
// access is validated on every request instead of trusting a client-held
// flag.
type SessionStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{Client: client, TTL: ttl}
}

func sessionKey(token string) string { return "session:" + token }

func (s *SessionStore) Create(ctx context.Context, userID string) (string, error) {
	token := uuid.NewString()
	if err := s.Client.Set(ctx, sessionKey(token), userID, s.TTL).Err(); err != nil {
		return "", err
	}
	return token, nil
}

func (s *SessionStore) Validate(ctx context.Context, token string) (string, error) {
	userID, err := s.Client.Get(ctx, sessionKey(token)).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	// Sliding expiry: an active admin stays logged in.
	s.Client.Expire(ctx, sessionKey(token), s.TTL)
	return userID, nil
}

func (s *SessionStore) Delete(ctx context.Context, token string) error {
	return s.Client.Del(ctx, sessionKey(token)).Err()
}

// CartStore holds customer carts keyed by an opaque cart token, replacing the
// browser-local storage of the previous design.
type CartStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewCartStore(client *redis.Client, ttl time.Duration) *CartStore {
	return &CartStore{Client: client, TTL: ttl}
}

func cartKey(id string) string { return "cart:" + id }

func (s *CartStore) Get(ctx context.Context, id string) (domain.Cart, error) {
	data, err := s.Client.Get(ctx, cartKey(id)).Bytes()
	if err == redis.Nil {
		return domain.Cart{ID: id, Items: []domain.CartItem{}}, nil
	}
	if err != nil {
		return domain.Cart{}, err
	}
	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return domain.Cart{ID: id, Items: []domain.CartItem{}}, nil
	}
	cart.ID = id
	return cart, nil
}

func (s *CartStore) Save(ctx context.Context, cart domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	return s.Client.Set(ctx, cartKey(cart.ID), data, s.TTL).Err()
}

func (s *CartStore) Delete(ctx context.Context, id string) error {
	return s.Client.Del(ctx, cartKey(id)).Err()
}

// QRCache avoids re-encoding order QR codes on every request.
type QRCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewQRCache(client *redis.Client, ttl time.Duration) *QRCache {
	return &QRCache{Client: client, TTL: ttl}
}

func qrKey(orderID string) string { return "qr:order:" + orderID }

func (c *QRCache) Get(ctx context.Context, orderID string) ([]byte, error) {
	data, err := c.Client.Get(ctx, qrKey(orderID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return data, err
}

func (c *QRCache) Set(ctx context.Context, orderID string, png []byte) error {
	return c.Client.Set(ctx, qrKey(orderID), png, c.TTL).Err()
}
