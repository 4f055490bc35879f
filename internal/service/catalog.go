package service

import (
	"errors"

	"nutrijus/internal/domain"
	"nutrijus/internal/storage"
)

var ErrInvalidProduct = errors.New("product name and price are required")

type CatalogService struct {
	repo ProductRepository
}

func NewCatalogService(repo ProductRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

func (s *CatalogService) List() ([]domain.Product, error) {
	return s.repo.ListProducts()
}

func (s *CatalogService) Create(p *domain.Product) error {
	if p.Name == "" || p.Price <= 0 {
		return ErrInvalidProduct
	}
	if p.ProductionCost < 0 {
		p.ProductionCost = 0
	}
	return s.repo.CreateProduct(p)
}

func (s *CatalogService) Update(id string, p domain.Product) (domain.Product, error) {
	return s.repo.UpdateProductByID(id, p)
}

func (s *CatalogService) UpdateAt(index int, p domain.Product) (domain.Product, error) {
	products, err := s.repo.ListProducts()
	if err != nil {
		return domain.Product{}, err
	}
	if index < 0 || index >= len(products) {
		return domain.Product{}, storage.ErrNotFound
	}
	return s.repo.UpdateProductByID(products[index].ID, p)
}

func (s *CatalogService) DeleteAt(index int) (domain.Product, error) {
	return s.repo.DeleteProductAt(index)
}

func (s *CatalogService) DeleteByID(id string) (domain.Product, error) {
	return s.repo.DeleteProductByID(id)
}

// FindProduct resolves an order item's product reference. Legacy orders hold
// the product name in the productId field, so resolution tries the ID first
// and falls back to the name. Returns false for dangling references.
func FindProduct(products []domain.Product, ref string) (domain.Product, bool) {
	for _, p := range products {
		if p.ID == ref {
			return p, true
		}
	}
	for _, p := range products {
		if p.Name == ref {
			return p, true
		}
	}
	return domain.Product{}, false
}
