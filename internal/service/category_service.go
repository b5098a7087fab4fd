package service

import (
	"context"
	"strings"

	"github.com/techy05-v/Blitz-ecom-sub000/internal/domain"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/repository"
)

// CategoryService manages categories. Deactivating one hides its products.
type CategoryService struct {
	repo     repository.CategoryRepository
	products repository.ProductRepository
}

func NewCategoryService(repo repository.CategoryRepository, products repository.ProductRepository) *CategoryService {
	return &CategoryService{repo: repo, products: products}
}

func (s *CategoryService) Create(ctx context.Context, name, description string) (*domain.Category, error) {
	if blank(name) {
		return nil, invalid("name is required")
	}
	c := domain.Category{Name: strings.TrimSpace(name), Description: strings.TrimSpace(description), Active: true}
	if err := s.repo.Create(ctx, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CategoryService) Update(ctx context.Context, id int64, name, description string) (*domain.Category, error) {
	if id <= 0 || blank(name) {
		return nil, ErrInvalidInput
	}
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Name = strings.TrimSpace(name)
	c.Description = strings.TrimSpace(description)
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CategoryService) Toggle(ctx context.Context, id int64) (*domain.Category, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Active = !c.Active
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete refuses to remove a category that still has products.
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidInput
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	ps, err := s.products.List(ctx, repository.ProductFilter{CategoryID: id})
	if err != nil {
		return err
	}
	if len(ps) > 0 {
		return invalidState("category still has %d products", len(ps))
	}
	return s.repo.Delete(ctx, id)
}

// List returns all categories, or only active ones for the storefront.
func (s *CategoryService) List(ctx context.Context, onlyActive bool) ([]domain.Category, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if !onlyActive {
		return list, nil
	}
	out := make([]domain.Category, 0, len(list))
	for _, c := range list {
		if c.Active {
			out = append(out, c)
		}
	}
	return out, nil
}
