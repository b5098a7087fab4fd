package service

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/techy05-v/Blitz-ecom-sub000/internal/domain"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/pricing"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/repository"
)

// ProductService encapsulates the catalog rules around products.
type ProductService struct {
	repo       repository.ProductRepository
	categories repository.CategoryRepository
	offers     repository.OfferRepository
	now        Clock
}

func NewProductService(repo repository.ProductRepository, categories repository.CategoryRepository, offers repository.OfferRepository) *ProductService {
	return &ProductService{repo: repo, categories: categories, offers: offers, now: systemClock}
}

// ProductInput is the admin-editable part of a product.
type ProductInput struct {
	Name            string
	Description     string
	CategoryID      int64
	Images          []string
	RegularPrice    decimal.Decimal
	DiscountPercent decimal.Decimal
	Sizes           []domain.SizeStock
	Active          *bool
	OfferID         *int64
}

// ProductView is a product with its resolved storefront price.
type ProductView struct {
	domain.Product
	SalePrice    decimal.Decimal `json:"sale_price"`
	Pricing      pricing.Result  `json:"pricing"`
	TotalStock   int64           `json:"total_stock"`
	CategoryName string          `json:"category_name,omitempty"`
	Offers       []domain.Offer  `json:"offers"`
}

// ProductQuery is the listing request.
type ProductQuery struct {
	Search     string
	CategoryID int64
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Sort       string
	Page       repository.PageRequest
}

var validSorts = map[string]bool{
	"":                       true,
	repository.SortNewest:    true,
	repository.SortPriceAsc:  true,
	repository.SortPriceDesc: true,
	repository.SortNameAsc:   true,
	repository.SortNameDesc:  true,
}

func (s *ProductService) validate(ctx context.Context, in ProductInput) error {
	if blank(in.Name) {
		return invalid("name is required")
	}
	if in.CategoryID <= 0 {
		return invalid("category is required")
	}
	if _, err := s.categories.GetByID(ctx, in.CategoryID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return invalid("category %d does not exist", in.CategoryID)
		}
		return err
	}
	if !in.RegularPrice.IsPositive() {
		return invalid("regular price must be positive")
	}
	if err := pricing.ValidateDiscount(in.DiscountPercent); err != nil {
		return invalid("%v", err)
	}
	if len(in.Images) > domain.MaxProductImages {
		return invalid("at most %d images are allowed", domain.MaxProductImages)
	}
	if len(in.Sizes) == 0 {
		return invalid("at least one size is required")
	}
	seen := make(map[string]bool, len(in.Sizes))
	for _, sz := range in.Sizes {
		label := strings.TrimSpace(sz.Size)
		if label == "" {
			return invalid("size label is required")
		}
		if seen[strings.ToUpper(label)] {
			return invalid("duplicate size %s", label)
		}
		seen[strings.ToUpper(label)] = true
		if sz.Quantity < 0 {
			return invalid("stock for size %s must not be negative", label)
		}
	}
	if in.OfferID != nil {
		if _, err := s.offers.GetByID(ctx, *in.OfferID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return invalid("offer %d does not exist", *in.OfferID)
			}
			return err
		}
	}
	return nil
}

func (in ProductInput) apply(p *domain.Product) {
	p.Name = strings.TrimSpace(in.Name)
	p.Description = strings.TrimSpace(in.Description)
	p.CategoryID = in.CategoryID
	p.Images = append([]string(nil), in.Images...)
	p.RegularPrice = in.RegularPrice.Round(2)
	p.DiscountPercent = in.DiscountPercent
	p.Sizes = make([]domain.SizeStock, len(in.Sizes))
	for i, sz := range in.Sizes {
		p.Sizes[i] = domain.SizeStock{Size: strings.TrimSpace(sz.Size), Quantity: sz.Quantity}
	}
	if in.Active != nil {
		p.Active = *in.Active
	}
	p.OfferID = in.OfferID
}

func (s *ProductService) Create(ctx context.Context, in ProductInput) (*domain.Product, error) {
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}
	p := domain.Product{Active: true}
	in.apply(&p)
	if err := s.repo.Create(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *ProductService) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *ProductService) Update(ctx context.Context, id int64, in ProductInput) (*domain.Product, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(p)
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Toggle flips the active flag.
func (s *ProductService) Toggle(ctx context.Context, id int64) (*domain.Product, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Active = !p.Active
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProductService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidInput
	}
	return s.repo.Delete(ctx, id)
}

// Get returns a sellable product for the storefront.
func (s *ProductService) Get(ctx context.Context, id int64) (*ProductView, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := sellable(ctx, s.categories, p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, repository.ErrNotFound
	}
	book, err := loadPriceBook(ctx, s.offers, s.now())
	if err != nil {
		return nil, err
	}
	names, err := s.categoryNames(ctx)
	if err != nil {
		return nil, err
	}
	v := s.view(*p, book, names)
	return &v, nil
}

// List returns one page of products. Public listings only show sellable products.
func (s *ProductService) List(ctx context.Context, q ProductQuery, public bool) ([]ProductView, repository.PageInfo, error) {
	if !validSorts[q.Sort] {
		return nil, repository.PageInfo{}, invalid("unknown sort %q", q.Sort)
	}
	if q.MinPrice != nil && q.MaxPrice != nil && q.MinPrice.GreaterThan(*q.MaxPrice) {
		return nil, repository.PageInfo{}, invalid("min price is above max price")
	}
	f := repository.ProductFilter{
		NameSubstring: strings.TrimSpace(q.Search),
		CategoryID:    q.CategoryID,
		MinPrice:      q.MinPrice,
		MaxPrice:      q.MaxPrice,
		Sort:          q.Sort,
	}
	if public {
		hidden, err := hiddenCategories(ctx, s.categories)
		if err != nil {
			return nil, repository.PageInfo{}, err
		}
		f.OnlyActive = true
		f.HiddenCategories = hidden
	}
	list, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, repository.PageInfo{}, err
	}
	page, info := repository.Paginate(list, q.Page)

	book, err := loadPriceBook(ctx, s.offers, s.now())
	if err != nil {
		return nil, repository.PageInfo{}, err
	}
	names, err := s.categoryNames(ctx)
	if err != nil {
		return nil, repository.PageInfo{}, err
	}
	out := make([]ProductView, len(page))
	for i, p := range page {
		out[i] = s.view(p, book, names)
	}
	return out, info, nil
}

func (s *ProductService) view(p domain.Product, book priceBook, names map[int64]string) ProductView {
	return ProductView{
		Product:      p,
		SalePrice:    p.SalePrice(),
		Pricing:      book.resolve(p),
		TotalStock:   p.TotalStock(),
		CategoryName: names[p.CategoryID],
		Offers:       book.offersFor(p),
	}
}

func (s *ProductService) categoryNames(ctx context.Context) (map[int64]string, error) {
	list, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(list))
	for _, c := range list {
		names[c.ID] = c.Name
	}
	return names, nil
}
