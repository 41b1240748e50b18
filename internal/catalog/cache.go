package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sakashimaa/etech-storefront/internal/domain"
	"github.com/sakashimaa/etech-storefront/internal/gateway"
	"github.com/sakashimaa/etech-storefront/internal/metrics"
	"github.com/sakashimaa/etech-storefront/pkg/mylogger"
	"github.com/sakashimaa/etech-storefront/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultProductsTTL   = 5 * time.Minute
	DefaultCategoriesTTL = 10 * time.Minute
	DefaultBrandsTTL     = 10 * time.Minute
)

type TTL struct {
	Products   time.Duration
	Categories time.Duration
	Brands     time.Duration
}

func DefaultTTL() TTL {
	return TTL{
		Products:   DefaultProductsTTL,
		Categories: DefaultCategoriesTTL,
		Brands:     DefaultBrandsTTL,
	}
}

type collection[T any] struct {
	name      string
	path      string
	ttl       time.Duration
	items     []T
	fetchedAt time.Time
	clone     func(T) T
}

func (c *collection[T]) stale(now time.Time) bool {
	return c.fetchedAt.IsZero() || now.Sub(c.fetchedAt) > c.ttl
}

func (c *collection[T]) snapshot() []T {
	out := append([]T(nil), c.items...)
	if c.clone != nil {
		for i := range out {
			out[i] = c.clone(out[i])
		}
	}
	return out
}

// Cache holds the process-wide product catalog. It is safe for concurrent use.
type Cache struct {
	api    gateway.Requester
	logger *zap.Logger
	now    func() time.Time

	mu         sync.RWMutex
	products   collection[domain.Product]
	categories collection[domain.Category]
	brands     collection[domain.Brand]
	inflight   int
	lastErr    string
}

type Option func(*Cache)

func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

func WithTTL(ttl TTL) Option {
	return func(c *Cache) {
		if ttl.Products > 0 {
			c.products.ttl = ttl.Products
		}
		if ttl.Categories > 0 {
			c.categories.ttl = ttl.Categories
		}
		if ttl.Brands > 0 {
			c.brands.ttl = ttl.Brands
		}
	}
}

func New(api gateway.Requester, logger *zap.Logger, opts ...Option) *Cache {
	ttl := DefaultTTL()

	c := &Cache{
		api:        api,
		logger:     logger,
		now:        time.Now,
		products:   collection[domain.Product]{name: "products", path: "/products", ttl: ttl.Products, clone: domain.Product.Clone},
		categories: collection[domain.Category]{name: "categories", path: "/products/categories", ttl: ttl.Categories},
		brands:     collection[domain.Brand]{name: "brands", path: "/products/brands", ttl: ttl.Brands},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Cache) FetchProducts(ctx context.Context) ([]domain.Product, error) {
	return fetch(ctx, c, &c.products)
}

func (c *Cache) FetchCategories(ctx context.Context) ([]domain.Category, error) {
	return fetch(ctx, c, &c.categories)
}

func (c *Cache) FetchBrands(ctx context.Context) ([]domain.Brand, error) {
	return fetch(ctx, c, &c.brands)
}

// Refresh fetches every stale collection.
func (c *Cache) Refresh(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		_, err := c.FetchProducts(gctx)
		return err
	})
	g.Go(func() error {
		_, err := c.FetchCategories(gctx)
		return err
	})
	g.Go(func() error {
		_, err := c.FetchBrands(gctx)
		return err
	})

	return g.Wait()
}

// Invalidate forces the next read of every collection to hit the backend.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.products.fetchedAt = time.Time{}
	c.categories.fetchedAt = time.Time{}
	c.brands.fetchedAt = time.Time{}
}

func fetch[T any](ctx context.Context, c *Cache, col *collection[T]) ([]T, error) {
	c.mu.Lock()
	if !col.stale(c.now()) {
		items := col.snapshot()
		c.mu.Unlock()

		metrics.CacheLookups.WithLabelValues(col.name, "hit").Inc()
		return items, nil
	}
	c.inflight++
	c.lastErr = ""
	path := col.path
	c.mu.Unlock()

	metrics.CacheLookups.WithLabelValues(col.name, "miss").Inc()

	var fresh []T
	err := c.api.Get(ctx, path, &fresh)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight--

	if err != nil {
		c.lastErr = gateway.Message(err)
		mylogger.Warn(
			ctx,
			c.logger,
			"catalog fetch failed, serving cached copy",
			zap.String("collection", col.name),
			zap.Int("cached", len(col.items)),
			zap.Error(err),
		)
		return col.snapshot(), fmt.Errorf("fetch %s: %w", col.name, err)
	}

	if fresh == nil {
		fresh = []T{}
	}
	col.items = fresh
	col.fetchedAt = c.now()

	return col.snapshot(), nil
}

func (c *Cache) Products() []domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.products.snapshot()
}

func (c *Cache) Categories() []domain.Category {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.categories.snapshot()
}

func (c *Cache) Brands() []domain.Brand {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.brands.snapshot()
}

func (c *Cache) Product(id string) (domain.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, p := range c.products.items {
		if p.ID == id {
			return p.Clone(), true
		}
	}
	return domain.Product{}, false
}

func (c *Cache) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.inflight > 0
}

func (c *Cache) Err() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.lastErr
}

// FilteredProducts applies filters and query to the cached product list.
func (c *Cache) FilteredProducts(filters Filters, query string) []domain.Product {
	return Filter(c.Products(), filters, query)
}

type createProductRequest struct {
	Name        string  `json:"name"`
	Price       int64   `json:"price"`
	CategoryID  string  `json:"categoryId,omitempty"`
	BrandID     string  `json:"brandId,omitempty"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
	Rating      float64 `json:"rating"`
	IsNew       bool    `json:"isNew"`
	IsSale      bool    `json:"isSale"`
	Stock       *int64  `json:"stock,omitempty"`
}

type nameRequest struct {
	Name string `json:"name"`
}

func (c *Cache) AddProduct(ctx context.Context, input domain.ProductInput) (domain.Product, error) {
	if err := utils.Validator().Struct(input); err != nil {
		return domain.Product{}, err
	}

	categoryID, err := c.resolveCategory(ctx, input.Category)
	if err != nil {
		return domain.Product{}, c.fail(ctx, "resolve category failed", err)
	}

	brandID, err := c.resolveBrand(ctx, input.Brand)
	if err != nil {
		return domain.Product{}, c.fail(ctx, "resolve brand failed", err)
	}

	req := createProductRequest{
		Name:        input.Name,
		Price:       input.Price,
		CategoryID:  categoryID,
		BrandID:     brandID,
		Description: input.Description,
		Image:       input.Image,
		Rating:      input.Rating,
		IsNew:       input.IsNew,
		IsSale:      input.IsSale,
		Stock:       input.Stock,
	}

	var created domain.Product
	if err := c.api.Post(ctx, "/products", req, &created); err != nil {
		return domain.Product{}, c.fail(ctx, "create product failed", err)
	}

	c.mu.Lock()
	c.products.items = append([]domain.Product{created}, c.products.items...)
	c.lastErr = ""
	c.mu.Unlock()

	mylogger.Info(ctx, c.logger, "product created", zap.String("product_id", created.ID))
	return created.Clone(), nil
}

func (c *Cache) UpdateProduct(ctx context.Context, id string, patch domain.ProductPatch) (domain.Product, error) {
	if err := utils.Validator().Struct(patch); err != nil {
		return domain.Product{}, err
	}

	var updated domain.Product
	if err := c.api.Put(ctx, "/admin/products/"+url.PathEscape(id), patch, &updated); err != nil {
		return domain.Product{}, c.fail(ctx, "update product failed", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = ""

	for i, p := range c.products.items {
		if p.ID != id {
			continue
		}
		if updated.ID == "" {
			updated = p.Apply(patch)
		}
		c.products.items[i] = updated
		return updated.Clone(), nil
	}

	if updated.ID == "" {
		updated.ID = id
	}
	return updated.Clone(), nil
}

func (c *Cache) RemoveProduct(ctx context.Context, id string) error {
	if err := c.api.Delete(ctx, "/admin/products/"+url.PathEscape(id), nil); err != nil {
		return c.fail(ctx, "delete product failed", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = ""

	kept := c.products.items[:0:0]
	for _, p := range c.products.items {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	c.products.items = kept
	return nil
}

func (c *Cache) resolveCategory(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil
	}

	c.mu.RLock()
	for _, cat := range c.categories.items {
		if strings.EqualFold(cat.Name, name) {
			c.mu.RUnlock()
			return cat.ID, nil
		}
	}
	c.mu.RUnlock()

	var created domain.Category
	if err := c.api.Post(ctx, "/products/categories", nameRequest{Name: name}, &created); err != nil {
		return "", err
	}

	c.mu.Lock()
	c.categories.items = appendCategory(c.categories.items, created)
	c.mu.Unlock()

	return created.ID, nil
}

func (c *Cache) resolveBrand(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil
	}

	c.mu.RLock()
	for _, b := range c.brands.items {
		if strings.EqualFold(b.Name, name) {
			c.mu.RUnlock()
			return b.ID, nil
		}
	}
	c.mu.RUnlock()

	var created domain.Brand
	if err := c.api.Post(ctx, "/products/brands", nameRequest{Name: name}, &created); err != nil {
		return "", err
	}

	c.mu.Lock()
	c.brands.items = appendBrand(c.brands.items, created)
	c.mu.Unlock()

	return created.ID, nil
}

func appendCategory(items []domain.Category, cat domain.Category) []domain.Category {
	for _, existing := range items {
		if existing.ID == cat.ID {
			return items
		}
	}
	return append(items, cat)
}

func appendBrand(items []domain.Brand, b domain.Brand) []domain.Brand {
	for _, existing := range items {
		if existing.ID == b.ID {
			return items
		}
	}
	return append(items, b)
}

func (c *Cache) fail(ctx context.Context, msg string, err error) error {
	c.mu.Lock()
	c.lastErr = gateway.Message(err)
	c.mu.Unlock()

	mylogger.Warn(ctx, c.logger, msg, zap.Error(err))
	return err
}
