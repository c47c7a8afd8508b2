package subcategories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/angelmondragon/storefront/internal/commerce"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/pricing"
	pkgredis "github.com/angelmondragon/storefront/pkg/redis"
)

// Source lists subcategories with their tier rules; satisfied by *commerce.Client.
type Source interface {
	ListSubcategoriesWithPricing(ctx context.Context) ([]commerce.SubcategoryRecord, error)
}

// CatalogOptions configures caching. A zero TTL disables the cache and refetches every time.
type CatalogOptions struct {
	Cache    pkgredis.KV
	CacheKey string
	TTL      time.Duration
	Metrics  *metrics.PricingMetrics
}

// Catalog serves subcategory records, cached in Redis when configured.
type Catalog struct {
	source   Source
	resolver *Resolver
	opts     CatalogOptions
	logg     *logger.Logger
	group    singleflight.Group
}

const defaultCacheKey = "sf:cache:subcategories:with-pricing"

func NewCatalog(source Source, resolver *Resolver, opts CatalogOptions, logg *logger.Logger) (*Catalog, error) {
	if source == nil {
		return nil, fmt.Errorf("subcategory source required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if resolver == nil {
		resolver = NewResolver(logg)
	}
	if opts.CacheKey == "" {
		opts.CacheKey = defaultCacheKey
	}
	return &Catalog{source: source, resolver: resolver, opts: opts, logg: logg}, nil
}

// Records returns every subcategory record.
func (c *Catalog) Records(ctx context.Context) ([]Record, error) {
	if records, ok := c.fromCache(ctx); ok {
		return records, nil
	}

	result, err, _ := c.group.Do(c.opts.CacheKey, func() (any, error) {
		records, err := c.source.ListSubcategoriesWithPricing(ctx)
		if err != nil {
			return nil, err
		}
		c.store(ctx, records)
		return records, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]Record), nil
}

// RulesFor resolves a product's subcategory reference to its tier rules.
// An unresolvable name or unknown subcategory yields no rules and no error.
func (c *Catalog) RulesFor(ctx context.Context, ref any) ([]pricing.QuantityTierRule, error) {
	name, ok := c.resolver.ResolveName(ctx, ref)
	if !ok {
		return nil, nil
	}
	records, err := c.Records(ctx)
	if err != nil {
		return nil, err
	}
	record, ok := FindRecord(name, records)
	if !ok {
		c.logg.Debug(c.logg.WithField(ctx, "subcategory", name), "subcategory has no pricing record")
		return nil, nil
	}
	return record.QuantityPrices, nil
}

// Invalidate drops the cached catalog.
func (c *Catalog) Invalidate(ctx context.Context) error {
	if c.opts.Cache == nil {
		return nil
	}
	return c.opts.Cache.Del(ctx, c.opts.CacheKey)
}

func (c *Catalog) fromCache(ctx context.Context) ([]Record, bool) {
	if c.opts.Cache == nil || c.opts.TTL <= 0 {
		return nil, false
	}
	payload, ok, err := c.opts.Cache.GetBytes(ctx, c.opts.CacheKey)
	if err != nil {
		c.logg.WarnErr(ctx, "subcategory cache read failed", err)
		return nil, false
	}
	if !ok {
		c.opts.Metrics.IncCatalogCache(false)
		return nil, false
	}
	var records []Record
	if err := json.Unmarshal(payload, &records); err != nil {
		c.logg.WarnErr(ctx, "subcategory cache payload unreadable", err)
		return nil, false
	}
	c.opts.Metrics.IncCatalogCache(true)
	return records, true
}

func (c *Catalog) store(ctx context.Context, records []Record) {
	if c.opts.Cache == nil || c.opts.TTL <= 0 {
		return
	}
	payload, err := json.Marshal(records)
	if err != nil {
		c.logg.WarnErr(ctx, "subcategory cache encode failed", err)
		return
	}
	if err := c.opts.Cache.SetBytes(ctx, c.opts.CacheKey, payload, c.opts.TTL); err != nil {
		c.logg.WarnErr(ctx, "subcategory cache write failed", err)
	}
}
