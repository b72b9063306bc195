package tenantctx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"gymstack-backend/common"
	"gymstack-backend/db"
	"gymstack-backend/sections/models"
	"gymstack-backend/storage"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const gymContextKey = "tenantGym"

// ErrNoTenant is returned when neither the host nor the path identifies a gym.
var ErrNoTenant = errors.New("no tenant matched request")

// GymLookup loads active gyms for tenant resolution. Lookups return
// (nil, nil) when no active gym matches.
type GymLookup interface {
	ActiveGymByDomain(ctx context.Context, domain string) (*models.Gym, error)
	ActiveGymBySlug(ctx context.Context, slug string) (*models.Gym, error)
}

type gormGymLookup struct {
	db *db.DB
}

func (l *gormGymLookup) ActiveGymByDomain(ctx context.Context, domain string) (*models.Gym, error) {
	var gym models.Gym
	err := l.db.WithContext(ctx).
		Where("custom_domain = ? AND is_active = ?", domain, true).
		First(&gym).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up gym by domain: %w", err)
	}
	return &gym, nil
}

func (l *gormGymLookup) ActiveGymBySlug(ctx context.Context, slug string) (*models.Gym, error) {
	var gym models.Gym
	err := l.db.WithContext(ctx).
		Where("slug = ? AND is_active = ?", slug, true).
		First(&gym).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up gym by slug: %w", err)
	}
	return &gym, nil
}

// Resolver maps an incoming request to a gym. A custom domain match wins;
// otherwise the first path segment is treated as a slug unless it is a
// reserved platform route.
type Resolver struct {
	lookup   GymLookup
	redis    *storage.RedisClient
	cacheTTL time.Duration
	logger   *slog.Logger
}

// NewResolver creates a new tenant resolver
func NewResolver(database *db.DB, redis *storage.RedisClient) *Resolver {
	return NewResolverWithLookup(&gormGymLookup{db: database}, redis)
}

// NewResolverWithLookup creates a resolver over an explicit lookup. redis may
// be nil.
func NewResolverWithLookup(lookup GymLookup, redis *storage.RedisClient) *Resolver {
	return &Resolver{
		lookup:   lookup,
		redis:    redis,
		cacheTTL: 5 * time.Minute,
		logger:   slog.With("service", "TenantResolver"),
	}
}

// Resolve finds the gym for a request host and path.
func (r *Resolver) Resolve(ctx context.Context, host, path string) (*models.Gym, error) {
	domain := normalizeHost(host)
	if domain != "" && domain != "localhost" {
		gym, err := r.gymByDomain(ctx, domain)
		if err == nil {
			return gym, nil
		}
		if !errors.Is(err, ErrNoTenant) {
			return nil, err
		}
	}

	slug := firstPathSegment(path)
	if slug == "" || isReserved(slug) {
		return nil, ErrNoTenant
	}
	return r.gymBySlug(ctx, slug)
}

func (r *Resolver) gymByDomain(ctx context.Context, domain string) (*models.Gym, error) {
	if r.redis != nil {
		gym, err := r.redis.GetGymByDomain(ctx, domain)
		if err == nil {
			return gym, nil
		}
		if !errors.Is(err, storage.ErrCacheMiss) {
			r.logger.Warn("Gym cache lookup failed", "domain", domain, "error", err)
		}
	}

	gym, err := r.lookup.ActiveGymByDomain(ctx, domain)
	if err != nil {
		return nil, err
	}
	if gym == nil {
		return nil, ErrNoTenant
	}

	r.cache(ctx, gym)
	return gym, nil
}

func (r *Resolver) gymBySlug(ctx context.Context, slug string) (*models.Gym, error) {
	if r.redis != nil {
		gym, err := r.redis.GetGymBySlug(ctx, slug)
		if err == nil {
			return gym, nil
		}
		if !errors.Is(err, storage.ErrCacheMiss) {
			r.logger.Warn("Gym cache lookup failed", "slug", slug, "error", err)
		}
	}

	gym, err := r.lookup.ActiveGymBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if gym == nil {
		return nil, ErrNoTenant
	}

	r.cache(ctx, gym)
	return gym, nil
}

func (r *Resolver) cache(ctx context.Context, gym *models.Gym) {
	if r.redis == nil {
		return
	}
	if err := r.redis.CacheGym(ctx, gym, r.cacheTTL); err != nil {
		r.logger.Warn("Failed to cache gym", "gym_id", gym.ID, "error", err)
	}
}

func normalizeHost(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.ToLower(strings.TrimSpace(host))
}

func firstPathSegment(path string) string {
	path = strings.TrimPrefix(path, "/")
	if idx := strings.IndexByte(path, '/'); idx >= 0 {
		path = path[:idx]
	}
	return strings.ToLower(path)
}

func isReserved(slug string) bool {
	for _, reserved := range common.ReservedSlugs {
		if slug == reserved {
			return true
		}
	}
	return false
}

// Middleware resolves the tenant for each request and stores it in the Gin
// context. Requests that match no tenant proceed without one; handlers that
// require a gym check for it themselves.
func Middleware(resolver *Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		gym, err := resolver.Resolve(c.Request.Context(), c.Request.Host, c.Request.URL.Path)
		if err != nil {
			if !errors.Is(err, ErrNoTenant) {
				slog.Error("Tenant resolution failed", "host", c.Request.Host, "error", err)
			}
			c.Next()
			return
		}

		c.Set(gymContextKey, gym)
		c.Next()
	}
}

// GymFromContext retrieves the resolved gym, if any.
func GymFromContext(c *gin.Context) (*models.Gym, bool) {
	value, exists := c.Get(gymContextKey)
	if !exists {
		return nil, false
	}
	gym, ok := value.(*models.Gym)
	return gym, ok
}
