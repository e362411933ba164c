package contextplus

import (
	"database/sql"
	"log/slog"

	"github.com/aretw0/contextplus/pkg/cache"
	"github.com/aretw0/contextplus/pkg/domain"
	"github.com/aretw0/contextplus/pkg/events"
	"github.com/aretw0/contextplus/pkg/observability"
	"github.com/aretw0/contextplus/pkg/ports"
	"github.com/aretw0/contextplus/pkg/resource"
	backend "github.com/redis/go-redis/v9"
)

// SiteType is the default type of a site.
var SiteType = &Type{Name: "Site"}

// Site is usually the root of a tree. It provides the capabilities its
// descendants acquire: settings, logger, database, redis, caches, state store
// and metrics.
type Site struct {
	Base

	settings      Settings
	resourceCache *resource.Cache
	metrics       *observability.Metrics
	handlers      []events.Registration
}

// SiteOption configures a Site.
type SiteOption func(*Site)

// WithSettings provides the site settings.
func WithSettings(s Settings) SiteOption {
	return func(site *Site) {
		site.settings = s
		site.SetCapability(domain.CapSettings, s)
	}
}

// WithLogger provides the logger every descendant acquires.
func WithLogger(logger *slog.Logger) SiteOption {
	return func(site *Site) {
		site.SetCapability(domain.CapLogger, logger)
	}
}

// WithDB provides the database handle used by the SQL adapters.
func WithDB(db *sql.DB) SiteOption {
	return func(site *Site) {
		site.SetCapability(domain.CapDBSession, db)
	}
}

// WithRedis provides the redis client used by the redis adapters.
func WithRedis(client backend.UniversalClient) SiteOption {
	return func(site *Site) {
		site.SetCapability(domain.CapRedis, client)
	}
}

// WithStateStore provides the store used by stored items.
func WithStateStore(store ports.StateStore) SiteOption {
	return func(site *Site) {
		site.SetCapability(domain.CapStateStore, store)
	}
}

// WithResourceCache makes named resources and collection children reuse
// previously produced nodes.
func WithResourceCache(c *resource.Cache) SiteOption {
	return func(site *Site) {
		site.resourceCache = c
		site.SetCapability(domain.CapResourceCache, c)
	}
}

// WithValueCache provides the expiring value cache.
func WithValueCache(c *cache.TTL) SiteOption {
	return func(site *Site) {
		site.SetCapability(domain.CapCache, c)
	}
}

// WithMetrics provides m and declares its handler on the site.
func WithMetrics(m *observability.Metrics) SiteOption {
	return func(site *Site) {
		site.metrics = m
		site.SetCapability(domain.CapMetrics, m)
		site.handlers = append(site.handlers, m.Registration())
	}
}

// WithHandlers declares extra handlers on the site.
func WithHandlers(regs ...events.Registration) SiteOption {
	return func(site *Site) {
		site.handlers = append(site.handlers, regs...)
	}
}

// WithCapability provides an arbitrary capability, such as sheets_api.
func WithCapability(c domain.Capability, v any) SiteOption {
	return func(site *Site) {
		site.SetCapability(c, v)
	}
}

// NewSite creates a root site. A nil typ uses SiteType.
func NewSite(typ *Type, name string, opts ...SiteOption) *Site {
	s := &Site{}
	s.InitSite(s, typ, name, opts...)
	return s
}

// InitSite initialises a site embedded in this.
func (s *Site) InitSite(this Node, typ *Type, name string, opts ...SiteOption) {
	if typ == nil {
		typ = SiteType
	}
	s.Init(this, typ, nil, name)
	s.settings = DefaultSettings()
	s.settings.Name = name

	for _, opt := range opts {
		opt(s)
	}

	if _, ok := s.caps[domain.CapSettings]; !ok {
		s.SetCapability(domain.CapSettings, s.settings)
	}
	s.AddHandler(s.handlers...)
	if s.metrics != nil && s.resourceCache != nil {
		s.metrics.WatchCache("resource", s.resourceCache.Stats)
	}
}

// Settings returns the site settings.
func (s *Site) Settings() Settings { return s.settings }

// ResourceCache returns the resource cache, or nil when the site has none.
func (s *Site) ResourceCache() *resource.Cache { return s.resourceCache }

// ClearResourceCache drops every cached node.
func (s *Site) ClearResourceCache() {
	if s.resourceCache != nil {
		s.resourceCache.Clear()
	}
}

// Metrics returns the metrics, or nil.
func (s *Site) Metrics() *observability.Metrics { return s.metrics }
