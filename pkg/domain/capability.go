package domain

// Capability names something a node may supply to its descendants through acquisition.
//
// The set is closed on purpose: acquisition only ever resolves these names and
// never arbitrary content keys.
type Capability string

const (
	CapLogger        Capability = "logger"         // *slog.Logger
	CapSettings      Capability = "settings"       // contextplus.Settings
	CapDBSession     Capability = "db_session"     // *sql.DB
	CapRedis         Capability = "redis"          // redis.UniversalClient
	CapResourceCache Capability = "resource_cache" // *resource.Cache
	CapCache         Capability = "cache"          // value cache (cache_get / cache_set)
	CapStateStore    Capability = "state_store"    // ports.StateStore
	CapEventHandlers Capability = "event_handlers" // []events.Bound
	CapSheetsAPI     Capability = "sheets_api"     // sheets.ValuesAPI
	CapMetrics       Capability = "metrics"        // *observability.Metrics
)

// String implements fmt.Stringer.
func (c Capability) String() string { return string(c) }
