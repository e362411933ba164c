/*
Package observability provides Prometheus metrics for contextplus trees.

Metrics are fed by the event bus: a Metrics value contributes a handler
registration that counts completed workflow transitions, and cache collectors
report hit/miss/size of the LRU caches registered with it.
*/
package observability
