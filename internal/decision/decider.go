// Package decision maps test metadata to an engine verdict using the
// decision matrix: override, then first matching rule by priority, then
// module profile, then the matrix default. Decide is a total function; it
// never fails for well-formed metadata.
package decision

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"janus/internal/logging"
	"janus/internal/matrix"
)

const (
	// DefaultCacheSize bounds the LRU decision cache.
	DefaultCacheSize = 256
	// DefaultCacheTTL expires cached decisions after an hour.
	DefaultCacheTTL = time.Hour

	profileConfidence = 70
	defaultConfidence = 50
)

// Options configures a Decider. Zero values select the defaults above.
type Options struct {
	CacheSize int
	CacheTTL  time.Duration
	Metrics   *Metrics
}

// Decider evaluates metadata against the current matrix. Safe for
// concurrent use: the matrix is swapped atomically and the cache is
// thread-safe. A racing recomputation may happen around a swap; a corrupt
// cache cannot.
type Decider struct {
	matrix  atomic.Pointer[matrix.Matrix]
	cache   *expirable.LRU[string, Decision]
	metrics *Metrics
	log     *slog.Logger
}

// New returns a Decider over the given matrix.
func New(m *matrix.Matrix, opts Options) *Decider {
	size := opts.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	d := &Decider{
		cache:   expirable.NewLRU[string, Decision](size, nil, ttl),
		metrics: opts.Metrics,
		log:     logging.New("decision"),
	}
	d.matrix.Store(m)
	return d
}

// Swap atomically replaces the matrix and purges the cache, so no decision
// computed against the old matrix survives the reload.
func (d *Decider) Swap(m *matrix.Matrix) {
	d.matrix.Store(m)
	d.cache.Purge()
	d.log.Info("matrix swapped", "rules", len(m.RulesByPriority()))
}

// Matrix returns the matrix currently in effect.
func (d *Decider) Matrix() *matrix.Matrix { return d.matrix.Load() }

// Decide returns the engine verdict for the given metadata. Cached entries
// are returned with FromCache set; expired or evicted entries are
// recomputed transparently.
func (d *Decider) Decide(meta TestMetadata) Decision {
	key := meta.Key()
	if dec, ok := d.cache.Get(key); ok {
		dec.FromCache = true
		d.metrics.cacheHit()
		return dec
	}
	d.metrics.cacheMiss()

	m := d.matrix.Load()
	dec := d.evaluate(m, meta)
	// Cache only if the matrix is still the one the verdict was computed
	// against. Swap purges after storing the new pointer, so a verdict that
	// slips in before the pointer changes is still swept out; skipping the
	// add here costs one recomputation, never a stale entry.
	if d.matrix.Load() == m {
		d.cache.Add(key, dec)
	}
	d.metrics.decided(dec)
	d.log.Debug("decision computed",
		"test", meta.TestID, "engine", string(dec.Engine),
		"source", string(dec.Source), "rule", dec.MatchedRule)
	return dec
}

// evaluate is the pure resolution chain over one matrix snapshot; the
// cache wraps it as a transparent optimization.
func (d *Decider) evaluate(m *matrix.Matrix, meta TestMetadata) Decision {
	if e, ok := m.Override(meta.TestID); ok {
		return Decision{
			Engine:     e,
			Confidence: 100,
			Reason:     "explicit override for " + meta.TestID,
			Source:     SourceOverride,
		}
	}

	fields := meta.Fields()
	for _, r := range m.RulesByPriority() {
		if r.Matches(fields) {
			return Decision{
				Engine:      r.Engine,
				Confidence:  r.Confidence,
				Reason:      r.Reason,
				MatchedRule: r.Name,
				Fallback:    r.Fallback,
				Source:      SourceRule,
			}
		}
	}

	if e, ok := m.Profile(meta.Module); ok {
		return Decision{
			Engine:     e,
			Confidence: profileConfidence,
			Reason:     "module profile for " + meta.Module,
			Source:     SourceProfile,
		}
	}

	return Decision{
		Engine:     m.DefaultEngine(),
		Confidence: defaultConfidence,
		Reason:     "no rule matched",
		Source:     SourceDefault,
	}
}

// PurgeCache drops all cached decisions.
func (d *Decider) PurgeCache() { d.cache.Purge() }

// CacheLen reports the number of live cache entries.
func (d *Decider) CacheLen() int { return d.cache.Len() }
