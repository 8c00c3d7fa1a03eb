package observability

import (
	"sort"
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu            sync.Mutex
	requestCount  map[string]int64
	requestMillis map[string]int64
	errorCount    map[string]int64
	storeDegraded map[string]int64
	upstreamFail  map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:  make(map[string]int64),
		requestMillis: make(map[string]int64),
		errorCount:    make(map[string]int64),
		storeDegraded: make(map[string]int64),
		upstreamFail:  make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.requestMillis[key] += duration.Milliseconds()
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordStoreDegraded counts reads that fell back to an empty store.
func (m *Metrics) RecordStoreDegraded(reason string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.storeDegraded[reason]++
}

// RecordUpstreamFailure counts failed calls to external services.
func (m *Metrics) RecordUpstreamFailure(service string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upstreamFail[service]++
}

// Snapshot is a point-in-time copy of every counter.
type Snapshot struct {
	Requests      map[string]int64 `json:"requests"`
	RequestMillis map[string]int64 `json:"request_millis"`
	Errors        map[string]int64 `json:"errors"`
	StoreDegraded map[string]int64 `json:"store_degraded"`
	Upstream      map[string]int64 `json:"upstream_failures"`
}

// Snapshot copies the counters.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Requests:      copyCounts(m.requestCount),
		RequestMillis: copyCounts(m.requestMillis),
		Errors:        copyCounts(m.errorCount),
		StoreDegraded: copyCounts(m.storeDegraded),
		Upstream:      copyCounts(m.upstreamFail),
	}
}

// Keys lists counter keys in order, mostly for tests and debugging.
func Keys(counts map[string]int64) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func copyCounts(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
