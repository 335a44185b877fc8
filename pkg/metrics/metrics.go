package metrics

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Metrics holds application metrics
type Metrics struct {
	mu sync.RWMutex

	// Request metrics
	TotalRequests      int64
	SuccessfulRequests int64
	FailedRequests     int64

	// Endpoint metrics
	EndpointRequests map[string]int64
	EndpointErrors   map[string]int64
	EndpointLatency  map[string][]time.Duration

	// Service metrics
	ServiceCalls   map[string]int64
	ServiceErrors  map[string]int64
	ServiceLatency map[string][]time.Duration

	// Circuit breaker metrics
	CircuitBreakerState    map[string]string
	CircuitBreakerFailures map[string]int64

	// Dialect metrics
	DialectTransforms map[string]int64
	DialectSyntheses  map[string]int64

	// TTS cache metrics
	CacheHits      int64
	CacheMisses    int64
	CacheEvictions int64

	// Start time
	StartTime time.Time
}

var globalMetrics = newMetrics()

func newMetrics() *Metrics {
	return &Metrics{
		EndpointRequests:       make(map[string]int64),
		EndpointErrors:         make(map[string]int64),
		EndpointLatency:        make(map[string][]time.Duration),
		ServiceCalls:           make(map[string]int64),
		ServiceErrors:          make(map[string]int64),
		ServiceLatency:         make(map[string][]time.Duration),
		CircuitBreakerState:    make(map[string]string),
		CircuitBreakerFailures: make(map[string]int64),
		DialectTransforms:      make(map[string]int64),
		DialectSyntheses:       make(map[string]int64),
		StartTime:              time.Now(),
	}
}

// Reset clears all counters. Used by tests.
func Reset() {
	fresh := newMetrics()
	globalMetrics.mu.Lock()
	defer globalMetrics.mu.Unlock()
	globalMetrics.TotalRequests = 0
	globalMetrics.SuccessfulRequests = 0
	globalMetrics.FailedRequests = 0
	globalMetrics.EndpointRequests = fresh.EndpointRequests
	globalMetrics.EndpointErrors = fresh.EndpointErrors
	globalMetrics.EndpointLatency = fresh.EndpointLatency
	globalMetrics.ServiceCalls = fresh.ServiceCalls
	globalMetrics.ServiceErrors = fresh.ServiceErrors
	globalMetrics.ServiceLatency = fresh.ServiceLatency
	globalMetrics.CircuitBreakerState = fresh.CircuitBreakerState
	globalMetrics.CircuitBreakerFailures = fresh.CircuitBreakerFailures
	globalMetrics.DialectTransforms = fresh.DialectTransforms
	globalMetrics.DialectSyntheses = fresh.DialectSyntheses
	globalMetrics.CacheHits = 0
	globalMetrics.CacheMisses = 0
	globalMetrics.CacheEvictions = 0
	globalMetrics.StartTime = fresh.StartTime
}

// RecordRequest records a request
func RecordRequest(endpoint string, success bool, latency time.Duration) {
	globalMetrics.mu.Lock()
	defer globalMetrics.mu.Unlock()

	globalMetrics.TotalRequests++
	if success {
		globalMetrics.SuccessfulRequests++
	} else {
		globalMetrics.FailedRequests++
		globalMetrics.EndpointErrors[endpoint]++
	}

	globalMetrics.EndpointRequests[endpoint]++

	// Keep only last 100 latency measurements per endpoint
	if len(globalMetrics.EndpointLatency[endpoint]) >= 100 {
		globalMetrics.EndpointLatency[endpoint] = globalMetrics.EndpointLatency[endpoint][1:]
	}
	globalMetrics.EndpointLatency[endpoint] = append(globalMetrics.EndpointLatency[endpoint], latency)
}

// RecordServiceCall records a service call
func RecordServiceCall(service string, success bool, latency time.Duration) {
	globalMetrics.mu.Lock()
	defer globalMetrics.mu.Unlock()

	globalMetrics.ServiceCalls[service]++
	if !success {
		globalMetrics.ServiceErrors[service]++
	}

	// Keep only last 100 latency measurements per service
	if len(globalMetrics.ServiceLatency[service]) >= 100 {
		globalMetrics.ServiceLatency[service] = globalMetrics.ServiceLatency[service][1:]
	}
	globalMetrics.ServiceLatency[service] = append(globalMetrics.ServiceLatency[service], latency)
}

// UpdateCircuitBreaker updates circuit breaker metrics
func UpdateCircuitBreaker(service, state string, failures int64) {
	globalMetrics.mu.Lock()
	defer globalMetrics.mu.Unlock()

	globalMetrics.CircuitBreakerState[service] = state
	globalMetrics.CircuitBreakerFailures[service] = failures
}

// RecordTransform counts a text transform for a dialect
func RecordTransform(dialect string) {
	globalMetrics.mu.Lock()
	defer globalMetrics.mu.Unlock()

	globalMetrics.DialectTransforms[dialect]++
}

// RecordSynthesis counts a synthesized (or cache-served) utterance for a dialect
func RecordSynthesis(dialect string) {
	globalMetrics.mu.Lock()
	defer globalMetrics.mu.Unlock()

	globalMetrics.DialectSyntheses[dialect]++
}

// RecordCacheLookup records a TTS cache hit or miss
func RecordCacheLookup(hit bool) {
	globalMetrics.mu.Lock()
	defer globalMetrics.mu.Unlock()

	if hit {
		globalMetrics.CacheHits++
	} else {
		globalMetrics.CacheMisses++
	}
}

// RecordCacheEvictions adds n evicted cache entries
func RecordCacheEvictions(n int) {
	globalMetrics.mu.Lock()
	defer globalMetrics.mu.Unlock()

	globalMetrics.CacheEvictions += int64(n)
}

// GetMetrics returns current metrics
func GetMetrics() map[string]interface{} {
	globalMetrics.mu.RLock()
	defer globalMetrics.mu.RUnlock()

	// Calculate average latencies
	endpointAvgLatency := make(map[string]float64)
	for endpoint, latencies := range globalMetrics.EndpointLatency {
		if len(latencies) > 0 {
			var sum time.Duration
			for _, l := range latencies {
				sum += l
			}
			endpointAvgLatency[endpoint] = sum.Seconds() / float64(len(latencies))
		}
	}

	serviceAvgLatency := make(map[string]float64)
	for service, latencies := range globalMetrics.ServiceLatency {
		if len(latencies) > 0 {
			var sum time.Duration
			for _, l := range latencies {
				sum += l
			}
			serviceAvgLatency[service] = sum.Seconds() / float64(len(latencies))
		}
	}

	uptime := time.Since(globalMetrics.StartTime)

	return map[string]interface{}{
		"uptime_seconds": uptime.Seconds(),
		"requests": map[string]interface{}{
			"total":      globalMetrics.TotalRequests,
			"successful": globalMetrics.SuccessfulRequests,
			"failed":     globalMetrics.FailedRequests,
		},
		"endpoints": map[string]interface{}{
			"requests":            copyCounts(globalMetrics.EndpointRequests),
			"errors":              copyCounts(globalMetrics.EndpointErrors),
			"latency_avg_seconds": endpointAvgLatency,
		},
		"services": map[string]interface{}{
			"calls":               copyCounts(globalMetrics.ServiceCalls),
			"errors":              copyCounts(globalMetrics.ServiceErrors),
			"latency_avg_seconds": serviceAvgLatency,
		},
		"circuit_breakers": map[string]interface{}{
			"state":    copyStates(globalMetrics.CircuitBreakerState),
			"failures": copyCounts(globalMetrics.CircuitBreakerFailures),
		},
		"dialects": map[string]interface{}{
			"transforms": copyCounts(globalMetrics.DialectTransforms),
			"syntheses":  copyCounts(globalMetrics.DialectSyntheses),
		},
		"tts_cache": map[string]interface{}{
			"hits":      globalMetrics.CacheHits,
			"misses":    globalMetrics.CacheMisses,
			"evictions": globalMetrics.CacheEvictions,
		},
	}
}

func copyCounts(m map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyStates(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// GetPrometheusMetrics returns metrics in Prometheus format
func GetPrometheusMetrics() string {
	metrics := GetMetrics()
	var output string

	// Uptime
	output += "# HELP api_uptime_seconds API uptime in seconds\n"
	output += "# TYPE api_uptime_seconds gauge\n"
	output += fmt.Sprintf("api_uptime_seconds %.2f\n", metrics["uptime_seconds"].(float64))

	// Requests
	reqs := metrics["requests"].(map[string]interface{})
	output += "# HELP api_requests_total Total number of requests\n"
	output += "# TYPE api_requests_total counter\n"
	output += fmt.Sprintf("api_requests_total{status=\"total\"} %d\n", reqs["total"].(int64))
	output += fmt.Sprintf("api_requests_total{status=\"successful\"} %d\n", reqs["successful"].(int64))
	output += fmt.Sprintf("api_requests_total{status=\"failed\"} %d\n", reqs["failed"].(int64))

	// Endpoint requests
	endpoints := metrics["endpoints"].(map[string]interface{})
	endpointReqs := endpoints["requests"].(map[string]int64)
	output += "# HELP api_endpoint_requests_total Total requests per endpoint\n"
	output += "# TYPE api_endpoint_requests_total counter\n"
	for endpoint, count := range endpointReqs {
		output += fmt.Sprintf("api_endpoint_requests_total{endpoint=\"%s\"} %d\n", endpoint, count)
	}

	// Endpoint errors
	endpointErrs := endpoints["errors"].(map[string]int64)
	output += "# HELP api_endpoint_errors_total Total errors per endpoint\n"
	output += "# TYPE api_endpoint_errors_total counter\n"
	for endpoint, count := range endpointErrs {
		output += fmt.Sprintf("api_endpoint_errors_total{endpoint=\"%s\"} %d\n", endpoint, count)
	}

	// Service calls
	services := metrics["services"].(map[string]interface{})
	serviceCalls := services["calls"].(map[string]int64)
	output += "# HELP api_service_calls_total Total calls per service\n"
	output += "# TYPE api_service_calls_total counter\n"
	for service, count := range serviceCalls {
		output += fmt.Sprintf("api_service_calls_total{service=\"%s\"} %d\n", service, count)
	}

	// Dialect transforms and syntheses
	dialects := metrics["dialects"].(map[string]interface{})
	output += "# HELP dialect_transforms_total Text transforms per dialect\n"
	output += "# TYPE dialect_transforms_total counter\n"
	for _, d := range sortedKeys(dialects["transforms"].(map[string]int64)) {
		output += fmt.Sprintf("dialect_transforms_total{dialect=\"%s\"} %d\n", d, dialects["transforms"].(map[string]int64)[d])
	}
	output += "# HELP dialect_syntheses_total Synthesized utterances per dialect\n"
	output += "# TYPE dialect_syntheses_total counter\n"
	for _, d := range sortedKeys(dialects["syntheses"].(map[string]int64)) {
		output += fmt.Sprintf("dialect_syntheses_total{dialect=\"%s\"} %d\n", d, dialects["syntheses"].(map[string]int64)[d])
	}

	// TTS cache
	cache := metrics["tts_cache"].(map[string]interface{})
	output += "# HELP tts_cache_lookups_total TTS cache lookups by result\n"
	output += "# TYPE tts_cache_lookups_total counter\n"
	output += fmt.Sprintf("tts_cache_lookups_total{result=\"hit\"} %d\n", cache["hits"].(int64))
	output += fmt.Sprintf("tts_cache_lookups_total{result=\"miss\"} %d\n", cache["misses"].(int64))
	output += "# HELP tts_cache_evictions_total Entries evicted from the TTS cache\n"
	output += "# TYPE tts_cache_evictions_total counter\n"
	output += fmt.Sprintf("tts_cache_evictions_total %d\n", cache["evictions"].(int64))

	return output
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

