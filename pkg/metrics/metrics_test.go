package metrics

import (
	"strings"
	"testing"
	"time"
)

func TestRecordAndGet(t *testing.T) {
	Reset()
	RecordRequest("/api/tts", true, 10*time.Millisecond)
	RecordRequest("/api/tts", false, 30*time.Millisecond)
	RecordTransform("malabar")
	RecordTransform("malabar")
	RecordSynthesis("cochin")
	RecordCacheLookup(true)
	RecordCacheLookup(false)
	RecordCacheLookup(false)
	RecordCacheEvictions(3)

	m := GetMetrics()
	reqs := m["requests"].(map[string]interface{})
	if reqs["total"].(int64) != 2 || reqs["failed"].(int64) != 1 {
		t.Errorf("requests = %+v", reqs)
	}
	dialects := m["dialects"].(map[string]interface{})
	if dialects["transforms"].(map[string]int64)["malabar"] != 2 {
		t.Errorf("transforms = %+v", dialects["transforms"])
	}
	cache := m["tts_cache"].(map[string]interface{})
	if cache["hits"].(int64) != 1 || cache["misses"].(int64) != 2 || cache["evictions"].(int64) != 3 {
		t.Errorf("cache = %+v", cache)
	}
	avg := m["endpoints"].(map[string]interface{})["latency_avg_seconds"].(map[string]float64)["/api/tts"]
	if avg < 0.019 || avg > 0.021 {
		t.Errorf("avg latency = %v", avg)
	}
}

func TestGetMetricsReturnsCopies(t *testing.T) {
	Reset()
	RecordTransform("thrissur")
	snapshot := GetMetrics()["dialects"].(map[string]interface{})["transforms"].(map[string]int64)
	RecordTransform("thrissur")
	if snapshot["thrissur"] != 1 {
		t.Errorf("snapshot changed: %d", snapshot["thrissur"])
	}
}

func TestPrometheusOutput(t *testing.T) {
	Reset()
	RecordTransform("travancore")
	RecordCacheLookup(true)
	out := GetPrometheusMetrics()
	for _, want := range []string{
		`dialect_transforms_total{dialect="travancore"} 1`,
		`tts_cache_lookups_total{result="hit"} 1`,
		`tts_cache_lookups_total{result="miss"} 0`,
		"# TYPE api_requests_total counter",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output:\n%s", want, out)
		}
	}
}
