package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Sternrassler/obtainable/pkg/obtainable"
	_ "github.com/Sternrassler/obtainable/pkg/store"
	_ "github.com/Sternrassler/obtainable/pkg/warmup"
)

func TestRegistry(t *testing.T) {
	if Registry == nil {
		t.Error("Registry should not be nil")
	}

	if Registry != prometheus.DefaultRegisterer {
		t.Error("Registry should be the default Prometheus registerer")
	}
}

func TestCatalogueRegistered(t *testing.T) {
	for _, name := range Catalogue {
		t.Run(name, func(t *testing.T) {
			probe := prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: "probe"})
			if err := Registry.Register(probe); err == nil {
				Registry.Unregister(probe)
				t.Errorf("metric %s is not registered", name)
			}
		})
	}
}

func TestHandler(t *testing.T) {
	obtainable.CacheHits.WithLabelValues("metrics-test").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `obtainable_cache_hits_total{owner="metrics-test"}`) {
		t.Error("expected cache hit counter in output")
	}
}
