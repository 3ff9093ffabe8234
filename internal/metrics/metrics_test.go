package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveRequestCountsByRoute(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("/api/tags", "GET", "200"))
	ObserveRequest("/api/tags", "GET", 200, 15*time.Millisecond)
	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("/api/tags", "GET", "200"))
	if after-before != 1 {
		t.Fatalf("request counter advanced by %v, want 1", after-before)
	}

	unmatched := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("unmatched", "GET", "404"))
	ObserveRequest("", "GET", 404, time.Millisecond)
	if got := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("unmatched", "GET", "404")); got-unmatched != 1 {
		t.Fatalf("unmatched counter advanced by %v, want 1", got-unmatched)
	}
}

func TestDomainCounters(t *testing.T) {
	before := testutil.ToFloat64(AssociationChangesTotal.WithLabelValues("cart", "add", "conflict"))
	RecordAssociation("cart", "add", "conflict")
	if got := testutil.ToFloat64(AssociationChangesTotal.WithLabelValues("cart", "add", "conflict")); got-before != 1 {
		t.Fatalf("association counter advanced by %v, want 1", got-before)
	}

	missing := testutil.ToFloat64(ShortLinkResolutionsTotal.WithLabelValues("missing"))
	RecordShortLinkResolution(false)
	if got := testutil.ToFloat64(ShortLinkResolutionsTotal.WithLabelValues("missing")); got-missing != 1 {
		t.Fatalf("short link counter advanced by %v, want 1", got-missing)
	}
}
