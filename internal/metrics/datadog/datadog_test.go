package datadog

import (
	"net"
	"reflect"
	"strings"
	"testing"
	"time"

	"trialinv/internal/metrics"
)

func TestLabelsToTags(t *testing.T) {
	t.Parallel()

	got := labelsToTags(metrics.Labels{"trial": "10KFS", "kind": "written"})
	want := []string{"kind:written", "trial:10KFS"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("labelsToTags = %v, want %v", got, want)
	}
	if labelsToTags(nil) != nil {
		t.Fatalf("nil labels should produce nil tags")
	}
}

func TestNewBackendRequiresAddr(t *testing.T) {
	t.Parallel()

	if _, err := NewBackend(Config{}); err == nil {
		t.Fatal("NewBackend without Addr should fail")
	}
}

// TestFlushSendsDatagrams listens on a local UDP socket and checks that the
// buffered metrics arrive after Flush.
func TestFlushSendsDatagrams(t *testing.T) {
	t.Parallel()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("udp listener unavailable: %v", err)
	}
	defer pc.Close()

	b, err := NewBackend(Config{Addr: pc.LocalAddr().String(), Namespace: "lims.", GlobalTags: []string{"env:test"}})
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	b.IncCounter(metrics.RowsTotal, 4, metrics.Labels{"kind": "written", "trial": "10KFS"})
	b.SetGauge(metrics.LastSuccessTime, 1700000000, metrics.Labels{"trial": "10KFS"})
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	var received strings.Builder
	buf := make([]byte, 65536)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && !strings.Contains(received.String(), metrics.LastSuccessTime) {
		_ = pc.SetReadDeadline(deadline)
		n, _, err := pc.ReadFrom(buf)
		if err != nil {
			break
		}
		received.Write(buf[:n])
	}

	got := received.String()
	if !strings.Contains(got, "lims."+metrics.RowsTotal+":4|c") {
		t.Fatalf("count datagram missing in %q", got)
	}
	if !strings.Contains(got, "kind:written") || !strings.Contains(got, "env:test") {
		t.Fatalf("tags missing in %q", got)
	}
}
