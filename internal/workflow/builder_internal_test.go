package workflow

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"mineardmg/internal/processor"
	"mineardmg/internal/services"
	"mineardmg/internal/testsupport"
)

func TestProcessorFactoryGivesEachWorkerItsOwnClient(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	factory, err := New(cfg).processorFactory(2)
	if err != nil {
		t.Fatalf("processorFactory: %v", err)
	}
	first, ok := factory(0).(*processor.Processor)
	if !ok {
		t.Fatalf("unexpected processor type %T", factory(0))
	}
	second := factory(1).(*processor.Processor)
	if first.Fetcher() == second.Fetcher() {
		t.Fatal("workers share an asset client")
	}
}

func TestWorkerHTTPClientIsNeverShared(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	b := New(cfg)
	a, c := b.workerHTTPClient(), b.workerHTTPClient()
	if a == c || a == b.httpClient {
		t.Fatal("expected a fresh http client per worker")
	}
	if a.Timeout != 5*time.Second {
		t.Fatalf("timeout = %v, want 5s", a.Timeout)
	}
	if a.Transport == nil || a.Transport == c.Transport {
		t.Fatal("expected a dedicated transport per worker")
	}

	injected := &http.Client{Timeout: 2 * time.Second, Transport: &http.Transport{}}
	b = New(cfg, WithHTTPClient(injected))
	a, c = b.workerHTTPClient(), b.workerHTTPClient()
	if a == injected || a == c {
		t.Fatal("expected copies of the injected client")
	}
	if a.Transport != injected.Transport || a.Timeout != injected.Timeout {
		t.Fatal("copies should keep the injected transport and timeout")
	}
}

func TestProcessorFactoryRejectsMissingBaseURL(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Network.AssetBaseURL = " "
	if _, err := New(cfg).processorFactory(1); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}
