package jobs

import (
	"context"
	"testing"
)

func TestMetadataPoolReportsErrorForMissingFile(t *testing.T) {
	pool := NewMetadataPool(2, nil)
	ch := pool.Request(context.Background(), 1, "/nonexistent/path/does-not-exist.wav")
	if ch == nil {
		t.Fatal("expected a result channel for a first request")
	}
	result := <-ch
	if result.Err == nil {
		t.Fatal("expected an error probing a nonexistent file")
	}
}

func TestMetadataPoolExhaustedRetriesAfterBudget(t *testing.T) {
	pool := NewMetadataPool(1, nil)
	path := "/nonexistent/path/retry-budget.wav"
	for i := 0; i < transientErrorBudget; i++ {
		<-pool.Request(context.Background(), 1, path)
	}
	if !pool.ExhaustedRetries(path) {
		t.Fatal("expected retries to be exhausted after transientErrorBudget failures")
	}
}

func TestMetadataPoolDedupsInFlightRequests(t *testing.T) {
	pool := NewMetadataPool(1, nil)
	pool.sem <- struct{}{} // saturate the single worker slot so the second request can't start yet
	defer func() { <-pool.sem }()

	first := pool.Request(context.Background(), 1, "/nonexistent/in-flight.wav")
	second := pool.Request(context.Background(), 1, "/nonexistent/in-flight.wav")
	if first == nil {
		t.Fatal("expected the first request to get a channel")
	}
	if second != nil {
		t.Fatal("expected the second request for the same in-flight path to be nil")
	}
}
