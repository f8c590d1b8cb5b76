package fulfillment

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStore_AbsentKeysAreNilNotError(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	rec, err := s.GetTransaction(ctx, "txn_missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected nil record for missing transaction")
	}

	tok, err := s.GetToken(ctx, "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok != nil {
		t.Fatalf("expected nil record for missing token")
	}
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	if err := s.PutTransaction(ctx, "txn_1", TransactionRecord{DownloadToken: "tok_1", CreatedAt: now}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.PutToken(ctx, "tok_1", TokenRecord{ResourceKey: "products/demo.zip", ExpiresAt: now.Add(time.Hour)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec, err := s.GetTransaction(ctx, "txn_1")
	if err != nil || rec == nil {
		t.Fatalf("expected transaction record, got %v, %v", rec, err)
	}
	if rec.DownloadToken != "tok_1" {
		t.Fatalf("unexpected download token %q", rec.DownloadToken)
	}

	tok, err := s.GetToken(ctx, "tok_1")
	if err != nil || tok == nil {
		t.Fatalf("expected token record, got %v, %v", tok, err)
	}
	if tok.ResourceKey != "products/demo.zip" {
		t.Fatalf("unexpected resource key %q", tok.ResourceKey)
	}
}

func TestTokenRecord_ValidityBoundary(t *testing.T) {
	expires := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := TokenRecord{ResourceKey: "products/demo.zip", ExpiresAt: expires}

	if !rec.Valid(expires.Add(-time.Second)) {
		t.Fatalf("expected token to be valid one second before expiry")
	}
	if rec.Valid(expires) {
		t.Fatalf("expected token to be invalid at exactly expiry")
	}
	if rec.Valid(expires.Add(time.Second)) {
		t.Fatalf("expected token to be invalid after expiry")
	}
}
