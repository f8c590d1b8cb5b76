package paddle

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"testing"
	"time"
)

func signBody(t *testing.T, ts int64, body []byte, secret string) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d:%s", ts, body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhookSignature_Valid(t *testing.T) {
	body := []byte(`{"event_type":"transaction.completed"}`)
	secret := "whsec_test"
	now := time.Unix(1700000000, 0)

	h1 := signBody(t, now.Unix(), body, secret)
	header := fmt.Sprintf("ts=%d;h1=%s", now.Unix(), h1)

	if !verifyAt(body, header, secret, now) {
		t.Fatalf("expected valid signature to verify")
	}
}

func TestVerifyWebhookSignature_ExtraHeaderFieldsIgnored(t *testing.T) {
	body := []byte(`{}`)
	secret := "whsec_test"
	now := time.Unix(1700000000, 0)

	h1 := signBody(t, now.Unix(), body, secret)
	header := fmt.Sprintf("ts=%d;v=1;h1=%s;extra", now.Unix(), h1)

	if !verifyAt(body, header, secret, now) {
		t.Fatalf("expected signature with extra fields to verify")
	}
}

func TestVerifyWebhookSignature_TamperedBody(t *testing.T) {
	secret := "whsec_test"
	now := time.Unix(1700000000, 0)

	h1 := signBody(t, now.Unix(), []byte(`{"amount":"10"}`), secret)
	header := fmt.Sprintf("ts=%d;h1=%s", now.Unix(), h1)

	if verifyAt([]byte(`{"amount":"9999"}`), header, secret, now) {
		t.Fatalf("expected tampered body to fail verification")
	}
}

func TestVerifyWebhookSignature_FreshnessWindow(t *testing.T) {
	body := []byte(`{}`)
	secret := "whsec_test"
	now := time.Unix(1700000000, 0)

	tests := []struct {
		name   string
		offset time.Duration
		want   bool
	}{
		{name: "fresh", offset: 0, want: true},
		{name: "at stale boundary", offset: -300 * time.Second, want: true},
		{name: "just too stale", offset: -301 * time.Second, want: false},
		{name: "at future boundary", offset: 300 * time.Second, want: true},
		{name: "just too far in future", offset: 301 * time.Second, want: false},
		{name: "way too stale", offset: -24 * time.Hour, want: false},
	}

	for _, tt := range tests {
		ts := now.Add(tt.offset).Unix()
		h1 := signBody(t, ts, body, secret)
		header := fmt.Sprintf("ts=%d;h1=%s", ts, h1)
		if got := verifyAt(body, header, secret, now); got != tt.want {
			t.Fatalf("%s: verifyAt = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestVerifyWebhookSignature_HugeSkewRejected(t *testing.T) {
	body := []byte(`{}`)
	secret := "whsec_test"
	now := time.Unix(1700000000, 0)

	// Skews this large overflow int64 when scaled to nanoseconds and can
	// wrap back inside the freshness window; they must still be rejected
	// even with a correct digest.
	skews := []int64{
		18446744074,  // ~584 years; skew in nanoseconds mod 2^64 lands near 0.29s
		9223372037,   // just past the int64 nanosecond range
		-18446744074, // same, implausibly far in the future
		math.MaxInt64 / int64(time.Second),
		-(math.MaxInt64 / int64(time.Second)),
	}

	for _, skew := range skews {
		ts := now.Unix() - skew
		h1 := signBody(t, ts, body, secret)
		header := fmt.Sprintf("ts=%d;h1=%s", ts, h1)
		if verifyAt(body, header, secret, now) {
			t.Fatalf("timestamp with skew %d seconds accepted as fresh", skew)
		}
	}
}

func TestVerifyWebhookSignature_MalformedHeaders(t *testing.T) {
	body := []byte(`{}`)
	secret := "whsec_test"
	now := time.Unix(1700000000, 0)

	headers := []string{
		"",
		"garbage",
		"ts=;h1=",
		"h1=deadbeef",
		fmt.Sprintf("ts=%d", now.Unix()),
		fmt.Sprintf("ts=notanumber;h1=%s", signBody(t, now.Unix(), body, secret)),
		fmt.Sprintf("ts=%d;h1=nothex", now.Unix()),
	}

	for _, header := range headers {
		if verifyAt(body, header, secret, now) {
			t.Fatalf("expected header %q to be rejected", header)
		}
	}
}

func TestVerifyWebhookSignature_EmptySecret(t *testing.T) {
	body := []byte(`{}`)
	now := time.Unix(1700000000, 0)
	h1 := signBody(t, now.Unix(), body, "")
	header := fmt.Sprintf("ts=%d;h1=%s", now.Unix(), h1)

	if verifyAt(body, header, "", now) {
		t.Fatalf("expected empty secret to be rejected")
	}
}

func TestVerifyWebhookSignature_WrongSecret(t *testing.T) {
	body := []byte(`{}`)
	now := time.Unix(1700000000, 0)
	h1 := signBody(t, now.Unix(), body, "whsec_one")
	header := fmt.Sprintf("ts=%d;h1=%s", now.Unix(), h1)

	if verifyAt(body, header, "whsec_two", now) {
		t.Fatalf("expected wrong secret to fail verification")
	}
}
