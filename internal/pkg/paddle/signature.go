package paddle

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// maxTimestampSkew bounds the replay window for webhook deliveries. Paddle
// signs the raw body together with a unix timestamp; anything older or newer
// than this is rejected regardless of digest correctness.
const maxTimestampSkew = 300 * time.Second

// VerifyWebhookSignature checks a Paddle-Signature header of the form
// "ts=<unix-seconds>;h1=<hex-hmac>" against the raw request body. Additional
// header fields are ignored. The HMAC-SHA256 is computed over ts + ":" + body.
func VerifyWebhookSignature(rawBody []byte, signatureHeader, webhookSecret string) bool {
	return verifyAt(rawBody, signatureHeader, webhookSecret, time.Now())
}

func verifyAt(rawBody []byte, signatureHeader, webhookSecret string, now time.Time) bool {
	sig := strings.TrimSpace(signatureHeader)
	secret := strings.TrimSpace(webhookSecret)
	if sig == "" || secret == "" {
		return false
	}

	parts := map[string]string{}
	for _, part := range strings.Split(sig, ";") {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		parts[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	ts := parts["ts"]
	h1 := parts["h1"]
	if ts == "" || h1 == "" {
		return false
	}

	tsNum, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return false
	}
	// Compare raw seconds: converting a huge skew to a Duration would
	// overflow int64 and wrap back inside the window.
	skew := now.Unix() - tsNum
	if skew < 0 {
		skew = -skew
	}
	if skew > int64(maxTimestampSkew/time.Second) {
		return false
	}

	suppliedSig, err := hex.DecodeString(strings.ToLower(h1))
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte(":"))
	mac.Write(rawBody)
	return hmac.Equal(mac.Sum(nil), suppliedSig)
}
