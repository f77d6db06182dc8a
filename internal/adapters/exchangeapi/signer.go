package exchangeapi

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strconv"
	"time"
)

const (
	headerAPIKey    = "X-KEY"
	headerSignature = "X-SIGNATURE"
	paramTimestamp  = "timestamp"
)

// CanonicalQuery returns params plus a millisecond timestamp, encoded with keys sorted.
// params is not modified.
func CanonicalQuery(params url.Values, ts time.Time) string {
	q := url.Values{}
	for k, v := range params {
		q[k] = append([]string(nil), v...)
	}
	q.Set(paramTimestamp, strconv.FormatInt(ts.UnixMilli(), 10))
	return q.Encode()
}

// Sign returns the hex HMAC-SHA256 of "METHOD\nPATH\nQUERY" keyed with secret.
func Sign(secret, method, path, query string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(method + "\n" + path + "\n" + query))
	return hex.EncodeToString(mac.Sum(nil))
}
