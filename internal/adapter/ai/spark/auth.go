// Package spark implements the websocket chat protocol of the Spark LLM
// service. Each Chat call opens a fresh signed connection, streams the
// response chunks and closes; the service authenticates via an HMAC-SHA256
// signature over host, date and request line carried in the query string.
package spark

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// SignURL builds the authenticated websocket URL for the given endpoint.
// The date parameter must match the signed date exactly, so both come from
// the same instant.
func SignURL(wsURL, apiKey, apiSecret string, now time.Time) (string, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return "", fmt.Errorf("op=spark.SignURL parse url: %w", err)
	}

	// The service requires the RFC1123 GMT form, same as HTTP Date headers.
	date := now.UTC().Format(http.TimeFormat)

	origin := "host: " + u.Host + "\n" +
		"date: " + date + "\n" +
		"GET " + u.Path + " HTTP/1.1"

	mac := hmac.New(sha256.New, []byte(apiSecret))
	mac.Write([]byte(origin))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	authOrigin := fmt.Sprintf(
		`api_key="%s", algorithm="hmac-sha256", headers="host date request-line", signature="%s"`,
		apiKey, signature,
	)
	authorization := base64.StdEncoding.EncodeToString([]byte(authOrigin))

	q := url.Values{}
	q.Set("authorization", authorization)
	q.Set("date", date)
	q.Set("host", u.Host)
	return wsURL + "?" + q.Encode(), nil
}
