package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                                "/",
		"/metrics":                        "/metrics",
		"/v1/requests/pending":            "/v1/requests/pending",
		"/v1/requests/mine":               "/v1/requests/mine",
		"/v1/requests/01ABCDEF":           "/v1/requests/:id",
		"/v1/requests/01ABCDEF/fulfill":   "/v1/requests/:id/fulfill",
		"/v1/requests/01ABCDEF/cancel":    "/v1/requests/:id/cancel",
		"/v1/requests/01ABCDEF/logs":      "/v1/requests/:id/logs",
		"/v1/products/01ABCDEF/events":    "/v1/products/:id/events",
		"/v1/users/01ABCDEF/role":         "/v1/users/:id/role",
		"/v1/requests/pending?limit=10":   "/v1/requests/pending",
		"/v1/qr-tokens":                   "/v1/qr-tokens",
		"/v1/requests/01ABCDEF/unrelated": "/v1/requests/01ABCDEF/unrelated",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
