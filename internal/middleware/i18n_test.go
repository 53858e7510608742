package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func localeFor(t *testing.T, build func(r *http.Request), lookup CountryLookup) string {
	t.Helper()
	var got string
	handler := Locale("en", lookup)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = LocaleFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if build != nil {
		build(req)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)
	return got
}

func TestLocaleHeaderWins(t *testing.T) {
	got := localeFor(t, func(r *http.Request) {
		r.Header.Set("X-Locale", "ID-id")
		r.Header.Set("Accept-Language", "fr-FR")
	}, nil)
	if got != "id" {
		t.Fatalf("locale = %q, want id", got)
	}
}

func TestLocaleFromAcceptLanguage(t *testing.T) {
	got := localeFor(t, func(r *http.Request) {
		r.Header.Set("Accept-Language", "de-DE;q=0.9, en;q=0.5")
	}, nil)
	if got != "de" {
		t.Fatalf("locale = %q, want de", got)
	}
}

func TestLocaleFromGeoIP(t *testing.T) {
	lookup := func(ip string) (string, error) {
		if ip != "203.0.113.7" {
			return "", errors.New("unexpected ip")
		}
		return "FR", nil
	}
	got := localeFor(t, func(r *http.Request) {
		r.Header.Set("X-Forwarded-For", "203.0.113.7")
	}, lookup)
	if got != "fr" {
		t.Fatalf("locale = %q, want fr", got)
	}
}

func TestLocaleFallback(t *testing.T) {
	got := localeFor(t, nil, func(ip string) (string, error) {
		return "", errors.New("unavailable")
	})
	if got != "en" {
		t.Fatalf("locale = %q, want en", got)
	}
}
