package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	pkgerrors "github.com/snaapconnections/storefront/pkg/errors"
)

type loginBody struct {
	Password string `json:"password" validate:"required"`
}

func TestDecodeJSONBodyReportsJSONFieldNames(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"password":""}`))
	var body loginBody
	err := DecodeJSONBody(httptest.NewRecorder(), req, &body)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok || details["password"] != "is required" {
		t.Fatalf("unexpected details %#v", typed.Details())
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"password":"x","role":"root"}`))
	var body loginBody
	if err := DecodeJSONBody(httptest.NewRecorder(), req, &body); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDecodeRawObject(t *testing.T) {
	for _, raw := range []string{`[]`, `null`, `"x"`, `{`} {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(raw))
		if _, err := DecodeRawObject(httptest.NewRecorder(), req); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
			t.Fatalf("%s: expected validation error, got %v", raw, err)
		}
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Tecno"}`))
	body, err := DecodeRawObject(httptest.NewRecorder(), req)
	if err != nil || string(body) != `{"name":"Tecno"}` {
		t.Fatalf("unexpected result %s %v", body, err)
	}
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=3&limit=abc&stars=9", nil)
	if v, err := ParseQueryInt(req, "page", 1, 1, 1000); err != nil || v != 3 {
		t.Fatalf("page: %d %v", v, err)
	}
	if _, err := ParseQueryInt(req, "limit", 12, 1, 100); err == nil {
		t.Fatalf("expected numeric error")
	}
	if _, err := ParseQueryInt(req, "stars", 0, 0, 5); err == nil {
		t.Fatalf("expected range error")
	}
	if v, _ := ParseQueryInt(req, "missing", 7, 0, 10); v != 7 {
		t.Fatalf("expected default")
	}
}

func TestSanitizeStringCutsOnRuneBoundary(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"  Tecno  ", 0, "Tecno"},
		{"Nokia", 10, "Nokia"},
		{"Écouteurs sans fil", 3, "Éco"},
		{"日本語のスマホ", 2, "日本"},
		{"ab\xffcd", 10, "abcd"},
		{"phone case", 6, "phone"},
	}
	for _, tc := range cases {
		got := SanitizeString(tc.in, tc.max)
		if got != tc.want {
			t.Fatalf("SanitizeString(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
		}
		if !utf8.ValidString(got) {
			t.Fatalf("SanitizeString(%q, %d) produced invalid utf-8 %q", tc.in, tc.max, got)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/?q="+strings.Repeat("%C3%A9", 5), nil)
	if got := ParseQueryString(req, "q", 3); got != "ééé" {
		t.Fatalf("expected three runes, got %q", got)
	}
}
