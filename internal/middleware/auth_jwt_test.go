package middleware

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const testSecret = "test-secret"

func TestSignAndVerifyJWT(t *testing.T) {
	claims := TokenClaims{
		Sub:    "2f6f9c44-6f38-4f4e-9a2d-83c1d7a64b10",
		Locale: "id",
		Exp:    time.Now().Add(time.Hour).Unix(),
		Issuer: "deckserver-seed",
	}
	token, err := SignJWT(testSecret, claims)
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}

	got, err := VerifyJWT(testSecret, token)
	if err != nil {
		t.Fatalf("VerifyJWT: %v", err)
	}
	if got.Sub != claims.Sub || got.Locale != claims.Locale || got.Issuer != claims.Issuer {
		t.Errorf("claims roundtrip mismatch: %+v", got)
	}
}

func TestVerifyJWTRejectsBadTokens(t *testing.T) {
	token, _ := SignJWT(testSecret, TokenClaims{Sub: "u", Exp: time.Now().Add(time.Hour).Unix()})
	expired, _ := SignJWT(testSecret, TokenClaims{Sub: "u", Exp: time.Now().Add(-time.Minute).Unix()})

	tests := []struct {
		name  string
		token string
	}{
		{"wrong secret", mustSign(t, "other-secret", TokenClaims{Sub: "u"})},
		{"tampered signature", token + "x"},
		{"not three parts", "a.b"},
		{"expired", expired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := VerifyJWT(testSecret, tt.token); err == nil {
				t.Error("VerifyJWT accepted an invalid token")
			}
		})
	}
}

// The claim set is deliberately minimal: fields other services put in their
// tokens are ignored rather than surfaced.
func TestVerifyJWTIgnoresForeignClaims(t *testing.T) {
	payload := map[string]any{
		"sub":    "user-1",
		"locale": "en",
		"plan":   "pro",
		"exp":    time.Now().Add(time.Hour).Unix(),
	}
	raw, _ := json.Marshal(payload)
	token := resignPayload(t, testSecret, raw)

	claims, err := VerifyJWT(testSecret, token)
	if err != nil {
		t.Fatalf("VerifyJWT: %v", err)
	}
	if claims.Sub != "user-1" || claims.Locale != "en" {
		t.Errorf("claims = %+v", claims)
	}
	var exported map[string]any
	out, _ := json.Marshal(claims)
	_ = json.Unmarshal(out, &exported)
	if _, ok := exported["plan"]; ok {
		t.Error("token contract re-exposes a claim this service does not use")
	}
}

func TestAuthJWTSetsUserAndLocale(t *testing.T) {
	token := mustSign(t, testSecret, TokenClaims{
		Sub:    "owner-1",
		Locale: "id",
		Exp:    time.Now().Add(time.Hour).Unix(),
	})

	var gotUser, gotLocale string
	handler := AuthJWT(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserIDFromContext(r.Context())
		gotLocale, _ = r.Context().Value(LocaleKey).(string)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if gotUser != "owner-1" || gotLocale != "id" {
		t.Errorf("context user = %q locale = %q", gotUser, gotLocale)
	}
}

func TestAuthJWTRejectsMissingOrInvalidHeader(t *testing.T) {
	handler := AuthJWT(testSecret)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("handler reached without valid token")
	}))

	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			if rr.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rr.Code)
			}
		})
	}
}

func mustSign(t *testing.T, secret string, claims TokenClaims) string {
	t.Helper()
	token, err := SignJWT(secret, claims)
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	return token
}

// resignPayload builds a token with an arbitrary payload signed the same way
// SignJWT signs, for exercising tokens minted by other issuers.
func resignPayload(t *testing.T, secret string, payload []byte) string {
	t.Helper()
	header, _ := json.Marshal(map[string]string{"alg": "HS256", "typ": "JWT"})
	data := base64.RawURLEncoding.EncodeToString(header) + "." + base64.RawURLEncoding.EncodeToString(payload)
	return data + "." + hmacSign(secret, data)
}
