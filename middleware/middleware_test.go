package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodcart/utils"
)

const secret = "test-secret"

func sign(t *testing.T, key string, claims Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return tok
}

func validClaims() Claims {
	return Claims{
		UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func echoUser(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"user":  utils.GetUserIDFromRequest(r),
		"token": utils.GetTokenFromRequest(r) != "",
	})
}

func TestAuthenticate(t *testing.T) {
	auth := NewAuth(secret)
	good := sign(t, secret, validClaims())
	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	noUser := validClaims()
	noUser.UserID = ""

	tests := []struct {
		name   string
		header string
		code   int
	}{
		{"valid", "Bearer " + good, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"no bearer prefix", good, http.StatusUnauthorized},
		{"wrong secret", "Bearer " + sign(t, "other", validClaims()), http.StatusUnauthorized},
		{"expired", "Bearer " + sign(t, secret, expired), http.StatusUnauthorized},
		{"no user id", "Bearer " + sign(t, secret, noUser), http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			auth.Authenticate(echoUser)(rec, req, nil)

			assert.Equal(t, tt.code, rec.Code)
			if tt.code == http.StatusOK {
				assert.JSONEq(t, `{"user":"u1","token":true}`, rec.Body.String())
			}
		})
	}
}

func TestAuthenticateWebSocketQueryToken(t *testing.T) {
	auth := NewAuth(secret)
	good := sign(t, secret, validClaims())

	upgrade := func(url string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, url, nil)
		req.Header.Set("Connection", "Upgrade")
		req.Header.Set("Upgrade", "websocket")
		return req
	}

	rec := httptest.NewRecorder()
	auth.Authenticate(echoUser)(rec, upgrade("/api/cart/ws?token="+good), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	auth.Authenticate(echoUser)(rec, upgrade("/api/cart/ws"), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// plain requests cannot use the query parameter
	rec = httptest.NewRecorder()
	auth.Authenticate(echoUser)(rec, httptest.NewRequest(http.MethodGet, "/api/cart?token="+good, nil), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestValidateRejectsOtherAlgorithms(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, validClaims()).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewAuth(secret).Validate(tok)
	assert.Error(t, err)
}
