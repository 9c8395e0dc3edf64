package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubValidator struct {
	userID string
	err    error
	tokens []string
}

func (v *stubValidator) ValidateToken(tokenString string) (string, error) {
	v.tokens = append(v.tokens, tokenString)
	return v.userID, v.err
}

func runAuth(t *testing.T, validator TokenValidator, authHeader string) (*httptest.ResponseRecorder, string) {
	t.Helper()

	var seenUserID string
	handler := Auth(validator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := GetUserID(r)
		require.NoError(t, err)
		seenUserID = id
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/answers", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, seenUserID
}

func TestAuth_ValidToken(t *testing.T) {
	validator := &stubValidator{userID: "user-42"}

	rec, userID := runAuth(t, validator, "Bearer sometoken")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-42", userID)
	assert.Equal(t, []string{"sometoken"}, validator.tokens)
}

func TestAuth_CaseInsensitiveBearer(t *testing.T) {
	validator := &stubValidator{userID: "user-42"}

	rec, _ := runAuth(t, validator, "bearer sometoken")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuth_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		validator *stubValidator
		header    string
	}{
		{"missing header", &stubValidator{userID: "u"}, ""},
		{"wrong scheme", &stubValidator{userID: "u"}, "Basic abc"},
		{"no token", &stubValidator{userID: "u"}, "Bearer"},
		{"invalid token", &stubValidator{err: errors.New("bad signature")}, "Bearer bad"},
		{"empty user id", &stubValidator{userID: ""}, "Bearer sometoken"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := runAuth(t, tt.validator, tt.header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestGetUserID_MissingFromContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/answers", nil)
	_, err := GetUserID(req)
	assert.Error(t, err)
}
