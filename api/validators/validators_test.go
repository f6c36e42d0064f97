package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/rugstore-backend/pkg/errors"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleBody struct {
	Email  string  `json:"email" validate:"required,email"`
	Amount float64 `json:"amount" validate:"gt=0"`
}

func TestDecodeJSONBodyReportsJSONFieldNames(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"nope","amount":0}`))
	var body sampleBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details := typed.Details().(map[string]string)
	assert.Equal(t, "must be a valid email", details["email"])
	assert.Equal(t, "must be greater than 0", details["amount"])
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.co","amount":1,"extra":true}`))
	var body sampleBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestParseUUIDParam(t *testing.T) {
	id := uuid.New()
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id.String())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	got, err := ParseUUIDParam(req, "id")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	rctx.URLParams = chi.RouteParams{}
	rctx.URLParams.Add("id", "abc")
	_, err = ParseUUIDParam(req, "id")
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := BearerToken(req)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())

	req.Header.Set("Authorization", "Bearer abc.def")
	token, err := BearerToken(req)
	require.NoError(t, err)
	assert.Equal(t, "abc.def", token)
}

type shippingBody struct {
	Address struct {
		City    string `json:"city" validate:"required"`
		Pincode string `json:"pincode" validate:"required,pincode"`
		Phone   string `json:"phone" validate:"omitempty,phone"`
	} `json:"address"`
}

func TestDecodeJSONBodyNestedDetailKeys(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"address":{"city":"","pincode":"01234","phone":"call me"}}`))
	var body shippingBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)

	details := pkgerrors.As(err).Details().(map[string]string)
	assert.Equal(t, "is required", details["address.city"])
	assert.Equal(t, "must be a 6 digit pincode", details["address.pincode"])
	assert.Equal(t, "must be a valid phone number", details["address.phone"])
}

func TestDecodeJSONBodyAcceptsIndianAddress(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"address":{"city":"Jaipur","pincode":"302001","phone":"+91 98765 43210"}}`))
	var body shippingBody
	require.NoError(t, DecodeJSONBody(req, &body))
	assert.Equal(t, "302001", body.Address.Pincode)
}

func TestDecodeJSONBodyRejectsEmptyAndTrailingInput(t *testing.T) {
	cases := map[string]string{
		"empty":    "",
		"trailing": `{"email":"a@b.co","amount":1}{"email":"c@d.co"}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload))
			var body sampleBody
			err := DecodeJSONBody(req, &body)
			require.Error(t, err)
			assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
		})
	}
}

func TestDecodeJSONBodyRejectsOversizedBody(t *testing.T) {
	payload := `{"email":"` + strings.Repeat("a", maxBodyBytes) + `@b.co","amount":1}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload))
	var body sampleBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)
	details := pkgerrors.As(err).Details().(map[string]any)
	assert.Contains(t, details["error"], "exceeds")
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "Hand Tufted", SanitizeString("  Hand\tTufted \n", 0))
	assert.Equal(t, "Persian", SanitizeString("Persian Rugs", 7))
	// "é" is two bytes; the cap must not split it
	assert.Equal(t, "Caf", SanitizeString("Café", 4))
}
