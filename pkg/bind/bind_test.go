package bind_test

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shashiranjanraj/meetup/pkg/bind"
)

type signupInput struct {
	Email       string `json:"email"       validate:"required,email,max=120"`
	Password    string `json:"password"    validate:"required"`
	DisplayName string `json:"displayName" validate:"required,min=3,max=20"`
	When        string `json:"datetime"    validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

func TestJSONValid(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(
		`{"email":"jo@example.com","password":"secret","displayName":"jojo","datetime":"2030-01-02T15:04:05.123Z"}`))
	var in signupInput
	errs, err := bind.JSON(req, &in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if errs != nil {
		t.Fatalf("expected no validation errors, got %v", errs)
	}
	if in.DisplayName != "jojo" {
		t.Errorf("expected jojo, got %s", in.DisplayName)
	}
}

func TestJSONReportsFieldsByJSONName(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"nope","displayName":"ab","datetime":"yesterday"}`))
	var in signupInput
	errs, err := bind.JSON(req, &in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, field := range []string{"email", "password", "displayName", "datetime"} {
		if _, ok := errs[field]; !ok {
			t.Errorf("expected error for %s, got %v", field, errs)
		}
	}
	if errs["displayName"] != "must be at least 3 characters" {
		t.Errorf("unexpected message: %q", errs["displayName"])
	}
}

func TestJSONMalformed(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":`))
	var in signupInput
	if _, err := bind.JSON(req, &in); err == nil {
		t.Error("expected decode error")
	}
}

func TestJSONTooLarge(t *testing.T) {
	t.Setenv("MAX_BODY_BYTES", "16")
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"someone-with-a-long-address@example.com"}`))
	var in signupInput
	_, err := bind.JSON(req, &in)
	if err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("expected too large error, got %v", err)
	}
}

type profilePatch struct {
	FirstName     *string `json:"firstName"     validate:"omitempty,max=20"`
	MaxDistanceKm *int    `json:"maxDistanceKm" validate:"omitempty,min=1,max=20"`
}

func TestJSONStrictRejectsUnknownKeys(t *testing.T) {
	req := httptest.NewRequest("PUT", "/", strings.NewReader(`{"firstName":"Jo","active":false}`))
	var in profilePatch
	_, err := bind.JSONStrict(req, &in, "firstName", "maxDistanceKm")
	if !errors.Is(err, bind.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestJSONStrictDecodesAllowedKeys(t *testing.T) {
	req := httptest.NewRequest("PUT", "/", strings.NewReader(`{"maxDistanceKm":25}`))
	var in profilePatch
	errs, err := bind.JSONStrict(req, &in, "firstName", "maxDistanceKm")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.FirstName != nil {
		t.Errorf("firstName should stay nil")
	}
	if errs["maxDistanceKm"] != "must be at most 20" {
		t.Errorf("unexpected errors: %v", errs)
	}
}
