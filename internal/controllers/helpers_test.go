package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oapi-codegen/nullable"

	"autohub/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestIsUniqueViolation(t *testing.T) {
	dup := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	if !isUniqueViolation(dup) {
		t.Fatalf("expected wrapped 23505 to be a unique violation")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatalf("foreign key violation is not a unique violation")
	}
	if isUniqueViolation(errors.New("boom")) {
		t.Fatalf("plain error is not a unique violation")
	}
}

func TestPagination(t *testing.T) {
	cases := []struct {
		query         string
		limit, offset int
	}{
		{"", defaultPageSize, 0},
		{"?limit=10&offset=20", 10, 20},
		{"?limit=-1&offset=-5", defaultPageSize, 0},
		{"?limit=100000", maxPageSize, 0},
		{"?limit=abc&offset=xyz", defaultPageSize, 0},
	}
	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/admin/accounts"+tc.query, nil)

		limit, offset := pagination(c)
		if limit != tc.limit || offset != tc.offset {
			t.Fatalf("%q: expected (%d,%d), got (%d,%d)", tc.query, tc.limit, tc.offset, limit, offset)
		}
	}
}

func TestParseID(t *testing.T) {
	for raw, want := range map[string]bool{"12": true, "0": false, "-3": false, "x": false} {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Params = gin.Params{{Key: "id", Value: raw}}

		_, ok := parseID(c, "id")
		if ok != want {
			t.Fatalf("%q: expected ok=%v", raw, want)
		}
		if !ok && w.Code != 400 {
			t.Fatalf("%q: expected 400, got %d", raw, w.Code)
		}
	}
}

func TestVehicleInputNormalizes(t *testing.T) {
	in := vehicleInput{
		Make: " Toyota ", Model: "Corolla", Year: 2018,
		RegistrationNumber: " kda 123a ", VIN: "jt2ae92", FuelType: " Petrol ",
	}
	var v models.Vehicle
	in.apply(&v)

	if v.Make != "Toyota" || v.ModelName != "Corolla" || v.RegistrationNumber != "KDA 123A" || v.VIN != "JT2AE92" || v.FuelType != "petrol" {
		t.Fatalf("unexpected normalization: %+v", v)
	}
	if problems := in.validate(); len(problems) != 0 {
		t.Fatalf("expected valid vehicle, got %v", problems)
	}
}

func TestApplyStringPatchSemantics(t *testing.T) {
	var input struct {
		City    nullable.Nullable[string] `json:"city"`
		Address nullable.Nullable[string] `json:"address"`
		Region  nullable.Nullable[string] `json:"region"`
	}
	if err := json.Unmarshal([]byte(`{"city":" Nairobi ","address":null}`), &input); err != nil {
		t.Fatal(err)
	}

	city, address, region := "Mombasa", "Moi Avenue", "Coast"
	applyString(&city, input.City)
	applyString(&address, input.Address)
	applyString(&region, input.Region)

	if city != "Nairobi" {
		t.Fatalf("expected city to be set, got %q", city)
	}
	if address != "" {
		t.Fatalf("expected null to clear address, got %q", address)
	}
	if region != "Coast" {
		t.Fatalf("expected absent field untouched, got %q", region)
	}
}

func TestToServiceCenterResponseWithoutLocation(t *testing.T) {
	resp := toServiceCenterResponse(models.ServiceCenterProfile{BusinessName: "Quick Fix"})

	out, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(out, &m); err != nil {
		t.Fatal(err)
	}
	if m["business_name"] != "Quick Fix" {
		t.Fatalf("expected embedded profile fields, got %v", m)
	}
	if _, ok := m["location"]; ok {
		t.Fatalf("expected no location, got %v", m["location"])
	}
}
