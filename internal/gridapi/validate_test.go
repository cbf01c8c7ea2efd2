package gridapi

import (
	"errors"
	"strings"
	"testing"

	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/types"
)

func TestValidateRequestReportsCanonicalFieldNames(t *testing.T) {
	err := validateRequest(types.BuildingRequest{
		// BuildingCode missing, Name too long, YearBuilt out of range.
		Name:      strings.Repeat("x", 201),
		YearBuilt: 1600,
	})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("want *APIError, got %v", err)
	}
	if apiErr.Status != 422 || apiErr.Code != CodeValidationFailed {
		t.Errorf("status/code = %d/%s", apiErr.Status, apiErr.Code)
	}
	for _, field := range []string{"buildingCode", "name", "yearBuilt"} {
		if len(apiErr.Fields[field]) == 0 {
			t.Errorf("missing %s entry in %v", field, apiErr.Fields)
		}
	}
	if got := apiErr.Fields["buildingCode"][0]; got != "is required" {
		t.Errorf("buildingCode message = %q", got)
	}
	if got := apiErr.Fields["yearBuilt"][0]; got != "must be at least 1800" {
		t.Errorf("yearBuilt message = %q", got)
	}
}

func TestValidateRequestPassesValidBody(t *testing.T) {
	err := validateRequest(types.AuditRequest{
		BuildingID: "b-1",
		AuditType:  types.AuditEnergy,
		Title:      "Annual energy audit",
	})
	if err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}
}

func TestValidateRequestOneof(t *testing.T) {
	err := validateRequest(types.UserRequest{
		Email: "ops@example.com",
		Role:  types.UserRole("superuser"),
	})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("want *APIError, got %v", err)
	}
	msgs := apiErr.Fields["role"]
	if len(msgs) == 0 || !strings.Contains(msgs[0], "admin") {
		t.Errorf("role messages = %v", msgs)
	}
}
