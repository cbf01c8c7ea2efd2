package types

import "time"

// BuildingStatus is the lifecycle state of a managed building.
type BuildingStatus string

const (
	BuildingActive         BuildingStatus = "active"
	BuildingUnderRetrofit  BuildingStatus = "under_retrofit"
	BuildingDecommissioned BuildingStatus = "decommissioned"
)

// KnownBuildingStatus reports whether s is a status the server can return.
func KnownBuildingStatus(s BuildingStatus) bool {
	switch s {
	case BuildingActive, BuildingUnderRetrofit, BuildingDecommissioned:
		return true
	}
	return false
}

// Building is a managed site in the portfolio.
type Building struct {
	ID           string         `json:"id"`
	BuildingCode string         `json:"buildingCode"`
	Name         string         `json:"name"`
	Address      string         `json:"address,omitempty"`
	City         string         `json:"city,omitempty"`
	Region       string         `json:"region,omitempty"`
	PostalCode   string         `json:"postalCode,omitempty"`
	Status       BuildingStatus `json:"status"`
	FloorAreaM2  float64        `json:"floorAreaM2,omitempty"`
	YearBuilt    int            `json:"yearBuilt,omitempty"`
	// SiteEUI is the site energy-use intensity in kWh per square meter
	// per year, recomputed server-side after each monitoring ingest.
	SiteEUI        float64        `json:"siteEUI,omitempty"`
	EquipmentCount int            `json:"equipmentCount,omitempty"`
	ManagerID      string         `json:"managerID,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// BuildingRequest is the mutable subset accepted by create and update.
type BuildingRequest struct {
	BuildingCode string         `json:"buildingCode" validate:"required,max=32"`
	Name         string         `json:"name" validate:"required,max=200"`
	Address      string         `json:"address,omitempty"`
	City         string         `json:"city,omitempty"`
	Region       string         `json:"region,omitempty"`
	PostalCode   string         `json:"postalCode,omitempty"`
	Status       BuildingStatus `json:"status,omitempty" validate:"omitempty,oneof=active under_retrofit decommissioned"`
	FloorAreaM2  float64        `json:"floorAreaM2,omitempty" validate:"omitempty,gt=0"`
	YearBuilt    int            `json:"yearBuilt,omitempty" validate:"omitempty,gte=1800,lte=2100"`
	ManagerID    string         `json:"managerID,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}
