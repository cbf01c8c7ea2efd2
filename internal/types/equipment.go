package types

import "time"

// EquipmentCategory groups equipment by function.
type EquipmentCategory string

const (
	EquipmentHVAC     EquipmentCategory = "hvac"
	EquipmentLighting EquipmentCategory = "lighting"
	EquipmentMetering EquipmentCategory = "metering"
	EquipmentBoiler   EquipmentCategory = "boiler"
	EquipmentChiller  EquipmentCategory = "chiller"
	EquipmentSolar    EquipmentCategory = "solar"
	EquipmentOther    EquipmentCategory = "other"
)

// MaintenanceStatus is the service state of one piece of equipment.
type MaintenanceStatus string

const (
	MaintenanceOK        MaintenanceStatus = "ok"
	MaintenanceDue       MaintenanceStatus = "due"
	MaintenanceOverdue   MaintenanceStatus = "overdue"
	MaintenanceInService MaintenanceStatus = "in_service"
	MaintenanceRetired   MaintenanceStatus = "retired"
)

// KnownMaintenanceStatus reports whether s is a status the server can return.
func KnownMaintenanceStatus(s MaintenanceStatus) bool {
	switch s {
	case MaintenanceOK, MaintenanceDue, MaintenanceOverdue, MaintenanceInService, MaintenanceRetired:
		return true
	}
	return false
}

// Equipment is a monitored asset installed in a building.
type Equipment struct {
	ID           string            `json:"id"`
	BuildingID   string            `json:"buildingID"`
	Name         string            `json:"name"`
	Category     EquipmentCategory `json:"category"`
	Manufacturer string            `json:"manufacturer,omitempty"`
	ModelNumber  string            `json:"modelNumber,omitempty"`
	SerialNumber string            `json:"serialNumber,omitempty"`
	// ScadaUrl keeps its pre-initialism spelling; the wire name is the
	// legacy scada_url field and older exports match this casing.
	ScadaURL          string            `json:"scadaUrl,omitempty"`
	RatedPowerKW      float64           `json:"ratedPowerKw,omitempty"`
	InstalledAt       *time.Time        `json:"installedAt,omitempty"`
	LastServicedAt    *time.Time        `json:"lastServicedAt,omitempty"`
	MaintenanceStatus MaintenanceStatus `json:"maintenanceStatus"`
	Metadata          map[string]any    `json:"metadata,omitempty"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

// EquipmentRequest is the mutable subset accepted by create and update.
type EquipmentRequest struct {
	BuildingID   string            `json:"buildingID" validate:"required"`
	Name         string            `json:"name" validate:"required,max=200"`
	Category     EquipmentCategory `json:"category" validate:"required,oneof=hvac lighting metering boiler chiller solar other"`
	Manufacturer string            `json:"manufacturer,omitempty"`
	ModelNumber  string            `json:"modelNumber,omitempty"`
	SerialNumber string            `json:"serialNumber,omitempty"`
	ScadaURL     string            `json:"scadaUrl,omitempty" validate:"omitempty,url"`
	RatedPowerKW float64           `json:"ratedPowerKw,omitempty" validate:"omitempty,gt=0"`
	InstalledAt  *time.Time        `json:"installedAt,omitempty"`
	Metadata     map[string]any    `json:"metadata,omitempty"`
}
