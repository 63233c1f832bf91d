package models

import "time"

type VehicleType string

const (
	VehiclePickup    VehicleType = "Pickup"
	VehicleLorry3T   VehicleType = "Lorry (3 Tons)"
	VehicleLorry7T   VehicleType = "Lorry (7 Tons)"
	VehicleMiniTruck VehicleType = "Mini Truck"
	VehicleTrailer   VehicleType = "Trailer (20 Tons)"
)

// capacities in kilograms
var vehicleCapacity = map[VehicleType]int{
	VehiclePickup:    800,
	VehicleLorry3T:   3000,
	VehicleLorry7T:   7000,
	VehicleMiniTruck: 1500,
	VehicleTrailer:   20000,
}

// VehicleTypes lists the supported vehicle types
func VehicleTypes() []VehicleType {
	return []VehicleType{VehiclePickup, VehicleLorry3T, VehicleLorry7T, VehicleMiniTruck, VehicleTrailer}
}

func (v VehicleType) Valid() bool {
	_, ok := vehicleCapacity[v]
	return ok
}

// CapacityFor returns the default load capacity (kg) of a vehicle type, 0 if unknown
func CapacityFor(v VehicleType) int {
	return vehicleCapacity[v]
}

type TransporterStatus string

const (
	TransporterActive    TransporterStatus = "active"
	TransporterInactive  TransporterStatus = "inactive"
	TransporterSuspended TransporterStatus = "suspended"
)

func (s TransporterStatus) Valid() bool {
	switch s {
	case TransporterActive, TransporterInactive, TransporterSuspended:
		return true
	}
	return false
}

// DefaultRating is assigned to newly registered transporters
const DefaultRating = "0/5"

type Transporter struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Phone           string            `json:"phone"`
	Email           string            `json:"email,omitempty"`
	NationalID      string            `json:"nationalId"`
	Rating          string            `json:"rating"`
	AvatarURL       string            `json:"avatarUrl,omitempty"`
	VehicleType     VehicleType       `json:"vehicleType"`
	VehicleNumber   string            `json:"vehicleNumber"`
	Capacity        int               `json:"capacity"`
	Status          TransporterStatus `json:"status"`
	Address         string            `json:"address,omitempty"`
	Region          string            `json:"region"`
	District        string            `json:"district"`
	CompletedOrders int               `json:"completedOrders"`
	TotalEarnings   int64             `json:"totalEarnings"`
	CreatedAt       time.Time         `json:"createdAt"`
	LicenseNumber   string            `json:"licenseNumber,omitempty"`
	TransportPermit string            `json:"transportPermit,omitempty"`
}

// Ref returns the snapshot that orders carry
func (t Transporter) Ref() TransporterRef {
	return TransporterRef{ID: t.ID, Name: t.Name, Phone: t.Phone, Rating: t.Rating, AvatarURL: t.AvatarURL}
}

// ApplyDefaults fills the fields a new registration does not have to supply
func (t *Transporter) ApplyDefaults(now time.Time) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.Status == "" {
		t.Status = TransporterActive
	}
	if t.Rating == "" {
		t.Rating = DefaultRating
	}
	if t.Capacity == 0 {
		t.Capacity = CapacityFor(t.VehicleType)
	}
}

// TransporterPatch is a partial update; nil fields are left untouched
type TransporterPatch struct {
	Name            *string            `json:"name" binding:"omitempty,min=1"`
	Phone           *string            `json:"phone" binding:"omitempty,tzphone"`
	Email           *string            `json:"email" binding:"omitempty,email"`
	NationalID      *string            `json:"nationalId" binding:"omitempty,min=1"`
	Rating          *string            `json:"rating"`
	AvatarURL       *string            `json:"avatarUrl"`
	VehicleType     *VehicleType       `json:"vehicleType" binding:"omitempty,vehicletype"`
	VehicleNumber   *string            `json:"vehicleNumber" binding:"omitempty,min=1"`
	Capacity        *int               `json:"capacity" binding:"omitempty,min=0"`
	Status          *TransporterStatus `json:"status" binding:"omitempty,transporterstatus"`
	Address         *string            `json:"address"`
	Region          *string            `json:"region" binding:"omitempty,min=1"`
	District        *string            `json:"district" binding:"omitempty,min=1"`
	LicenseNumber   *string            `json:"licenseNumber"`
	TransportPermit *string            `json:"transportPermit"`
}

// Apply shallow-merges the patch onto t. Changing the vehicle type without an
// explicit capacity re-derives the capacity from the new type.
func (p TransporterPatch) Apply(t *Transporter) {
	setString(&t.Name, p.Name)
	setString(&t.Phone, p.Phone)
	setString(&t.Email, p.Email)
	setString(&t.NationalID, p.NationalID)
	setString(&t.Rating, p.Rating)
	setString(&t.AvatarURL, p.AvatarURL)
	setString(&t.VehicleNumber, p.VehicleNumber)
	setString(&t.Address, p.Address)
	setString(&t.Region, p.Region)
	setString(&t.District, p.District)
	setString(&t.LicenseNumber, p.LicenseNumber)
	setString(&t.TransportPermit, p.TransportPermit)
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.VehicleType != nil && *p.VehicleType != t.VehicleType {
		t.VehicleType = *p.VehicleType
		if p.Capacity == nil {
			t.Capacity = CapacityFor(t.VehicleType)
		}
	}
	if p.Capacity != nil {
		t.Capacity = *p.Capacity
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
