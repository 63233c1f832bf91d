package store

import (
	"time"

	"safiri-mazao-api/models"

	"gorm.io/gorm"
)

// orderRecord is the flattened table row of an order. Seq keeps insertion order.
type orderRecord struct {
	Seq                  uint   `gorm:"primaryKey;autoIncrement"`
	OrderID              string `gorm:"uniqueIndex;size:64;not null"`
	TrackNumber          string `gorm:"uniqueIndex;size:64;not null"`
	PhoneNumber          string `gorm:"size:32"`
	Crop                 string `gorm:"size:64"`
	Quantity             int
	PickupName           string `gorm:"not null"`
	PickupRegion         string
	PickupDistrict       string
	DestinationName      string `gorm:"not null"`
	DestinationRegion    string
	DestinationDistrict  string
	Status               string `gorm:"index;not null;default:'pending'"`
	TransporterID        *string
	TransporterName      string
	TransporterPhone     string
	TransporterRating    string
	TransporterAvatarURL string
	Price                *int64
	Notes                string
	CreatedAt            time.Time
	StatusUpdatedAt      time.Time
	EstimatedDelivery    *time.Time
	PaymentStatus        string
	PaymentAmount        *int64
}

func (orderRecord) TableName() string { return "orders" }

func newOrderRecord(o models.Order) orderRecord {
	r := orderRecord{
		OrderID:             o.ID,
		TrackNumber:         o.TrackNumber,
		PhoneNumber:         o.PhoneNumber,
		Crop:                o.Crop,
		Quantity:            o.Quantity,
		PickupName:          o.PickupLocation.Name,
		PickupRegion:        o.PickupLocation.Region,
		PickupDistrict:      o.PickupLocation.District,
		DestinationName:     o.DestinationLocation.Name,
		DestinationRegion:   o.DestinationLocation.Region,
		DestinationDistrict: o.DestinationLocation.District,
		Status:              string(o.Status),
		Price:               o.Price,
		Notes:               o.Notes,
		CreatedAt:           o.CreatedAt,
		StatusUpdatedAt:     o.StatusUpdatedAt,
		EstimatedDelivery:   o.EstimatedDelivery,
		PaymentStatus:       string(o.PaymentStatus),
		PaymentAmount:       o.PaymentAmount,
	}
	if t := o.Transporter; t != nil {
		id := t.ID
		r.TransporterID = &id
		r.TransporterName = t.Name
		r.TransporterPhone = t.Phone
		r.TransporterRating = t.Rating
		r.TransporterAvatarURL = t.AvatarURL
	}
	return r
}

func (r orderRecord) model() models.Order {
	o := models.Order{
		ID:          r.OrderID,
		TrackNumber: r.TrackNumber,
		PhoneNumber: r.PhoneNumber,
		Crop:        r.Crop,
		Quantity:    r.Quantity,
		PickupLocation: models.Location{
			Name: r.PickupName, Region: r.PickupRegion, District: r.PickupDistrict,
		},
		DestinationLocation: models.Location{
			Name: r.DestinationName, Region: r.DestinationRegion, District: r.DestinationDistrict,
		},
		Status:            models.OrderStatus(r.Status),
		Price:             r.Price,
		Notes:             r.Notes,
		CreatedAt:         r.CreatedAt,
		StatusUpdatedAt:   r.StatusUpdatedAt,
		EstimatedDelivery: r.EstimatedDelivery,
		PaymentStatus:     models.PaymentStatus(r.PaymentStatus),
		PaymentAmount:     r.PaymentAmount,
	}
	if r.TransporterID != nil {
		o.Transporter = &models.TransporterRef{
			ID:        *r.TransporterID,
			Name:      r.TransporterName,
			Phone:     r.TransporterPhone,
			Rating:    r.TransporterRating,
			AvatarURL: r.TransporterAvatarURL,
		}
	}
	return o.Clone()
}

type transporterRecord struct {
	Seq             uint   `gorm:"primaryKey;autoIncrement"`
	TransporterID   string `gorm:"uniqueIndex;size:64;not null"`
	Name            string `gorm:"not null"`
	Phone           string `gorm:"size:32;not null"`
	Email           string
	NationalID      string `gorm:"not null"`
	Rating          string `gorm:"default:'0/5'"`
	AvatarURL       string
	VehicleType     string `gorm:"not null"`
	VehicleNumber   string `gorm:"not null"`
	Capacity        int
	Status          string `gorm:"index;not null;default:'active'"`
	Address         string
	Region          string `gorm:"not null"`
	District        string `gorm:"not null"`
	CompletedOrders int
	TotalEarnings   int64
	CreatedAt       time.Time
	LicenseNumber   string
	TransportPermit string
}

func (transporterRecord) TableName() string { return "transporters" }

func newTransporterRecord(t models.Transporter) transporterRecord {
	return transporterRecord{
		TransporterID:   t.ID,
		Name:            t.Name,
		Phone:           t.Phone,
		Email:           t.Email,
		NationalID:      t.NationalID,
		Rating:          t.Rating,
		AvatarURL:       t.AvatarURL,
		VehicleType:     string(t.VehicleType),
		VehicleNumber:   t.VehicleNumber,
		Capacity:        t.Capacity,
		Status:          string(t.Status),
		Address:         t.Address,
		Region:          t.Region,
		District:        t.District,
		CompletedOrders: t.CompletedOrders,
		TotalEarnings:   t.TotalEarnings,
		CreatedAt:       t.CreatedAt,
		LicenseNumber:   t.LicenseNumber,
		TransportPermit: t.TransportPermit,
	}
}

func (r transporterRecord) model() models.Transporter {
	return models.Transporter{
		ID:              r.TransporterID,
		Name:            r.Name,
		Phone:           r.Phone,
		Email:           r.Email,
		NationalID:      r.NationalID,
		Rating:          r.Rating,
		AvatarURL:       r.AvatarURL,
		VehicleType:     models.VehicleType(r.VehicleType),
		VehicleNumber:   r.VehicleNumber,
		Capacity:        r.Capacity,
		Status:          models.TransporterStatus(r.Status),
		Address:         r.Address,
		Region:          r.Region,
		District:        r.District,
		CompletedOrders: r.CompletedOrders,
		TotalEarnings:   r.TotalEarnings,
		CreatedAt:       r.CreatedAt,
		LicenseNumber:   r.LicenseNumber,
		TransportPermit: r.TransportPermit,
	}
}

type cargoRecord struct {
	RequestID    string `gorm:"primaryKey;size:64"`
	Sender       string
	Destination  string
	CargoType    string
	Status       string
	LastCallback string
}

func (cargoRecord) TableName() string { return "cargo_requests" }

func (r cargoRecord) model() models.CargoRequest {
	return models.CargoRequest{
		ID:          r.RequestID,
		Sender:      r.Sender,
		Destination: r.Destination,
		CargoType:   r.CargoType,
		Status:      r.Status,
		UpdatedAt:   r.LastCallback,
	}
}

// Migrate creates or updates the tables backing the GORM stores
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&orderRecord{}, &transporterRecord{}, &cargoRecord{})
}
