package models

import (
	"fmt"
	"time"
)

// OrderStatus represents all possible states of a crop transport order
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusAccepted   OrderStatus = "accepted"
	StatusInProgress OrderStatus = "in_progress"
	StatusInTransit  OrderStatus = "in_transit"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

var orderStatuses = []OrderStatus{
	StatusPending,
	StatusAccepted,
	StatusInProgress,
	StatusInTransit,
	StatusDelivered,
	StatusCancelled,
}

// AllOrderStatuses returns every status in lifecycle order
func AllOrderStatuses() []OrderStatus {
	out := make([]OrderStatus, len(orderStatuses))
	copy(out, orderStatuses)
	return out
}

func (s OrderStatus) Valid() bool {
	for _, v := range orderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPartial   PaymentStatus = "partial"
	PaymentCompleted PaymentStatus = "completed"
)

// Location is a named place; region and district are optional
type Location struct {
	Name     string `json:"name" binding:"required"`
	Region   string `json:"region,omitempty"`
	District string `json:"district,omitempty"`
}

// TransporterRef is the snapshot of a transporter stored on an order.
// It is never refreshed when the transporter record changes.
type TransporterRef struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Rating    string `json:"rating"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

type Order struct {
	ID                  string          `json:"id"`
	TrackNumber         string          `json:"trackNumber"`
	PhoneNumber         string          `json:"phoneNumber"`
	Crop                string          `json:"crop"`
	Quantity            int             `json:"quantity"` // bags
	PickupLocation      Location        `json:"pickupLocation"`
	DestinationLocation Location        `json:"destinationLocation"`
	Status              OrderStatus     `json:"status"`
	Transporter         *TransporterRef `json:"transporter,omitempty"`
	Price               *int64          `json:"price,omitempty"`
	Notes               string          `json:"notes,omitempty"`
	CreatedAt           time.Time       `json:"createdAt"`
	StatusUpdatedAt     time.Time       `json:"statusUpdatedAt"`
	EstimatedDelivery   *time.Time      `json:"estimatedDelivery,omitempty"`
	PaymentStatus       PaymentStatus   `json:"paymentStatus,omitempty"`
	PaymentAmount       *int64          `json:"paymentAmount,omitempty"`
}

// Clone returns a copy that shares no pointers with o
func (o Order) Clone() Order {
	if o.Transporter != nil {
		t := *o.Transporter
		o.Transporter = &t
	}
	if o.Price != nil {
		p := *o.Price
		o.Price = &p
	}
	if o.PaymentAmount != nil {
		a := *o.PaymentAmount
		o.PaymentAmount = &a
	}
	if o.EstimatedDelivery != nil {
		e := *o.EstimatedDelivery
		o.EstimatedDelivery = &e
	}
	return o
}

// TrackNumber builds the human readable code TRKyymmddNNN
func TrackNumber(date time.Time, seq int) string {
	return fmt.Sprintf("TRK%s%03d", date.Format("060102"), seq)
}

// OrderID builds the internal identifier ORDNNN
func OrderID(seq int) string {
	return fmt.Sprintf("ORD%03d", seq)
}
