package models

// CargoStatusPending is the status of a cargo request nobody has reported on yet
const CargoStatusPending = "Pending"

// CargoRequest is the record accepted by the partner callback API
type CargoRequest struct {
	ID          string `json:"id" binding:"required"`
	Sender      string `json:"sender" binding:"required"`
	Destination string `json:"destination" binding:"required"`
	CargoType   string `json:"cargoType" binding:"required"`
	Status      string `json:"status"`
	UpdatedAt   string `json:"updatedAt,omitempty"` // timestamp of the last callback, as sent
}

// CargoCallback is posted by a partner to report progress on a cargo request
type CargoCallback struct {
	CargoRequestID string `json:"cargoRequestId" binding:"required"`
	StatusUpdate   string `json:"statusUpdate" binding:"required"`
	Timestamp      string `json:"timestamp" binding:"required"`
}
