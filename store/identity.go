package store

import (
	"strconv"
	"time"

	"safiri-mazao-api/models"
)

// prepareOrder fills the fields an intake channel may leave empty
func prepareOrder(o *models.Order, now time.Time) {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	if o.StatusUpdatedAt.Before(o.CreatedAt) {
		o.StatusUpdatedAt = o.CreatedAt
	}
	if o.Status == "" {
		o.Status = models.StatusPending
	}
}

// assignOrderIdentity picks the first free sequence number starting at seq
// for whichever of ID and TrackNumber are empty.
func assignOrderIdentity(o *models.Order, seq int, taken func(id, track string) bool) {
	wantID, wantTrack := o.ID == "", o.TrackNumber == ""
	if !wantID && !wantTrack {
		return
	}
	for ; ; seq++ {
		id, track := o.ID, o.TrackNumber
		if wantID {
			id = models.OrderID(seq)
		}
		if wantTrack {
			track = models.TrackNumber(o.CreatedAt, seq)
		}
		if !taken(id, track) {
			o.ID, o.TrackNumber = id, track
			return
		}
	}
}

// transporterID derives a time based id, stepping forward until it is unused
func transporterID(now time.Time, taken func(string) bool) string {
	ms := now.UnixMilli()
	for {
		id := "TR" + strconv.FormatInt(ms, 36)
		if !taken(id) {
			return id
		}
		ms++
	}
}
