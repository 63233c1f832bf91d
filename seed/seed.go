// Package seed generates the demo orders and transporters the admin console
// starts with. Output is fully determined by the seed value and the reference
// time, so tests and demo environments see the same data on every run.
package seed

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"safiri-mazao-api/models"
	"safiri-mazao-api/store"
)

var phonePrefixes = []string{"0754", "0755", "0756", "0757", "0765", "0766", "0767", "0713", "0715"}

var crops = []string{"Mahindi", "Viazi", "Mpunga", "Maharagwe", "Vitunguu", "Ndizi", "Nyanya"}

var locations = models.ServiceLocations()

var regions = []string{"Mbeya", "Songwe", "Njombe", "Iringa", "Rukwa", "Katavi", "Dar es Salaam"}

var districts = map[string][]string{
	"Mbeya":         {"Mbeya Urban", "Mbeya Rural", "Kyela", "Rungwe", "Chunya"},
	"Songwe":        {"Songwe", "Vwawa", "Tunduma", "Mbozi"},
	"Njombe":        {"Njombe Urban", "Njombe Rural", "Wanging'ombe"},
	"Iringa":        {"Iringa Urban", "Iringa Rural", "Kilolo"},
	"Rukwa":         {"Sumbawanga", "Kalambo", "Nkasi"},
	"Katavi":        {"Mpanda", "Tanganyika", "Mlele"},
	"Dar es Salaam": {"Ilala", "Kinondoni", "Temeke", "Kigamboni", "Ubungo"},
}

var transporterNames = []string{
	"Juma Mwalimu", "Fatuma Hassan", "Mohamed Ally", "Grace Mapunda", "John Msigwa",
	"Amina Rashid", "Peter Kikwete", "Salma Juma", "Hassan Mwenda", "Neema Shayo",
	"David Mwakyusa", "Sarah Kimaro", "James Lugakingira", "Rose Mwasumbi", "Joseph Mkinga",
}

const fragileNote = "Handle with care. Fragile items inside."

// Generator produces demo records from a private random source
type Generator struct {
	rng *rand.Rand
	now time.Time
}

// New returns a generator whose output depends only on seed and now
func New(seed uint64, now time.Time) *Generator {
	return &Generator{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now: now.UTC(),
	}
}

func pick[T any](g *Generator, s []T) T {
	return s[g.rng.IntN(len(s))]
}

func (g *Generator) phone() string {
	return fmt.Sprintf("%s%06d", pick(g, phonePrefixes), g.rng.IntN(1_000_000))
}

func (g *Generator) letter() byte {
	return byte('A' + g.rng.IntN(26))
}

// Transporters returns n transporters with ids TR001, TR002, ...
func (g *Generator) Transporters(n int) []models.Transporter {
	out := make([]models.Transporter, 0, n)
	for i := 0; i < n; i++ {
		name := transporterNames[i%len(transporterNames)]
		vt := pick(g, models.VehicleTypes())
		region := pick(g, regions)
		district := pick(g, districts[region])

		status := models.TransporterActive
		switch {
		case g.rng.Float64() > 0.8:
			status = models.TransporterInactive
		case g.rng.Float64() > 0.9:
			status = models.TransporterSuspended
		}

		gender := "women"
		if g.rng.Float64() > 0.6 {
			gender = "men"
		}

		out = append(out, models.Transporter{
			ID:              fmt.Sprintf("TR%03d", i+1),
			Name:            name,
			Phone:           g.phone(),
			Email:           strings.ReplaceAll(strings.ToLower(name), " ", ".") + "@example.com",
			NationalID:      fmt.Sprintf("%010d", g.rng.Int64N(10_000_000_000)),
			Rating:          fmt.Sprintf("%.1f/5", float64(g.rng.IntN(10)+38)/10),
			AvatarURL:       fmt.Sprintf("https://randomuser.me/api/portraits/%s/%d.jpg", gender, i+1),
			VehicleType:     vt,
			VehicleNumber:   fmt.Sprintf("T %d %c%c", g.rng.IntN(1000), g.letter(), g.letter()),
			Capacity:        models.CapacityFor(vt),
			Status:          status,
			Address:         fmt.Sprintf("%d %s, %s", g.rng.IntN(1000), district, region),
			Region:          region,
			District:        district,
			CompletedOrders: g.rng.IntN(50) + 1,
			TotalEarnings:   g.rng.Int64N(5_000_000) + 500_000,
			CreatedAt:       g.now.AddDate(0, 0, -g.rng.IntN(500)),
			LicenseNumber:   fmt.Sprintf("%07d", g.rng.IntN(10_000_000)),
			TransportPermit: fmt.Sprintf("TP%06d", g.rng.IntN(1_000_000)),
		})
	}
	return out
}

// Orders returns n orders with ids ORD001, ORD002, ... Non-pending orders get
// a transporter snapshot drawn from refs when refs is not empty.
func (g *Generator) Orders(n int, refs []models.TransporterRef) []models.Order {
	statuses := models.AllOrderStatuses()
	out := make([]models.Order, 0, n)
	for i := 0; i < n; i++ {
		created := g.now.AddDate(0, 0, -g.rng.IntN(30))
		status := pick(g, statuses)

		statusAt := created.Add(time.Duration(g.rng.IntN(48)) * time.Hour)
		if statusAt.After(g.now) {
			statusAt = g.now
		}
		eta := statusAt.AddDate(0, 0, g.rng.IntN(5)+1)

		pickup := pick(g, locations)
		dest := pick(g, locations)
		for dest.Name == pickup.Name {
			dest = pick(g, locations)
		}

		o := models.Order{
			ID:                  models.OrderID(i + 1),
			TrackNumber:         models.TrackNumber(g.now, i+1),
			PhoneNumber:         g.phone(),
			Crop:                pick(g, crops),
			Quantity:            g.rng.IntN(100) + 1,
			PickupLocation:      pickup,
			DestinationLocation: dest,
			Status:              status,
			CreatedAt:           created,
			StatusUpdatedAt:     statusAt,
		}

		if status != models.StatusPending {
			if len(refs) > 0 {
				ref := pick(g, refs)
				o.Transporter = &ref
			}
			price := g.rng.Int64N(500_000) + 50_000
			o.Price = &price
		}
		if g.rng.Float64() > 0.7 {
			o.Notes = fragileNote
		}
		if status != models.StatusPending && status != models.StatusCancelled {
			o.EstimatedDelivery = &eta
		}

		switch status {
		case models.StatusDelivered:
			o.PaymentStatus = models.PaymentPartial
			if g.rng.Float64() > 0.3 {
				o.PaymentStatus = models.PaymentCompleted
			}
			amount := int64(float64(*o.Price) * (g.rng.Float64()*0.3 + 0.7))
			o.PaymentAmount = &amount
		case models.StatusCancelled:
		default:
			o.PaymentStatus = models.PaymentPending
		}

		out = append(out, o)
	}
	return out
}

// Populate fills empty stores with generated data. Stores that already hold
// records are left alone.
func Populate(ctx context.Context, g *Generator, orders store.OrderStore, transporters store.TransporterStore, nOrders, nTransporters int) error {
	existing, err := transporters.List(ctx)
	if err != nil {
		return fmt.Errorf("list transporters: %w", err)
	}
	if len(existing) == 0 {
		for _, t := range g.Transporters(nTransporters) {
			created, err := transporters.Create(ctx, t)
			if err != nil {
				return fmt.Errorf("seed transporter %s: %w", t.ID, err)
			}
			existing = append(existing, created)
		}
	}

	current, err := orders.List(ctx)
	if err != nil {
		return fmt.Errorf("list orders: %w", err)
	}
	if len(current) > 0 {
		return nil
	}
	refs := make([]models.TransporterRef, 0, len(existing))
	for _, t := range existing {
		refs = append(refs, t.Ref())
	}
	for _, o := range g.Orders(nOrders, refs) {
		if _, err := orders.Create(ctx, o); err != nil {
			return fmt.Errorf("seed order %s: %w", o.ID, err)
		}
	}
	return nil
}
