// Package ussd implements the feature-phone menu farmers use to request
// transport and track their orders. Each gateway callback carries the whole
// input path so far ("1*2*40"), and every reply starts with CON when the
// session continues or END when it terminates.
package ussd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"safiri-mazao-api/events"
	"safiri-mazao-api/models"
	"safiri-mazao-api/store"
)

const (
	prefixContinue = "CON "
	prefixEnd      = "END "

	back       = "0"
	otherPlace = "11"
)

var crops = []string{"Mahindi", "Viazi", "Mpunga", "Zao Jingine"}

// Request is one gateway callback
type Request struct {
	SessionID   string
	ServiceCode string
	PhoneNumber string
	Text        string
}

// Menu answers gateway callbacks and files confirmed requests as pending orders
type Menu struct {
	orders    store.OrderStore
	emitter   *events.Emitter
	minQty    int
	maxQty    int
	locations []models.Location
}

func NewMenu(orders store.OrderStore, emitter *events.Emitter, minQty, maxQty int) *Menu {
	if minQty < 1 {
		minQty = 1
	}
	if maxQty < minQty {
		maxQty = minQty
	}
	if emitter == nil {
		emitter = events.NewEmitter(nil, "")
	}
	return &Menu{
		orders:    orders,
		emitter:   emitter,
		minQty:    minQty,
		maxQty:    maxQty,
		locations: models.ServiceLocations(),
	}
}

// path splits the raw input and applies "0" as a step back, so "1*0*2"
// resolves to the same screen as "2". A leading 0 is kept: it means exit.
func path(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var out []string
	for _, seg := range strings.Split(text, "*") {
		seg = strings.TrimSpace(seg)
		if seg == back && len(out) > 0 {
			out = out[:len(out)-1]
			continue
		}
		out = append(out, seg)
	}
	return out
}

// Respond renders the screen for the input path in req
func (m *Menu) Respond(ctx context.Context, req Request) string {
	steps := path(req.Text)
	if len(steps) == 0 {
		return mainMenu()
	}
	switch steps[0] {
	case "1":
		return m.requestTransport(ctx, req.PhoneNumber, steps[1:])
	case "2":
		return m.track(ctx, steps[1:])
	case "3":
		return contact()
	case back:
		return goodbye()
	}
	return invalidChoice()
}

func (m *Menu) requestTransport(ctx context.Context, phone string, steps []string) string {
	if len(steps) == 0 {
		return cropMenu()
	}
	cropIdx, err := choice(steps[0], len(crops))
	if err != nil {
		return invalidChoice()
	}
	crop := crops[cropIdx]
	if len(steps) == 1 {
		return m.quantityPrompt(crop, false)
	}

	qty, err := strconv.Atoi(steps[1])
	if err != nil || qty < m.minQty || qty > m.maxQty {
		return m.quantityPrompt(crop, true)
	}
	if len(steps) == 2 {
		return m.locationMenu("CHAGUA MAHALI PA KUCHUKUA MIZIGO:", "")
	}

	if steps[2] == otherPlace {
		return notServed()
	}
	pickupIdx, err := choice(steps[2], len(m.locations))
	if err != nil {
		return invalidChoice()
	}
	pickup := m.locations[pickupIdx]
	if len(steps) == 3 {
		return m.locationMenu("CHAGUA MAHALI MZIGO UNAPOENDA:", pickup.Name)
	}

	if steps[3] == otherPlace {
		return notServed()
	}
	destIdx, err := choice(steps[3], len(m.locations))
	if err != nil {
		return invalidChoice()
	}
	if destIdx == pickupIdx {
		return samePlace()
	}
	if len(steps) > 4 {
		return invalidChoice()
	}

	order, err := m.orders.Create(ctx, models.Order{
		PhoneNumber:         phone,
		Crop:                crop,
		Quantity:            qty,
		PickupLocation:      pickup,
		DestinationLocation: m.locations[destIdx],
		Status:              models.StatusPending,
	})
	if err != nil {
		log.Printf("ussd: create order for %s: %v", phone, err)
		return systemError()
	}
	m.emitter.Emit(ctx, events.OrderCreated, order.ID, order)
	return confirmation(order)
}

func (m *Menu) track(ctx context.Context, steps []string) string {
	if len(steps) == 0 {
		return prefixContinue + "FUATILIA OMBI LAKO\n\n" +
			"Weka namba ya ufuatiliaji:\n" +
			"(Mfano: TRK240315001)\n\n" +
			"0. Rudi Nyuma"
	}
	code := strings.ToUpper(steps[0])
	if !strings.HasPrefix(code, "TRK") || len(code) < 9 {
		return prefixContinue + "NAMBA SI SAHIHI\n\n" +
			"Namba ya ufuatiliaji si sahihi.\n" +
			"Tafadhali weka namba sahihi\n" +
			"(Mfano: TRK240315001)\n\n" +
			"0. Rudi Nyuma"
	}
	order, err := m.orders.GetByTrackNumber(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return prefixEnd + "NAMBA HAIJAPATIKANA\n\n" +
			"Namba ya ufuatiliaji haipo kwenye mfumo wetu.\n" +
			"Tafadhali hakikisha umeweka namba sahihi.\n\n" +
			"Asante!"
	}
	if err != nil {
		log.Printf("ussd: track %s: %v", code, err)
		return systemError()
	}

	var b strings.Builder
	b.WriteString(prefixEnd + "HALI YA OMBI: " + order.TrackNumber + "\n\n")
	fmt.Fprintf(&b, "Zao: %s\n", order.Crop)
	fmt.Fprintf(&b, "Kiasi: %d Magunia\n", order.Quantity)
	fmt.Fprintf(&b, "Kutoka: %s\n", order.PickupLocation.Name)
	fmt.Fprintf(&b, "Kwenda: %s\n", order.DestinationLocation.Name)
	fmt.Fprintf(&b, "Hali: %s\n\n", statusText(order.Status))
	if t := order.Transporter; t != nil {
		b.WriteString("MAELEZO YA MSAFIRISHAJI:\n")
		fmt.Fprintf(&b, "Msafirishaji: %s\n", t.Name)
		fmt.Fprintf(&b, "Mawasiliano: %s\n\n", t.Phone)
		b.WriteString("Kwa maelezo zaidi wasiliana na Msafirishaji.")
	} else {
		b.WriteString("Msafirishaji bado hajapangwa.")
	}
	return b.String()
}

// choice parses a 1-based menu selection into an index below n
func choice(s string, n int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil || i < 1 || i > n {
		return 0, fmt.Errorf("choice %q out of range", s)
	}
	return i - 1, nil
}

func statusText(s models.OrderStatus) string {
	switch s {
	case models.StatusPending:
		return "Ombi limepokelewa na Msafirishaji atawasiliana na wewe hivi karibuni"
	case models.StatusAccepted:
		return "Ombi limepokewa na linatarajiwa kuanza safari"
	case models.StatusInProgress:
		return "Msafiri amepokea ombi na ameshaanza safari"
	case models.StatusInTransit:
		return "Mizigo iko njiani"
	case models.StatusDelivered:
		return "Mizigo imefika mahali pa utoaji"
	case models.StatusCancelled:
		return "Ombi limesitishwa"
	}
	return string(s)
}

func mainMenu() string {
	return prefixContinue + "Karibu Huduma ya Usafirishaji wa Mazao\n" +
		"1. Omba Usafiri\n" +
		"2. Fuatilia Ombi\n" +
		"3. Mawasiliano\n" +
		"0. Toka"
}

func cropMenu() string {
	var b strings.Builder
	b.WriteString(prefixContinue + "CHAGUA ZAO UNALOTAKA KUSAFIRISHA:\n\n")
	for i, c := range crops {
		fmt.Fprintf(&b, "%d. %s\n", i+1, c)
	}
	b.WriteString("\n0. Rudi Nyuma")
	return b.String()
}

func (m *Menu) quantityPrompt(crop string, invalid bool) string {
	var b strings.Builder
	b.WriteString(prefixContinue)
	if invalid {
		b.WriteString("KIASI SI SAHIHI!\n\n")
	}
	fmt.Fprintf(&b, "WEKA KIASI CHA %s:\n\n", strings.ToUpper(crop))
	b.WriteString("Andika idadi ya magunia\n")
	fmt.Fprintf(&b, "(Kiwango: %d-%d magunia)\n\n", m.minQty, m.maxQty)
	b.WriteString("0. Rudi Nyuma")
	return b.String()
}

func (m *Menu) locationMenu(title, from string) string {
	var b strings.Builder
	b.WriteString(prefixContinue + title + "\n")
	if from != "" {
		fmt.Fprintf(&b, "(Kutoka: %s)\n", from)
	}
	b.WriteString("\n")
	for i, l := range m.locations {
		fmt.Fprintf(&b, "%d. %s\n", i+1, l.Name)
	}
	b.WriteString(otherPlace + ". Sehemu nyingine\n")
	b.WriteString("0. Rudi Nyuma")
	return b.String()
}

func confirmation(o models.Order) string {
	var b strings.Builder
	b.WriteString(prefixEnd + "UTHIBITISHO - OMBI LIMEPOKELEWA!\n\n")
	fmt.Fprintf(&b, "Zao: %s\n", o.Crop)
	fmt.Fprintf(&b, "Kiasi: %d Magunia\n", o.Quantity)
	fmt.Fprintf(&b, "Kutoka: %s\n", o.PickupLocation.Name)
	fmt.Fprintf(&b, "Kwenda: %s\n", o.DestinationLocation.Name)
	fmt.Fprintf(&b, "Namba ya Ufuatiliaji: %s\n\n", o.TrackNumber)
	b.WriteString("Msafirishaji atawasiliana nawe kwa maeleezo ya bei na muda.\n")
	b.WriteString("Utapokea ujumbe wa uthibitisho.\n")
	b.WriteString("Asante kwa kutumia huduma yetu!")
	return b.String()
}

func notServed() string {
	return prefixEnd + "HUDUMA BADO Haijafika huko\n\n" +
		"Huduma hii bado haijapatikana kwa sehemu nyingine.\n" +
		"Tafadhali chagua kutoka kwenye maeneo yaliyoorodheshwa.\n\n" +
		"Asante kwa kutumia huduma yetu!"
}

func samePlace() string {
	return prefixEnd + "MAKOSA - MAHALI NI SAWA\n\n" +
		"Mahali pa kuchukua na pa uwasilishaji haviwezi kuwa sawa.\n" +
		"Tafadhali chagua maeneo tofauti.\n\n" +
		"Asante kwa kutumia huduma yetu!"
}

func contact() string {
	return prefixEnd + "MAWASILIANO YETU\n\n" +
		"Ofisi Kuu - Mbeya:\n" +
		"Simu: +255 25 250 1234\n" +
		"WhatsApp: +255 754 123 456\n" +
		"Barua pepe: info@safirimazao.co.tz\n\n" +
		"Masaa ya kazi:\n" +
		"Jumatatu - Jumamosi: 7:00 - 18:00\n" +
		"Jumapili: 8:00 - 14:00\n\n" +
		"Asante kwa kutumia huduma yetu."
}

func goodbye() string {
	return prefixEnd + "ASANTE KWA KUTUMIA HUDUMA YETU\n\n" +
		"Huduma ya usafirishaji mazao kwa watu wote.\n" +
		"Karibu tena!\n\n" +
		"Kwa huduma zaidi piga: +255 25 250 1234"
}

func invalidChoice() string {
	return prefixContinue + "CHAGUO HALIPO\n\n" +
		"Chaguo ulilochagua halipo.\n" +
		"Tafadhali jaribu tena na uchague chaguo sahihi.\n\n" +
		"0. Rudi Nyuma"
}

func systemError() string {
	return prefixEnd + "Samahani, kuna tatizo la kimfumo. Tafadhali jaribu baadae."
}
