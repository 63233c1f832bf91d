package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"safiri-mazao-api/events"
	"safiri-mazao-api/handlers"
	"safiri-mazao-api/middleware"
	"safiri-mazao-api/models"
	"safiri-mazao-api/seed"
	"safiri-mazao-api/statemachine"
	"safiri-mazao-api/store"
	"safiri-mazao-api/ussd"

	"github.com/gin-gonic/gin"
)

var testSecret = []byte("routes-test-secret")

// recorder is an in-memory Publisher
type recorder struct {
	mu   sync.Mutex
	envs []events.Envelope
}

func (r *recorder) Publish(_ context.Context, env events.Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.envs = append(r.envs, env)
	return nil
}

func (r *recorder) Close() error { return nil }

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.envs))
	for i, e := range r.envs {
		out[i] = e.EventType
	}
	return out
}

type testApp struct {
	engine    *gin.Engine
	orders    store.OrderStore
	published *recorder
	token     string
}

var authOnce sync.Once
var sharedAuth *handlers.AuthHandler

// bcrypt is slow on purpose; hash the password once for the whole package
func authHandler(t *testing.T) *handlers.AuthHandler {
	t.Helper()
	authOnce.Do(func() {
		h, err := handlers.NewAuthHandler("admin@example.com", "password", testSecret, time.Hour)
		if err != nil {
			t.Fatalf("auth handler: %v", err)
		}
		sharedAuth = h
	})
	return sharedAuth
}

func newTestApp(t *testing.T, policy statemachine.Policy) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	orders := store.NewMemoryOrderStore(nil)
	transporters := store.NewMemoryTransporterStore(nil)
	if err := seed.Populate(context.Background(), seed.New(1, time.Now()), orders, transporters, 10, 5); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rec := &recorder{}
	emitter := events.NewEmitter(rec, "test")
	machine := statemachine.New(policy)

	r := gin.New()
	SetupRoutes(r, Deps{
		JWTSecret:    testSecret,
		LoginLimiter: middleware.NewRateLimiter(100),
		Meta:         handlers.NewMetaHandler("test", machine, "http://localhost:8080/api"),
		Auth:         authHandler(t),
		Orders:       handlers.NewOrderHandler(orders, machine, emitter),
		Transporters: handlers.NewTransporterHandler(transporters, emitter),
		Reports:      handlers.NewReportHandler(orders, transporters),
		Cargo:        handlers.NewCargoHandler(store.NewMemoryCargoStore(), emitter),
		USSD:         handlers.NewUSSDHandler(ussd.NewMenu(orders, emitter, 1, 1000)),
	})

	token, err := middleware.GenerateToken(models.AdminUser{ID: "admin-1", Email: "admin@example.com", Role: models.RoleAdmin}, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return &testApp{engine: r, orders: orders, published: rec, token: token}
}

func (a *testApp) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func expectCode(t *testing.T, w *httptest.ResponseRecorder, code int) {
	t.Helper()
	if w.Code != code {
		t.Fatalf("expected %d, got %d: %s", code, w.Code, w.Body.String())
	}
}

func TestLogin(t *testing.T) {
	app := newTestApp(t, statemachine.Permissive)
	app.token = ""

	w := app.do(http.MethodPost, "/api/auth/login", gin.H{"email": "admin@example.com", "password": "wrong"})
	expectCode(t, w, http.StatusUnauthorized)

	w = app.do(http.MethodPost, "/api/auth/login", gin.H{"email": "not-an-email", "password": "x"})
	expectCode(t, w, http.StatusBadRequest)

	w = app.do(http.MethodPost, "/api/auth/login", gin.H{"email": "Admin@Example.com", "password": "password"})
	expectCode(t, w, http.StatusOK)
	var resp struct {
		Token string           `json:"token"`
		User  models.AdminUser `json:"user"`
	}
	decode(t, w, &resp)
	if resp.Token == "" || resp.User.ID != "admin-1" || resp.User.Role != models.RoleAdmin {
		t.Fatalf("unexpected login response %+v", resp)
	}

	app.token = resp.Token
	expectCode(t, app.do(http.MethodGet, "/api/profile", nil), http.StatusOK)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	app := newTestApp(t, statemachine.Permissive)
	app.token = ""
	for _, path := range []string{"/api/orders", "/api/transporters", "/api/dashboard", "/api/reports/orders-summary"} {
		expectCode(t, app.do(http.MethodGet, path, nil), http.StatusUnauthorized)
	}
	expectCode(t, app.do(http.MethodGet, "/api/state-machine", nil), http.StatusOK)
	expectCode(t, app.do(http.MethodGet, "/health", nil), http.StatusOK)
}

func TestListOrdersFilters(t *testing.T) {
	app := newTestApp(t, statemachine.Permissive)

	var all struct {
		Count  int            `json:"count"`
		Orders []models.Order `json:"orders"`
	}
	w := app.do(http.MethodGet, "/api/orders", nil)
	expectCode(t, w, http.StatusOK)
	decode(t, w, &all)
	if all.Count != 10 || len(all.Orders) != 10 {
		t.Fatalf("expected 10 seeded orders, got %d", all.Count)
	}

	var pending struct {
		Orders []models.Order `json:"orders"`
	}
	w = app.do(http.MethodGet, "/api/orders?status=pending", nil)
	decode(t, w, &pending)
	for _, o := range pending.Orders {
		if o.Status != models.StatusPending {
			t.Fatalf("status filter leaked %s", o.Status)
		}
	}

	code := all.Orders[3].TrackNumber
	var searched struct {
		Orders []models.Order `json:"orders"`
	}
	w = app.do(http.MethodGet, "/api/orders?search="+url.QueryEscape(strings.ToLower(code)), nil)
	decode(t, w, &searched)
	if len(searched.Orders) != 1 || searched.Orders[0].TrackNumber != code {
		t.Fatalf("search by track number failed: %+v", searched.Orders)
	}
}

func TestOrderLookups(t *testing.T) {
	app := newTestApp(t, statemachine.Permissive)
	w := app.do(http.MethodGet, "/api/orders/ORD001", nil)
	expectCode(t, w, http.StatusOK)
	var got struct {
		Order models.Order `json:"order"`
	}
	decode(t, w, &got)

	expectCode(t, app.do(http.MethodGet, "/api/orders/track/"+got.Order.TrackNumber, nil), http.StatusOK)
	expectCode(t, app.do(http.MethodGet, "/api/orders/track/TRK000000999", nil), http.StatusNotFound)
	expectCode(t, app.do(http.MethodGet, "/api/orders/ORD999", nil), http.StatusNotFound)
}

func TestUpdateOrderStatusPermissive(t *testing.T) {
	app := newTestApp(t, statemachine.Permissive)

	w := app.do(http.MethodPatch, "/api/orders/ORD001/status", gin.H{"status": "delivered"})
	expectCode(t, w, http.StatusOK)
	w = app.do(http.MethodPatch, "/api/orders/ORD001/status", gin.H{"status": "pending"})
	expectCode(t, w, http.StatusOK)
	var resp struct {
		Previous models.OrderStatus `json:"previous_status"`
		Order    models.Order       `json:"order"`
	}
	decode(t, w, &resp)
	if resp.Previous != models.StatusDelivered || resp.Order.Status != models.StatusPending {
		t.Fatalf("unexpected response %+v", resp)
	}

	w = app.do(http.MethodPatch, "/api/orders/ORD001/status", gin.H{"status": "lost"})
	expectCode(t, w, http.StatusBadRequest)
	var verr struct {
		Fields map[string]string `json:"fields"`
	}
	decode(t, w, &verr)
	if _, ok := verr.Fields["status"]; !ok {
		t.Fatalf("expected field error for status, got %+v", verr)
	}

	expectCode(t, app.do(http.MethodPatch, "/api/orders/ORD999/status", gin.H{"status": "accepted"}), http.StatusNotFound)

	types := app.published.types()
	if len(types) != 2 || types[0] != events.OrderStatusChanged {
		t.Fatalf("expected two status events, got %v", types)
	}
}

func TestUpdateOrderStatusStrict(t *testing.T) {
	app := newTestApp(t, statemachine.Strict)
	ctx := context.Background()
	created, err := app.orders.Create(ctx, models.Order{
		PhoneNumber:         "0754123456",
		Crop:                "Viazi",
		Quantity:            3,
		PickupLocation:      models.Location{Name: "Uyole"},
		DestinationLocation: models.Location{Name: "Kyela"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	path := "/api/orders/" + created.ID + "/status"

	w := app.do(http.MethodPatch, path, gin.H{"status": "delivered"})
	expectCode(t, w, http.StatusUnprocessableEntity)
	var rej struct {
		Current models.OrderStatus   `json:"current_status"`
		Next    []models.OrderStatus `json:"valid_next_states"`
	}
	decode(t, w, &rej)
	if rej.Current != models.StatusPending || len(rej.Next) != 2 {
		t.Fatalf("unexpected rejection body %+v", rej)
	}
	got, _ := app.orders.GetByID(ctx, created.ID)
	if got.Status != models.StatusPending {
		t.Fatalf("rejected transition was applied")
	}

	expectCode(t, app.do(http.MethodPatch, path, gin.H{"status": "accepted"}), http.StatusOK)
	expectCode(t, app.do(http.MethodPatch, path, gin.H{"status": "cancelled"}), http.StatusOK)
	expectCode(t, app.do(http.MethodPatch, path, gin.H{"status": "accepted"}), http.StatusUnprocessableEntity)
}

func TestCreateOrder(t *testing.T) {
	app := newTestApp(t, statemachine.Permissive)
	body := gin.H{
		"phoneNumber":         "0754123456",
		"crop":                "Mahindi",
		"quantity":            12,
		"pickupLocation":      gin.H{"name": "Uyole"},
		"destinationLocation": gin.H{"name": "Tunduma"},
	}
	w := app.do(http.MethodPost, "/api/orders", body)
	expectCode(t, w, http.StatusCreated)
	var resp struct {
		Order models.Order `json:"order"`
	}
	decode(t, w, &resp)
	if resp.Order.Status != models.StatusPending || resp.Order.Transporter != nil || resp.Order.ID != "ORD011" {
		t.Fatalf("unexpected order %+v", resp.Order)
	}

	body["destinationLocation"] = gin.H{"name": "Uyole"}
	expectCode(t, app.do(http.MethodPost, "/api/orders", body), http.StatusBadRequest)

	w = app.do(http.MethodPost, "/api/orders", gin.H{"phoneNumber": "12345", "quantity": 0})
	expectCode(t, w, http.StatusBadRequest)
	var verr struct {
		Fields map[string]string `json:"fields"`
	}
	decode(t, w, &verr)
	for _, f := range []string{"phoneNumber", "crop", "quantity", "pickupLocation.name", "destinationLocation.name"} {
		if _, ok := verr.Fields[f]; !ok {
			t.Errorf("missing field error %q in %+v", f, verr.Fields)
		}
	}
}

func TestTransporterCRUD(t *testing.T) {
	app := newTestApp(t, statemachine.Permissive)

	w := app.do(http.MethodPost, "/api/transporters", gin.H{
		"name":          "Neema Shayo",
		"phone":         "0766123456",
		"email":         "neema@example.com",
		"nationalId":    "1990123456",
		"vehicleType":   "Lorry (7 Tons)",
		"vehicleNumber": "T 512 DK",
		"region":        "Mbeya",
		"district":      "Kyela",
	})
	expectCode(t, w, http.StatusCreated)
	var created struct {
		Transporter models.Transporter `json:"transporter"`
	}
	decode(t, w, &created)
	tr := created.Transporter
	if !strings.HasPrefix(tr.ID, "TR") || tr.Status != models.TransporterActive || tr.Rating != "0/5" || tr.Capacity != 7000 {
		t.Fatalf("defaults not applied: %+v", tr)
	}

	w = app.do(http.MethodPatch, "/api/transporters/"+tr.ID, gin.H{"status": "suspended", "vehicleType": "Pickup"})
	expectCode(t, w, http.StatusOK)
	var updated struct {
		Transporter models.Transporter `json:"transporter"`
	}
	decode(t, w, &updated)
	if updated.Transporter.Status != models.TransporterSuspended || updated.Transporter.Capacity != 800 || updated.Transporter.Name != "Neema Shayo" {
		t.Fatalf("bad patch result %+v", updated.Transporter)
	}

	expectCode(t, app.do(http.MethodPatch, "/api/transporters/"+tr.ID, gin.H{"phone": "123"}), http.StatusBadRequest)
	expectCode(t, app.do(http.MethodPatch, "/api/transporters/TR404", gin.H{"name": "x"}), http.StatusNotFound)

	var list struct {
		Transporters []models.Transporter `json:"transporters"`
	}
	decode(t, app.do(http.MethodGet, "/api/transporters?search=neema&status=suspended", nil), &list)
	if len(list.Transporters) != 1 || list.Transporters[0].ID != tr.ID {
		t.Fatalf("filter failed: %+v", list.Transporters)
	}

	expectCode(t, app.do(http.MethodDelete, "/api/transporters/"+tr.ID, nil), http.StatusOK)
	expectCode(t, app.do(http.MethodGet, "/api/transporters/"+tr.ID, nil), http.StatusNotFound)
	expectCode(t, app.do(http.MethodDelete, "/api/transporters/"+tr.ID, nil), http.StatusNotFound)

	want := []string{events.TransporterCreated, events.TransporterUpdated, events.TransporterRemoved}
	if got := app.published.types(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("expected events %v, got %v", want, got)
	}
}

func TestCreateTransporterValidation(t *testing.T) {
	app := newTestApp(t, statemachine.Permissive)
	w := app.do(http.MethodPost, "/api/transporters", gin.H{
		"phone":       "754123456",
		"email":       "nope",
		"vehicleType": "Bicycle",
	})
	expectCode(t, w, http.StatusBadRequest)
	var verr struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	decode(t, w, &verr)
	for _, f := range []string{"name", "phone", "email", "nationalId", "vehicleType", "vehicleNumber", "region", "district"} {
		if _, ok := verr.Fields[f]; !ok {
			t.Errorf("missing field error %q in %+v", f, verr.Fields)
		}
	}
}

func TestCargoEndpoints(t *testing.T) {
	app := newTestApp(t, statemachine.Permissive)
	app.token = ""
	req := gin.H{"id": "CR-1", "sender": "Mbozi Coop", "destination": "Dar es Salaam", "cargoType": "Kahawa"}

	w := app.do(http.MethodPost, "/cargo-request", req)
	expectCode(t, w, http.StatusCreated)
	var created models.CargoRequest
	decode(t, w, &created)
	if created.Status != "Pending" {
		t.Fatalf("expected Pending, got %q", created.Status)
	}
	expectCode(t, app.do(http.MethodPost, "/cargo-request", req), http.StatusConflict)

	expectCode(t, app.do(http.MethodPost, "/callback", gin.H{
		"cargoRequestId": "CR-1", "statusUpdate": "Delivered", "timestamp": "2025-03-15T10:00:00Z",
	}), http.StatusOK)
	expectCode(t, app.do(http.MethodPost, "/callback", gin.H{
		"cargoRequestId": "CR-404", "statusUpdate": "Delivered", "timestamp": "2025-03-15T11:00:00Z",
	}), http.StatusNotFound)

	w = app.do(http.MethodPost, "/callback", gin.H{"cargoRequestId": "CR-1", "statusUpdate": "Lost"})
	expectCode(t, w, http.StatusBadRequest)
	var verr struct {
		Fields map[string]string `json:"fields"`
	}
	decode(t, w, &verr)
	if _, ok := verr.Fields["timestamp"]; !ok {
		t.Fatalf("expected timestamp field error, got %+v", verr.Fields)
	}

	var got models.CargoRequest
	decode(t, app.do(http.MethodGet, "/cargo-request/CR-1", nil), &got)
	if got.Status != "Delivered" || got.UpdatedAt != "2025-03-15T10:00:00Z" {
		t.Fatalf("callback not applied: %+v", got)
	}
	expectCode(t, app.do(http.MethodGet, "/cargo-request/CR-404", nil), http.StatusNotFound)
}

func TestReports(t *testing.T) {
	app := newTestApp(t, statemachine.Permissive)

	var summary struct {
		Total    int `json:"total_orders"`
		ByStatus []struct {
			Status string `json:"status"`
			Count  int    `json:"count"`
		} `json:"orders_by_status"`
	}
	decode(t, app.do(http.MethodGet, "/api/reports/orders-summary", nil), &summary)
	sum := 0
	for _, s := range summary.ByStatus {
		sum += s.Count
	}
	if summary.Total != 10 || sum != 10 || len(summary.ByStatus) != 6 {
		t.Fatalf("bad summary %+v", summary)
	}

	var series []struct {
		Date  string `json:"order_date"`
		Count int    `json:"count"`
	}
	decode(t, app.do(http.MethodGet, "/api/reports/orders-over-time", nil), &series)
	total := 0
	for i, d := range series {
		total += d.Count
		if i > 0 && series[i-1].Date >= d.Date {
			t.Fatalf("series not ascending: %+v", series)
		}
	}
	if total != 10 {
		t.Fatalf("series counts %d orders", total)
	}

	var dash struct {
		Total        int                  `json:"total_orders"`
		Recent       []models.Order       `json:"recent_orders"`
		Transporters []models.Transporter `json:"top_transporters"`
	}
	decode(t, app.do(http.MethodGet, "/api/dashboard", nil), &dash)
	if dash.Total != 10 || len(dash.Recent) != 5 || len(dash.Transporters) != 5 {
		t.Fatalf("bad dashboard %+v", dash)
	}
}

func TestUSSDCallback(t *testing.T) {
	app := newTestApp(t, statemachine.Permissive)
	form := url.Values{"sessionId": {"s1"}, "phoneNumber": {"0754123456"}, "text": {"1*3*25*1*10"}}
	req := httptest.NewRequest(http.MethodPost, "/ussd", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	app.engine.ServeHTTP(w, req)

	expectCode(t, w, http.StatusOK)
	if !strings.HasPrefix(w.Body.String(), "END UTHIBITISHO") {
		t.Fatalf("unexpected USSD reply %q", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("unexpected content type %q", ct)
	}
	list, _ := app.orders.List(context.Background())
	last := list[len(list)-1]
	if last.Crop != "Mpunga" || last.Quantity != 25 || last.Status != models.StatusPending {
		t.Fatalf("unexpected USSD order %+v", last)
	}

	w = httptest.NewRecorder()
	app.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ussd?text=", nil))
	if !strings.HasPrefix(w.Body.String(), "CON ") {
		t.Fatalf("expected main menu, got %q", w.Body.String())
	}
}

func TestStateMachineInfo(t *testing.T) {
	app := newTestApp(t, statemachine.Strict)
	var info struct {
		Policy   string                    `json:"policy"`
		Machine  []statemachine.Transition `json:"state_machine"`
		Terminal []string                  `json:"terminal_states"`
	}
	decode(t, app.do(http.MethodGet, "/api/state-machine", nil), &info)
	if info.Policy != "strict" || len(info.Machine) != 8 || len(info.Terminal) != 2 {
		t.Fatalf("unexpected state machine info %+v", info)
	}
}
