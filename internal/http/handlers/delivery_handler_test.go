// README: Tests for delivery handler auth and error mapping.
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"freteiro/internal/http/handlers"
	httpmiddleware "freteiro/internal/http/middleware"
	"freteiro/internal/infra"
	"freteiro/internal/modules/delivery"
	"freteiro/internal/types"
)

type stubTokenVerifier struct {
	token *infra.FirebaseToken
	err   error
}

func (s *stubTokenVerifier) VerifyIDToken(_ context.Context, _ string) (*infra.FirebaseToken, error) {
	return s.token, s.err
}

type stubDispatcher struct {
	byDriver map[types.ID][]*delivery.Delivery
}

func (s *stubDispatcher) VisibleDeliveries(_ context.Context, driverID types.ID) ([]*delivery.Delivery, error) {
	return s.byDriver[driverID], nil
}

func transporterVerifier(uid string) *stubTokenVerifier {
	return &stubTokenVerifier{token: &infra.FirebaseToken{
		UID:    uid,
		Claims: map[string]interface{}{"role": "transporter"},
	}}
}

func buildDeliveryRouter(api handlers.DeliveryAPI, disp handlers.Dispatcher, verifier infra.TokenVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := handlers.NewDeliveryHandler(api, disp)
	grp := r.Group("/api", httpmiddleware.Auth(verifier), httpmiddleware.RequireRole("transporter"))
	grp.GET("/deliveries", h.Queue)
	grp.POST("/deliveries/:id/accept", h.Accept)
	grp.POST("/deliveries/:id/status", h.UpdateStatus)
	return r
}

func doJSON(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestQueue_ReturnsDriverSpecificList(t *testing.T) {
	disp := &stubDispatcher{byDriver: map[types.ID][]*delivery.Delivery{
		"drv1": {{ID: "d1", Status: delivery.StatusAvailable}},
	}}
	r := buildDeliveryRouter(&fakeDeliveryAPI{}, disp, transporterVerifier("drv1"))

	w := doJSON(r, http.MethodGet, "/api/deliveries", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Deliveries []struct {
			ID string `json:"id"`
		} `json:"deliveries"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Deliveries) != 1 || resp.Deliveries[0].ID != "d1" {
		t.Errorf("unexpected queue: %+v", resp.Deliveries)
	}
}

func TestQueue_RequiresTransporterRole(t *testing.T) {
	verifier := &stubTokenVerifier{token: &infra.FirebaseToken{UID: "cust1", Claims: map[string]interface{}{}}}
	r := buildDeliveryRouter(&fakeDeliveryAPI{}, &stubDispatcher{}, verifier)

	w := doJSON(r, http.MethodGet, "/api/deliveries", nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestAccept_UsesCallerAsDriver(t *testing.T) {
	api := &fakeDeliveryAPI{status: delivery.StatusAvailable}
	r := buildDeliveryRouter(api, &stubDispatcher{}, transporterVerifier("drv1"))

	w := doJSON(r, http.MethodPost, "/api/deliveries/"+testDeliveryID+"/accept", map[string]any{"vehicle_id": "veh1"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	if api.driverID != "drv1" {
		t.Errorf("accept ran as %q, want the authenticated caller drv1", api.driverID)
	}
}

func TestAccept_MissingVehicleRejected(t *testing.T) {
	r := buildDeliveryRouter(&fakeDeliveryAPI{}, &stubDispatcher{}, transporterVerifier("drv1"))
	w := doJSON(r, http.MethodPost, "/api/deliveries/"+testDeliveryID+"/accept", map[string]any{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestUpdateStatus_CancelledRoutesToCancel(t *testing.T) {
	api := &fakeDeliveryAPI{status: delivery.StatusAccepted, driverID: "drv1"}
	r := buildDeliveryRouter(api, &stubDispatcher{}, transporterVerifier("drv1"))

	w := doJSON(r, http.MethodPost, "/api/deliveries/"+testDeliveryID+"/status", map[string]any{"status": "cancelled"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if api.status != delivery.StatusCancelled {
		t.Errorf("status is %s, want cancelled", api.status)
	}
}

func TestUpdateStatus_CancelOfAnotherDriversDeliveryForbidden(t *testing.T) {
	api := &fakeDeliveryAPI{status: delivery.StatusAccepted, driverID: "drv2"}
	r := buildDeliveryRouter(api, &stubDispatcher{}, transporterVerifier("drv1"))

	w := doJSON(r, http.MethodPost, "/api/deliveries/"+testDeliveryID+"/status", map[string]any{"status": "cancelled"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d (%s)", w.Code, w.Body.String())
	}
	if api.status != delivery.StatusAccepted {
		t.Errorf("delivery mutated to %s", api.status)
	}
}

func TestUpdateStatus_InvalidIDRejected(t *testing.T) {
	r := buildDeliveryRouter(&fakeDeliveryAPI{}, &stubDispatcher{}, transporterVerifier("drv1"))
	w := doJSON(r, http.MethodPost, "/api/deliveries/not%20valid!/status", map[string]any{"status": "accepted"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}
