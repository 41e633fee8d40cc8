package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/store"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func seedProfile(t *testing.T, s *store.Store, name string) *store.TuningProfile {
	t.Helper()

	p := &store.TuningProfile{
		ID:       uuid.New().String(),
		Name:     name,
		Tunables: control.DefaultTunables(),
	}
	if err := s.Profiles().Create(p); err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}
	return p
}

func TestProfileHandler_List(t *testing.T) {
	s := newTestStore(t)
	handler := NewProfileHandler(s, nil)
	seedProfile(t, s, "desk setup")

	req := httptest.NewRequest(http.MethodGet, "/api/profiles", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var response listProfilesResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Profiles) != 1 {
		t.Fatalf("expected 1 profile, got %d", len(response.Profiles))
	}
	if response.Profiles[0].Name != "desk setup" {
		t.Errorf("expected profile name 'desk setup', got %q", response.Profiles[0].Name)
	}
}

func TestProfileHandler_Create(t *testing.T) {
	s := newTestStore(t)
	handler := NewProfileHandler(s, nil)

	reqBody := profileRequest{
		Name:     "low light",
		Tunables: control.DefaultTunables(),
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/profiles", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	var response profileResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.ID == "" {
		t.Error("expected a generated profile ID")
	}
	if response.Name != "low light" {
		t.Errorf("expected profile name 'low light', got %q", response.Name)
	}

	// The profile must actually be in the store.
	if _, err := s.Profiles().GetByID(response.ID); err != nil {
		t.Errorf("created profile not found in store: %v", err)
	}
}

func TestProfileHandler_Create_MissingName(t *testing.T) {
	s := newTestStore(t)
	handler := NewProfileHandler(s, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/profiles", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestProfileHandler_Get_NotFound(t *testing.T) {
	s := newTestStore(t)
	handler := NewProfileHandler(s, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/profiles/missing", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestProfileHandler_Activate(t *testing.T) {
	s := newTestStore(t)

	var applied *control.Tunables
	handler := NewProfileHandler(s, func(tun control.Tunables) {
		applied = &tun
	})

	p := seedProfile(t, s, "strict")
	p.Tunables.OpenThreshold = 0.9
	if err := s.Profiles().Update(p); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/profiles/"+p.ID+"/activate", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var response profileResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !response.Active {
		t.Error("activated profile should be marked active")
	}

	if applied == nil {
		t.Fatal("activation callback was not invoked")
	}
	if applied.OpenThreshold != 0.9 {
		t.Errorf("callback tunables OpenThreshold = %v, want 0.9", applied.OpenThreshold)
	}
}

func TestProfileHandler_Activate_NotFound(t *testing.T) {
	s := newTestStore(t)
	handler := NewProfileHandler(s, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/profiles/missing/activate", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestProfileHandler_UpdateAndDelete(t *testing.T) {
	s := newTestStore(t)
	handler := NewProfileHandler(s, nil)
	p := seedProfile(t, s, "before")

	reqBody := profileRequest{Name: "after", Tunables: control.DefaultTunables()}
	body, _ := json.Marshal(reqBody)

	req := httptest.NewRequest(http.MethodPut, "/api/profiles/"+p.ID, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	got, err := s.Profiles().GetByID(p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "after" {
		t.Errorf("expected updated name 'after', got %q", got.Name)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/profiles/"+p.ID, nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("delete: expected status %d, got %d", http.StatusNoContent, rec.Code)
	}
	if _, err := s.Profiles().GetByID(p.ID); err == nil {
		t.Error("profile should be gone after delete")
	}
}

func TestProfileHandler_MethodNotAllowed(t *testing.T) {
	s := newTestStore(t)
	handler := NewProfileHandler(s, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/profiles", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}
