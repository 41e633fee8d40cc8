package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/pipeline"
)

func newTestPipeline(t *testing.T) *pipeline.Pipeline {
	t.Helper()

	cam := capture.NewMockCamera(nil, false)
	p := pipeline.New(pipeline.Config{}, cam, func() (detector.Detector, error) {
		return detector.NewMockDetector(), nil
	})
	t.Cleanup(p.Stop)
	return p
}

func TestHealthEndpoint(t *testing.T) {
	srv := New(Config{Pipeline: newTestPipeline(t)})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "ok", body["status"])
	require.Contains(t, body, "pipeline")
}

func TestHealthEndpoint_MethodNotAllowed(t *testing.T) {
	srv := New(Config{})

	req := httptest.NewRequest(http.MethodPost, "/api/health", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestControlHandler_SendsCurrentStateOnConnect(t *testing.T) {
	state := control.ControlState{
		HandDetected: true,
		Gesture:      control.GestureOpen,
		Yaw:          0.4,
		Openness:     0.9,
		TimestampMs:  1234,
	}
	h := NewControlHandler(func() control.ControlState { return state })

	ts := httptest.NewServer(h)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var got control.ControlState
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&got))
	require.Equal(t, state, got)
}

func TestControlHandler_PublishReachesClients(t *testing.T) {
	h := NewControlHandler(func() control.ControlState {
		return control.ControlState{Gesture: control.GestureNeutral, Openness: control.NeutralOpenness}
	})

	ts := httptest.NewServer(h)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Drain the on-connect state.
	var got control.ControlState
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&got))

	published := control.ControlState{
		HandDetected: true,
		Gesture:      control.GesturePointing,
		Pitch:        -0.5,
		TimestampMs:  42,
	}
	// The client registers after its first state is queued, so publishing
	// may race the registration; retry until the state arrives.
	require.Eventually(t, func() bool {
		h.Publish(published)
		conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		return conn.ReadJSON(&got) == nil && got == published
	}, 2*time.Second, 50*time.Millisecond)
}

func TestControlHandler_PublishWithoutClients(t *testing.T) {
	h := NewControlHandler(nil)
	// Must not block or panic with no clients connected.
	h.Publish(control.ControlState{Gesture: control.GestureNeutral})
}
