package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"prop-sound/internal/protocol"
	"prop-sound/internal/sound"
	"prop-sound/internal/sound/soundtest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupTestRouter(t *testing.T) (*gin.Engine, *sound.Service, *soundtest.Spawner, *syncBuffer) {
	svc, sp, _ := newTestService(t)
	events := &syncBuffer{}
	api := NewAPI(svc, protocol.NewEmitter(events), zerolog.Nop())

	router := gin.New()
	router.POST("/sound/:id/play", api.Play)
	router.POST("/sound/:id/stop", api.Stop)
	router.GET("/sound/:id/status", api.Status)
	router.POST("/stop_all", api.StopAll)
	router.GET("/sounds", api.List)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router, svc, sp, events
}

func doRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req, _ = http.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	router, _, _, _ := setupTestRouter(t)

	w := doRequest(router, "GET", "/health", "")
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["status"] != "ok" {
		t.Errorf("expected status ok, got %s", resp["status"])
	}
}

func TestPlayEndpoint_ValidRequest(t *testing.T) {
	router, svc, _, _ := setupTestRouter(t)

	w := doRequest(router, "POST", "/sound/s1/play", `{"path": "/sounds/a.mp3", "message_id": "h1"}`)
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp protocol.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Status != "success" || resp.MessageID != "h1" || resp.SoundID != "s1" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if _, ok := svc.Status("s1"); !ok {
		t.Error("expected s1 to be playing")
	}
}

func TestPlayEndpoint_EventGoesToEmitter(t *testing.T) {
	router, _, sp, events := setupTestRouter(t)

	doRequest(router, "POST", "/sound/s1/play", `{"path": "/sounds/a.mp3"}`)
	sp.FinishAll()

	ev := events.waitLines(t, 1)[0]
	if ev["status"] != "finished" || ev["sound_id"] != "s1" {
		t.Errorf("unexpected event: %v", ev)
	}
	if id, _ := ev["messageId"].(string); !strings.HasPrefix(id, "legacy-") {
		t.Errorf("expected synthesized message id, got %v", ev["messageId"])
	}
}

func TestPlayEndpoint_MissingPath(t *testing.T) {
	router, _, _, _ := setupTestRouter(t)

	w := doRequest(router, "POST", "/sound/s1/play", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}

	var resp protocol.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Status != "error" {
		t.Errorf("expected status error, got %s", resp.Status)
	}
}

func TestPlayEndpoint_InvalidJSON(t *testing.T) {
	router, _, _, _ := setupTestRouter(t)

	w := doRequest(router, "POST", "/sound/s1/play", `{invalid json}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestPlayEndpoint_MissingFile(t *testing.T) {
	router, svc, _, _ := setupTestRouter(t)

	w := doRequest(router, "POST", "/sound/s1/play", `{"path": "/sounds/nope.mp3"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
	if svc.Registry().Len() != 0 {
		t.Error("registry must stay empty")
	}
}

func TestStopEndpoint(t *testing.T) {
	router, _, _, _ := setupTestRouter(t)

	doRequest(router, "POST", "/sound/s1/play", `{"path": "/sounds/a.mp3"}`)

	w := doRequest(router, "POST", "/sound/s1/stop", "")
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	var resp protocol.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Status != "stopped" {
		t.Errorf("expected stopped, got %s", resp.Status)
	}

	w = doRequest(router, "POST", "/sound/s1/stop", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404 for second stop, got %d", w.Code)
	}
}

func TestStatusEndpoint_NotFound(t *testing.T) {
	router, _, _, _ := setupTestRouter(t)

	w := doRequest(router, "GET", "/sound/ghost/status?message_id=q1", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}

	var resp protocol.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Status != "not_found" || resp.MessageID != "q1" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestListAndStopAllEndpoints(t *testing.T) {
	router, svc, _, _ := setupTestRouter(t)

	doRequest(router, "POST", "/sound/s1/play", `{"path": "/sounds/a.mp3"}`)
	doRequest(router, "POST", "/sound/s2/play", `{"path": "/sounds/b.mp3"}`)

	w := doRequest(router, "GET", "/sounds", "")
	var list ListResponse
	json.Unmarshal(w.Body.Bytes(), &list)
	if list.Count != 2 || list.Sounds[0].SoundID != "s1" || list.Sounds[1].Path != "/sounds/b.mp3" {
		t.Errorf("unexpected list: %+v", list)
	}

	w = doRequest(router, "POST", "/stop_all", "")
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if svc.Registry().Len() != 0 {
		t.Error("expected empty registry after stop_all")
	}
}

func TestSetupRouter_CORSPreflight(t *testing.T) {
	svc, _, _ := newTestService(t)
	router := SetupRouter(NewAPI(svc, protocol.NewEmitter(&syncBuffer{}), zerolog.Nop()))

	w := doRequest(router, "OPTIONS", "/sound/s1/play", "")
	if w.Code != http.StatusNoContent {
		t.Errorf("expected status 204, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
}
