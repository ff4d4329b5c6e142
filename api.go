package distroav

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	. "github.com/MartinSandstromRimsbo/DistroAV/pkg"
	"github.com/MartinSandstromRimsbo/DistroAV/pkg/task"
	"github.com/MartinSandstromRimsbo/DistroAV/pkg/util"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

func (h *Host) registerRoutes() {
	h.handle("/api/summary", http.HandlerFunc(h.apiSummary))
	h.handle("/api/plugins", http.HandlerFunc(h.apiPlugins))
	h.handle("/api/capabilities", http.HandlerFunc(h.apiCapabilities))
	h.handle("/api/config", http.HandlerFunc(h.apiConfig))
	h.handle("/api/list", http.HandlerFunc(h.apiRoutes))
	h.handle("/api/events", http.HandlerFunc(h.apiEvents))
	h.handle("/api/events/sse", http.HandlerFunc(h.apiEventsSSE))
	h.handle("/api/restart", http.HandlerFunc(h.apiRestart))
	h.handle("/api/shutdown", http.HandlerFunc(h.apiShutdown))
	registry := prometheus.NewRegistry()
	registry.MustRegister(h)
	h.handle("/api/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}

func (h *Host) handle(pattern string, handler http.Handler) {
	h.Engine.Handle(pattern, handler)
	h.apiList = append(h.apiList, pattern)
}

func writeJSON(rw http.ResponseWriter, v any) {
	rw.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(rw).Encode(v); err != nil {
		http.Error(rw, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Host) apiSummary(rw http.ResponseWriter, r *http.Request) {
	writeJSON(rw, h.refreshSummary())
}

type pluginInfo struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	State    string `json:"state"`
	Disabled bool   `json:"disabled"`
}

func (p *Plugin) stateString() string {
	if p.Disabled {
		return "disabled"
	}
	switch p.GetState() {
	case task.TASK_STATE_INIT, task.TASK_STATE_STARTING:
		return "pending"
	case task.TASK_STATE_STARTED, task.TASK_STATE_RUNNING, task.TASK_STATE_GOING:
		return "running"
	case task.TASK_STATE_DISPOSING:
		return "stopping"
	default:
		if p.StopReasonIs(ErrPluginDeclined) {
			return "declined"
		}
		return "stopped"
	}
}

func (h *Host) apiPlugins(rw http.ResponseWriter, r *http.Request) {
	infos := make([]pluginInfo, 0, len(h.Plugins))
	for _, p := range h.Plugins {
		infos = append(infos, pluginInfo{
			Name:     p.Meta.Name,
			Version:  p.Meta.Version,
			State:    p.stateString(),
			Disabled: p.Disabled,
		})
	}
	writeJSON(rw, infos)
}

func (h *Host) apiCapabilities(rw http.ResponseWriter, r *http.Request) {
	writeJSON(rw, h.Capabilities())
}

func (h *Host) apiConfig(rw http.ResponseWriter, r *http.Request) {
	out := map[string]any{"global": h.Config.GetMap()}
	for _, p := range h.Plugins {
		out[strings.ToLower(p.Meta.Name)] = p.Config.GetMap()
	}
	writeJSON(rw, out)
}

func (h *Host) apiRoutes(rw http.ResponseWriter, r *http.Request) {
	writeJSON(rw, h.apiList)
}

// apiEvents streams the event hub over a websocket until either side goes
// away.
func (h *Host) apiEvents(rw http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(rw, r, nil)
	if err != nil {
		h.Error("websocket upgrade", "error", err)
		return
	}
	defer conn.Close()
	events, cancel := h.Events.Subscribe()
	defer cancel()
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	for {
		select {
		case <-h.Done():
			return
		case <-closed:
			return
		case event := <-events:
			if err = conn.WriteJSON(event); err != nil {
				return
			}
		}
	}
}

// apiEventsSSE streams the event hub as server-sent events for clients that
// cannot hold a websocket.
func (h *Host) apiEventsSSE(rw http.ResponseWriter, r *http.Request) {
	sse := util.NewSSE(rw, r.Context())
	if f, ok := rw.(http.Flusher); ok {
		f.Flush()
	}
	events, cancel := h.Events.Subscribe()
	defer cancel()
	for {
		select {
		case <-h.Done():
			return
		case <-sse.Done():
			return
		case event := <-events:
			if err := sse.WriteJSON(event); err != nil {
				return
			}
		}
	}
}

func (h *Host) apiRestart(rw http.ResponseWriter, r *http.Request) {
	writeJSON(rw, map[string]any{"ok": true})
	h.Stop(ErrRestart)
}

func (h *Host) apiShutdown(rw http.ResponseWriter, r *http.Request) {
	writeJSON(rw, map[string]any{"ok": true})
	h.Stop(ErrStopFromAPI)
}
