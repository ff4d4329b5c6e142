package plugin_ndi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/MartinSandstromRimsbo/DistroAV/pkg/ndi"
)

func writeJSON(rw http.ResponseWriter, data any) {
	rw.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(rw).Encode(data); err != nil {
		http.Error(rw, err.Error(), http.StatusInternalServerError)
	}
}

func (p *NDIPlugin) API_status(rw http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"state":      ndi.StateUnloaded.String(),
		"minVersion": p.MinVersion,
	}
	if rt := p.runtime; rt != nil {
		status["state"] = rt.State().String()
		status["path"] = rt.Path()
		status["version"] = rt.Version()
		status["minVersion"] = rt.MinVersion
	}
	writeJSON(rw, status)
}

// API_sources runs one discovery pass and returns whatever is advertised on
// the network. ?wait= bounds the discovery window, ?groups= scopes it.
func (p *NDIPlugin) API_sources(rw http.ResponseWriter, r *http.Request) {
	rt := p.runtime
	if rt == nil || rt.State() != ndi.StateActive {
		http.Error(rw, ndi.ErrNotLoaded.Error(), http.StatusServiceUnavailable)
		return
	}
	lib := rt.Library()
	if lib == nil {
		http.Error(rw, ndi.ErrNotLoaded.Error(), http.StatusServiceUnavailable)
		return
	}
	finder, err := lib.NewFinder(true, r.URL.Query().Get("groups"), "")
	if err != nil {
		http.Error(rw, err.Error(), http.StatusInternalServerError)
		return
	}
	defer finder.Close()
	wait := time.Second
	if v := r.URL.Query().Get("wait"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			wait = d
		}
	}
	finder.WaitForSources(wait)
	sources := finder.Sources()
	if sources == nil {
		sources = []ndi.Source{}
	}
	writeJSON(rw, sources)
}

func (p *NDIPlugin) API_config(rw http.ResponseWriter, r *http.Request) {
	writeJSON(rw, p.Config.GetMap())
}
