package plugin_debug

import (
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/MartinSandstromRimsbo/DistroAV"
)

var _ = distroav.InstallPlugin[DebugPlugin](distroav.Version)

type DebugPlugin struct {
	distroav.Plugin
	ChartPeriod time.Duration `default:"1s" desc:"chart sample period"`
	chart       chartServer
}

func (p *DebugPlugin) OnInit() error {
	p.chart.period = p.ChartPeriod
	p.AddTask(&p.chart)
	return nil
}

// ServeHTTP serves the pprof index under the plugin prefix.
func (p *DebugPlugin) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/pprof" {
		http.Redirect(w, r, "/debug/pprof/", http.StatusFound)
		return
	}
	r.URL.Path = "/debug" + r.URL.Path
	pprof.Index(w, r)
}

func (p *DebugPlugin) Pprof_Trace(w http.ResponseWriter, r *http.Request) {
	r.URL.Path = "/debug" + r.URL.Path
	pprof.Trace(w, r)
}

func (p *DebugPlugin) Pprof_profile(w http.ResponseWriter, r *http.Request) {
	r.URL.Path = "/debug" + r.URL.Path
	pprof.Profile(w, r)
}

func (p *DebugPlugin) Charts_data(w http.ResponseWriter, r *http.Request) {
	p.chart.dataHandler(w, r)
}

func (p *DebugPlugin) Charts_datafeed(w http.ResponseWriter, r *http.Request) {
	p.chart.dataFeedHandler(w, r)
}
