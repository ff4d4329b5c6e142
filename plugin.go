package distroav

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"

	"github.com/mcuadros/go-defaults"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	. "github.com/MartinSandstromRimsbo/DistroAV/pkg"
	"github.com/MartinSandstromRimsbo/DistroAV/pkg/config"
	"github.com/MartinSandstromRimsbo/DistroAV/pkg/task"
)

type DefaultYaml string

type PluginMeta struct {
	Name        string
	Version     string
	Type        reflect.Type
	defaultYaml DefaultYaml
}

// MergeConfigs are sections a plugin inherits from the global config when
// its own section leaves them unset.
var MergeConfigs = []string{"http"}

var plugins []PluginMeta

type iPlugin interface {
	nothing()
}

type IPlugin interface {
	OnInit() error
}

// InstallPlugin registers the plugin type at package load time; the host
// instantiates it on Run. Options: a string overrides the version, a
// DefaultYaml seeds the config.
func InstallPlugin[C iPlugin](options ...any) error {
	var c *C
	t := reflect.TypeOf(c).Elem()
	meta := PluginMeta{
		Name:    strings.TrimSuffix(t.Name(), "Plugin"),
		Type:    t,
		Version: "dev",
	}
	_, pluginFilePath, _, _ := runtime.Caller(1)
	if _, after, found := strings.Cut(filepath.Dir(pluginFilePath), "@"); found {
		meta.Version = after
	}
	for _, option := range options {
		switch v := option.(type) {
		case DefaultYaml:
			meta.defaultYaml = v
		case string:
			meta.Version = v
		}
	}
	plugins = append(plugins, meta)
	return nil
}

type Plugin struct {
	task.Work
	Disabled bool
	Meta     *PluginMeta
	config   config.Common
	config.Config
	handler IPlugin
	host    *Host
}

func (Plugin) nothing() {
}

func (meta *PluginMeta) Init(h *Host) {
	instance := reflect.New(meta.Type).Interface().(IPlugin)
	defaults.SetDefaults(instance)
	p := reflect.ValueOf(instance).Elem().FieldByName("Plugin").Addr().Interface().(*Plugin)
	p.handler = instance
	p.Meta = meta
	p.host = h
	p.Logger = h.Logger.With("plugin", meta.Name)
	h.Plugins = append(h.Plugins, p)
	if os.Getenv(strings.ToUpper(meta.Name)+"_ENABLE") == "false" {
		p.Disabled = true
		p.Warn("disabled by env")
		return
	}
	p.Config.Parse(p.GetCommonConf())
	p.Config.Parse(instance, strings.ToUpper(meta.Name))
	for _, name := range MergeConfigs {
		if p.Config.Has(name) && h.Config.Has(name) {
			p.Config.Get(name).ParseGlobal(h.Config.Get(name))
		}
	}
	if meta.defaultYaml != "" {
		var defaultConf map[string]any
		if err := yaml.Unmarshal([]byte(meta.defaultYaml), &defaultConf); err != nil {
			p.Error("parsing default config", "error", err)
		} else {
			p.Config.ParseDefaultYaml(defaultConf)
		}
	}
	userConfig := h.pluginConf(meta.Name)
	p.Config.ParseUserFile(userConfig)
	if h.Engine.DisableAll {
		p.Disabled = true
	}
	if userConfig["enable"] == false {
		p.Disabled = true
	} else if userConfig["enable"] == true {
		p.Disabled = false
	}
	if p.Disabled {
		p.Warn("plugin disabled")
		return
	}
	p.Info("install", "version", meta.Version)
	if err := h.AddTask(instance.(task.ITask)).WaitStarted(); err != nil {
		p.Error("plugin declined", "error", err)
	}
}

// Start wires the plugin's HTTP surface and hands control to OnInit. An
// OnInit error declines the plugin without taking the host down.
func (p *Plugin) Start() (err error) {
	p.registerHandler()
	httpConf := &p.config.HTTP
	if httpConf.ListenAddr != "" && httpConf.ListenAddr != p.host.Engine.ListenAddr {
		p.Info("listen http", "addr", httpConf.ListenAddr)
		p.AddTask(httpConf.CreateHTTPWork(p.Logger))
	}
	if httpConf.ListenAddrTLS != "" && httpConf.ListenAddrTLS != p.host.Engine.ListenAddrTLS {
		p.Info("listen https", "addr", httpConf.ListenAddrTLS)
		p.AddTask(httpConf.CreateHTTPSWork(p.Logger))
	}
	if err = p.handler.OnInit(); err != nil {
		err = errors.Join(ErrPluginDeclined, err)
	}
	return
}

func (p *Plugin) Dispose() {
	if dispose, ok := p.handler.(interface{ OnDispose() }); ok {
		dispose.OnDispose()
	}
}

func (p *Plugin) GetCommonConf() *config.Common {
	return &p.config
}

// DB exposes the host database handle; nil when no database is configured.
func (p *Plugin) DB() *gorm.DB {
	return p.host.DB
}

// PublishEvent puts an event on the host bus.
func (p *Plugin) PublishEvent(event Event) {
	p.host.Events.Publish(event)
}

func (p *Plugin) AddLogHandler(handler slog.Handler) {
	p.host.AddLogHandler(handler)
}

func (p *Plugin) RemoveLogHandler(handler slog.Handler) {
	p.host.RemoveLogHandler(handler)
}

func (p *Plugin) registerHandler() {
	t := reflect.TypeOf(p.handler)
	v := reflect.ValueOf(p.handler)
	for i, j := 0, t.NumMethod(); i < j; i++ {
		name := t.Method(i).Name
		if name == "ServeHTTP" {
			continue
		}
		switch handler := v.Method(i).Interface().(type) {
		case func(http.ResponseWriter, *http.Request):
			pattern := strings.ToLower(strings.ReplaceAll(name, "_", "/"))
			p.handle(pattern, http.HandlerFunc(handler))
		}
	}
	if rootHandler, ok := p.handler.(http.Handler); ok {
		p.handle("/", rootHandler)
	}
}

func (p *Plugin) logHandler(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		p.Debug("visit", "path", r.URL.String(), "remote", r.RemoteAddr)
		name := strings.ToLower(p.Meta.Name)
		r.URL.Path = strings.TrimPrefix(r.URL.Path, "/"+name)
		handler.ServeHTTP(rw, r)
	})
}

func (p *Plugin) handle(pattern string, handler http.Handler) {
	if p == nil {
		return
	}
	if !strings.HasPrefix(pattern, "/") {
		pattern = "/" + pattern
	}
	handler = p.logHandler(handler)
	p.GetCommonConf().Handle(pattern, handler)
	pattern = "/" + strings.ToLower(p.Meta.Name) + pattern
	p.Debug("http handle added", "pattern", pattern)
	p.host.Engine.Handle(pattern, handler)
	p.host.apiList = append(p.host.apiList, pattern)
}
