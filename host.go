package distroav

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/phsym/console-slog"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	. "github.com/MartinSandstromRimsbo/DistroAV/pkg"
	"github.com/MartinSandstromRimsbo/DistroAV/pkg/config"
	"github.com/MartinSandstromRimsbo/DistroAV/pkg/db"
	"github.com/MartinSandstromRimsbo/DistroAV/pkg/task"
)

// Version is stamped by the build.
var Version = "v6.1.0"

// Host carries the plugin registry, the capability tables and the shared
// infrastructure every plugin reaches through: logging, config, database,
// HTTP and the event hub.
type Host struct {
	task.RootTask
	config.Config
	StartTime  time.Time
	LogHandler MultiLogHandler
	Engine     config.Engine
	Plugins    []*Plugin
	DB         *gorm.DB
	Events     *EventHub

	conf    map[string]any
	apiList []string

	capMu        sync.RWMutex
	capabilities []Capability

	summaryMu   sync.RWMutex
	lastSummary *Summary

	prometheusDesc prometheusDesc
}

func NewHost() *Host {
	return &Host{}
}

// Run hosts one full lifetime. It returns once the context is canceled or
// something stops the host, with ErrRestart asking for another round.
func Run(ctx context.Context, conf any) error {
	for {
		if err := NewHost().Run(ctx, conf); !errors.Is(err, ErrRestart) {
			return err
		}
	}
}

func (h *Host) Run(ctx context.Context, conf any) (err error) {
	h.StartTime = time.Now()
	h.LogHandler.SetLevel(slog.LevelInfo)
	h.LogHandler.Add(console.NewHandler(os.Stderr, &console.HandlerOptions{TimeFormat: "15:04:05.000000", Level: task.TraceLevel}))
	h.Init(ctx, slog.New(&h.LogHandler))
	h.Info("start", "version", Version, "pid", os.Getpid())
	if err = h.parseConf(conf); err != nil {
		h.Error("parse config", "error", err)
		return
	}
	h.Config.Parse(&h.Engine, "DISTROAV")
	if global, ok := h.conf["global"].(map[string]any); ok {
		h.Config.ParseUserFile(global)
	}
	h.LogHandler.SetLevel(ParseLevel(h.Engine.LogLevel))
	h.Events = NewEventHub(h.Engine.EventBufferSize)
	h.LogHandler.Add(h.Events.LogHandler(slog.LevelInfo))
	if h.Engine.DB.DSN != "" {
		if factory, ok := db.Factory[h.Engine.DB.DBType]; ok {
			if h.DB, err = gorm.Open(factory(h.Engine.DB.DSN), &gorm.Config{}); err != nil {
				h.Error("open database", "dbType", h.Engine.DB.DBType, "dsn", h.Engine.DB.DSN, "error", err)
				return
			}
		} else {
			h.Warn("unsupported database type", "dbType", h.Engine.DB.DBType)
		}
	}
	h.prometheusDesc.init()
	h.registerRoutes()
	for i := range plugins {
		plugins[i].Init(h)
	}
	if h.Engine.ListenAddr != "" {
		h.AddTask(h.Engine.CreateHTTPWork(h.Logger))
	}
	if h.Engine.ListenAddrTLS != "" {
		h.AddTask(h.Engine.CreateHTTPSWork(h.Logger))
	}
	h.AddTask(&summaryTask{host: h})
	<-h.Done()
	err = context.Cause(h)
	h.Warn("exit", "reason", err)
	h.Shutdown()
	if errors.Is(err, task.ErrExit) || errors.Is(err, context.Canceled) || errors.Is(err, ErrStopFromAPI) {
		err = nil
	}
	return
}

func (h *Host) parseConf(conf any) error {
	switch v := conf.(type) {
	case map[string]any:
		h.conf = v
	case []byte:
		return yaml.Unmarshal(v, &h.conf)
	case string:
		if v == "" {
			return nil
		}
		data, err := os.ReadFile(v)
		if err != nil {
			h.Warn("config file unreadable, using defaults", "path", v, "error", err)
			return nil
		}
		return yaml.Unmarshal(data, &h.conf)
	}
	return nil
}

func (h *Host) pluginConf(name string) map[string]any {
	if sub, ok := h.conf[strings.ToLower(name)].(map[string]any); ok {
		return sub
	}
	return nil
}

// AddLogHandler lets plugins contribute extra log sinks.
func (h *Host) AddLogHandler(handler slog.Handler) {
	if handler != nil {
		h.LogHandler.Add(handler)
	}
}

func (h *Host) RemoveLogHandler(handler slog.Handler) {
	if handler != nil {
		h.LogHandler.Remove(handler)
	}
}
