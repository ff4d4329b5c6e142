package plugin_logrotate

import (
	"io"
	"log/slog"

	"github.com/alchemy/rotoslog"
	"github.com/phsym/console-slog"

	"github.com/MartinSandstromRimsbo/DistroAV"
	"github.com/MartinSandstromRimsbo/DistroAV/pkg"
)

type LogRotatePlugin struct {
	distroav.Plugin
	Path      string `default:"./logs" desc:"directory the log files land in"`
	Size      uint64 `default:"1048576" desc:"bytes before a file rotates"`
	Formatter string `default:"2006-01-02T15" desc:"rotated file name layout"`
	MaxFiles  uint64 `default:"7" desc:"rotated files kept"`
	Level     string `default:"info" desc:"lowest level written to file"`
	handler   slog.Handler
}

var _ = distroav.InstallPlugin[LogRotatePlugin](distroav.Version)

func (config *LogRotatePlugin) OnInit() (err error) {
	builder := func(w io.Writer, opts *slog.HandlerOptions) slog.Handler {
		return console.NewHandler(w, &console.HandlerOptions{NoColor: true, Level: pkg.ParseLevel(config.Level), TimeFormat: "2006-01-02 15:04:05.000"})
	}
	config.handler, err = rotoslog.NewHandler(rotoslog.LogHandlerBuilder(builder), rotoslog.LogDir(config.Path), rotoslog.MaxFileSize(config.Size), rotoslog.DateTimeLayout(config.Formatter), rotoslog.MaxRotatedFiles(config.MaxFiles))
	if err == nil {
		config.AddLogHandler(config.handler)
	}
	return
}
