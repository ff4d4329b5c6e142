package plugin_logrotate

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/phsym/console-slog"

	"github.com/MartinSandstromRimsbo/DistroAV/pkg/util"
)

type fileInfo struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// API_files lists the rotated log files on disk.
func (config *LogRotatePlugin) API_files(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(config.Path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	files := make([]fileInfo, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, fileInfo{Name: info.Name(), Size: info.Size()})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(files)
}

// API_tail streams everything the host logs to the caller until it hangs up.
func (config *LogRotatePlugin) API_tail(w http.ResponseWriter, r *http.Request) {
	writer := util.NewSSE(w, r.Context())
	h := console.NewHandler(writer, &console.HandlerOptions{NoColor: true})
	config.AddLogHandler(h)
	defer config.RemoveLogHandler(h)
	<-r.Context().Done()
}
