package ndi

import (
	"log/slog"

	"github.com/MartinSandstromRimsbo/DistroAV/pkg/util"
)

// DownloadURL is the vendor page carrying the runtime installer.
const DownloadURL = "https://ndi.video/"

type PromptChoice int

const (
	// ChoiceContinue keeps the host running without NDI capabilities.
	ChoiceContinue PromptChoice = iota
	// ChoiceOpenDownload sends the user to the runtime download page.
	ChoiceOpenDownload
)

// RuntimePrompter is consulted once when the runtime cannot be loaded. The
// bootstrap only reports typed failures; whatever frontend exists renders
// the choice.
type RuntimePrompter interface {
	MissingRuntime(reason error) PromptChoice
}

// LogPrompter is the headless default: it logs both choices and, when
// AutoOpen is set, opens the download page itself.
type LogPrompter struct {
	Logger   *slog.Logger
	AutoOpen bool
	open     func(string) error
}

func (p LogPrompter) MissingRuntime(reason error) PromptChoice {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("NDI Runtime (v6+) was not found on this system", "reason", reason)
	logger.Warn("install the NDI Runtime to enable NDI sources and outputs, or continue without NDI", "download", DownloadURL)
	if !p.AutoOpen {
		return ChoiceContinue
	}
	open := p.open
	if open == nil {
		open = util.OpenBrowser
	}
	if err := open(DownloadURL); err != nil {
		logger.Warn("browser did not open", "url", DownloadURL, "error", err)
	}
	return ChoiceOpenDownload
}
