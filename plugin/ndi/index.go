package plugin_ndi

import (
	"errors"
	"fmt"

	"github.com/MartinSandstromRimsbo/DistroAV"
	"github.com/MartinSandstromRimsbo/DistroAV/pkg/ndi"
	pkg "github.com/MartinSandstromRimsbo/DistroAV/plugin/ndi/pkg"
)

type NDIPlugin struct {
	distroav.Plugin
	MinVersion           string   `default:"6.0.0"`
	SearchDirs           []string `desc:"extra directories scanned for the runtime"`
	AutoOpenDownload     bool     `desc:"open the download page when the runtime is missing"`
	OutputEnabled        bool
	OutputName           string `default:"DistroAV Output"`
	OutputGroups         string
	PreviewOutputEnabled bool
	PreviewOutputName    string `default:"DistroAV Preview Output"`
	PreviewOutputGroups  string
	TallyProgramEnabled  bool `default:"true"`
	TallyPreviewEnabled  bool `default:"true"`

	// Prompter renders the missing-runtime choice; nil gets the headless
	// logging default.
	Prompter pkg.RuntimePrompter `yaml:"-"`

	runtime *ndi.Runtime
}

var _ = distroav.InstallPlugin[NDIPlugin](distroav.Version)

// openImage overrides how the runtime image is mapped.
var openImage func(path string) (ndi.Image, error)

func (p *NDIPlugin) OnInit() error {
	if p.Prompter == nil {
		p.Prompter = pkg.LogPrompter{Logger: p.Logger, AutoOpen: p.AutoOpenDownload}
	}
	if db := p.DB(); db != nil {
		if err := db.AutoMigrate(&pkg.LoadRecord{}); err != nil {
			p.Warn("load record migration failed", "error", err)
		}
	}
	rt := ndi.NewRuntime(&ndi.Locator{ExtraDirs: p.SearchDirs}, p.Logger)
	if p.MinVersion != "" {
		rt.MinVersion = p.MinVersion
	}
	if openImage != nil {
		rt.OpenImage = openImage
	}
	p.runtime = rt
	if err := rt.Load(); err != nil {
		p.reportFailure(err)
		p.saveRecord(err)
		return err
	}
	p.Info(fmt.Sprintf("NDI library detected ('%s')", rt.Version()), "path", rt.Path())
	if err := rt.Activate(); err != nil {
		return err
	}
	p.RegisterSource("ndi_source", "NDI™ Source")
	p.RegisterOutput("ndi_output", "NDI™ Output")
	p.RegisterFilter("premultiplied_alpha_filter", "Premultiplied Alpha")
	p.saveRecord(nil)
	if p.OutputEnabled {
		p.AddTask(p.newOutput(p.OutputName, p.OutputGroups, "program"))
	}
	if p.PreviewOutputEnabled {
		p.AddTask(p.newOutput(p.PreviewOutputName, p.PreviewOutputGroups, "preview"))
	}
	return nil
}

func (p *NDIPlugin) OnDispose() {
	if p.runtime != nil {
		p.runtime.Unload()
	}
}

func (p *NDIPlugin) newOutput(name, groups, role string) *pkg.Output {
	return &pkg.Output{
		Runtime:      p.runtime,
		Name:         name,
		Groups:       groups,
		TallyProgram: p.TallyProgramEnabled,
		TallyPreview: p.TallyPreviewEnabled,
		OnTally: func(tally ndi.Tally) {
			p.PublishEvent(distroav.Event{Type: "ndi.tally", Data: map[string]any{
				"output":  name,
				"role":    role,
				"program": tally.OnProgram,
				"preview": tally.OnPreview,
			}})
		},
	}
}

// reportFailure logs the bootstrap failure under its historical error code
// and, when the runtime is missing entirely, asks the prompter what to do.
func (p *NDIPlugin) reportFailure(err error) {
	switch {
	case errors.Is(err, ndi.ErrLibraryNotFound):
		p.Error("ERR-404 - NDI library not found, DistroAV cannot continue. Read the wiki and install the NDI Libraries.")
	case errors.Is(err, ndi.ErrEntryPointMissing):
		p.Error("ERR-405 - Error loading the NDI Library", "error", err)
	case errors.Is(err, ndi.ErrLoadFailed):
		p.Error("ERR-402 - Error loading the NDI library", "error", err)
	case errors.Is(err, ndi.ErrInitializationFailed):
		p.Error("ERR-406 - NDI library could not initialize due to unsupported CPU.")
		return
	case errors.Is(err, ndi.ErrVersionUnsupported):
		p.Error(fmt.Sprintf("ERR-425 - DistroAV requires at least NDI version %s. Plugin will unload.", p.runtime.MinVersion), "error", err)
		return
	default:
		p.Error("NDI bootstrap failed", "error", err)
		return
	}
	p.Error("ERR-401 - NDI library failed to load. Please install NDI Runtime >= " + p.runtime.MinVersion)
	if p.Prompter.MissingRuntime(err) == pkg.ChoiceOpenDownload {
		p.Info("NDI download page requested", "url", pkg.DownloadURL)
	}
}

func (p *NDIPlugin) saveRecord(loadErr error) {
	db := p.DB()
	if db == nil {
		return
	}
	record := pkg.LoadRecord{
		Path:    p.runtime.Path(),
		Version: p.runtime.Version(),
		State:   p.runtime.State().String(),
	}
	if loadErr != nil {
		record.Error = loadErr.Error()
	}
	if err := db.Create(&record).Error; err != nil {
		p.Warn("load record not persisted", "error", err)
	}
}
