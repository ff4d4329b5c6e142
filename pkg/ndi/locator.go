package ndi

import (
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
)

// Env vars the locator honors, newest first. The legacy redist var is what
// the runtime installer still sets on Windows.
const (
	EnvRuntimeDir   = "NDI_RUNTIME_DIR_V6"
	EnvRedistFolder = "NDILIB_REDIST_FOLDER"
)

// Strategy is the per-platform policy for picking a library file out of the
// candidate directories. It is chosen once from GOOS at construction.
type Strategy interface {
	// LibraryName names the artifact the strategy hunts, for logging.
	LibraryName() string
	// Select probes dirs and returns the chosen library path.
	Select(dirs []string) (path string, ok bool)
}

// fixedName probes for one well-known file name; the first directory holding
// a regular file of that name wins.
type fixedName struct {
	name string
}

func (s fixedName) LibraryName() string { return s.name }

func (s fixedName) Select(dirs []string) (string, bool) {
	for _, dir := range dirs {
		p := filepath.Join(dir, s.name)
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return p, true
		}
	}
	return "", false
}

var soVersion = regexp.MustCompile(`^libndi\.so\.(\d+)$`)

// versionedName scans every directory for libndi.so.N and keeps the highest
// N found anywhere, so an older install early in the order cannot shadow a
// newer one later in it.
type versionedName struct {
	pattern *regexp.Regexp
}

func (s versionedName) LibraryName() string { return "libndi.so" }

func (s versionedName) Select(dirs []string) (best string, ok bool) {
	bestVersion := -1
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			m := s.pattern.FindStringSubmatch(e.Name())
			if m == nil {
				continue
			}
			if v, _ := strconv.Atoi(m[1]); v > bestVersion {
				bestVersion = v
				best = filepath.Join(dir, e.Name())
				ok = true
			}
		}
	}
	return
}

func DefaultStrategy() Strategy {
	switch runtime.GOOS {
	case "windows":
		return fixedName{name: "Processing.NDI.Lib.x64.dll"}
	case "darwin":
		return fixedName{name: "libndi.dylib"}
	default:
		return versionedName{pattern: soVersion}
	}
}

type Locator struct {
	Strategy Strategy
	// ExtraDirs are appended after the built-in candidates.
	ExtraDirs []string
}

// CandidateDirs builds the search order without touching the filesystem:
// the bundled Frameworks directory next to the executable, then the runtime
// env vars, then the platform's conventional install locations, then any
// configured extras. Empty env values are skipped; duplicates are kept.
func (l *Locator) CandidateDirs() (dirs []string) {
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Join(filepath.Dir(exe), "..", "Frameworks"))
	}
	if dir := os.Getenv(EnvRuntimeDir); dir != "" {
		dirs = append(dirs, dir)
	}
	if dir := os.Getenv(EnvRedistFolder); dir != "" {
		dirs = append(dirs, dir)
	}
	dirs = append(dirs, conventionalDirs()...)
	dirs = append(dirs, l.ExtraDirs...)
	return
}

func conventionalDirs() []string {
	switch runtime.GOOS {
	case "windows":
		if pf := os.Getenv("ProgramFiles"); pf != "" {
			return []string{filepath.Join(pf, "NDI", "NDI 6 Runtime", "v6")}
		}
		return nil
	case "darwin":
		return []string{
			"/usr/lib",
			"/usr/local/lib",
			"/Library/NDI SDK for Apple/lib",
			"/Library/NDI/lib",
			"/opt/homebrew/opt/libndi/lib",
		}
	default:
		return []string{
			"/usr/lib",
			"/usr/local/lib",
			"/app/plugins/DistroAV/extra/lib", // flatpak
		}
	}
}

func (l *Locator) strategy() Strategy {
	if l.Strategy == nil {
		l.Strategy = DefaultStrategy()
	}
	return l.Strategy
}

// Locate runs the strategy over the candidate directories. Finding nothing
// is not an error here; the loader turns it into one.
func (l *Locator) Locate() (string, bool) {
	return l.strategy().Select(l.CandidateDirs())
}
