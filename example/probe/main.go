package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/MartinSandstromRimsbo/DistroAV/pkg/ndi"
)

// probe locates and loads the NDI runtime the way the plugin would, then
// prints what it found. Useful for checking an install without starting a
// host.
func main() {
	dirs := flag.String("dirs", "", "extra directories to search, comma separated")
	minVersion := flag.String("min", ndi.MinRuntimeVersion, "minimum runtime version")
	list := flag.Bool("find", false, "after loading, list reachable sources")
	flag.Parse()

	locator := &ndi.Locator{}
	if *dirs != "" {
		locator.ExtraDirs = strings.Split(*dirs, ",")
	}
	for _, dir := range locator.CandidateDirs() {
		fmt.Println("search:", dir)
	}

	rt := ndi.NewRuntime(locator, slog.Default())
	rt.MinVersion = *minVersion
	if err := rt.Load(); err != nil {
		fmt.Println("state:", rt.State())
		fmt.Println("error:", err)
		os.Exit(1)
	}
	defer rt.Unload()
	fmt.Printf("loaded %s (%s)\n", rt.Path(), rt.Version())

	if !*list {
		return
	}
	if err := rt.Activate(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	finder, err := rt.Library().NewFinder(true, "", "")
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	defer finder.Close()
	finder.WaitForSources(3 * time.Second)
	for _, source := range finder.Sources() {
		fmt.Printf("source: %s (%s)\n", source.Name, source.URL)
	}
}
