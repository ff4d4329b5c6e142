package distroav

import (
	"slices"
	"time"
)

const (
	CapabilitySource = "source"
	CapabilityOutput = "output"
	CapabilityFilter = "filter"
)

// Capability is one media role a plugin offers the host. Registration is
// fire and forget: the host records it, announces it, and never fails it.
type Capability struct {
	Kind         string    `json:"kind"`
	ID           string    `json:"id"`
	Plugin       string    `json:"plugin"`
	Description  string    `json:"description"`
	RegisteredAt time.Time `json:"registeredAt"`
}

func (h *Host) registerCapability(c Capability) {
	c.RegisteredAt = time.Now()
	h.capMu.Lock()
	h.capabilities = append(h.capabilities, c)
	h.capMu.Unlock()
	h.Info("capability registered", "kind", c.Kind, "id", c.ID, "plugin", c.Plugin)
	h.Events.Publish(Event{Type: "capability.registered", Data: map[string]any{
		"kind":   c.Kind,
		"id":     c.ID,
		"plugin": c.Plugin,
	}})
}

func (h *Host) Capabilities() []Capability {
	h.capMu.RLock()
	defer h.capMu.RUnlock()
	return slices.Clone(h.capabilities)
}

func (h *Host) capabilityCounts() map[string]int {
	h.capMu.RLock()
	defer h.capMu.RUnlock()
	counts := make(map[string]int, 3)
	for _, c := range h.capabilities {
		counts[c.Kind]++
	}
	return counts
}

func (p *Plugin) RegisterSource(id, description string) {
	p.host.registerCapability(Capability{Kind: CapabilitySource, ID: id, Plugin: p.Meta.Name, Description: description})
}

func (p *Plugin) RegisterOutput(id, description string) {
	p.host.registerCapability(Capability{Kind: CapabilityOutput, ID: id, Plugin: p.Meta.Name, Description: description})
}

func (p *Plugin) RegisterFilter(id, description string) {
	p.host.registerCapability(Capability{Kind: CapabilityFilter, ID: id, Plugin: p.Meta.Name, Description: description})
}
