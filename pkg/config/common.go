package config

// Common is the part of the configuration every plugin carries. A plugin
// only listens on its own when the address differs from the host's.
type Common struct {
	HTTP
}
