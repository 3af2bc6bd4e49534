package config

import (
	"net"

	"github.com/plasmacash/plasma-go/pkg/core/storage"
)

// ApplicationConfiguration config specific to the node.
type ApplicationConfiguration struct {
	DBConfiguration storage.DBConfiguration `yaml:"DBConfiguration"`
	Prometheus      BasicService            `yaml:"Prometheus"`
}

// BasicService is used for simple services like metrics exporters.
type BasicService struct {
	Enabled bool   `yaml:"Enabled"`
	Address string `yaml:"Address"`
	Port    string `yaml:"Port"`
}

// Addr returns the address to listen on.
func (b BasicService) Addr() string {
	return net.JoinHostPort(b.Address, b.Port)
}
