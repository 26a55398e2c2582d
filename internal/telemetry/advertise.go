package telemetry

import (
	"fmt"
	"os"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"helm.klederson.com/internal/config"
)

// Advertiser announces the telemetry endpoint over mDNS.
type Advertiser struct {
	server *zeroconf.Server
	log    *zap.Logger
}

// Advertise registers an instance named after the host on port.
func Advertise(port int, logger *zap.Logger) (*Advertiser, error) {
	host, _ := os.Hostname()
	instance := fmt.Sprintf("%s-helm", host)
	txt := []string{
		"version=" + config.AppVersion,
		"path=/ws",
	}

	server, err := zeroconf.Register(instance, config.TelemetryService, config.TelemetryDomain, port, txt, nil)
	if err != nil {
		return nil, fmt.Errorf("registering mdns service: %w", err)
	}
	logger.Info("advertising telemetry",
		zap.String("instance", instance),
		zap.String("service", config.TelemetryService),
		zap.Int("port", port),
	)
	return &Advertiser{server: server, log: logger}, nil
}

// Close withdraws the advertisement.
func (a *Advertiser) Close() error {
	a.server.Shutdown()
	a.log.Debug("mdns advertisement withdrawn")
	return nil
}
