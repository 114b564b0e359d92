package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.dedis.ch/tally"
	"golang.org/x/xerrors"
)

// writeMetrics writes the collectors of the module to the file in the text
// format of Prometheus, so that the node exporter can pick them up.
func writeMetrics(path string) error {
	registry := prometheus.NewRegistry()

	for _, c := range tally.PromCollectors {
		err := registry.Register(c)
		if err != nil {
			return xerrors.Errorf("failed to register: %v", err)
		}
	}

	err := prometheus.WriteToTextfile(path, registry)
	if err != nil {
		return xerrors.Errorf("failed to write metrics: %v", err)
	}

	return nil
}
