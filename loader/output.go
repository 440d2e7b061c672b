package loader

import (
	"fmt"
	"io"

	"github.com/panyam/vmsim/core"
)

// FormatMetrics renders the five-line migration report. Field order is
// load-bearing: downstream tooling scrapes these lines by position.
func FormatMetrics(m core.Metrics) string {
	return fmt.Sprintf(
		"downtime: %g\n"+
			"eviction time: %g\n"+
			"total_migration time: %g\n"+
			"transmitted data: %g\n"+
			"delays: %g\n",
		m.Downtime, m.EvictionTime, m.TotalMigrationTime, m.TransmittedData, m.Delays)
}

// WriteMetrics writes the report to w.
func WriteMetrics(w io.Writer, m core.Metrics) error {
	_, err := io.WriteString(w, FormatMetrics(m))
	return err
}
