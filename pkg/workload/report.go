package workload

import (
	"io"
	"time"

	"github.com/ajitpratap0/recycler/pkg/json"
	"github.com/ajitpratap0/recycler/pkg/pool"
)

// Latency summarizes one operation's recorded latencies.
type Latency struct {
	Count int64         `json:"count"`
	P50   time.Duration `json:"p50_ns"`
	P99   time.Duration `json:"p99_ns"`
}

// Report is the outcome of a run.
type Report struct {
	Name     string        `json:"name"`
	Identity pool.Identity `json:"identity"`
	Policy   string        `json:"policy"`
	Seed     uint64        `json:"seed"`

	Workers    int           `json:"workers"`
	Iterations int           `json:"iterations"`
	Duration   time.Duration `json:"duration_ns"`
	Operations int64         `json:"operations"`
	OpsPerSec  float64       `json:"ops_per_sec"`

	// ForeignRejected counts foreign releases the pool refused.
	ForeignRejected int64 `json:"foreign_rejected"`

	Latency map[string]Latency `json:"latency"`
	Stats   pool.Stats         `json:"stats"`
}

// JSON encodes the report for the CLI.
func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Encode writes the indented report and a trailing newline to w.
func (r *Report) Encode(w io.Writer) error {
	return json.MarshalIndentToWriter(w, r, "", "  ")
}

// ParseReport decodes a report produced by JSON.
func ParseReport(data []byte) (*Report, error) {
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
