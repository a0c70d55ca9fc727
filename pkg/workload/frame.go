package workload

import (
	"go.uber.org/zap"

	"github.com/ajitpratap0/recycler/pkg/config"
	"github.com/ajitpratap0/recycler/pkg/pool"
)

// Frame is the entry type the simulated callers pass around.
type Frame struct {
	Seq     uint64
	Worker  int
	Payload []byte
}

func newFrame(payloadBytes int) func() *Frame {
	return func() *Frame {
		return &Frame{Payload: make([]byte, 0, payloadBytes)}
	}
}

func clearFrame(f *Frame) {
	f.Seq = 0
	f.Worker = -1
	f.Payload = f.Payload[:0]
}

// NewFramePool builds the shared pool a run drives, configured from cfg.
// Frames are cleared when released.
func NewFramePool(cfg *config.Config, l *zap.Logger) (*pool.Locked[Frame], error) {
	opts, err := config.PoolOptions(cfg.Pool, l,
		pool.WithNew(newFrame(cfg.Workload.PayloadBytes)),
		pool.WithOnRelease(clearFrame),
	)
	if err != nil {
		return nil, err
	}
	return pool.NewLocked(opts...)
}
