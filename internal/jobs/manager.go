// README: Cron-backed background jobs; currently just the sync read-repair sweep.
package jobs

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"
)

// Manager wraps the cron scheduler so jobs share one lifecycle with the
// process.
type Manager struct {
	cron *cron.Cron
}

func NewManager() *Manager {
	return &Manager{cron: cron.New()}
}

// Register schedules fn under the given cron spec (e.g. "@every 1m"). Job
// errors are logged; a failing sweep just waits for its next slot.
func (m *Manager) Register(spec, name string, fn func(ctx context.Context) error) error {
	_, err := m.cron.AddFunc(spec, func() {
		if err := fn(context.Background()); err != nil {
			log.Printf("jobs: %s failed: %v", name, err)
		}
	})
	return err
}

func (m *Manager) Start() {
	m.cron.Start()
}

// Stop halts scheduling and waits for running jobs to finish.
func (m *Manager) Stop() {
	<-m.cron.Stop().Done()
}
