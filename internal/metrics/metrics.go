package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jxwalker/ggmod/internal/config"
)

// Manager accumulates counters and writes them as a Prometheus textfile.
// A nil *Manager is valid and does nothing.
type Manager struct {
	path string
	mu   sync.Mutex
	// counters
	registered int64
	staged     int64
	unstaged   int64
	fetchBytes int64
	searches   int64
	errors     int64
}

func New(cfg *config.Config) *Manager {
	if cfg == nil || !cfg.Metrics.PrometheusTextfile.Enabled || cfg.Metrics.PrometheusTextfile.Path == "" {
		return nil
	}
	p := cfg.Metrics.PrometheusTextfile.Path
	_ = os.MkdirAll(filepath.Dir(p), 0o755)
	return &Manager{path: p}
}

// NewAt returns a manager writing to path regardless of config.
func NewAt(path string) *Manager { return &Manager{path: path} }

func (m *Manager) IncRegistered() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.registered++
	m.mu.Unlock()
}

func (m *Manager) IncStaged() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.staged++
	m.mu.Unlock()
}

func (m *Manager) IncUnstaged() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.unstaged++
	m.mu.Unlock()
}

func (m *Manager) AddFetchBytes(n int64) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.fetchBytes += n
	m.mu.Unlock()
}

func (m *Manager) IncSearches() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.searches++
	m.mu.Unlock()
}

func (m *Manager) IncErrors() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.errors++
	m.mu.Unlock()
}

func (m *Manager) Write() error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	f, err := os.CreateTemp(filepath.Dir(m.path), ".metrics.tmp.*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())
	counter := func(name, help string, v int64) {
		fmt.Fprintf(f, "# HELP %s %s\n", name, help)
		fmt.Fprintf(f, "# TYPE %s counter\n", name)
		fmt.Fprintf(f, "%s %d\n", name, v)
	}
	counter("ggmod_mods_registered_total", "Mods added to the registry.", m.registered)
	counter("ggmod_stage_total", "Successful stage operations.", m.staged)
	counter("ggmod_unstage_total", "Successful unstage operations.", m.unstaged)
	counter("ggmod_fetch_bytes_total", "Archive bytes downloaded from the catalog.", m.fetchBytes)
	counter("ggmod_search_total", "Catalog searches issued.", m.searches)
	counter("ggmod_errors_total", "Failed user operations.", m.errors)

	fmt.Fprintf(f, "# HELP ggmod_metrics_timestamp_seconds UNIX timestamp when this file was written.\n")
	fmt.Fprintf(f, "# TYPE ggmod_metrics_timestamp_seconds gauge\n")
	fmt.Fprintf(f, "ggmod_metrics_timestamp_seconds %d\n", time.Now().Unix())

	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), m.path)
}
