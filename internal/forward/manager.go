// Package forward manages local port-forward jobs to in-cluster services.
// Jobs are tracked in an in-memory registry keyed by service name and owned
// by a single long-lived process; liveness of the subprocess is the only
// source of truth, nothing is persisted.
package forward

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/dfir-lab/labctl/internal/execx"
)

// ErrPortInUse indicates the requested local port already has a listener.
var ErrPortInUse = errors.New("local port already in use")

// Spec describes one port-forward job.
type Spec struct {
	// Name is the registry key, derived from the lab service name.
	Name string
	// Namespace is the cluster namespace of the Service object.
	Namespace string
	// Service is the Kubernetes Service object name.
	Service string
	// LocalPort is the local listener port.
	LocalPort int
	// RemotePort is the service port inside the cluster.
	RemotePort int
}

// JobStatus reports the observed state of one registered job.
type JobStatus struct {
	Name      string
	Pid       int
	LocalPort int
	Running   bool
}

type job struct {
	spec   Spec
	handle execx.Handle
}

// Manager is the in-memory registry of live port-forward jobs.
type Manager struct {
	kubeconfig  string
	kubeContext string
	runner      execx.Runner
	logger      *slog.Logger

	// settleDelay is how long a new job gets to fail fast before it is
	// considered stable.
	settleDelay time.Duration

	mu   sync.Mutex
	jobs map[string]*job
}

// NewManager constructs an empty registry.
func NewManager(kubeconfig, kubeContext string, runner execx.Runner, logger *slog.Logger) *Manager {
	if runner == nil {
		runner = execx.NewLocal()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		kubeconfig:  kubeconfig,
		kubeContext: kubeContext,
		runner:      runner,
		logger:      logger,
		settleDelay: 300 * time.Millisecond,
		jobs:        make(map[string]*job),
	}
}

func (m *Manager) command(spec Spec) execx.Command {
	args := []string{}
	if m.kubeContext != "" {
		args = append(args, "--context", m.kubeContext)
	}
	args = append(args,
		"port-forward",
		"--namespace", spec.Namespace,
		"svc/"+spec.Service,
		fmt.Sprintf("%d:%d", spec.LocalPort, spec.RemotePort),
	)
	cmd := execx.Command{Name: "kubectl", Args: args}
	if m.kubeconfig != "" {
		cmd.Env = append(cmd.Env, "KUBECONFIG="+m.kubeconfig)
	}
	return cmd
}

// Start launches a forwarding job for the spec. An existing job with the same
// name is stopped first, so the last start wins and at most one job per name
// is ever live.
func (m *Manager) Start(ctx context.Context, spec Spec) error {
	m.mu.Lock()
	old, hadOld := m.jobs[spec.Name]
	if hadOld {
		m.logger.Debug("stopping previous forward job", "name", spec.Name, "pid", old.handle.Pid())
		_ = old.handle.Kill()
		delete(m.jobs, spec.Name)
	}
	m.mu.Unlock()

	if hadOld {
		// Wait for the old process to release its listener.
		select {
		case <-old.handle.Done():
		case <-time.After(2 * time.Second):
		}
	}

	if !portAvailable(spec.LocalPort) {
		return fmt.Errorf("%w: %d (%s)", ErrPortInUse, spec.LocalPort, spec.Name)
	}

	handle, err := m.runner.Start(ctx, m.command(spec))
	if err != nil {
		return fmt.Errorf("start forward %s: %w", spec.Name, err)
	}

	// Give kubectl a moment to fail fast on a bad target.
	select {
	case <-handle.Done():
		if msg := handle.Stderr(); msg != "" {
			return fmt.Errorf("forward %s exited: %s", spec.Name, msg)
		}
		return fmt.Errorf("forward %s exited immediately: %w", spec.Name, handle.Err())
	case <-time.After(m.settleDelay):
	}

	m.mu.Lock()
	m.jobs[spec.Name] = &job{spec: spec, handle: handle}
	m.mu.Unlock()

	m.logger.Info("port-forward started",
		"name", spec.Name,
		"service", spec.Service,
		"local", spec.LocalPort,
		"remote", spec.RemotePort,
		"pid", handle.Pid(),
	)
	return nil
}

// Stop terminates the named job. Stopping an absent job is not an error; the
// boolean reports whether anything was actually stopped.
func (m *Manager) Stop(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, exists := m.jobs[name]
	if !exists {
		return false
	}
	if err := j.handle.Kill(); err != nil {
		m.logger.Debug("kill forward job", "name", name, "error", err)
	}
	delete(m.jobs, name)
	return true
}

// StopAll terminates every registered job and returns how many were stopped.
func (m *Manager) StopAll() int {
	m.mu.Lock()
	names := make([]string, 0, len(m.jobs))
	for name := range m.jobs {
		names = append(names, name)
	}
	m.mu.Unlock()

	stopped := 0
	for _, name := range names {
		if m.Stop(name) {
			stopped++
		}
	}
	return stopped
}

// Restart stops the named job if present and starts it again from its spec.
func (m *Manager) Restart(ctx context.Context, name string) error {
	m.mu.Lock()
	j, exists := m.jobs[name]
	var spec Spec
	if exists {
		spec = j.spec
	}
	m.mu.Unlock()

	if !exists {
		return fmt.Errorf("no forward job named %q", name)
	}
	m.Stop(name)
	time.Sleep(m.settleDelay)
	return m.Start(ctx, spec)
}

// Jobs returns the status of all registered jobs, sorted by name.
// A job whose subprocess has died stays listed as not running until stopped;
// there is no automatic reconnection.
func (m *Manager) Jobs() []JobStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]JobStatus, 0, len(m.jobs))
	for name, j := range m.jobs {
		running := true
		select {
		case <-j.handle.Done():
			running = false
		default:
		}
		out = append(out, JobStatus{
			Name:      name,
			Pid:       j.handle.Pid(),
			LocalPort: j.spec.LocalPort,
			Running:   running,
		})
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Name < out[k].Name })
	return out
}

// Len returns the number of registered jobs.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}

// portAvailable checks whether a local TCP port can be listened on.
func portAvailable(port int) bool {
	l, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	if err != nil {
		return false
	}
	_ = l.Close()
	return true
}

// ProbeLocal reports whether something is accepting connections on the local port.
func ProbeLocal(port int, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)), timeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
