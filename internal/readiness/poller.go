// Package readiness polls a namespace until its workloads report ready,
// within a bounded time budget. The poll is best-effort by design: query
// errors count as zero progress for that tick, and hitting the timeout is a
// reportable outcome, not a failure.
package readiness

import (
	"context"
	"log/slog"
	"time"

	corev1 "k8s.io/api/core/v1"

	"github.com/dfir-lab/labctl/internal/kube"
)

// PodLister queries pod state for a namespace.
type PodLister interface {
	ListPods(ctx context.Context, namespace string) (*corev1.PodList, error)
}

// LogTailer fetches recent log lines from pods matching a selector.
type LogTailer interface {
	TailLogs(ctx context.Context, namespace, selector, container string, lines int) (string, error)
}

// ProgressSpec identifies the long-running model-download step whose logs are
// scraped for a coarse progress message while the namespace converges.
type ProgressSpec struct {
	// Selector is the pod label selector for the downloading workload.
	Selector string
	// Container is the init container performing the download.
	Container string
}

// Poller waits for all pods in a namespace to report ready.
type Poller struct {
	Pods     PodLister
	Logs     LogTailer
	Interval time.Duration
	Timeout  time.Duration
	Progress ProgressSpec
	Logger   *slog.Logger
}

// Result summarizes one poll run.
type Result struct {
	// Ready is the count of ready pods at the last tick.
	Ready int
	// Total is the pod count at the last tick.
	Total int
	// TimedOut reports whether the budget elapsed before full readiness.
	TimedOut bool
	// Elapsed is the wall time spent polling.
	Elapsed time.Duration
}

// AllReady reports whether every observed pod was ready. An empty namespace
// is never ready: right after apply, workloads are expected to appear, so a
// 0/0 tick keeps polling rather than declaring success.
func (r Result) AllReady() bool {
	return r.Total > 0 && r.Ready == r.Total
}

// Wait polls the namespace until all pods are ready or the timeout elapses.
// The only error returned is context cancellation; a timeout is reported via
// the Result so callers can warn and proceed.
func (p *Poller) Wait(ctx context.Context, namespace string) (Result, error) {
	if p.Logger == nil {
		p.Logger = slog.New(slog.DiscardHandler)
	}
	interval := p.Interval
	if interval <= 0 {
		interval = 15 * time.Second
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 600 * time.Second
	}

	start := time.Now()
	deadline := start.Add(timeout)

	var res Result
	for {
		list, err := p.Pods.ListPods(ctx, namespace)
		if err != nil {
			// Zero progress this tick; the cluster may still be coming up.
			p.Logger.Debug("pod query failed, retrying", "namespace", namespace, "error", err)
		} else {
			res.Ready, res.Total = kube.CountReady(list)
			p.Logger.Info("waiting for workloads",
				"namespace", namespace,
				"ready", res.Ready,
				"total", res.Total,
			)
			if res.AllReady() {
				res.Elapsed = time.Since(start)
				return res, nil
			}
			p.reportPullProgress(ctx, namespace)
		}

		if time.Now().After(deadline) {
			res.TimedOut = true
			res.Elapsed = time.Since(start)
			return res, nil
		}

		select {
		case <-ctx.Done():
			res.Elapsed = time.Since(start)
			return res, ctx.Err()
		case <-time.After(interval):
		}
	}
}

// reportPullProgress scrapes the model-download logs and logs a coarse
// human-readable message. Scrape failures are silent; the download step may
// not have started yet or may already be gone.
func (p *Poller) reportPullProgress(ctx context.Context, namespace string) {
	if p.Logs == nil || p.Progress.Selector == "" {
		return
	}
	logs, err := p.Logs.TailLogs(ctx, namespace, p.Progress.Selector, p.Progress.Container, 20)
	if err != nil || logs == "" {
		return
	}
	p.Logger.Info(SummarizePull(logs), "step", "model download")
}
