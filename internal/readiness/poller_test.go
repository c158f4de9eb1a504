package readiness

import (
	"context"
	"errors"
	"testing"
	"time"

	corev1 "k8s.io/api/core/v1"
)

func pod(ready bool) corev1.Pod {
	status := corev1.ConditionFalse
	if ready {
		status = corev1.ConditionTrue
	}
	return corev1.Pod{
		Status: corev1.PodStatus{
			Conditions: []corev1.PodCondition{{Type: corev1.PodReady, Status: status}},
		},
	}
}

type fakeLister struct {
	lists [][]corev1.Pod
	err   error
	calls int
}

func (f *fakeLister) ListPods(ctx context.Context, namespace string) (*corev1.PodList, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	idx := f.calls - 1
	if idx >= len(f.lists) {
		idx = len(f.lists) - 1
	}
	return &corev1.PodList{Items: f.lists[idx]}, nil
}

type fakeTailer struct {
	logs  string
	calls int
}

func (f *fakeTailer) TailLogs(ctx context.Context, namespace, selector, container string, lines int) (string, error) {
	f.calls++
	return f.logs, nil
}

func TestWaitAllReady(t *testing.T) {
	lister := &fakeLister{lists: [][]corev1.Pod{
		{pod(false), pod(false)},
		{pod(true), pod(false)},
		{pod(true), pod(true)},
	}}
	p := &Poller{Pods: lister, Interval: time.Millisecond, Timeout: time.Second}

	res, err := p.Wait(context.Background(), "osdfir")
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if !res.AllReady() {
		t.Errorf("result = %+v, want all ready", res)
	}
	if res.TimedOut {
		t.Error("TimedOut = true")
	}
	if res.Ready != 2 || res.Total != 2 {
		t.Errorf("counts = %d/%d, want 2/2", res.Ready, res.Total)
	}
	if lister.calls != 3 {
		t.Errorf("calls = %d, want 3", lister.calls)
	}
}

func TestWaitTimeout(t *testing.T) {
	lister := &fakeLister{lists: [][]corev1.Pod{{pod(false)}}}
	p := &Poller{Pods: lister, Interval: time.Millisecond, Timeout: 20 * time.Millisecond}

	start := time.Now()
	res, err := p.Wait(context.Background(), "osdfir")
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if !res.TimedOut {
		t.Error("TimedOut = false, want true")
	}
	if res.AllReady() {
		t.Error("AllReady = true")
	}
	// The poll must terminate within roughly timeout plus one interval.
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("poll took %v", elapsed)
	}
}

func TestWaitEmptyNamespace(t *testing.T) {
	// No pods at all is not readiness; the poll keeps going until timeout.
	lister := &fakeLister{lists: [][]corev1.Pod{{}}}
	p := &Poller{Pods: lister, Interval: time.Millisecond, Timeout: 20 * time.Millisecond}

	res, err := p.Wait(context.Background(), "osdfir")
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if !res.TimedOut {
		t.Error("TimedOut = false, want true")
	}
	if res.AllReady() {
		t.Error("AllReady = true for empty namespace")
	}
	if res.Ready != 0 || res.Total != 0 {
		t.Errorf("counts = %d/%d, want 0/0", res.Ready, res.Total)
	}
	if lister.calls < 2 {
		t.Errorf("calls = %d, want repeated polling", lister.calls)
	}
}

func TestWaitQueryErrorsAreRetried(t *testing.T) {
	lister := &fakeLister{err: errors.New("connection refused")}
	p := &Poller{Pods: lister, Interval: time.Millisecond, Timeout: 20 * time.Millisecond}

	res, err := p.Wait(context.Background(), "osdfir")
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if !res.TimedOut {
		t.Error("TimedOut = false, want true")
	}
	if lister.calls < 2 {
		t.Errorf("calls = %d, want retries", lister.calls)
	}
}

func TestWaitContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	lister := &fakeLister{lists: [][]corev1.Pod{{pod(false)}}}
	p := &Poller{Pods: lister, Interval: time.Hour, Timeout: time.Hour}

	_, err := p.Wait(ctx, "osdfir")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestWaitReportsPullProgress(t *testing.T) {
	lister := &fakeLister{lists: [][]corev1.Pod{
		{pod(false)},
		{pod(true)},
	}}
	tailer := &fakeTailer{logs: "pulling manifest"}
	p := &Poller{
		Pods:     lister,
		Logs:     tailer,
		Interval: time.Millisecond,
		Timeout:  time.Second,
		Progress: ProgressSpec{Selector: "app.kubernetes.io/name=ollama", Container: "pull-model"},
	}

	if _, err := p.Wait(context.Background(), "osdfir"); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	// Progress is only scraped on not-yet-ready ticks.
	if tailer.calls != 1 {
		t.Errorf("tail calls = %d, want 1", tailer.calls)
	}
}
