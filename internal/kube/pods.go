package kube

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	corev1 "k8s.io/api/core/v1"
)

// ListPods returns all pods in the namespace decoded from kubectl JSON output.
func (c *Client) ListPods(ctx context.Context, namespace string) (*corev1.PodList, error) {
	out, err := c.RunAndCapture(ctx, nil, "get", "pods", "-n", namespace, "-o", "json")
	if err != nil {
		return nil, fmt.Errorf("list pods in %q: %w", namespace, err)
	}

	var list corev1.PodList
	if err := json.Unmarshal(out, &list); err != nil {
		return nil, fmt.Errorf("decode pod list: %w", err)
	}
	return &list, nil
}

// IsPodReady reports whether the pod's Ready condition is true.
func IsPodReady(pod *corev1.Pod) bool {
	for _, cond := range pod.Status.Conditions {
		if cond.Type == corev1.PodReady && cond.Status == corev1.ConditionTrue {
			return true
		}
	}
	return false
}

// CountReady returns how many pods in the list report Ready, and the total.
func CountReady(list *corev1.PodList) (ready, total int) {
	if list == nil {
		return 0, 0
	}
	total = len(list.Items)
	for i := range list.Items {
		if IsPodReady(&list.Items[i]) {
			ready++
		}
	}
	return ready, total
}

// TailLogs returns the last lines of logs from pods matching the selector.
// The container may be an init container still running its startup work.
func (c *Client) TailLogs(ctx context.Context, namespace, selector, container string, lines int) (string, error) {
	args := []string{"logs", "-n", namespace, "-l", selector, "--tail", strconv.Itoa(lines)}
	if container != "" {
		args = append(args, "-c", container)
	}
	out, err := c.RunAndCapture(ctx, nil, args...)
	if err != nil {
		return "", fmt.Errorf("tail logs (%s): %w", selector, err)
	}
	return string(out), nil
}
