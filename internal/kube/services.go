package kube

import (
	"context"
	"encoding/json"
	"fmt"

	corev1 "k8s.io/api/core/v1"
)

// GetService fetches a Service object from the namespace.
func (c *Client) GetService(ctx context.Context, namespace, name string) (*corev1.Service, error) {
	out, err := c.RunAndCapture(ctx, nil, "get", "service", name, "-n", namespace, "-o", "json")
	if err != nil {
		if looksNotFound(err) {
			return nil, &NotFoundError{Kind: "service", Name: name, Namespace: namespace}
		}
		return nil, fmt.Errorf("get service %q: %w", name, err)
	}

	var svc corev1.Service
	if err := json.Unmarshal(out, &svc); err != nil {
		return nil, fmt.Errorf("decode service %q: %w", name, err)
	}
	return &svc, nil
}

// ServiceExists reports whether the named Service object exists.
func (c *Client) ServiceExists(ctx context.Context, namespace, name string) (bool, error) {
	_, err := c.GetService(ctx, namespace, name)
	if err == nil {
		return true, nil
	}
	if IsNotFound(err) {
		return false, nil
	}
	return false, err
}
