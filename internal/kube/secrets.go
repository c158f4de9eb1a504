package kube

import (
	"context"
	"encoding/json"
	"fmt"

	corev1 "k8s.io/api/core/v1"
)

// GetSecret fetches a Secret object. Secret data arrives base64-encoded on
// the wire and is decoded into Data by the JSON unmarshal.
func (c *Client) GetSecret(ctx context.Context, namespace, name string) (*corev1.Secret, error) {
	out, err := c.RunAndCapture(ctx, nil, "get", "secret", name, "-n", namespace, "-o", "json")
	if err != nil {
		if looksNotFound(err) {
			return nil, &NotFoundError{Kind: "secret", Name: name, Namespace: namespace}
		}
		return nil, fmt.Errorf("get secret %q: %w", name, err)
	}

	var secret corev1.Secret
	if err := json.Unmarshal(out, &secret); err != nil {
		return nil, fmt.Errorf("decode secret %q: %w", name, err)
	}
	return &secret, nil
}

// SecretField returns a single decoded field from a Secret.
func (c *Client) SecretField(ctx context.Context, namespace, name, key string) (string, error) {
	secret, err := c.GetSecret(ctx, namespace, name)
	if err != nil {
		return "", err
	}
	val, ok := secret.Data[key]
	if !ok {
		return "", &NotFoundError{Kind: "secret key", Name: name + "/" + key, Namespace: namespace}
	}
	return string(val), nil
}
