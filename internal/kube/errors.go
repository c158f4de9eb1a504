package kube

import (
	"errors"
	"fmt"
	"strings"
)

// NotFoundError indicates a cluster object is absent.
type NotFoundError struct {
	// Kind is the object kind queried (e.g. "secret").
	Kind string
	// Name is the object name.
	Name string
	// Namespace is the namespace searched.
	Namespace string
}

func (e *NotFoundError) Error() string {
	if e == nil {
		return "object not found"
	}
	return fmt.Sprintf("%s %q not found in namespace %q", e.Kind, e.Name, e.Namespace)
}

// IsNotFound reports whether err indicates a missing cluster object.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// looksNotFound matches kubectl's NotFound diagnostics in a captured error.
func looksNotFound(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "notfound") || strings.Contains(msg, "not found")
}
