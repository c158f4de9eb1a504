// Package creds retrieves operator login credentials from cluster Secrets
// and pairs them with the fixed usernames and local URLs of the lab services.
package creds

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dfir-lab/labctl/internal/config"
	"github.com/dfir-lab/labctl/internal/kube"
)

// SecretReader fetches a single decoded field from a cluster Secret.
type SecretReader interface {
	SecretField(ctx context.Context, namespace, name, key string) (string, error)
}

// Credential is one service's presented login information.
type Credential struct {
	// Service is the lab service short name.
	Service string
	// Username is the fixed login name.
	Username string
	// Password is the decoded secret value; empty when not found.
	Password string
	// URL is the local port-forwarded endpoint.
	URL string
	// Found reports whether the backing secret field existed.
	Found bool
}

// Collect fetches credentials for every descriptor carrying a secret
// reference. A missing secret marks that one entry as not found and does not
// abort the others; partial deployments are expected.
func Collect(ctx context.Context, reader SecretReader, logger *slog.Logger, namespace string, services []config.Service) []Credential {
	var out []Credential
	for _, svc := range services {
		if svc.Secret == nil {
			continue
		}
		cred := Credential{
			Service:  svc.Name,
			Username: svc.Username,
			URL:      svc.LocalURL(),
		}

		value, err := reader.SecretField(ctx, namespace, svc.Secret.Name, svc.Secret.Key)
		switch {
		case err == nil:
			cred.Password = value
			cred.Found = true
		case kube.IsNotFound(err):
			logger.Warn("credential secret not found; service may not be deployed yet",
				"service", svc.Name,
				"secret", svc.Secret.Name,
			)
		default:
			logger.Warn("credential lookup failed",
				"service", svc.Name,
				"secret", svc.Secret.Name,
				"error", err,
			)
		}
		out = append(out, cred)
	}
	return out
}

// ForService fetches the credential for a single named service.
func ForService(ctx context.Context, reader SecretReader, logger *slog.Logger, lab *config.Lab, name string) (Credential, error) {
	svc, ok := lab.FindService(name)
	if !ok {
		return Credential{}, fmt.Errorf("unknown service %q", name)
	}
	if svc.Secret == nil {
		return Credential{}, fmt.Errorf("service %q has no credential secret", name)
	}
	creds := Collect(ctx, reader, logger, lab.Namespace, []config.Service{svc})
	return creds[0], nil
}
