// Package config contains the loader and strongly typed model for lab.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dfir-lab/labctl/internal/env"
)

// Lab represents the high-level description of the forensics lab deployment.
// It mirrors the structure of lab.yaml.
type Lab struct {
	// Project is the short project name used for defaults.
	Project string `yaml:"project"`
	// Namespace is the Kubernetes namespace the lab workloads live in.
	Namespace string `yaml:"namespace,omitempty"`
	// Release is the Helm release name applied by Terraform.
	Release string `yaml:"release,omitempty"`
	// EnvFiles lists .env files merged into the tool environment.
	EnvFiles []string `yaml:"envFiles,omitempty"`
	// Minikube configures the local cluster.
	Minikube MinikubeConfig `yaml:"minikube,omitempty"`
	// Terraform configures the provisioning step.
	Terraform TerraformConfig `yaml:"terraform,omitempty"`
	// Readiness configures the post-apply readiness poll.
	Readiness ReadinessConfig `yaml:"readiness,omitempty"`
	// Services is the fixed descriptor set for port-forwards and credentials.
	Services []Service `yaml:"services,omitempty"`
	// Backup configures workspace and chart archive outputs.
	Backup BackupConfig `yaml:"backup,omitempty"`

	// Env holds the merged contents of EnvFiles; populated by Load.
	Env env.Vars `yaml:"-"`
	// BaseDir is the directory containing the config file; populated by Load.
	BaseDir string `yaml:"-"`
}

// MinikubeConfig describes the local cluster profile.
type MinikubeConfig struct {
	// Profile is the minikube profile name.
	Profile string `yaml:"profile,omitempty"`
	// Driver selects the minikube driver (e.g. docker).
	Driver string `yaml:"driver,omitempty"`
	// CPUs is the CPU count for the cluster VM/container.
	CPUs int `yaml:"cpus,omitempty"`
	// Memory is the memory size for the cluster (e.g. "12g").
	Memory string `yaml:"memory,omitempty"`
	// DiskSize is the disk size for the cluster (e.g. "80g").
	DiskSize string `yaml:"diskSize,omitempty"`
	// Addons lists minikube addons enabled at start.
	Addons []string `yaml:"addons,omitempty"`
}

// TerraformConfig describes where the infrastructure declarations live.
type TerraformConfig struct {
	// Dir is the directory containing the Terraform root module.
	Dir string `yaml:"dir,omitempty"`
}

// ReadinessConfig tunes the deployment readiness poll.
type ReadinessConfig struct {
	// Timeout bounds the whole poll (e.g. "600s").
	Timeout string `yaml:"timeout,omitempty"`
	// Interval is the delay between poll ticks (e.g. "15s").
	Interval string `yaml:"interval,omitempty"`
	// ModelPull identifies the long-running model download step to report on.
	ModelPull ModelPullConfig `yaml:"modelPull,omitempty"`
}

// ModelPullConfig locates the model-download init step whose logs are scraped
// for coarse progress messages.
type ModelPullConfig struct {
	// Selector is the pod label selector (e.g. "app.kubernetes.io/name=ollama").
	Selector string `yaml:"selector,omitempty"`
	// Container is the init container name performing the download.
	Container string `yaml:"container,omitempty"`
}

// Service describes one lab service exposed via port-forward.
type Service struct {
	// Name is the short service name used in job names and output.
	Name string `yaml:"name"`
	// Service is the Kubernetes Service object name.
	Service string `yaml:"service"`
	// Port is the service port inside the cluster.
	Port int `yaml:"port"`
	// LocalPort is the local listener port; defaults to Port.
	LocalPort int `yaml:"localPort,omitempty"`
	// Username is the fixed operator login name, when the service has one.
	Username string `yaml:"username,omitempty"`
	// URLPath is appended to the local URL (e.g. "/login").
	URLPath string `yaml:"urlPath,omitempty"`
	// Secret references the cluster Secret holding the login password.
	Secret *SecretRef `yaml:"secret,omitempty"`
}

// SecretRef names a Secret object and the field key holding a credential.
type SecretRef struct {
	// Name is the Secret object name.
	Name string `yaml:"name"`
	// Key is the data field key inside the Secret.
	Key string `yaml:"key"`
}

// BackupConfig describes backup artifact locations.
type BackupConfig struct {
	// Dir is the output directory for backup archives.
	Dir string `yaml:"dir,omitempty"`
	// ChartDir is the vendored upstream chart data directory.
	ChartDir string `yaml:"chartDir,omitempty"`
	// Skip lists directory names excluded from workspace archives.
	Skip []string `yaml:"skip,omitempty"`
}

// LoadOptions carries overrides applied on top of the file contents.
type LoadOptions struct {
	// Namespace overrides the configured namespace when non-empty.
	Namespace string
	// Release overrides the configured release name when non-empty.
	Release string
}

// LocalURL returns the service URL reachable through its port-forward.
func (s Service) LocalURL() string {
	port := s.LocalPort
	if port == 0 {
		port = s.Port
	}
	return fmt.Sprintf("http://localhost:%d%s", port, s.URLPath)
}

// EffectiveLocalPort returns the local listener port for the service.
func (s Service) EffectiveLocalPort() int {
	if s.LocalPort != 0 {
		return s.LocalPort
	}
	return s.Port
}

// ReadinessTimeout parses the configured poll timeout.
func (l *Lab) ReadinessTimeout() time.Duration {
	return parseDurationOr(l.Readiness.Timeout, 600*time.Second)
}

// ReadinessInterval parses the configured poll interval.
func (l *Lab) ReadinessInterval() time.Duration {
	return parseDurationOr(l.Readiness.Interval, 15*time.Second)
}

// FindService looks up a descriptor by short name, case-insensitively.
func (l *Lab) FindService(name string) (Service, bool) {
	for _, svc := range l.Services {
		if strings.EqualFold(svc.Name, name) {
			return svc, true
		}
	}
	return Service{}, false
}

func parseDurationOr(value string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(value)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Load reads lab.yaml from path, applies defaults and overrides, and merges
// env files. A missing file yields the built-in defaults so the tool works
// from a clean checkout.
func Load(path string, opts LoadOptions) (*Lab, error) {
	lab := &Lab{}

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, lab); err != nil {
			return nil, fmt.Errorf("parse config %q: %w", path, err)
		}
		lab.BaseDir = filepath.Dir(path)
	case os.IsNotExist(err):
		lab.BaseDir = "."
	default:
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}

	applyDefaults(lab)

	if opts.Namespace != "" {
		lab.Namespace = opts.Namespace
	}
	if opts.Release != "" {
		lab.Release = opts.Release
	}

	if err := validate(lab); err != nil {
		return nil, err
	}

	vars, err := env.LoadEnvFiles(lab.BaseDir, lab.EnvFiles)
	if err != nil {
		return nil, err
	}
	lab.Env = vars

	return lab, nil
}

func applyDefaults(lab *Lab) {
	if lab.Project == "" {
		lab.Project = "dfir-lab"
	}
	if lab.Namespace == "" {
		lab.Namespace = "osdfir"
	}
	if lab.Release == "" {
		lab.Release = "osdfir-lab"
	}
	if lab.Minikube.Profile == "" {
		lab.Minikube.Profile = lab.Project
	}
	if lab.Minikube.Driver == "" {
		lab.Minikube.Driver = "docker"
	}
	if lab.Minikube.CPUs == 0 {
		lab.Minikube.CPUs = 4
	}
	if lab.Minikube.Memory == "" {
		lab.Minikube.Memory = "12g"
	}
	if lab.Terraform.Dir == "" {
		lab.Terraform.Dir = "terraform"
	}
	if lab.Readiness.ModelPull.Selector == "" {
		lab.Readiness.ModelPull.Selector = "app.kubernetes.io/name=ollama"
	}
	if lab.Readiness.ModelPull.Container == "" {
		lab.Readiness.ModelPull.Container = "pull-model"
	}
	if lab.Backup.Dir == "" {
		lab.Backup.Dir = "backups"
	}
	if lab.Backup.ChartDir == "" {
		lab.Backup.ChartDir = filepath.Join("charts", "vendor")
	}
	if len(lab.Backup.Skip) == 0 {
		lab.Backup.Skip = []string{".git", ".terraform", "backups"}
	}
	if len(lab.Services) == 0 {
		lab.Services = DefaultServices()
	}
}

func validate(lab *Lab) error {
	seen := make(map[string]struct{}, len(lab.Services))
	for _, svc := range lab.Services {
		if strings.TrimSpace(svc.Name) == "" {
			return fmt.Errorf("service with empty name in config")
		}
		if strings.TrimSpace(svc.Service) == "" {
			return fmt.Errorf("service %q: kubernetes service name is required", svc.Name)
		}
		if svc.Port <= 0 {
			return fmt.Errorf("service %q: port must be positive", svc.Name)
		}
		key := strings.ToLower(svc.Name)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate service name %q", svc.Name)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// DefaultServices returns the built-in descriptor set for the lab stack.
// The mapping is fixed and hand-maintained; lab.yaml may override it.
func DefaultServices() []Service {
	return []Service{
		{
			Name:      "timesketch",
			Service:   "timesketch-web",
			Port:      5000,
			LocalPort: 5601,
			Username:  "admin",
			Secret:    &SecretRef{Name: "timesketch-secret", Key: "timesketch-user"},
		},
		{
			Name:      "openrelik-ui",
			Service:   "openrelik-ui",
			Port:      8711,
			LocalPort: 8711,
			Username:  "openrelik",
			Secret:    &SecretRef{Name: "openrelik-secret", Key: "openrelik-user"},
		},
		{
			Name:      "openrelik-api",
			Service:   "openrelik-api",
			Port:      8710,
			LocalPort: 8710,
		},
		{
			Name:      "yeti",
			Service:   "yeti-frontend",
			Port:      80,
			LocalPort: 9000,
			Username:  "yeti",
			Secret:    &SecretRef{Name: "yeti-secret", Key: "yeti-user"},
		},
		{
			Name:      "hashr",
			Service:   "hashr-postgresql",
			Port:      5432,
			LocalPort: 5432,
			Username:  "postgres",
			Secret:    &SecretRef{Name: "hashr-postgresql", Key: "postgres-password"},
		},
		{
			Name:      "ollama",
			Service:   "ollama",
			Port:      11434,
			LocalPort: 11434,
		},
	}
}
