package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	lab, err := Load(filepath.Join(t.TempDir(), "lab.yaml"), LoadOptions{})
	if err != nil {
		t.Fatalf("Load with missing file: %v", err)
	}

	if lab.Project != "dfir-lab" {
		t.Errorf("Project = %q, want dfir-lab", lab.Project)
	}
	if lab.Namespace != "osdfir" {
		t.Errorf("Namespace = %q, want osdfir", lab.Namespace)
	}
	if lab.Release != "osdfir-lab" {
		t.Errorf("Release = %q, want osdfir-lab", lab.Release)
	}
	if lab.Minikube.Profile != "dfir-lab" {
		t.Errorf("Minikube.Profile = %q, want dfir-lab", lab.Minikube.Profile)
	}
	if lab.Minikube.Driver != "docker" || lab.Minikube.CPUs != 4 || lab.Minikube.Memory != "12g" {
		t.Errorf("minikube defaults = %+v", lab.Minikube)
	}
	if lab.Terraform.Dir != "terraform" {
		t.Errorf("Terraform.Dir = %q, want terraform", lab.Terraform.Dir)
	}
	if got := len(lab.Services); got != 6 {
		t.Fatalf("default services = %d, want 6", got)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lab.yaml")
	raw := `
project: mylab
namespace: forensics
minikube:
  cpus: 8
  memory: 16g
services:
  - name: timesketch
    service: timesketch-web
    port: 5000
    localPort: 5601
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	lab, err := Load(path, LoadOptions{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if lab.Project != "mylab" {
		t.Errorf("Project = %q", lab.Project)
	}
	if lab.Namespace != "forensics" {
		t.Errorf("Namespace = %q", lab.Namespace)
	}
	if lab.Minikube.CPUs != 8 || lab.Minikube.Memory != "16g" {
		t.Errorf("minikube = %+v", lab.Minikube)
	}
	// Profile defaults to the project name when unset.
	if lab.Minikube.Profile != "mylab" {
		t.Errorf("Minikube.Profile = %q, want mylab", lab.Minikube.Profile)
	}
	if len(lab.Services) != 1 || lab.Services[0].Name != "timesketch" {
		t.Errorf("services = %+v", lab.Services)
	}
	if lab.BaseDir != dir {
		t.Errorf("BaseDir = %q, want %q", lab.BaseDir, dir)
	}
}

func TestLoadOverrides(t *testing.T) {
	lab, err := Load(filepath.Join(t.TempDir(), "lab.yaml"), LoadOptions{
		Namespace: "other",
		Release:   "other-release",
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if lab.Namespace != "other" {
		t.Errorf("Namespace = %q, want other", lab.Namespace)
	}
	if lab.Release != "other-release" {
		t.Errorf("Release = %q, want other-release", lab.Release)
	}
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "empty service name",
			yaml: "services:\n  - name: \"\"\n    service: web\n    port: 80\n",
			want: "empty name",
		},
		{
			name: "missing kubernetes service",
			yaml: "services:\n  - name: web\n    port: 80\n",
			want: "kubernetes service name is required",
		},
		{
			name: "non-positive port",
			yaml: "services:\n  - name: web\n    service: web\n    port: 0\n",
			want: "port must be positive",
		},
		{
			name: "duplicate name",
			yaml: "services:\n  - name: web\n    service: web\n    port: 80\n  - name: WEB\n    service: web2\n    port: 81\n",
			want: "duplicate service name",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "lab.yaml")
			if err := os.WriteFile(path, []byte(tc.yaml), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path, LoadOptions{})
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error = %q, want substring %q", err, tc.want)
			}
		})
	}
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	labYAML := "envFiles:\n  - .env\n  - missing.env\n"
	if err := os.WriteFile(filepath.Join(dir, "lab.yaml"), []byte(labYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("TF_VAR_model=gemma\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	lab, err := Load(filepath.Join(dir, "lab.yaml"), LoadOptions{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := lab.Env["TF_VAR_model"]; got != "gemma" {
		t.Errorf("Env[TF_VAR_model] = %q, want gemma", got)
	}
}

func TestFindService(t *testing.T) {
	lab := &Lab{Services: DefaultServices()}

	svc, ok := lab.FindService("TimeSketch")
	if !ok {
		t.Fatal("FindService(TimeSketch) not found")
	}
	if svc.Service != "timesketch-web" {
		t.Errorf("Service = %q", svc.Service)
	}

	if _, ok := lab.FindService("nope"); ok {
		t.Error("FindService(nope) unexpectedly found")
	}
}

func TestServiceURLAndPort(t *testing.T) {
	svc := Service{Name: "yeti", Service: "yeti-frontend", Port: 80, LocalPort: 9000, URLPath: "/login"}
	if got := svc.LocalURL(); got != "http://localhost:9000/login" {
		t.Errorf("LocalURL = %q", got)
	}
	if got := svc.EffectiveLocalPort(); got != 9000 {
		t.Errorf("EffectiveLocalPort = %d", got)
	}

	bare := Service{Name: "ollama", Service: "ollama", Port: 11434}
	if got := bare.LocalURL(); got != "http://localhost:11434" {
		t.Errorf("LocalURL = %q", got)
	}
	if got := bare.EffectiveLocalPort(); got != 11434 {
		t.Errorf("EffectiveLocalPort = %d", got)
	}
}

func TestReadinessDurations(t *testing.T) {
	lab := &Lab{}
	if got := lab.ReadinessTimeout(); got != 600*time.Second {
		t.Errorf("default timeout = %v", got)
	}
	if got := lab.ReadinessInterval(); got != 15*time.Second {
		t.Errorf("default interval = %v", got)
	}

	lab.Readiness.Timeout = "5m"
	lab.Readiness.Interval = "3s"
	if got := lab.ReadinessTimeout(); got != 5*time.Minute {
		t.Errorf("timeout = %v, want 5m", got)
	}
	if got := lab.ReadinessInterval(); got != 3*time.Second {
		t.Errorf("interval = %v, want 3s", got)
	}

	lab.Readiness.Timeout = "bogus"
	if got := lab.ReadinessTimeout(); got != 600*time.Second {
		t.Errorf("unparseable timeout = %v, want fallback", got)
	}
}
