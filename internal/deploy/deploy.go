package deploy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var (
	ErrInvalidID   = errors.New("invalid deployment id")
	ErrInvalidFile = errors.New("invalid file name")
)

var safeID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Deployer writes static tool bundles under a root directory and optionally
// hands each bundle to a hook command (e.g. a CDN sync script).
type Deployer struct {
	root string
	hook string
}

func NewDeployer(root, hook string) *Deployer {
	return &Deployer{root: root, hook: hook}
}

// Deployment describes a written bundle.
type Deployment struct {
	ID         string   `json:"id"`
	Dir        string   `json:"dir"`
	Path       string   `json:"path"` // entry point, index.html
	Files      []string `json:"files"`
	HookOutput string   `json:"hookOutput,omitempty"`
}

// Deploy takes a map of filename->content for one tool and publishes it to
// <root>/<id>/, replacing any earlier bundle for the same id.
func (d *Deployer) Deploy(ctx context.Context, id string, files map[string]string) (Deployment, error) {
	if !safeID.MatchString(id) {
		return Deployment{}, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	for name := range files {
		if err := checkName(name); err != nil {
			return Deployment{}, err
		}
	}

	if err := os.MkdirAll(d.root, 0755); err != nil {
		return Deployment{}, fmt.Errorf("failed to create deploy dir: %w", err)
	}

	// Stage next to the target so the final rename stays on one filesystem.
	tempDir, err := os.MkdirTemp(d.root, ".deploy-*")
	if err != nil {
		return Deployment{}, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	names := make([]string, 0, len(files))
	for name, content := range files {
		filePath := filepath.Join(tempDir, name)
		if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
			return Deployment{}, fmt.Errorf("failed to create subdirectories for %s: %w", name, err)
		}
		if err := os.WriteFile(filePath, []byte(content), 0644); err != nil {
			return Deployment{}, fmt.Errorf("failed to write file %s: %w", name, err)
		}
		names = append(names, name)
	}
	sort.Strings(names)
	if err := os.Chmod(tempDir, 0755); err != nil {
		return Deployment{}, fmt.Errorf("failed to set permissions on %s: %w", tempDir, err)
	}

	target := filepath.Join(d.root, id)
	if err := os.RemoveAll(target); err != nil {
		return Deployment{}, fmt.Errorf("failed to remove previous bundle: %w", err)
	}
	if err := os.Rename(tempDir, target); err != nil {
		return Deployment{}, fmt.Errorf("failed to publish bundle: %w", err)
	}
	log.Printf("Wrote %d files for tool %s to %s", len(names), id, target)

	dep := Deployment{
		ID:    id,
		Dir:   target,
		Path:  filepath.Join(target, "index.html"),
		Files: names,
	}

	if d.hook == "" {
		return dep, nil
	}

	out, err := d.runHook(ctx, target)
	dep.HookOutput = out
	if err != nil {
		return dep, err
	}
	return dep, nil
}

func (d *Deployer) runHook(ctx context.Context, dir string) (string, error) {
	cmd := exec.CommandContext(ctx, d.hook, dir)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Printf("Running deploy hook: %s", cmd.String())
	if err := cmd.Run(); err != nil {
		log.Printf("deploy hook stderr: %s", stderr.String())
		return stdout.String(), fmt.Errorf("deploy hook failed: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}
	output := strings.TrimSpace(stdout.String())
	log.Printf("deploy hook stdout: %s", output)
	return output, nil
}

func checkName(name string) error {
	clean := filepath.Clean(name)
	if name == "" || filepath.IsAbs(name) || clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: %q", ErrInvalidFile, name)
	}
	return nil
}
