// Package campaign manages campaign skeletons and the per-party instances
// created from campaign templates.
package campaign

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/hpungsan/dmkit/internal/store"
)

const (
	skeletonFile     = "campaign_skeleton.md"
	progressFile     = "campaign_progress.md"
	logFile          = "campaign_log.md"
	manifestFile     = "template.yaml"
	instanceCharsDir = "characters"
)

// DefaultTemplateFiles are copied when a template has no manifest.
var DefaultTemplateFiles = []string{"campaign_guide.md", "npcs.md", "locations.md", "encounters.md"}

var (
	// ErrNotFound is returned for unknown campaigns or instances.
	ErrNotFound = errors.New("campaign not found")
	// ErrExists is returned when an instance directory already exists.
	ErrExists = errors.New("campaign instance already exists")
	// ErrUnsafeName is returned for names that are not a single path component.
	ErrUnsafeName = errors.New("unsafe campaign name")
)

// now is overridden in tests.
var now = time.Now

// Manifest describes a campaign template (template.yaml).
type Manifest struct {
	Title string   `yaml:"title"`
	Files []string `yaml:"files"`
}

// Manager works over a campaigns directory and a templates directory.
type Manager struct {
	CampaignsDir string
	TemplatesDir string
}

// Instance is the result of CreateInstance.
type Instance struct {
	Name        string   `json:"name"`
	Path        string   `json:"instance_path"`
	Copied      []string `json:"copied"`
	FilesCopied string   `json:"files_copied"`
}

func validateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || trimmed == "." || trimmed == ".." || strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: %q", ErrUnsafeName, name)
	}
	return nil
}

// List returns campaign directories that contain a campaign skeleton, sorted.
func (m *Manager) List() ([]string, error) {
	entries, err := os.ReadDir(m.CampaignsDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list campaigns: %w", err)
	}

	names := []string{}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(m.CampaignsDir, e.Name(), skeletonFile)); err == nil {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Load returns the skeleton markdown for a campaign.
func (m *Manager) Load(name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	data, err := os.ReadFile(filepath.Join(m.CampaignsDir, name, skeletonFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			available, _ := m.List()
			return "", fmt.Errorf("%w: %q (available: %s)", ErrNotFound, name, strings.Join(available, ", "))
		}
		return "", fmt.Errorf("read campaign skeleton: %w", err)
	}
	return string(data), nil
}

// LoadManifest reads <templates>/<template>/template.yaml. A missing manifest
// yields the default file list.
func (m *Manager) LoadManifest(template string) (*Manifest, error) {
	if err := validateName(template); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(m.TemplatesDir, template, manifestFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Manifest{Files: DefaultTemplateFiles}, nil
		}
		return nil, fmt.Errorf("read template manifest: %w", err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parse template manifest: %w", err)
	}
	if len(manifest.Files) == 0 {
		manifest.Files = DefaultTemplateFiles
	}
	for _, f := range manifest.Files {
		if err := validateName(f); err != nil {
			return nil, fmt.Errorf("template manifest file %q: %w", f, err)
		}
	}
	return &manifest, nil
}

// CreateInstance creates <campaigns>/<template>_<instance>/ with a characters
// directory, a progress sheet, an event log and copies of the template's
// reference files. A missing template still creates the instance. A failure
// after the directory is made removes it again.
func (m *Manager) CreateInstance(template, instance string) (_ *Instance, err error) {
	if err := validateName(template); err != nil {
		return nil, err
	}
	if err := validateName(instance); err != nil {
		return nil, err
	}

	templatePath := filepath.Join(m.TemplatesDir, template)
	_, statErr := os.Stat(templatePath)
	templateExists := statErr == nil

	title := titleCase(strings.ReplaceAll(template, "_", " "))
	var files []string
	if templateExists {
		manifest, err := m.LoadManifest(template)
		if err != nil {
			return nil, err
		}
		if manifest.Title != "" {
			title = manifest.Title
		}
		files = manifest.Files
	}

	name := template + "_" + instance
	path := filepath.Join(m.CampaignsDir, name)
	if err := os.MkdirAll(m.CampaignsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create campaigns dir: %w", err)
	}
	if err := os.Mkdir(path, 0o755); err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("%w: %q", ErrExists, name)
		}
		return nil, fmt.Errorf("create instance dir: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.RemoveAll(path)
		}
	}()
	if err := os.Mkdir(filepath.Join(path, instanceCharsDir), 0o755); err != nil {
		return nil, fmt.Errorf("create instance dir: %w", err)
	}

	t := now()
	var progress strings.Builder
	fmt.Fprintf(&progress, "# %s - %s\n\n", title, instance)
	fmt.Fprintf(&progress, "**Instance:** %s\n", instance)
	fmt.Fprintf(&progress, "**Template:** %s\n", template)
	fmt.Fprintf(&progress, "**Created:** %s\n\n", t.Format("2006-01-02"))
	progress.WriteString("## Current Progress\n")
	progress.WriteString("- **Act:** Not started\n")
	progress.WriteString("- **Beat:** Not started\n\n")
	progress.WriteString("## Party\n\n")
	progress.WriteString("## Key Decisions\n\n")
	if err := os.WriteFile(filepath.Join(path, progressFile), []byte(progress.String()), 0o644); err != nil {
		return nil, fmt.Errorf("write campaign progress: %w", err)
	}

	logBody := fmt.Sprintf("# %s - Event Log\n\n**%s** - Campaign instance created\n\n", title, t.Format("2006-01-02 15:04"))
	if err := os.WriteFile(filepath.Join(path, logFile), []byte(logBody), 0o644); err != nil {
		return nil, fmt.Errorf("write campaign log: %w", err)
	}

	out := &Instance{Name: name, Path: path, Copied: []string{}}
	if !templateExists {
		out.FilesCopied = fmt.Sprintf("Template '%s' not found", template)
		return out, nil
	}

	for _, f := range files {
		data, err := os.ReadFile(filepath.Join(templatePath, f))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("read template file %s: %w", f, err)
		}
		if err := os.WriteFile(filepath.Join(path, f), data, 0o644); err != nil {
			return nil, fmt.Errorf("copy template file %s: %w", f, err)
		}
		out.Copied = append(out.Copied, f)
	}

	if len(out.Copied) > 0 {
		out.FilesCopied = "Copied: " + strings.Join(out.Copied, ", ")
	} else {
		out.FilesCopied = "No files copied"
	}
	return out, nil
}

// AppendLog appends "**YYYY-MM-DD HH:MM** - entry" to an instance's event log.
func (m *Manager) AppendLog(instance, entry string) error {
	if err := validateName(instance); err != nil {
		return err
	}
	dir := filepath.Join(m.CampaignsDir, instance)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return fmt.Errorf("%w: instance %q", ErrNotFound, instance)
	}

	line := fmt.Sprintf("**%s** - %s\n\n", now().Format("2006-01-02 15:04"), entry)
	if err := store.AppendFile(filepath.Join(dir, logFile), line); err != nil {
		return fmt.Errorf("append campaign log: %w", err)
	}
	return nil
}

// titleCase upper-cases the first letter of every word and lower-cases the rest.
func titleCase(s string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range s {
		if prevLetter {
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(unicode.ToUpper(r))
		}
		prevLetter = unicode.IsLetter(r)
	}
	return b.String()
}
