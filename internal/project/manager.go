package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/codecell/codecell/internal/common/logger"
	"github.com/codecell/codecell/internal/events"
	"github.com/codecell/codecell/internal/events/bus"
)

// ErrNotFound is returned when a project or template does not exist.
var ErrNotFound = errors.New("project not found")

// ErrInvalidID is returned when a project id or file name cannot be used as
// a path component.
var ErrInvalidID = errors.New("invalid project identifier")

// validPathComponent rejects names that would resolve outside their parent
// directory. Project ids and file names both end up joined under dataDir.
func validPathComponent(name string) bool {
	if name == "" || name == "." || strings.Contains(name, "..") {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}

// Manager owns the project data directory: scratch workspaces under temp/,
// plus the SQLite-backed recent list and custom templates.
type Manager struct {
	dataDir string
	tempDir string
	store   *Store
	bus     bus.EventBus
	log     *logger.Logger
}

// NewManager wires a manager over dataDir. The bus receives project.saved
// and project.deleted events.
func NewManager(dataDir string, store *Store, eventBus bus.EventBus, log *logger.Logger) *Manager {
	return &Manager{
		dataDir: dataDir,
		tempDir: filepath.Join(dataDir, "temp"),
		store:   store,
		bus:     eventBus,
		log:     log.WithFields(zap.String("component", "project-manager")),
	}
}

// Init creates the on-disk directory layout.
func (m *Manager) Init() error {
	for _, dir := range []string{m.tempDir, filepath.Join(m.dataDir, "projects")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	return nil
}

// SaveTemp writes a scratch project under temp/<id>: a meta.json with the
// full project plus each file as a plain sibling for direct editing.
func (m *Manager) SaveTemp(ctx context.Context, p Project) (string, error) {
	if !validPathComponent(p.ID) {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, p.ID)
	}
	for _, f := range p.Files {
		if !validPathComponent(f.Name) {
			return "", fmt.Errorf("%w: file %q", ErrInvalidID, f.Name)
		}
	}

	projectDir := filepath.Join(m.tempDir, p.ID)
	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create project directory: %w", err)
	}

	meta, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode project: %w", err)
	}
	if err := os.WriteFile(filepath.Join(projectDir, "meta.json"), meta, 0o644); err != nil {
		return "", fmt.Errorf("failed to write project metadata: %w", err)
	}

	for _, f := range p.Files {
		if err := os.WriteFile(filepath.Join(projectDir, f.Name), []byte(f.Content), 0o644); err != nil {
			return "", fmt.Errorf("failed to write project file %s: %w", f.Name, err)
		}
	}

	m.publish(ctx, events.ProjectSaved, p.ID)
	return projectDir, nil
}

// LoadTemp reads a scratch project's metadata back.
func (m *Manager) LoadTemp(id string) (Project, error) {
	if !validPathComponent(id) {
		return Project{}, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	metaPath := filepath.Join(m.tempDir, id, "meta.json")
	data, err := os.ReadFile(metaPath)
	if errors.Is(err, os.ErrNotExist) {
		return Project{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Project{}, fmt.Errorf("failed to read project metadata: %w", err)
	}

	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return Project{}, fmt.Errorf("failed to decode project %s: %w", id, err)
	}
	return p, nil
}

// DeleteTemp removes a scratch project directory. Absent ids are not an
// error.
func (m *Manager) DeleteTemp(ctx context.Context, id string) error {
	if !validPathComponent(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	projectDir := filepath.Join(m.tempDir, id)
	if _, err := os.Stat(projectDir); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := os.RemoveAll(projectDir); err != nil {
		return fmt.Errorf("failed to delete project %s: %w", id, err)
	}
	m.publish(ctx, events.ProjectDeleted, id)
	return nil
}

// SaveToPath exports a project as one JSON document.
func (m *Manager) SaveToPath(p Project, path string) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode project: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write project: %w", err)
	}
	return nil
}

// LoadFromPath imports a project from a JSON document.
func (m *Manager) LoadFromPath(path string) (Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Project{}, fmt.Errorf("failed to read project: %w", err)
	}
	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return Project{}, fmt.Errorf("failed to decode project: %w", err)
	}
	return p, nil
}

// CleanupOldTemp removes scratch projects whose directory has not been
// modified within maxAge. Failures on individual entries are skipped.
func (m *Manager) CleanupOldTemp(maxAge time.Duration) error {
	entries, err := os.ReadDir(m.tempDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to scan temp directory: %w", err)
	}

	now := time.Now()
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) > maxAge {
			path := filepath.Join(m.tempDir, entry.Name())
			if err := os.RemoveAll(path); err != nil {
				m.log.WithError(err).Warn("failed to remove stale project",
					zap.String("path", path))
			}
		}
	}
	return nil
}

// AddRecent records a project in the recent list, trimming to the newest
// entries.
func (m *Manager) AddRecent(ctx context.Context, rp RecentProject) error {
	return m.store.AddRecent(ctx, rp)
}

// Recents lists recent projects, newest first.
func (m *Manager) Recents(ctx context.Context) ([]RecentProject, error) {
	return m.store.Recents(ctx)
}

// RemoveRecent drops one project from the recent list.
func (m *Manager) RemoveRecent(ctx context.Context, id string) error {
	return m.store.RemoveRecent(ctx, id)
}

// SaveTemplate stores a custom template.
func (m *Manager) SaveTemplate(ctx context.Context, tpl CustomTemplate) error {
	return m.store.SaveTemplate(ctx, tpl)
}

// Templates lists custom templates, newest first.
func (m *Manager) Templates(ctx context.Context) ([]CustomTemplate, error) {
	return m.store.Templates(ctx)
}

// GetTemplate fetches one custom template.
func (m *Manager) GetTemplate(ctx context.Context, id string) (CustomTemplate, error) {
	return m.store.GetTemplate(ctx, id)
}

// DeleteTemplate removes a custom template.
func (m *Manager) DeleteTemplate(ctx context.Context, id string) error {
	return m.store.DeleteTemplate(ctx, id)
}

func (m *Manager) publish(ctx context.Context, eventType, projectID string) {
	if m.bus == nil {
		return
	}
	event := bus.NewEvent(eventType, "project-manager", map[string]any{
		"projectId": projectID,
	})
	if err := m.bus.Publish(ctx, eventType, event); err != nil {
		m.log.WithError(err).Warn("failed to publish project event")
	}
}
