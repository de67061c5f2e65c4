package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SavedScript is a generated script stored as a Fusion 360 script folder:
// <dir>/<name>/<name>.py plus <name>.manifest
type SavedScript struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Source      string `json:"script"`
}

// Manifest is the Fusion 360 script manifest
type Manifest struct {
	AutodeskProduct string            `json:"autodeskProduct"`
	Type            string            `json:"type"`
	Author          string            `json:"author"`
	Description     map[string]string `json:"description"`
	SupportedOS     string            `json:"supportedOS"`
	EditEnabled     bool              `json:"editEnabled"`
}

func newManifest(description string) Manifest {
	return Manifest{
		AutodeskProduct: "Fusion360",
		Type:            "script",
		Description:     map[string]string{"": description},
		SupportedOS:     "windows|mac",
		EditEnabled:     true,
	}
}

// ErrNotFound is returned for a script that does not exist
var ErrNotFound = errors.New("script does not exist")

// Store saves scripts under one directory
type Store struct {
	dir string
}

// NewStore returns a store rooted at dir
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the store's root directory
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) folder(name string) string {
	return filepath.Join(s.dir, name)
}

// Save writes a script folder, replacing any existing script of that name
func (s *Store) Save(script *SavedScript) error {
	if err := validateScriptName(script.Name); err != nil {
		return err
	}

	folder := s.folder(script.Name)
	if err := os.MkdirAll(folder, 0755); err != nil {
		return fmt.Errorf("failed to create script folder: %w", err)
	}

	data, err := json.MarshalIndent(newManifest(script.Description), "", "\t")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(folder, script.Name+".manifest"), data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(folder, script.Name+".py"), []byte(script.Source), 0644); err != nil {
		return fmt.Errorf("failed to write script file: %w", err)
	}

	return nil
}

// Load reads a saved script
func (s *Store) Load(name string) (*SavedScript, error) {
	if err := validateScriptName(name); err != nil {
		return nil, err
	}

	folder := s.folder(name)
	source, err := os.ReadFile(filepath.Join(folder, name+".py"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("script '%s': %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read script file: %w", err)
	}

	script := &SavedScript{Name: name, Source: string(source)}

	data, err := os.ReadFile(filepath.Join(folder, name+".manifest"))
	switch {
	case err == nil:
		var manifest Manifest
		if err := json.Unmarshal(data, &manifest); err != nil {
			return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
		}
		script.Description = manifest.Description[""]
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	return script, nil
}

// List returns all saved scripts in name order
func (s *Store) List() ([]*SavedScript, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*SavedScript{}, nil
		}
		return nil, fmt.Errorf("failed to read scripts directory: %w", err)
	}

	scripts := []*SavedScript{}
	for _, entry := range entries {
		if !entry.IsDir() || validateScriptName(entry.Name()) != nil {
			continue
		}
		script, err := s.Load(entry.Name())
		if err != nil {
			// Skip folders that are not saved scripts but continue with others
			continue
		}
		scripts = append(scripts, script)
	}

	return scripts, nil
}

// Delete removes a script folder
func (s *Store) Delete(name string) error {
	if err := validateScriptName(name); err != nil {
		return err
	}

	folder := s.folder(name)
	if _, err := os.Stat(filepath.Join(folder, name+".py")); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("script '%s': %w", name, ErrNotFound)
		}
		return fmt.Errorf("failed to delete script: %w", err)
	}
	if err := os.RemoveAll(folder); err != nil {
		return fmt.Errorf("failed to delete script: %w", err)
	}

	return nil
}

// validateScriptName ensures the name is safe as a folder and file name
func validateScriptName(name string) error {
	if name == "" {
		return fmt.Errorf("script name cannot be empty")
	}

	if len(name) > 100 {
		return fmt.Errorf("script name too long (max 100 characters)")
	}

	unsafe := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|", "..", " "}
	for _, char := range unsafe {
		if strings.Contains(name, char) {
			return fmt.Errorf("script name contains invalid character: %s", char)
		}
	}

	if strings.HasPrefix(name, ".") {
		return fmt.Errorf("script name cannot start with a dot")
	}

	return nil
}
