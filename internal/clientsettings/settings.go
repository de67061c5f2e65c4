// Package clientsettings edits the JSON settings file an MCP client (Claude
// Desktop, Cline) reads its server list from. Only the mcpServers map is
// interpreted; every other key in the file is written back untouched.
package clientsettings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const serversKey = "mcpServers"

// ErrServerNotFound is returned when a named server is not in the file
var ErrServerNotFound = errors.New("server not found")

// ServerConfig is one entry of the mcpServers map
type ServerConfig struct {
	Command     string            `json:"command"`
	Args        []string          `json:"args"`
	Env         map[string]string `json:"env"`
	Disabled    bool              `json:"disabled"`
	AutoApprove []string          `json:"autoApprove"`
}

// NamedServer pairs a server entry with its key
type NamedServer struct {
	Name string
	ServerConfig
}

// NewServerConfig returns the entry that launches command with the MCP stdio
// subcommand
func NewServerConfig(command string, disabled bool) ServerConfig {
	return ServerConfig{
		Command:     command,
		Args:        []string{"mcp"},
		Env:         map[string]string{},
		Disabled:    disabled,
		AutoApprove: []string{},
	}
}

// File is a loaded settings file
type File struct {
	path    string
	other   map[string]json.RawMessage
	servers map[string]json.RawMessage
}

// Load reads the settings file at path. A missing file is an error that
// matches os.ErrNotExist.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	f := &File{path: path, other: map[string]json.RawMessage{}, servers: map[string]json.RawMessage{}}
	if err := json.Unmarshal(data, &f.other); err != nil {
		return nil, fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}
	if raw, ok := f.other[serversKey]; ok {
		delete(f.other, serversKey)
		if string(raw) != "null" {
			if err := json.Unmarshal(raw, &f.servers); err != nil {
				return nil, fmt.Errorf("failed to parse %s in %s: %w", serversKey, path, err)
			}
		}
	}
	return f, nil
}

// LoadOrNew reads the settings file at path, or starts an empty one when it
// does not exist yet
func LoadOrNew(path string) (*File, error) {
	f, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return &File{path: path, other: map[string]json.RawMessage{}, servers: map[string]json.RawMessage{}}, nil
	}
	return f, err
}

// Path returns the file location
func (f *File) Path() string {
	return f.path
}

// Servers returns every configured server sorted by name
func (f *File) Servers() ([]NamedServer, error) {
	names := make([]string, 0, len(f.servers))
	for name := range f.servers {
		names = append(names, name)
	}
	sort.Strings(names)

	servers := make([]NamedServer, 0, len(names))
	for _, name := range names {
		var cfg ServerConfig
		if err := json.Unmarshal(f.servers[name], &cfg); err != nil {
			return nil, fmt.Errorf("server %s: %w", name, err)
		}
		servers = append(servers, NamedServer{Name: name, ServerConfig: cfg})
	}
	return servers, nil
}

// Install adds or replaces the named server
func (f *File) Install(name string, cfg ServerConfig) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("server name is required")
	}
	if strings.TrimSpace(cfg.Command) == "" {
		return fmt.Errorf("server %s has empty command", name)
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode server %s: %w", name, err)
	}
	f.servers[name] = raw
	return nil
}

// Remove deletes the named server
func (f *File) Remove(name string) error {
	if _, ok := f.servers[name]; !ok {
		return fmt.Errorf("%w: %s", ErrServerNotFound, name)
	}
	delete(f.servers, name)
	return nil
}

// SetDisabled flips the disabled flag of the named server. Keys of the entry
// other than disabled are kept as they are.
func (f *File) SetDisabled(name string, disabled bool) error {
	raw, ok := f.servers[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrServerNotFound, name)
	}

	entry := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &entry); err != nil {
		return fmt.Errorf("server %s: %w", name, err)
	}
	entry["disabled"] = json.RawMessage(fmt.Sprintf("%t", disabled))

	updated, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode server %s: %w", name, err)
	}
	f.servers[name] = updated
	return nil
}

// Validate checks every server entry decodes and names a command
func (f *File) Validate() error {
	servers, err := f.Servers()
	if err != nil {
		return err
	}
	for _, s := range servers {
		if strings.TrimSpace(s.Command) == "" {
			return fmt.Errorf("server %s has empty command", s.Name)
		}
	}
	return nil
}

// Save writes the file back with two-space indentation, creating the parent
// directory if needed
func (f *File) Save() error {
	doc := make(map[string]json.RawMessage, len(f.other)+1)
	for k, v := range f.other {
		doc[k] = v
	}
	servers, err := json.Marshal(f.servers)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", serversKey, err)
	}
	doc[serversKey] = servers

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace settings file: %w", err)
	}
	return nil
}
