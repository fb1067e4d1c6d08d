package definitions

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// IsDefinitionFile reports whether name has a JSON or YAML extension.
func IsDefinitionFile(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// LoadFS walks fsys and parses every definition file. A nil fsys yields an
// empty catalog.
func LoadFS(fsys fs.FS) (*Catalog, error) {
	files := map[string]File{}
	if fsys == nil {
		return NewCatalog(files), nil
	}
	err := fs.WalkDir(fsys, ".", func(name string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !IsDefinitionFile(name) {
			return nil
		}
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("definitions: read %s: %w", name, err)
		}
		file, err := Parse(data, name)
		if err != nil {
			return err
		}
		files[name] = file
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewCatalog(files), nil
}

// Parse decodes one definition file, trying JSON first and then YAML, and
// validates it.
func Parse(data []byte, source string) (File, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return File{}, fmt.Errorf("definitions: file %s is empty", source)
	}
	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		file = File{}
		if yamlErr := yaml.Unmarshal(data, &file); yamlErr != nil {
			return File{}, fmt.Errorf("definitions: parse %s: invalid JSON or YAML: %w", source, yamlErr)
		}
	}
	if err := file.Validate(); err != nil {
		return File{}, fmt.Errorf("definitions: %s: %w", source, err)
	}
	return file, nil
}
