package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dukex/flowcanvas/pkg/models"
	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Templates []*models.NodeTemplate `json:"templates"`
}

// LoadFile reads a catalog from a YAML or JSON file and registers every
// template in it. The document is either a list of templates or an object
// with a "templates" list.
func (r *Registry) LoadFile(path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read catalog %s: %w", path, err)
	}

	templates, err := DecodeCatalog(raw, filepath.Ext(path))
	if err != nil {
		return 0, fmt.Errorf("decode catalog %s: %w", path, err)
	}

	for _, t := range templates {
		if err := r.Register(t); err != nil {
			return 0, err
		}
	}

	r.logger.Info("Loaded node templates", "path", path, "count", len(templates))

	return len(templates), nil
}

// DecodeCatalog decodes catalog bytes. YAML documents are converted to their
// JSON form first so both formats share the json field names.
func DecodeCatalog(raw []byte, ext string) ([]*models.NodeTemplate, error) {
	data := raw

	if ext := strings.ToLower(ext); ext == ".yaml" || ext == ".yml" {
		var doc any
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}

		converted, err := json.Marshal(doc)
		if err != nil {
			return nil, err
		}

		data = converted
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var list []*models.NodeTemplate
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, err
		}

		return list, nil
	}

	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}

	return file.Templates, nil
}
