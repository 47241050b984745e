package gallery

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dukex/flowcanvas/pkg/models"
	"gopkg.in/yaml.v3"
)

type galleryFile struct {
	Templates []*models.WorkflowTemplate `json:"templates"`
}

// LoadFile registers every template of a YAML or JSON file holding either a
// list of templates or an object with a "templates" list.
func (g *Gallery) LoadFile(path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read gallery %s: %w", path, err)
	}

	templates, err := decode(raw, filepath.Ext(path))
	if err != nil {
		return 0, fmt.Errorf("decode gallery %s: %w", path, err)
	}

	for _, t := range templates {
		if err := g.Register(t); err != nil {
			return 0, err
		}
	}

	g.logger.Info("Loaded workflow templates", "path", path, "count", len(templates))

	return len(templates), nil
}

func decode(raw []byte, ext string) ([]*models.WorkflowTemplate, error) {
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

	if strings.HasPrefix(strings.TrimSpace(string(data)), "[") {
		var list []*models.WorkflowTemplate
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, err
		}

		return list, nil
	}

	var file galleryFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}

	return file.Templates, nil
}
