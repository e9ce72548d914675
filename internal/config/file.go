package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// fileOverlay is the optional YAML configuration. Set values win over the
// environment.
type fileOverlay struct {
	Models struct {
		Classifier string `yaml:"classifier"`
		Extractor  string `yaml:"extractor"`
		Reviewer   string `yaml:"reviewer"`
	} `yaml:"models"`
	OCR struct {
		DefaultEngine string   `yaml:"default_engine"`
		Engines       []string `yaml:"engines"`
	} `yaml:"ocr"`
	FieldCatalog map[string][]string `yaml:"field_catalog"`
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var overlay fileOverlay
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setIfNotEmpty(&cfg.ClassifierModel, overlay.Models.Classifier)
	setIfNotEmpty(&cfg.ExtractorModel, overlay.Models.Extractor)
	setIfNotEmpty(&cfg.ReviewerModel, overlay.Models.Reviewer)
	setIfNotEmpty(&cfg.OCRDefaultEngine, overlay.OCR.DefaultEngine)
	if len(overlay.OCR.Engines) > 0 {
		cfg.OCREngines = overlay.OCR.Engines
	}

	for docType, fields := range overlay.FieldCatalog {
		key := strings.ToLower(strings.TrimSpace(docType))
		if key == "" {
			continue
		}
		if len(fields) == 0 {
			delete(cfg.FieldCatalog, key)
			continue
		}
		cfg.FieldCatalog[key] = fields
	}
	return nil
}

func setIfNotEmpty(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}
