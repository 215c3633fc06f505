// Package user owns the client-side user draft and submits it to the backend.
package user

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	apperrors "stripdemo/internal/errors"
)

// Record is the user draft. Unset fields are omitted from the payload.
type Record struct {
	Name  *string `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	Email *string `json:"email,omitempty" yaml:"email,omitempty" toml:"email,omitempty"`
}

// Payload is the request body sent to the backend
type Payload struct {
	User Record `json:"user"`
}

func (r Record) clone() Record {
	var out Record
	if r.Name != nil {
		v := *r.Name
		out.Name = &v
	}
	if r.Email != nil {
		v := *r.Email
		out.Email = &v
	}
	return out
}

// LoadRecord reads a draft record from a .json, .yaml, .yml or .toml file.
func LoadRecord(path string) (Record, error) {
	var rec Record

	data, err := os.ReadFile(path)
	if err != nil {
		return rec, fmt.Errorf("failed to read record file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		err = json.Unmarshal(data, &rec)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &rec)
	case ".toml":
		err = toml.Unmarshal(data, &rec)
	default:
		return rec, apperrors.New(apperrors.InvalidConfig, fmt.Sprintf("unsupported record format %q", ext))
	}
	if err != nil {
		return rec, apperrors.Wrap(apperrors.InvalidConfig, "failed to parse "+path, err)
	}
	return rec, nil
}
