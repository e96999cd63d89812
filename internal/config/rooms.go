package config

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/nfrund/roomchat/internal/domain"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

var roomValidator = validator.New()

// roomsFile is the on-disk shape of the room registry. Both formats use
// the same keys:
//
//	[[rooms]]
//	id = "general"
//	name = "General"
//	passcode = "open-sesame"
type roomsFile struct {
	Rooms []roomEntry `toml:"rooms" yaml:"rooms" validate:"required,min=1,dive"`
}

type roomEntry struct {
	ID       string `toml:"id" yaml:"id" validate:"required,max=64"`
	Name     string `toml:"name" yaml:"name" validate:"required,max=64"`
	Passcode string `toml:"passcode" yaml:"passcode" validate:"required"`
}

// ErrUnsupportedRoomsFormat is returned for rooms files that are neither TOML nor YAML.
var ErrUnsupportedRoomsFormat = errors.New("unsupported rooms file format")

// OSFs returns the filesystem used for reading configuration files in production.
func OSFs() afero.Fs {
	return afero.NewReadOnlyFs(afero.NewOsFs())
}

// LoadRooms reads and validates the static room registry. The format is
// chosen from the file extension.
func LoadRooms(fs afero.Fs, path string) ([]domain.Room, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rooms file: %w", err)
	}
	return ParseRooms(filepath.Ext(path), data)
}

// ParseRooms decodes a rooms document. ext is ".toml", ".yaml" or ".yml".
func ParseRooms(ext string, data []byte) ([]domain.Room, error) {
	var doc roomsFile
	switch strings.ToLower(ext) {
	case ".toml":
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode TOML rooms: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode YAML rooms: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedRoomsFormat, ext)
	}

	if err := roomValidator.Struct(doc); err != nil {
		return nil, fmt.Errorf("invalid rooms file: %w", err)
	}

	seen := make(map[string]struct{}, len(doc.Rooms))
	rooms := make([]domain.Room, 0, len(doc.Rooms))
	for _, r := range doc.Rooms {
		if _, dup := seen[r.ID]; dup {
			return nil, fmt.Errorf("duplicate room id %q", r.ID)
		}
		seen[r.ID] = struct{}{}
		rooms = append(rooms, domain.Room{ID: r.ID, Name: r.Name, Passcode: r.Passcode})
	}
	return rooms, nil
}
