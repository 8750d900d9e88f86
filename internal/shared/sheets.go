package shared

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultSheets are processed when neither arguments nor a sheets file name any.
var DefaultSheets = []string{"community_centres", "gps", "foodbanks"}

var ErrNoSheets = errors.New("sheets config: no sheets listed")

// Sheet is one CSV input. Name labels logs, metrics and stored rows.
type Sheet struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

type sheetsFile struct {
	Dir    string  `yaml:"dir"`
	Sheets []Sheet `yaml:"sheets"`
}

// LoadSheets parses a YAML sheet list. Relative paths resolve against dir
// (or the file's own directory); a missing path defaults to "<name>.csv".
func LoadSheets(path string) ([]Sheet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sheets config: %w", err)
	}
	var f sheetsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse sheets config: %w", err)
	}
	if len(f.Sheets) == 0 {
		return nil, ErrNoSheets
	}
	base := f.Dir
	if base == "" {
		base = filepath.Dir(path)
	}
	out := make([]Sheet, 0, len(f.Sheets))
	for i, s := range f.Sheets {
		if s.Name == "" && s.Path == "" {
			return nil, fmt.Errorf("sheets config: sheet[%d] needs a name or path", i)
		}
		if s.Path == "" {
			s.Path = s.Name + ".csv"
		}
		if s.Name == "" {
			s.Name = nameOf(s.Path)
		}
		if !filepath.IsAbs(s.Path) {
			s.Path = filepath.Join(base, s.Path)
		}
		out = append(out, s)
	}
	return out, nil
}

// ResolveSheets picks the sheets to run: CLI args win, then the YAML file,
// then DefaultSheets in the working directory.
func ResolveSheets(args []string, configPath string) ([]Sheet, error) {
	if len(args) > 0 {
		out := make([]Sheet, 0, len(args))
		for _, a := range args {
			p := a
			if filepath.Ext(p) == "" {
				p += ".csv"
			}
			out = append(out, Sheet{Name: nameOf(p), Path: p})
		}
		return out, nil
	}
	sheets, err := LoadSheets(configPath)
	if err == nil {
		return sheets, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	out := make([]Sheet, 0, len(DefaultSheets))
	for _, n := range DefaultSheets {
		out = append(out, Sheet{Name: n, Path: n + ".csv"})
	}
	return out, nil
}

func nameOf(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
