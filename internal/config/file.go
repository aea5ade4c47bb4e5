package config

import (
	"fmt"
	"sort"
	"strings"

	gookit "github.com/gookit/config/v2"
	"github.com/gookit/config/v2/yaml"
	"github.com/spf13/pflag"
)

// ApplyFile loads a YAML or JSON file whose keys are flag names and sets
// every flag that was not given on the command line. Unknown keys are an
// error.
func ApplyFile(path string, fs *pflag.FlagSet) error {
	c := gookit.New("credfuzz")
	c.AddDriver(yaml.Driver)
	if err := c.LoadFiles(path); err != nil {
		return fmt.Errorf("loading config %s: %w", path, err)
	}

	data := c.Data()
	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		flag := fs.Lookup(name)
		if flag == nil {
			return fmt.Errorf("config %s: unknown option %q", path, name)
		}
		if flag.Changed || name == "config" {
			continue
		}
		if err := fs.Set(name, valueString(data[name])); err != nil {
			return fmt.Errorf("config %s: option %q: %w", path, name, err)
		}
	}
	return nil
}

func valueString(v any) string {
	switch val := v.(type) {
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = fmt.Sprint(item)
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(val, ",")
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}
