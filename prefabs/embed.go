package prefabs

import (
	"embed"
	"os"
	"path/filepath"
	"strings"
	"time"
)

//go:embed scripts/*.tengo
var ScriptsFS embed.FS

//go:embed *.yaml scenarios/*.yaml
var PrefabsFS embed.FS

// overrideDir is checked before the embedded files, so authors can edit
// prefabs without rebuilding. Set it before loading.
var overrideDir = "prefabs"

// SetOverrideDir changes the on-disk override directory. An empty dir
// disables overrides.
func SetOverrideDir(dir string) {
	overrideDir = dir
}

func OverrideDir() string {
	return overrideDir
}

func Load(name string) ([]byte, error) {
	clean := cleanPrefabPath(name)
	if overrideDir != "" {
		if data, err := os.ReadFile(diskPath(clean)); err == nil {
			return data, nil
		}
	}
	return PrefabsFS.ReadFile(clean)
}

func LoadScript(name string) ([]byte, error) {
	clean := cleanScriptPath(name)
	if overrideDir != "" {
		if data, err := os.ReadFile(diskPath(clean)); err == nil {
			return data, nil
		}
	}
	return ScriptsFS.ReadFile(clean)
}

// ModTime reports the modification time of an on-disk override.
func ModTime(name string) (time.Time, bool) {
	if overrideDir == "" {
		return time.Time{}, false
	}
	info, err := os.Stat(diskPath(cleanPrefabPath(name)))
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

func cleanPrefabPath(path string) string {
	if path == "" {
		return ""
	}
	s := filepath.ToSlash(path)
	if after, ok := strings.CutPrefix(s, "prefabs/"); ok {
		return after
	}
	return s
}

func cleanScriptPath(path string) string {
	s := cleanPrefabPath(path)
	if after, ok := strings.CutPrefix(s, "scripts/"); ok {
		s = after
	}
	return "scripts/" + s
}

func diskPath(clean string) string {
	return filepath.Join(overrideDir, filepath.FromSlash(clean))
}
