package tools

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// ErrNoEditor is returned when neither $VISUAL, $EDITOR nor a fallback editor
// can be found.
var ErrNoEditor = errors.New("no editor found; set $VISUAL or $EDITOR")

var fallbackEditors = []string{"vi", "nano"}

// FindEditor returns the argv of the editor used to edit YAML sources.
// $VISUAL wins over $EDITOR; both may carry flags ("code --wait").
func FindEditor() ([]string, error) {
	for _, k := range []string{"VISUAL", "EDITOR"} {
		fields := strings.Fields(os.Getenv(k))
		if len(fields) == 0 {
			continue
		}
		if p := lookupExecutable(fields[0]); p != "" {
			return append([]string{p}, fields[1:]...), nil
		}
	}
	if runtime.GOOS == "windows" {
		if p := lookupExecutable("notepad"); p != "" {
			return []string{p}, nil
		}
	}
	for _, name := range fallbackEditors {
		if p := lookupExecutable(name); p != "" {
			return []string{p}, nil
		}
	}
	return nil, ErrNoEditor
}

func lookupExecutable(name string) string {
	if strings.ContainsRune(name, filepath.Separator) || strings.Contains(name, "/") {
		return resolveExecutablePath(name)
	}
	if p, err := exec.LookPath(name); err == nil {
		return p
	}
	return ""
}

func resolveExecutablePath(path string) string {
	candidates := []string{path}
	if runtime.GOOS == "windows" && !strings.HasSuffix(strings.ToLower(path), ".exe") {
		candidates = append([]string{path + ".exe"}, candidates...)
	}
	for _, c := range candidates {
		if st, err := os.Stat(c); err == nil && !st.IsDir() {
			return c
		}
	}
	return ""
}
