// Package browseropen opens console pages in the user's browser.
package browseropen

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

var startCommand = func(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// ConsoleURL joins a console base URL and a route such as
// "/workspaces/<id>/automations/<slug>".
func ConsoleURL(base, route string) (string, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(base), "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid console url %q", base)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(route, "/")
	return u.String(), nil
}

func Open(u string) error {
	u = strings.TrimSpace(u)
	if u == "" {
		return errors.New("missing url")
	}
	wsl := runtime.GOOS == "linux" && isWSL()
	return run(candidates(runtime.GOOS, wsl, os.Getenv("BROWSER"), u))
}

// candidates lists the commands to try in order for a platform.
func candidates(goos string, wsl bool, browserEnv, u string) [][]string {
	switch goos {
	case "darwin":
		return [][]string{{"open", u}}
	case "windows":
		return [][]string{
			{"rundll32", "url.dll,FileProtocolHandler", u},
			{"cmd", "/c", "start", "", u},
			{"powershell", "-NoProfile", "-Command", "Start-Process", u},
		}
	}
	var out [][]string
	if wsl {
		out = append(out,
			[]string{"wslview", u},
			[]string{"cmd.exe", "/c", "start", "", u},
			[]string{"powershell.exe", "-NoProfile", "-Command", "Start-Process", u},
		)
	}
	// BROWSER is a colon-separated list; "%s" marks where the url goes.
	for _, part := range strings.Split(browserEnv, ":") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		var argv []string
		if strings.Contains(part, "%s") {
			argv = strings.Fields(strings.ReplaceAll(part, "%s", u))
		} else {
			argv = append(strings.Fields(part), u)
		}
		out = append(out, argv)
	}
	return append(out, []string{"xdg-open", u})
}

func run(cmds [][]string) error {
	var errs []error
	for _, argv := range cmds {
		err := startCommand(argv[0], argv[1:]...)
		if err == nil {
			return nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", argv[0], err))
	}
	return fmt.Errorf("open browser: %w", errors.Join(errs...))
}

func isWSL() bool {
	if os.Getenv("WSL_INTEROP") != "" || os.Getenv("WSL_DISTRO_NAME") != "" {
		return true
	}
	for _, p := range []string{"/proc/sys/kernel/osrelease", "/proc/version"} {
		if b, err := os.ReadFile(p); err == nil && strings.Contains(strings.ToLower(string(b)), "microsoft") {
			return true
		}
	}
	return false
}
