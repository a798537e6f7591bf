package browseropen

import (
	"errors"
	"reflect"
	"testing"
)

type call struct {
	name string
	args []string
}

func stubStart(t *testing.T, results map[string]error) *[]call {
	t.Helper()
	var calls []call
	orig := startCommand
	startCommand = func(name string, args ...string) error {
		calls = append(calls, call{name: name, args: args})
		if err, ok := results[name]; ok {
			return err
		}
		return errors.New("not found")
	}
	t.Cleanup(func() { startCommand = orig })
	return &calls
}

func TestCandidates_Darwin(t *testing.T) {
	got := candidates("darwin", false, "", "https://example.com")
	want := [][]string{{"open", "https://example.com"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v", got)
	}
}

func TestCandidates_LinuxOrder(t *testing.T) {
	got := candidates("linux", true, "firefox --new-tab:chromium %s", "https://x")
	names := make([]string, 0, len(got))
	for _, argv := range got {
		names = append(names, argv[0])
	}
	want := []string{"wslview", "cmd.exe", "powershell.exe", "firefox", "chromium", "xdg-open"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("got %v", names)
	}
	if !reflect.DeepEqual(got[3], []string{"firefox", "--new-tab", "https://x"}) {
		t.Fatalf("unexpected BROWSER argv %#v", got[3])
	}
	if !reflect.DeepEqual(got[4], []string{"chromium", "https://x"}) {
		t.Fatalf("unexpected placeholder argv %#v", got[4])
	}
}

func TestRun_StopsAtFirstSuccess(t *testing.T) {
	calls := stubStart(t, map[string]error{"rundll32": errors.New("no"), "cmd": nil})
	if err := run(candidates("windows", false, "", "https://x")); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(*calls) != 2 || (*calls)[1].name != "cmd" {
		t.Fatalf("unexpected calls %#v", *calls)
	}
}

func TestRun_JoinsErrors(t *testing.T) {
	stubStart(t, nil)
	err := run(candidates("linux", false, "", "https://x"))
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestConsoleURL(t *testing.T) {
	got, err := ConsoleURL("https://studio.prisme.ai/", "/workspaces/w1/automations/hello")
	if err != nil {
		t.Fatalf("ConsoleURL: %v", err)
	}
	if got != "https://studio.prisme.ai/workspaces/w1/automations/hello" {
		t.Fatalf("unexpected url %q", got)
	}
	if _, err := ConsoleURL("not a url", "/x"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestOpen_MissingURL(t *testing.T) {
	if err := Open("  "); err == nil {
		t.Fatalf("expected error")
	}
}
