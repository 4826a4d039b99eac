package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/frederic-klein/pkgquery/internal/config"
)

const (
	bashDesc = "%NAME%\nbash\n\n%VERSION%\n5.1.016-1\n\n%DESC%\nThe GNU Bourne Again shell\n\n%REASON%\n1\n\n"
	vimDesc  = "%NAME%\nvim\n\n%VERSION%\n9.0-1\n\n%DESC%\nVi Improved\n\n"
)

// newRoot lays out an installation root with an empty pacman.conf and the
// given local database entries.
func newRoot(t *testing.T, conf string, entries map[string]string) string {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "etc"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "etc", "pacman.conf"), []byte(conf), 0644); err != nil {
		t.Fatal(err)
	}
	local := filepath.Join(root, "var", "lib", "pacman", "local")
	if err := os.MkdirAll(local, 0755); err != nil {
		t.Fatal(err)
	}
	for dir, desc := range entries {
		if err := os.MkdirAll(filepath.Join(local, dir), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(local, dir, "desc"), []byte(desc), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func runCmd(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(config.Default(), &stdout, &stderr)
	cmd.SetArgs(args)
	code := execute(cmd, &stderr)
	return stdout.String(), stderr.String(), code
}

func TestRun(t *testing.T) {
	root := newRoot(t, "[options]\nArchitecture = x86_64\n\n[core]\n\n[extra]\n", map[string]string{
		"bash-5.1.016-1": bashDesc,
		"vim-9.0-1":      vimDesc,
	})

	tests := []struct {
		name     string
		args     []string
		wantOut  string
		wantErr  string
		wantCode int
	}{
		{
			name:    "info on local",
			args:    []string{"-r", root, "-Q", "-f", "%n %v", "vim"},
			wantOut: "vim 9.0-1\n",
		},
		{
			name:    "local listing sorted by name",
			args:    []string{"-r", root, "-Q", "-f", "%n", "--sort", "n"},
			wantOut: "bash\nvim\n",
		},
		{
			name:    "local listing with a filter",
			args:    []string{"-r", root, "-Qd", "-f", "%n"},
			wantOut: "bash\n",
		},
		{
			name:    "escaped format has no newline",
			args:    []string{"-r", root, "-Q", "-x", "-f", `"%n"`, "bash"},
			wantOut: `\"bash\"`,
		},
		{
			name:    "just one dedupes targets",
			args:    []string{"-r", root, "-Q1", "-f", "%n", "vim", "vim"},
			wantOut: "vim\n",
		},
		{
			name:    "list repositories",
			args:    []string{"-r", root, "-L"},
			wantOut: "core\nextra\n",
		},
		{
			name:     "no match",
			args:     []string{"-r", root, "-Q", "nothere"},
			wantCode: 1,
		},
		{
			name:     "quiet still sets the status",
			args:     []string{"-r", root, "-Qq", "bash"},
			wantCode: 0,
		},
		{
			name:     "search needs a source",
			args:     []string{"-r", root, "-s", "bash"},
			wantErr:  "must have database target",
			wantCode: 1,
		},
		{
			name:     "info needs targets",
			args:     []string{"-r", root, "-Qi"},
			wantErr:  "no targets specified",
			wantCode: 1,
		},
		{
			name:     "bad sort key",
			args:     []string{"-r", root, "-Q", "--sort", "z"},
			wantErr:  "unknown sort key",
			wantCode: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, errOut, code := runCmd(t, tt.args...)
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d (stderr %q)", code, tt.wantCode, errOut)
			}
			if tt.wantErr == "" && out != tt.wantOut {
				t.Errorf("stdout = %q, want %q", out, tt.wantOut)
			}
			if tt.wantErr != "" && !strings.Contains(errOut, tt.wantErr) {
				t.Errorf("stderr = %q, want it to contain %q", errOut, tt.wantErr)
			}
		})
	}
}

// newAURServer answers info requests for the packages it knows.
func newAURServer(t *testing.T, known map[string]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var results []string
		for _, name := range r.URL.Query()["arg[]"] {
			if rec, ok := known[name]; ok {
				results = append(results, rec)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"version":5,"type":"multiinfo","resultcount":%d,"results":[%s]}`, len(results), strings.Join(results, ","))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestRun_AUR(t *testing.T) {
	root := newRoot(t, "", map[string]string{
		"bash-5.1.016-1": bashDesc,
		"vim-9.0-1":      vimDesc,
	})
	server := newAURServer(t, map[string]string{
		"yay": `{"Name":"yay","Version":"12.0-1","Maintainer":"jguer","NumVotes":42}`,
		"vim": `{"Name":"vim","Version":"9.1-1","Maintainer":"someone","NumVotes":7}`,
	})

	tests := []struct {
		name    string
		args    []string
		wantOut string
	}{
		{
			name:    "foreign filter with targets uses the normal display",
			args:    []string{"-Q", "-A", "-m", "yay"},
			wantOut: "aur/yay 12.0-1 (42)\n",
		},
		{
			name:    "foreign listing against the AUR",
			args:    []string{"-Q", "-A", "-m"},
			wantOut: "local/bash 5.1.016-1\naur/vim 9.0-1 ( aur: 9.1-1 )\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"-r", root, "--nocolor", "--aur-url", server.URL}, tt.args...)
			out, errOut, _ := runCmd(t, args...)
			if out != tt.wantOut {
				t.Errorf("stdout = %q, want %q (stderr %q)", out, tt.wantOut, errOut)
			}
		})
	}
}

func TestRun_RootDirFromPacmanConf(t *testing.T) {
	root := newRoot(t, "", map[string]string{"vim-9.0-1": vimDesc})
	files := "%FILES%\nusr/\nusr/bin/\nusr/bin/vim\n\n"
	if err := os.WriteFile(filepath.Join(root, "var", "lib", "pacman", "local", "vim-9.0-1", "files"), []byte(files), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, "usr", "bin"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "usr", "bin", "vim"), []byte("12345"), 0755); err != nil {
		t.Fatal(err)
	}
	conf := filepath.Join(t.TempDir(), "pacman.conf")
	if err := os.WriteFile(conf, []byte("[options]\nRootDir = "+root+"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	dbPath := filepath.Join(root, "var", "lib", "pacman")
	out, errOut, code := runCmd(t, "-c", conf, "-b", dbPath, "-Q", "-f", "%3", "vim")
	if code != 0 {
		t.Fatalf("exit code = %d (stderr %q)", code, errOut)
	}
	if out != "5\n" {
		t.Errorf("real size = %q, want files measured under RootDir (5)", out)
	}
}

func TestRun_MissingLocalDatabase(t *testing.T) {
	root := t.TempDir()
	conf := filepath.Join(root, "pacman.conf")
	if err := os.WriteFile(conf, nil, 0644); err != nil {
		t.Fatal(err)
	}
	_, errOut, code := runCmd(t, "-c", conf, "-b", filepath.Join(root, "db"), "-Q", "bash")
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(errOut, "local database") {
		t.Errorf("stderr = %q, want a local database error", errOut)
	}
}

func TestDedupe(t *testing.T) {
	got := dedupe([]string{"a", "b", "a", "c", "b"})
	if strings.Join(got, ",") != "a,b,c" {
		t.Errorf("dedupe() = %v", got)
	}
}
