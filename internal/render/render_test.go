package render

import (
	"bytes"
	"testing"
	"time"

	"github.com/frederic-klein/pkgquery/internal/config"
	"github.com/frederic-klein/pkgquery/internal/db"
	"github.com/frederic-klein/pkgquery/internal/pkg"
)

const testAURURL = "https://aur.example.org"

type fixture struct {
	env      Env
	syncBash *pkg.Package
	bash     *pkg.Package
	yay      *pkg.AURPackage
	base     *pkg.Group
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	local := db.New(db.LocalName, pkg.KindLocal, nil)
	bash := &pkg.Package{
		Name:        "bash",
		Version:     "5.0-1",
		Description: "The GNU Bourne Again shell",
		Groups:      []string{"base"},
		InstallDate: time.Unix(1600000000, 0),
		Reason:      pkg.ReasonExplicit,
	}
	local.Add(bash)
	local.Add(&pkg.Package{Name: "yay", Version: "12.0-1", Reason: pkg.ReasonExplicit})
	local.Add(&pkg.Package{Name: "foo", Version: "1.0-1", Reason: pkg.ReasonExplicit})
	local.Index()

	core := db.New("core", pkg.KindSync, []string{"https://mirror.example.org/core/os/x86_64"})
	syncBash := &pkg.Package{
		Name:          "bash",
		Version:       "5.1-1",
		Description:   "The GNU Bourne Again shell",
		Arch:          "x86_64",
		Filename:      "bash-5.1-1-x86_64.pkg.tar.zst",
		Groups:        []string{"base"},
		Depends:       []pkg.Depend{{Name: "glibc", Op: ">=", Version: "2.33"}, {Name: "readline"}},
		Backup:        []string{"etc/bash.bashrc", "etc/bash.bash_logout"},
		InstalledSize: 8000000,
		DownloadSize:  1500000,
	}
	core.Add(syncBash)
	core.Index()

	h := db.NewHandle(t.TempDir(), local, core)
	return fixture{
		env:      Env{Handle: h, CSep: ",", AURURL: testAURURL},
		syncBash: syncBash,
		bash:     bash,
		yay: &pkg.AURPackage{
			ID:         1001,
			Name:       "yay",
			Version:    "12.3.5-1",
			URLPath:    "/cgit/aur.git/snapshot/yay.tar.gz",
			Maintainer: "jguer",
			Votes:      2200,
			Popularity: 31.5,
		},
		base: core.Group("base"),
	}
}

func TestFormat(t *testing.T) {
	f := newFixture(t)
	rec := &pkg.Package{Name: "bash", Version: "5.1", DB: "core", Origin: pkg.KindSync}

	tests := []struct {
		name   string
		target string
		ref    pkg.Ref
		tmpl   string
		want   string
	}{
		{"fields", "", pkg.Borrow(rec), "%n-%v (%r)", "bash-5.1 (core)"},
		{"unknown code", "", pkg.Borrow(rec), "%n %z!", "bash -!"},
		{"percent escape", "", pkg.Borrow(rec), "100%% %n", "100% bash"},
		{"trailing percent", "", pkg.Borrow(rec), "%n 100%", "bash 100%"},
		{"target", "sh", pkg.Borrow(rec), "%t -> %n", "sh -> bash"},
		{"no newline added", "", pkg.Borrow(rec), "%n", "bash"},
		{"aur", "", pkg.Own(f.yay), "%r/%n %w %o %u", "aur/yay 2200 0 " + testAURURL + "/cgit/aur.git/snapshot/yay.tar.gz"},
		{"aur arch unknown", "", pkg.Own(f.yay), "%a", "-"},
		{"group", "", pkg.BorrowGroup(f.base), "%n %v", "base -"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(f.env, tt.target, tt.ref, tt.tmpl); got != tt.want {
				t.Errorf("Format(%q) = %q, want %q", tt.tmpl, got, tt.want)
			}
		})
	}
}

func TestField(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		ref    pkg.Ref
		code   byte
		want   string
		wantOK bool
	}{
		{"sync arch", pkg.Borrow(f.syncBash), 'a', "x86_64", true},
		{"sync backup", pkg.Borrow(f.syncBash), 'b', "etc/bash.bashrc,etc/bash.bash_logout", true},
		{"no conflicts", pkg.Borrow(f.syncBash), 'c', "", false},
		{"depends", pkg.Borrow(f.syncBash), 'D', "glibc>=2.33,readline", true},
		{"repo", pkg.Borrow(f.syncBash), 'r', "core", true},
		{"download url", pkg.Borrow(f.syncBash), 'u', "https://mirror.example.org/core/os/x86_64/bash-5.1-1-x86_64.pkg.tar.zst", true},
		{"local has no url", pkg.Borrow(f.bash), 'u', "", false},
		{"sync repo of installed", pkg.Borrow(f.bash), 's', "core", true},
		{"sync version of installed", pkg.Borrow(f.bash), 'V', "5.1-1", true},
		{"sync download size", pkg.Borrow(f.bash), '5', "1500000", true},
		{"sync repo of package file", pkg.Borrow(packageFile()), 's', "core", true},
		{"sync version of package file", pkg.Borrow(packageFile()), 'V', "5.1-1", true},
		{"sync download size of package file", pkg.Borrow(packageFile()), '5', "1500000", true},
		{"package file not in sync", pkg.Borrow(&pkg.Package{Name: "hello", Origin: pkg.KindFile}), 's', "", false},
		{"installed size", pkg.Borrow(f.syncBash), '2', "8000000", true},
		{"installed version", pkg.Borrow(f.syncBash), 'l', "5.0-1", true},
		{"install date", pkg.Borrow(f.syncBash), '1', "1600000000", true},
		{"real size", pkg.Borrow(f.syncBash), '3', "0", true},
		{"status", pkg.Borrow(f.bash), '4', "58", true},
		{"aur not installed", pkg.Own(&pkg.AURPackage{Name: "paru"}), 'l', "", false},
		{"aur installed", pkg.Own(f.yay), 'l', "12.0-1", true},
		{"aur popularity", pkg.Own(f.yay), 'p', "31.50", true},
		{"aur id", pkg.Own(f.yay), 'i', "1001", true},
		{"aur maintainer", pkg.Own(f.yay), 'm', "jguer", true},
		{"aur sync repo", pkg.Own(f.yay), 's', "aur", true},
		{"group name", pkg.BorrowGroup(f.base), 'n', "base", true},
		{"group version", pkg.BorrowGroup(f.base), 'v', "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Field(f.env, tt.ref, tt.code)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Field(%c) = %q, %v, want %q, %v", tt.code, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

// packageFile is a loaded "bash" package file, newer than the sync record.
func packageFile() *pkg.Package {
	return &pkg.Package{
		Name:          "bash",
		Version:       "5.2-1",
		Filename:      "bash-5.2-1-x86_64.pkg.tar.zst",
		InstalledSize: 9000000,
		DownloadSize:  1700000,
		Origin:        pkg.KindFile,
	}
}

func TestPrinter_SizeOfPackageFile(t *testing.T) {
	f := newFixture(t)
	cfg := plainConfig()
	p := NewPrinter(cfg, f.env, &bytes.Buffer{}, nil, 80)

	if got := p.size(packageFile()); got != 1700000 {
		t.Errorf("size(package file) = %d, want its download size 1700000", got)
	}
	installed := &pkg.Package{Name: "bash", InstalledSize: 8000, DownloadSize: 2000, Origin: pkg.KindLocal}
	if got := p.size(installed); got != 8000 {
		t.Errorf("size(installed) = %d, want installed size 8000", got)
	}
}

func plainConfig() config.Config {
	c := config.Default()
	c.Color = false
	return c
}

func TestPrinter_Template(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		escape bool
		want   string
	}{
		{"plain", false, "bash=\"5.1-1\"\n"},
		{"escaped", true, `bash=\"5.1-1\"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := plainConfig()
			cfg.Format = `%n="%v"`
			cfg.Escape = tt.escape

			var out bytes.Buffer
			p := NewPrinter(cfg, f.env, &out, nil, 80)
			p.Print("bash", pkg.Borrow(f.syncBash))
			if err := p.Flush(); err != nil {
				t.Fatal(err)
			}
			if out.String() != tt.want {
				t.Errorf("output = %q, want %q", out.String(), tt.want)
			}
		})
	}
}

func TestPrinter_Display(t *testing.T) {
	f := newFixture(t)
	outOfDate := f.yay.Clone()
	outOfDate.OutOfDate = time.Unix(1700000000, 0)

	tests := []struct {
		name   string
		modify func(*config.Config)
		refs   []pkg.Ref
		want   string
	}{
		{
			name: "sync package installed at another version",
			refs: []pkg.Ref{pkg.Borrow(f.syncBash)},
			want: "core/bash 5.1-1 (base) [installed: 5.0-1]\n",
		},
		{
			name: "installed package",
			refs: []pkg.Ref{pkg.Borrow(f.bash)},
			want: "core/bash 5.0-1 (base)\n",
		},
		{
			name:   "search shows description",
			modify: func(c *config.Config) { c.Op = config.OpSearch },
			refs:   []pkg.Ref{pkg.Borrow(f.syncBash)},
			want:   "core/bash 5.1-1 (base) [installed: 5.0-1]\n    The GNU Bourne Again shell\n",
		},
		{
			name:   "numbering",
			modify: func(c *config.Config) { c.Numbering = true },
			refs:   []pkg.Ref{pkg.Borrow(f.syncBash), pkg.Own(f.yay)},
			want:   "1 core/bash 5.1-1 (base) [installed: 5.0-1]\n2 aur/yay 12.3.5-1 [installed: 12.0-1] (2200)\n",
		},
		{
			name: "out of date aur package",
			refs: []pkg.Ref{pkg.Own(outOfDate)},
			want: "aur/yay 12.3.5-1 [installed: 12.0-1] (Out of Date) (2200)\n",
		},
		{
			name:   "show size",
			modify: func(c *config.Config) { c.ShowSize = true },
			refs:   []pkg.Ref{pkg.Borrow(f.syncBash)},
			want:   "core/bash 5.1-1 [1.4 MiB] (base) [installed: 5.0-1]\n",
		},
		{
			name:   "group names",
			modify: func(c *config.Config) { c.ListGroup = true },
			refs:   []pkg.Ref{pkg.BorrowGroup(f.base)},
			want:   "base\n",
		},
		{
			name:   "quiet",
			modify: func(c *config.Config) { c.Quiet = true },
			refs:   []pkg.Ref{pkg.Borrow(f.syncBash)},
			want:   "",
		},
		{
			name:   "foreign packages",
			modify: func(c *config.Config) { c.AURForeign = true },
			refs: []pkg.Ref{
				pkg.Own(f.yay),
				pkg.Borrow(f.env.Handle.LocalPackage("foo")),
			},
			want: "aur/yay 12.0-1 ( aur: 12.3.5-1 )\nlocal/foo 1.0-1\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := plainConfig()
			if tt.modify != nil {
				tt.modify(&cfg)
			}

			var out bytes.Buffer
			p := NewPrinter(cfg, f.env, &out, nil, 80)
			for _, r := range tt.refs {
				p.Print("", r)
			}
			if err := p.Flush(); err != nil {
				t.Fatal(err)
			}
			if out.String() != tt.want {
				t.Errorf("output =\n%q\nwant\n%q", out.String(), tt.want)
			}
		})
	}
}

func TestPrinter_WrapsDescription(t *testing.T) {
	f := newFixture(t)
	cfg := plainConfig()
	cfg.Op = config.OpListRepoSearch

	rec := &pkg.Package{Name: "x", Version: "1", DB: "core", Origin: pkg.KindSync, Description: "aaa bbb ccc ddd eee fff"}

	var out bytes.Buffer
	p := NewPrinter(cfg, f.env, &out, nil, 14)
	p.Print("", pkg.Borrow(rec))
	p.Flush()

	want := "core/x 1\n    aaa bbb\n    ccc ddd\n    eee fff\n"
	if out.String() != want {
		t.Errorf("output =\n%q\nwant\n%q", out.String(), want)
	}
}

func TestPrinter_GetRes(t *testing.T) {
	f := newFixture(t)
	cfg := plainConfig()
	cfg.GetRes = true

	var out, res bytes.Buffer
	p := NewPrinter(cfg, f.env, &out, &res, 80)
	p.Print("", pkg.Borrow(f.syncBash))
	p.Print("", pkg.Own(f.yay))
	p.Flush()

	if want := "core/bash\naur/yay\n"; res.String() != want {
		t.Errorf("result stream = %q, want %q", res.String(), want)
	}
}
