package render

import (
	"strconv"
	"strings"

	"github.com/frederic-klein/pkgquery/internal/db"
	"github.com/frederic-klein/pkgquery/internal/filter"
	"github.com/frederic-klein/pkgquery/internal/pkg"
)

// installedCodes are resolved against the installed package of the same
// name, whatever the kind of the record being rendered.
const installedCodes = "l134"

// Env is what field lookups need beyond the record itself.
type Env struct {
	Handle *db.Handle
	CSep   string
	AURURL string
}

// Field returns the value of the one-letter field code for r. The second
// result is false when the record has no such field or the value is unset.
func Field(env Env, r pkg.Ref, code byte) (string, bool) {
	if strings.IndexByte(installedCodes, code) >= 0 {
		return installedField(env, r.Name(), code)
	}
	switch r.Kind() {
	case pkg.KindAUR:
		return aurField(env, r.AURPackage(), code)
	case pkg.KindGroup:
		if code == 'n' {
			return r.Group().Name, true
		}
		return "", false
	default:
		return packageField(env, r.Package(), code)
	}
}

// Format expands a template such as "%n-%v (%r)" for r. "%%" is a literal
// percent sign, "%t" the raw target that matched, and any code without a
// value renders as "-". A trailing lone "%" is kept.
func Format(env Env, target string, r pkg.Ref, tmpl string) string {
	var b strings.Builder
	for {
		i := strings.IndexByte(tmpl, '%')
		if i < 0 || i == len(tmpl)-1 {
			b.WriteString(tmpl)
			return b.String()
		}
		b.WriteString(tmpl[:i])
		switch code := tmpl[i+1]; code {
		case '%':
			b.WriteByte('%')
		case 't':
			b.WriteString(target)
		default:
			if v, ok := Field(env, r, code); ok {
				b.WriteString(v)
			} else {
				b.WriteByte('-')
			}
		}
		tmpl = tmpl[i+2:]
	}
}

func packageField(env Env, p *pkg.Package, code byte) (string, bool) {
	switch code {
	case 'a':
		return value(p.Arch)
	case 'b':
		return env.join(p.Backup)
	case 'c':
		return env.join(p.Conflicts)
	case 'd':
		return value(p.Description)
	case 'D':
		deps := make([]string, 0, len(p.Depends))
		for _, d := range p.Depends {
			deps = append(deps, d.String())
		}
		return env.join(deps)
	case 'g':
		return env.join(p.Groups)
	case 'n':
		return value(p.Name)
	case 'P':
		return env.join(p.Provides)
	case 'R':
		return env.join(p.Replaces)
	case 'r':
		return value(p.DB)
	case 's':
		sp := env.Handle.SyncPackage(p)
		if sp == nil {
			sp = p
		}
		return value(sp.DB)
	case 'u':
		d := env.Handle.SyncDB(p.DB)
		if d == nil || len(d.Servers()) == 0 || p.Filename == "" {
			return "", false
		}
		return strings.TrimSuffix(d.Servers()[0], "/") + "/" + p.Filename, true
	case 'v':
		return value(p.Version)
	case 'V':
		if sp := env.Handle.SyncPackage(p); sp != nil {
			return value(sp.Version)
		}
	case '2':
		return strconv.FormatInt(p.InstalledSize, 10), true
	case '5':
		if sp := env.Handle.SyncPackage(p); sp != nil {
			return strconv.FormatInt(sp.DownloadSize, 10), true
		}
	}
	return "", false
}

func aurField(env Env, a *pkg.AURPackage, code byte) (string, bool) {
	switch code {
	case 'd':
		return value(a.Description)
	case 'D':
		return env.join(a.Depends)
	case 'i':
		return strconv.Itoa(a.ID), true
	case 'm':
		return value(a.Maintainer)
	case 'n':
		return value(a.Name)
	case 'o':
		if a.OutOfDate.IsZero() {
			return "0", true
		}
		return "1", true
	case 'p':
		return strconv.FormatFloat(a.Popularity, 'f', 2, 64), true
	case 'r', 's':
		return "aur", true
	case 'u':
		if a.URLPath == "" {
			return "", false
		}
		return strings.TrimSuffix(env.AURURL, "/") + a.URLPath, true
	case 'v':
		return value(a.Version)
	case 'w':
		return strconv.Itoa(a.Votes), true
	}
	return "", false
}

func installedField(env Env, name string, code byte) (string, bool) {
	lp := env.Handle.LocalPackage(name)
	if lp == nil {
		return "", false
	}
	switch code {
	case 'l':
		return value(lp.Version)
	case '1':
		if lp.InstallDate.IsZero() {
			return "", false
		}
		return strconv.FormatInt(lp.InstallDate.Unix(), 10), true
	case '3':
		return strconv.FormatInt(env.Handle.RealSize(lp), 10), true
	case '4':
		return strconv.FormatUint(uint64(filter.State(env.Handle, lp)), 10), true
	}
	return "", false
}

func (env Env) join(list []string) (string, bool) {
	if len(list) == 0 {
		return "", false
	}
	return strings.Join(list, env.CSep), true
}

func value(s string) (string, bool) {
	return s, s != ""
}
