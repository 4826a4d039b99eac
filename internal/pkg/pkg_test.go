package pkg

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseDepend(t *testing.T) {
	tests := []struct {
		input string
		want  Depend
	}{
		{"glibc", Depend{Name: "glibc"}},
		{"glibc>=2.33", Depend{Name: "glibc", Op: ">=", Version: "2.33"}},
		{"sh<=5", Depend{Name: "sh", Op: "<=", Version: "5"}},
		{"python=3.11", Depend{Name: "python", Op: "=", Version: "3.11"}},
		{"libfoo.so>1", Depend{Name: "libfoo.so", Op: ">", Version: "1"}},
		{"bash-completion: for tab completion", Depend{Name: "bash-completion"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseDepend(tt.input)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseDepend(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
			if tt.want.Op != "" && got.String() != tt.input {
				t.Errorf("String() = %q, want %q", got.String(), tt.input)
			}
		})
	}
}

func TestRef_OwnCopiesAURRecord(t *testing.T) {
	orig := &AURPackage{Name: "yay", Version: "12.0", Licenses: []string{"GPL3"}}
	ref := Own(orig)

	orig.Name = "changed"
	orig.Licenses[0] = "MIT"

	if ref.AURPackage() == orig {
		t.Error("Own() should copy the record")
	}
	if ref.Name() != "yay" {
		t.Errorf("Name() = %q, want yay", ref.Name())
	}
	if ref.AURPackage().Licenses[0] != "GPL3" {
		t.Errorf("licenses shared with original: %v", ref.AURPackage().Licenses)
	}
	if ref.Kind() != KindAUR {
		t.Errorf("Kind() = %v, want aur", ref.Kind())
	}
}

func TestRef_BorrowKeepsIdentity(t *testing.T) {
	p := &Package{Name: "bash", Version: "5.1", Origin: KindSync, DB: "core"}
	ref := Borrow(p)

	if ref.AURPackage() != nil {
		t.Error("Borrow() ref should not carry an AUR record")
	}
	if ref.Package() != p {
		t.Error("Borrow() should keep the same record")
	}
	if ref.Kind() != KindSync {
		t.Errorf("Kind() = %v, want sync", ref.Kind())
	}
}
