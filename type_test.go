package efs2

import (
	"io/fs"
	"testing"
)

func TestKindFromMode(t *testing.T) {
	cases := []struct {
		mode uint16
		want Kind
	}{
		{0x4000 | 0o755, KindDirectory},
		{0x8000 | 0o644, KindRegular},
		{0x2000 | 0o644, KindUnknown},
		{0, KindUnknown},
	}
	for _, c := range cases {
		if got := KindFromMode(c.mode); got != c.want {
			t.Errorf("KindFromMode(0x%x) = %v, want %v", c.mode, got, c.want)
		}
	}
}

func TestKindMode(t *testing.T) {
	if KindDirectory.Mode() != fs.ModeDir {
		t.Errorf("KindDirectory.Mode() = %v, want ModeDir", KindDirectory.Mode())
	}
	if KindRegular.Mode() != 0 {
		t.Errorf("KindRegular.Mode() = %v, want 0", KindRegular.Mode())
	}
	if KindUnknown.Mode() != fs.ModeIrregular {
		t.Errorf("KindUnknown.Mode() = %v, want ModeIrregular", KindUnknown.Mode())
	}
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		KindDirectory: "directory",
		KindRegular:   "regular",
		KindUnknown:   "unknown",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}
}
