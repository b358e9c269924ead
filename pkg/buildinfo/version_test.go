package buildinfo

import (
	"strings"
	"testing"
)

func TestShort(t *testing.T) {
	oldVersion, oldCommit := Version, Commit
	defer func() { Version, Commit = oldVersion, oldCommit }()

	Version, Commit = "v1.0.0", "0123456789abcdef"
	if got := Short(); got != "v1.0.0 (0123456)" {
		t.Errorf("Short() = %q", got)
	}
	Commit = "none"
	if got := Short(); got != "v1.0.0 (none)" {
		t.Errorf("Short() = %q", got)
	}
}

func TestTemplate(t *testing.T) {
	if !strings.HasPrefix(Template(), "{{.Name}} version ") {
		t.Errorf("Template() = %q", Template())
	}
	if !strings.Contains(String(), "commit: ") {
		t.Errorf("String() = %q", String())
	}
}
