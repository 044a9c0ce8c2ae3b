package picker_test

import (
	"testing"

	"aotw/internal/config"
	"aotw/internal/picker"
)

func TestRotationFor(t *testing.T) {
	rotation := picker.NewRotation(config.Default().Pickers)
	cases := map[int]string{
		0:  "",
		1:  "SS",
		2:  "DG",
		3:  "RB",
		4:  "SS",
		5:  "DG",
		6:  "RB",
		7:  "JC",
		8:  "SS",
		11: "JC",
		12: "SS",
	}
	for pick, want := range cases {
		if got := rotation.For(pick); got != want {
			t.Fatalf("For(%d) = %q, want %q", pick, got, want)
		}
	}
}

func TestRotationWithoutCycle(t *testing.T) {
	rotation := picker.Rotation{First: []string{"AA"}}
	if got := rotation.For(1); got != "AA" {
		t.Fatalf("unexpected first pick %q", got)
	}
	if got := rotation.For(2); got != "" {
		t.Fatalf("expected empty code past first cycle, got %q", got)
	}
}

func TestDirectoryLookup(t *testing.T) {
	dir := picker.NewDirectory(map[string]string{"@Sam": "ss", "dana": "DG"})
	for _, name := range []string{"sam", "@SAM", " Sam "} {
		if code, ok := dir.Lookup(name); !ok || code != "SS" {
			t.Fatalf("Lookup(%q) = %q %v", name, code, ok)
		}
	}
	if _, ok := dir.Lookup("nobody"); ok {
		t.Fatal("expected unknown username to miss")
	}
}
