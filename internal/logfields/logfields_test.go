package logfields

import (
	"errors"
	"testing"
	"time"
)

func TestHelpers(t *testing.T) {
	if a := BuildID("b1"); a.Key != KeyBuildID || a.Value.String() != "b1" {
		t.Fatalf("unexpected build id attr: %v", a)
	}
	if a := Slug("/index.html"); a.Key != KeySlug || a.Value.String() != "/index.html" {
		t.Fatalf("unexpected slug attr: %v", a)
	}
	if a := Duration(1500 * time.Microsecond); a.Value.Float64() != 1.5 {
		t.Fatalf("unexpected duration attr: %v", a)
	}
	if a := Error(nil); a.Value.String() != "" {
		t.Fatalf("expected empty error attr")
	}
	if a := Error(errors.New("boom")); a.Value.String() != "boom" {
		t.Fatalf("unexpected error attr: %v", a)
	}
}
