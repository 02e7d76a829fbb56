package secrets

import (
	"errors"
	"testing"
)

func TestLoadPresence(t *testing.T) {
	t.Setenv("INV_TEST_A", "alpha-value")
	t.Setenv("INV_TEST_B", "")

	inv := Load([]string{"INV_TEST_A", "INV_TEST_B", "INV_TEST_C"})

	if !inv.Present("INV_TEST_A") {
		t.Fatalf("expected INV_TEST_A present")
	}
	if inv.Present("INV_TEST_B") {
		t.Fatalf("empty value must count as absent")
	}
	if inv.Present("INV_TEST_C") {
		t.Fatalf("unset value must count as absent")
	}
	if inv.Present("NEVER_DECLARED") {
		t.Fatalf("undeclared name must not be present")
	}
}

func TestFlagsOrder(t *testing.T) {
	t.Setenv("INV_ORD_Z", "z")
	t.Setenv("INV_ORD_A", "a")

	inv := Load([]string{"INV_ORD_Z", "INV_ORD_M", "INV_ORD_A"})

	flags := inv.Flags()
	want := []Flag{
		{Name: "INV_ORD_Z", Present: true},
		{Name: "INV_ORD_M", Present: false},
		{Name: "INV_ORD_A", Present: true},
	}
	if len(flags) != len(want) {
		t.Fatalf("got %d flags, want %d", len(flags), len(want))
	}
	for i := range want {
		if flags[i] != want[i] {
			t.Fatalf("flag %d: got %+v, want %+v", i, flags[i], want[i])
		}
	}
}

func TestValue(t *testing.T) {
	t.Setenv("INV_VAL_A", "raw-token")

	inv := Load([]string{"INV_VAL_A", "INV_VAL_B"})

	v, err := inv.Value("INV_VAL_A")
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if v != "raw-token" {
		t.Fatalf("got %q, want %q", v, "raw-token")
	}

	_, err = inv.Value("INV_VAL_B")
	var na *NotAvailableError
	if !errors.As(err, &na) {
		t.Fatalf("expected NotAvailableError, got %v", err)
	}
	if na.Name != "INV_VAL_B" {
		t.Fatalf("error names %q, want INV_VAL_B", na.Name)
	}
}

func TestLoadSnapshotsEnvironment(t *testing.T) {
	t.Setenv("INV_SNAP", "before")

	inv := Load([]string{"INV_SNAP"})
	t.Setenv("INV_SNAP", "after")

	v, err := inv.Value("INV_SNAP")
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if v != "before" {
		t.Fatalf("inventory must not observe env changes after Load, got %q", v)
	}
}
