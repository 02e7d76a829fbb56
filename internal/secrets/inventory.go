package secrets

import (
	"fmt"
	"os"
)

// Inventory is the ordered set of capability secrets, read from the process
// environment exactly once before the server starts serving. It is immutable
// after Load, so concurrent readers need no synchronization.
//
// Callers get presence booleans only. Raw values are reachable solely through
// Value, for the outbound call that needs them; they are never logged,
// echoed, or serialized. Empty values count as absent.
type Inventory struct {
	names   []string
	present map[string]bool
	values  map[string]string
	mask    maskSet
}

// Flag reports whether one declared secret was provisioned.
type Flag struct {
	Name    string
	Present bool
}

// NotAvailableError is returned by Value for a secret that was not
// provisioned (or never declared). It names the secret, never the value.
type NotAvailableError struct {
	Name string
}

func (e *NotAvailableError) Error() string {
	return fmt.Sprintf("secret %s not available", e.Name)
}

// Load reads each declared name from the environment. Declaration order is
// preserved everywhere the inventory is reported.
func Load(names []string) *Inventory {
	inv := &Inventory{
		names:   make([]string, len(names)),
		present: make(map[string]bool, len(names)),
		values:  make(map[string]string, len(names)),
	}
	copy(inv.names, names)

	var vals []string
	for _, name := range names {
		v := os.Getenv(name)
		if v == "" {
			inv.present[name] = false
			continue
		}
		inv.present[name] = true
		inv.values[name] = v
		vals = append(vals, v)
	}
	inv.mask = newMaskSet(vals)
	return inv
}

// Names returns the declared secret names in declaration order.
func (inv *Inventory) Names() []string {
	out := make([]string, len(inv.names))
	copy(out, inv.names)
	return out
}

// Present reports whether the named secret was provisioned with a non-empty
// value.
func (inv *Inventory) Present(name string) bool {
	return inv.present[name]
}

// Flags returns one Flag per declared secret, in declaration order.
func (inv *Inventory) Flags() []Flag {
	out := make([]Flag, 0, len(inv.names))
	for _, name := range inv.names {
		out = append(out, Flag{Name: name, Present: inv.present[name]})
	}
	return out
}

// Value returns the raw secret value for an outbound call.
func (inv *Inventory) Value(name string) (string, error) {
	v, ok := inv.values[name]
	if !ok {
		return "", &NotAvailableError{Name: name}
	}
	return v, nil
}
