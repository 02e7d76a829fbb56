package secrets

import (
	"io"
	"strings"
	"sync"

	aho "github.com/petar-dambovaliev/aho-corasick"
)

const redactedPlaceholder = "[REDACTED]"

// maskSet is a compiled multi-pattern matcher over the provisioned secret
// values. The automaton is built once at Load and shared by the log writer
// and Redact.
type maskSet struct {
	patterns []string
	longest  int
	matcher  aho.AhoCorasick
}

func newMaskSet(values []string) maskSet {
	// Empty strings would match everywhere and break the carry arithmetic.
	var filtered []string
	for _, v := range values {
		if len(v) > 0 {
			filtered = append(filtered, v)
		}
	}

	ms := maskSet{patterns: filtered}
	if len(filtered) == 0 {
		return ms
	}
	for _, v := range filtered {
		if len(v) > ms.longest {
			ms.longest = len(v)
		}
	}
	builder := aho.NewAhoCorasickBuilder(aho.Opts{})
	ms.matcher = builder.Build(filtered)
	return ms
}

func (ms maskSet) empty() bool {
	return len(ms.patterns) == 0
}

// apply replaces every occurrence of a secret value in s with the placeholder.
func (ms maskSet) apply(s string) string {
	if ms.empty() {
		return s
	}
	matches := ms.matcher.FindAll(s)
	if len(matches) == 0 {
		return s
	}
	var b strings.Builder
	next := 0
	for _, m := range matches {
		if m.Start() < next {
			continue
		}
		b.WriteString(s[next:m.Start()])
		b.WriteString(redactedPlaceholder)
		next = m.End()
	}
	b.WriteString(s[next:])
	return b.String()
}

// Redact replaces any provisioned secret value occurring in s with
// [REDACTED]. Used on upstream error detail before it is returned to a
// caller, so a misbehaving upstream cannot echo a secret back through us.
func (inv *Inventory) Redact(s string) string {
	return inv.mask.apply(s)
}

// MaskingWriter returns a writer that redacts provisioned secret values from
// everything written through it. Each write is masked and forwarded
// immediately: log lines arrive whole, so holding bytes back for
// cross-write matches would only delay output.
func (inv *Inventory) MaskingWriter(out io.Writer) io.Writer {
	return lineWriter{mw: &MaskingWriter{out: out, set: inv.mask}}
}

type lineWriter struct {
	mw *MaskingWriter
}

func (lw lineWriter) Write(p []byte) (int, error) {
	n, err := lw.mw.Write(p)
	if err != nil {
		return n, err
	}
	if err := lw.mw.Flush(); err != nil {
		return n, err
	}
	return n, nil
}

// MaskingWriter wraps an io.Writer and replaces any occurrence of the given
// secret values with [REDACTED]. Matches spanning Write boundaries are
// handled by carrying the last longest-1 bytes until the next write or Flush.
type MaskingWriter struct {
	mu      sync.Mutex
	out     io.Writer
	set     maskSet
	pending []byte
}

// NewMaskingWriter builds a standalone masking writer over the given values.
// With no values, writes pass through unmodified.
func NewMaskingWriter(out io.Writer, values []string) *MaskingWriter {
	return &MaskingWriter{out: out, set: newMaskSet(values)}
}

func (mw *MaskingWriter) Write(p []byte) (int, error) {
	if mw.set.empty() {
		return mw.out.Write(p)
	}

	mw.mu.Lock()
	defer mw.mu.Unlock()

	mw.pending = append(mw.pending, p...)
	if err := mw.emit(false); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Flush masks and writes out all carried bytes.
func (mw *MaskingWriter) Flush() error {
	if mw.set.empty() {
		return nil
	}

	mw.mu.Lock()
	defer mw.mu.Unlock()

	return mw.emit(true)
}

func (mw *MaskingWriter) emit(all bool) error {
	if len(mw.pending) == 0 {
		return nil
	}

	// cut is how far we may safely emit: the trailing longest-1 bytes could
	// be the head of a secret continued in the next write.
	cut := len(mw.pending)
	if !all {
		cut = len(mw.pending) - (mw.set.longest - 1)
		if cut <= 0 {
			return nil
		}
	}

	// Scan the whole pending buffer, not just up to cut, so a match
	// straddling the cut is seen now and consumed whole.
	matches := mw.set.matcher.FindAll(string(mw.pending))

	var masked []byte
	next := 0
	used := cut
	for _, m := range matches {
		if m.Start() < next {
			continue // overlapping match
		}
		if m.Start() >= cut && !all {
			break // entirely in the carried region; handled next round
		}
		masked = append(masked, mw.pending[next:m.Start()]...)
		masked = append(masked, redactedPlaceholder...)
		next = m.End()
		if m.End() > used {
			used = m.End()
		}
	}
	if next < cut {
		masked = append(masked, mw.pending[next:cut]...)
	}

	if len(masked) > 0 {
		if _, err := mw.out.Write(masked); err != nil {
			return err
		}
	}

	carry := make([]byte, len(mw.pending)-used)
	copy(carry, mw.pending[used:])
	mw.pending = carry
	return nil
}
