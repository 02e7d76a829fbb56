package attestation

import (
	"context"
	"time"

	"github.com/khpawan/mcp-tee-sample/internal/logx"
	"github.com/khpawan/mcp-tee-sample/internal/secrets"
)

const guestInfoTimeout = 2 * time.Second

// guestInfoSource is satisfied by *GuestAgent; swapped in tests.
type guestInfoSource interface {
	Info(ctx context.Context) (*GuestInfo, error)
}

// Reporter assembles the attestation status record. Status never fails and
// recomputes evidence and secret flags on every call, so each record
// reflects the environment at its own collection time.
type Reporter struct {
	server      string
	version     string
	inv         *secrets.Inventory
	collector   *Collector
	guest       guestInfoSource
	guestSocket string
}

func NewReporter(server, version string, inv *secrets.Inventory, collector *Collector) *Reporter {
	return &Reporter{
		server:      server,
		version:     version,
		inv:         inv,
		collector:   collector,
		guest:       NewGuestAgent(""),
		guestSocket: dstackSocket,
	}
}

func (r *Reporter) Status(ctx context.Context) Status {
	ev := r.collector.Collect()

	invFlags := r.inv.Flags()
	flags := make(SecretFlags, 0, len(invFlags))
	for _, f := range invFlags {
		flags = append(flags, SecretFlag{Name: f.Name, Loaded: f.Present})
	}

	st := Status{
		Server:        r.server,
		Version:       r.version,
		RunningInTEE:  ev.InTEE(),
		TEEType:       ev.Type.Label(),
		SecretsLoaded: flags,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}

	// Guest-agent metadata only when its socket is actually there. Probe
	// failures are logged and omitted, never surfaced to the caller.
	if r.guest != nil && markerPresent(r.guestSocket) {
		ictx, cancel := context.WithTimeout(ctx, guestInfoTimeout)
		defer cancel()
		info, err := r.guest.Info(ictx)
		if err != nil {
			logx.Debugf("guest agent info unavailable: %v", err)
		} else {
			st.TEEInfo = info
		}
	}

	return st
}
