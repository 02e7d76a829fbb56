package attestation

import "os"

// Marker paths checked in order. Vendor devices take labeling precedence
// over generic indicators.
const (
	sevGuestDevice = "/dev/sev-guest"
	sevDevice      = "/dev/sev"
	tdxGuestDevice = "/dev/tdx_guest"
	sysTEEPath     = "/sys/kernel/security/tee"
	dstackSocket   = "/var/run/dstack.sock"
)

type marker struct {
	path string
	tee  TEEType
}

func defaultMarkers() []marker {
	return []marker{
		{sevGuestDevice, TEESEVSNP},
		{sevDevice, TEESEVSNP},
		{tdxGuestDevice, TEETDX},
		{sysTEEPath, TEEGeneric},
		{dstackSocket, TEEGeneric},
	}
}

// Collector infers TEE presence from a fixed, ordered list of filesystem
// markers.
type Collector struct {
	markers []marker
}

func NewCollector() *Collector {
	return &Collector{markers: defaultMarkers()}
}

// Collect scans the marker list and returns fresh evidence. Any access error
// on a marker counts as absent; collection itself cannot fail. The first
// vendor marker found decides the label, a generic marker only labels when
// no vendor marker is present.
func (c *Collector) Collect() Evidence {
	ev := Evidence{Type: TEENone}
	for _, m := range c.markers {
		if !markerPresent(m.path) {
			continue
		}
		ev.Markers = append(ev.Markers, m.path)
		switch {
		case ev.Type == TEENone:
			ev.Type = m.tee
		case ev.Type == TEEGeneric && m.tee != TEEGeneric:
			ev.Type = m.tee
		}
	}
	return ev
}

func markerPresent(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
