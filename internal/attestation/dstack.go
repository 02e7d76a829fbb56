package attestation

import (
	"context"
	"fmt"

	dstacksdk "github.com/Dstack-TEE/dstack/sdk/go/dstack"
)

// GuestAgent queries the dstack guest agent (default /var/run/dstack.sock)
// for instance identity metadata.
type GuestAgent struct {
	client *dstacksdk.DstackClient
}

func NewGuestAgent(endpoint string) *GuestAgent {
	opts := []dstacksdk.DstackClientOption{}
	if endpoint != "" {
		opts = append(opts, dstacksdk.WithEndpoint(endpoint))
	}
	return &GuestAgent{client: dstacksdk.NewDstackClient(opts...)}
}

func (g *GuestAgent) Info(ctx context.Context) (*GuestInfo, error) {
	info, err := g.client.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("dstack info: %w", err)
	}
	return &GuestInfo{
		AppID:      info.AppID,
		InstanceID: info.InstanceID,
		DeviceID:   info.DeviceID,
	}, nil
}
