package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/khpawan/mcp-tee-sample/internal/logx"
)

const (
	webhookTimeout = 10 * time.Second
	defaultChannel = "general"
	defaultUrgency = "normal"
)

type SendNotificationArgs struct {
	Message string `json:"message,omitempty" jsonschema:"notification text to post"`
	Channel string `json:"channel,omitempty" jsonschema:"channel name without the leading #, default general"`
	Urgency string `json:"urgency,omitempty" jsonschema:"one of low, normal, high; default normal"`
}

type sendNotificationResult struct {
	Status    string `json:"status"`
	Channel   string `json:"channel"`
	Urgency   string `json:"urgency"`
	Timestamp string `json:"timestamp"`
}

type webhookPayload struct {
	Channel   string `json:"channel"`
	Text      string `json:"text"`
	Username  string `json:"username"`
	IconEmoji string `json:"icon_emoji"`
}

func (d *Dispatcher) SendNotification(ctx context.Context, req *mcp.CallToolRequest, args SendNotificationArgs) (*mcp.CallToolResult, any, error) {
	out, err := d.sendNotification(ctx, args)
	return d.finish("send_notification", out, err)
}

func (d *Dispatcher) sendNotification(ctx context.Context, args SendNotificationArgs) (*sendNotificationResult, error) {
	webhookURL, err := d.requireSecret(WebhookURLVar)
	if err != nil {
		return nil, err
	}

	if args.Message == "" {
		return nil, &InvalidInputError{Reason: "message must not be empty"}
	}
	channel := args.Channel
	if channel == "" {
		channel = defaultChannel
	}
	urgency := args.Urgency
	if urgency == "" {
		urgency = defaultUrgency
	}
	switch urgency {
	case "low", "normal", "high":
	default:
		return nil, &InvalidInputError{Reason: "urgency must be 'low', 'normal', or 'high'"}
	}

	icon := ":robot_face:"
	if urgency == "high" {
		icon = ":lock:"
	}
	payload := webhookPayload{
		Channel:   "#" + channel,
		Text:      fmt.Sprintf("[%s] %s", strings.ToUpper(urgency), args.Message),
		Username:  "mcp-tee-server",
		IconEmoji: icon,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &UpstreamError{Detail: "webhook request failed"}
	}

	ctx, cancel := context.WithTimeout(ctx, webhookTimeout)
	defer cancel()

	// Error details stay generic here. The webhook URL is itself the
	// secret, and transport errors embed the request URL.
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return nil, &UpstreamError{Detail: "webhook request failed"}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		return nil, &UpstreamError{Detail: "webhook request failed"}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{Detail: fmt.Sprintf("webhook returned status %d", resp.StatusCode)}
	}

	logx.Infof("send_notification: channel=%s urgency=%s length=%d", channel, urgency, len(args.Message))
	// The webhook body carries the #-prefixed form; the result echoes the
	// channel name as the caller supplied it.
	return &sendNotificationResult{
		Status:    "delivered",
		Channel:   channel,
		Urgency:   urgency,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}, nil
}
