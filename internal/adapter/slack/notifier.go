// Package slack implements notifier.Notifier on top of the Slack Web API and
// interaction response URLs.
package slack

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/slack-go/slack"

	"github.com/Strob0t/driftgate/internal/domain/incident"
	"github.com/Strob0t/driftgate/internal/port/notifier"
	"github.com/Strob0t/driftgate/internal/resilience"
)

const providerName = "slack"

// API is the subset of *slack.Client used by the notifier.
type API interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	UpdateMessageContext(ctx context.Context, channelID, timestamp string, options ...slack.MsgOption) (string, string, string, error)
}

// Notifier delivers acknowledgements and thread replies to Slack.
// Without a bot token it can still use response URLs.
type Notifier struct {
	api        API
	httpClient *http.Client
	breaker    *resilience.Breaker
}

// Options configures a Notifier.
type Options struct {
	BotToken string
	APIURL   string // must end with "/"; empty uses slack.com
	Timeout  time.Duration
	Breaker  *resilience.Breaker
}

// NewNotifier creates a Slack notifier.
func NewNotifier(opts Options) *Notifier {
	httpClient := &http.Client{Timeout: opts.Timeout}
	n := &Notifier{httpClient: httpClient, breaker: opts.Breaker}
	if opts.BotToken != "" {
		clientOpts := []slack.Option{slack.OptionHTTPClient(httpClient)}
		if opts.APIURL != "" {
			clientOpts = append(clientOpts, slack.OptionAPIURL(opts.APIURL))
		}
		n.api = slack.New(opts.BotToken, clientOpts...)
	}
	return n
}

func (n *Notifier) Name() string { return providerName }

// Acknowledge replaces the original alert, removing its buttons. The
// response URL is preferred because it works without a bot token.
func (n *Notifier) Acknowledge(ctx context.Context, route incident.Routing, text string) notifier.Result {
	switch {
	case route.URL != "":
		return n.do(func() error {
			return n.postResponse(ctx, route.URL, text, true)
		})
	case n.api != nil && route.Channel != "" && route.Thread != "":
		return n.do(func() error {
			_, _, _, err := n.api.UpdateMessageContext(ctx, route.Channel, route.Thread, messageOptions(text)...)
			if err != nil {
				return fmt.Errorf("slack chat.update: %w", err)
			}
			return nil
		})
	default:
		return notifier.Failed(notifier.ErrNotConfigured)
	}
}

// Reply posts text into the alert's thread, falling back to a non-replacing
// response URL message when no channel routing is available.
func (n *Notifier) Reply(ctx context.Context, route incident.Routing, text string) notifier.Result {
	switch {
	case n.api != nil && route.Channel != "":
		opts := messageOptions(text)
		if route.Thread != "" {
			opts = append(opts, slack.MsgOptionTS(route.Thread))
		}
		return n.do(func() error {
			_, _, err := n.api.PostMessageContext(ctx, route.Channel, opts...)
			if err != nil {
				return fmt.Errorf("slack chat.postMessage: %w", err)
			}
			return nil
		})
	case route.URL != "":
		return n.do(func() error {
			return n.postResponse(ctx, route.URL, text, false)
		})
	default:
		return notifier.Failed(notifier.ErrNotConfigured)
	}
}

func (n *Notifier) do(fn func() error) notifier.Result {
	if err := n.breaker.Execute(fn); err != nil {
		return notifier.Failed(err)
	}
	return notifier.Delivered()
}

func (n *Notifier) postResponse(ctx context.Context, url, text string, replace bool) error {
	msg := &slack.WebhookMessage{
		Text:            text,
		ResponseType:    slack.ResponseTypeInChannel,
		ReplaceOriginal: replace,
		Blocks:          &slack.Blocks{BlockSet: textBlocks(text)},
	}
	//nolint:gosec // response URL comes from a signature-verified callback
	if err := slack.PostWebhookCustomHTTPContext(ctx, url, n.httpClient, msg); err != nil {
		return fmt.Errorf("slack response_url: %w", err)
	}
	return nil
}

func messageOptions(text string) []slack.MsgOption {
	return []slack.MsgOption{
		slack.MsgOptionText(text, false),
		slack.MsgOptionBlocks(textBlocks(text)...),
	}
}

func textBlocks(text string) []slack.Block {
	return []slack.Block{
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil),
	}
}
