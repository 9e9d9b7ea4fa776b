package notify

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"

	"github.com/ykvlv/warrior-reminders/internal/domain"
	"github.com/ykvlv/warrior-reminders/internal/store"
)

// SubscriptionKeyPrefix addresses stored push subscriptions.
const SubscriptionKeyPrefix = "push_subscription_"

// ErrInvalidSubscription rejects a subscription without endpoint or keys.
var ErrInvalidSubscription = errors.New("invalid push subscription")

// VAPID holds the application server identity.
type VAPID struct {
	PublicKey  string
	PrivateKey string
	Subscriber string
}

// WebPushChannel delivers through the Web Push protocol to every registered
// browser subscription. It is the persistent channel: the service worker
// shows the alert even when no page is open.
type WebPushChannel struct {
	kv    store.KV
	vapid VAPID
	log   *zap.Logger
	ttl   int
	httpc webpush.HTTPClient
}

func NewWebPushChannel(kv store.KV, vapid VAPID, log *zap.Logger) *WebPushChannel {
	return &WebPushChannel{kv: kv, vapid: vapid, log: log, ttl: 3600}
}

// WithHTTPClient overrides the client used to reach push services.
func (c *WebPushChannel) WithHTTPClient(h webpush.HTTPClient) *WebPushChannel {
	c.httpc = h
	return c
}

func (*WebPushChannel) Name() string { return "webpush" }

func (c *WebPushChannel) Ready(ctx context.Context) bool {
	keys, err := c.kv.Keys(ctx, SubscriptionKeyPrefix)
	return err == nil && len(keys) > 0
}

// PublicKey is handed to browsers for PushManager.subscribe.
func (c *WebPushChannel) PublicKey() string { return c.vapid.PublicKey }

func subscriptionKey(endpoint string) string {
	sum := sha256.Sum256([]byte(endpoint))
	return SubscriptionKeyPrefix + hex.EncodeToString(sum[:8])
}

// Subscribe stores sub, replacing an earlier one with the same endpoint.
func (c *WebPushChannel) Subscribe(ctx context.Context, sub webpush.Subscription) error {
	if strings.TrimSpace(sub.Endpoint) == "" || sub.Keys.Auth == "" || sub.Keys.P256dh == "" {
		return ErrInvalidSubscription
	}
	raw, err := json.Marshal(sub)
	if err != nil {
		return err
	}
	if err := c.kv.Set(ctx, subscriptionKey(sub.Endpoint), string(raw)); err != nil {
		return fmt.Errorf("store subscription: %w", err)
	}
	c.log.Info("push subscription stored", zap.String("endpoint", sub.Endpoint))
	return nil
}

// Unsubscribe forgets the subscription for endpoint. Unknown endpoints are ignored.
func (c *WebPushChannel) Unsubscribe(ctx context.Context, endpoint string) error {
	return c.kv.Delete(ctx, subscriptionKey(endpoint))
}

// Subscriptions lists the stored subscriptions, skipping unreadable ones.
func (c *WebPushChannel) Subscriptions(ctx context.Context) ([]webpush.Subscription, error) {
	keys, err := c.kv.Keys(ctx, SubscriptionKeyPrefix)
	if err != nil {
		return nil, err
	}
	subs := make([]webpush.Subscription, 0, len(keys))
	for _, k := range keys {
		raw, ok, err := c.kv.Get(ctx, k)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		var sub webpush.Subscription
		if err := json.Unmarshal([]byte(raw), &sub); err != nil {
			c.log.Warn("skipping unreadable push subscription", zap.String("key", k), zap.Error(err))
			continue
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

// pushPayload is what the service worker's push handler reads.
type pushPayload struct {
	Title              string          `json:"title"`
	Body               string          `json:"body"`
	Icon               string          `json:"icon,omitempty"`
	Badge              string          `json:"badge,omitempty"`
	Tag                string          `json:"tag,omitempty"`
	RequireInteraction bool            `json:"requireInteraction"`
	Silent             bool            `json:"silent"`
	Actions            []domain.Action `json:"actions,omitempty"`
	ReminderID         string          `json:"reminderId,omitempty"`
	Type               domain.Category `json:"type,omitempty"`
}

func encodePayload(n domain.Notification) ([]byte, error) {
	return json.Marshal(pushPayload{
		Title:              n.Title,
		Body:               n.Options.Body,
		Icon:               n.Options.Icon,
		Badge:              n.Options.Badge,
		Tag:                n.Options.Tag,
		RequireInteraction: n.Options.RequireInteraction,
		Silent:             n.Options.Silent,
		Actions:            n.Options.Actions,
		ReminderID:         n.ReminderID,
		Type:               n.Category,
	})
}

// Show pushes n to every subscription. It succeeds when at least one push
// service accepted the message. Subscriptions the push service reports as
// gone (404, 410) are removed.
func (c *WebPushChannel) Show(ctx context.Context, n domain.Notification) error {
	subs, err := c.Subscriptions(ctx)
	if err != nil {
		return fmt.Errorf("list subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return ErrNoTargets
	}
	payload, err := encodePayload(n)
	if err != nil {
		return err
	}

	urgency := webpush.UrgencyNormal
	if n.Options.RequireInteraction {
		urgency = webpush.UrgencyHigh
	}

	var (
		delivered int
		errs      []error
	)
	for i := range subs {
		sub := &subs[i]
		if err := c.push(ctx, payload, sub, urgency); err != nil {
			errs = append(errs, err)
			continue
		}
		delivered++
	}
	if delivered == 0 {
		return errors.Join(errs...)
	}
	return nil
}

func (c *WebPushChannel) push(ctx context.Context, payload []byte, sub *webpush.Subscription, urgency webpush.Urgency) error {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, sub, &webpush.Options{
		HTTPClient:      c.httpc,
		Subscriber:      c.vapid.Subscriber,
		VAPIDPublicKey:  c.vapid.PublicKey,
		VAPIDPrivateKey: c.vapid.PrivateKey,
		TTL:             c.ttl,
		Urgency:         urgency,
	})
	if err != nil {
		return fmt.Errorf("push to %s: %w", sub.Endpoint, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		if err := c.Unsubscribe(ctx, sub.Endpoint); err != nil {
			c.log.Warn("failed to remove expired subscription", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		} else {
			c.log.Info("removed expired push subscription", zap.String("endpoint", sub.Endpoint))
		}
		return fmt.Errorf("push to %s: subscription gone (%d)", sub.Endpoint, resp.StatusCode)
	case resp.StatusCode >= 300:
		return fmt.Errorf("push to %s: status %d", sub.Endpoint, resp.StatusCode)
	}
	return nil
}
