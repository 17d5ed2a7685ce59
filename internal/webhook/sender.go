package webhook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gabapcia/walletpulse/internal/alert"

	"github.com/hashicorp/go-retryablehttp"
)

// ErrDeliveryFailed indicates the endpoint could not be reached or answered
// with a non-2xx status. Delivery failures are per-destination and are
// never propagated to the poll cycle.
var ErrDeliveryFailed = errors.New("webhook delivery failed")

// Sender POSTs alert envelopes to subscription endpoints.
type Sender struct {
	client *retryablehttp.Client
}

// NewSender creates a Sender over the given retrying HTTP client. Retries
// at this layer are the webhook transport's own concern; the dispatcher
// never re-sends an alert.
func NewSender(client *retryablehttp.Client) *Sender {
	return &Sender{client: client}
}

// Deliver sends the alert to the subscription's endpoint as a JSON
// envelope, with the subscription's extra headers merged in. Any transport
// failure or non-2xx response is reported as ErrDeliveryFailed.
func (s *Sender) Deliver(ctx context.Context, sub Subscription, a alert.Alert) error {
	body, err := alert.Envelope(a)
	if err != nil {
		return fmt.Errorf("%w: encoding alert: %v", ErrDeliveryFailed, err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, sub.Endpoint, body)
	if err != nil {
		return fmt.Errorf("%w: building request: %v", ErrDeliveryFailed, err)
	}

	req.Header.Set("Content-Type", "application/json")
	for key, value := range sub.Headers {
		req.Header.Set(key, value)
	}

	res, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	defer res.Body.Close()

	_, _ = io.Copy(io.Discard, res.Body)

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: unexpected status %d from %s", ErrDeliveryFailed, res.StatusCode, sub.Endpoint)
	}

	return nil
}
