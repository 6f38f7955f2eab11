// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package notify

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samber/oops"
)

// smsResponseBodyLimit caps how much of a gateway error response is read
// for diagnostics.
const smsResponseBodyLimit = 4 << 10

// SMSNotifier sends messages through a Twilio-style REST gateway: a
// form-encoded POST authenticated with account SID and token.
type SMSNotifier struct {
	endpoint   string
	accountSID string
	authToken  string
	fromNumber string
	client     *http.Client
}

// NewSMSNotifier creates an SMSNotifier for the given gateway endpoint.
func NewSMSNotifier(endpoint, accountSID, authToken, fromNumber string) (*SMSNotifier, error) {
	if endpoint == "" {
		return nil, oops.Code("NOTIFY_CONFIG_INVALID").Errorf("sms gateway endpoint is required")
	}
	if accountSID == "" || authToken == "" {
		return nil, oops.Code("NOTIFY_CONFIG_INVALID").Errorf("sms gateway credentials are required")
	}
	if fromNumber == "" {
		return nil, oops.Code("NOTIFY_CONFIG_INVALID").Errorf("sms from number is required")
	}
	return &SMSNotifier{
		endpoint:   endpoint,
		accountSID: accountSID,
		authToken:  authToken,
		fromNumber: fromNumber,
		client:     &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// Send delivers body to the destination phone number via the gateway.
func (n *SMSNotifier) Send(ctx context.Context, phone, body string) error {
	form := url.Values{}
	form.Set("From", n.fromNumber)
	form.Set("To", phone)
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return oops.Code("NOTIFY_SEND_FAILED").
			With("operation", "build request").
			Wrap(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(n.accountSID, n.authToken)

	resp, err := n.client.Do(req)
	if err != nil {
		return oops.Code("NOTIFY_SEND_FAILED").
			With("operation", "post to gateway").
			Wrap(err)
	}
	defer func() {
		_ = resp.Body.Close() //nolint:errcheck // response already consumed
	}()

	if resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, smsResponseBodyLimit)) //nolint:errcheck // best-effort diagnostics
		return oops.Code("NOTIFY_SEND_FAILED").
			With("status", resp.StatusCode).
			With("response", string(detail)).
			Errorf("sms gateway rejected message")
	}
	return nil
}

// Compile-time interface check.
var _ Notifier = (*SMSNotifier)(nil)
