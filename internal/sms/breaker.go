package sms

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
)

// BreakerSender wraps a Sender with a circuit breaker so a misbehaving SMS
// provider fails fast instead of stalling every ingestion call.
type BreakerSender struct {
	inner Sender
	cb    *gobreaker.CircuitBreaker[Result]
}

func NewBreakerSender(inner Sender) *BreakerSender {
	cb := gobreaker.NewCircuitBreaker[Result](gobreaker.Settings{
		Name:    "sms-provider",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logrus.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("SMS circuit breaker state changed")
		},
	})
	return &BreakerSender{inner: inner, cb: cb}
}

func (b *BreakerSender) Send(ctx context.Context, phoneNumber, message string) Result {
	res, err := b.cb.Execute(func() (Result, error) {
		r := b.inner.Send(ctx, phoneNumber, message)
		if !r.Success {
			return r, errSendFailed
		}
		return r, nil
	})
	if err != nil && res.Provider == "" {
		// Breaker open: the inner sender never ran
		return Result{Provider: "sms-breaker", Error: err.Error(), Timestamp: time.Now()}
	}
	return res
}

type sendFailedError struct{}

func (sendFailedError) Error() string { return "sms send failed" }

var errSendFailed = sendFailedError{}
