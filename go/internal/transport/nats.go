package transport

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

const (
	natsMaxReconnects = -1 // retry forever; followers outlive broker restarts
	natsReconnectWait = 2 * time.Second
)

// Default subject names for the two logical channels.
const (
	DefaultClockSubject       = "panosync.clock"
	DefaultOrientationSubject = "panosync.orientation"
)

// Bus is the pub/sub boundary the sync loop talks to. Delivery is
// best effort: samples may be dropped, duplicated or reordered, and
// the controller is built to tolerate all three.
type Bus interface {
	PublishClock(seconds float64) error
	SubscribeClock(fn func(seconds float64)) error
	PublishOrientation(o Orientation) error
	SubscribeOrientation(fn func(o Orientation)) error
	Close()
}

// NATSBus carries the clock and orientation channels over core NATS
// subjects.
type NATSBus struct {
	nc                 *nats.Conn
	clockSubject       string
	orientationSubject string
}

// ConnectNATS dials the broker with reconnect handling and returns a
// bus on the given subjects. Empty subjects fall back to the defaults.
func ConnectNATS(url, clockSubject, orientationSubject string) (*NATSBus, error) {
	if clockSubject == "" {
		clockSubject = DefaultClockSubject
	}
	if orientationSubject == "" {
		orientationSubject = DefaultOrientationSubject
	}

	opts := []nats.Option{
		nats.MaxReconnects(natsMaxReconnects),
		nats.ReconnectWait(natsReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return &NATSBus{
		nc:                 nc,
		clockSubject:       clockSubject,
		orientationSubject: orientationSubject,
	}, nil
}

// PublishClock sends one scalar clock sample. Best effort: a publish
// while disconnected is buffered or dropped by the client and the next
// tick publishes a fresher value anyway.
func (b *NATSBus) PublishClock(seconds float64) error {
	return b.nc.Publish(b.clockSubject, EncodeClockSample(seconds))
}

// SubscribeClock feeds every parseable clock sample to fn. Malformed
// and non-finite payloads are logged and discarded; they never halt
// the subscription.
func (b *NATSBus) SubscribeClock(fn func(seconds float64)) error {
	_, err := b.nc.Subscribe(b.clockSubject, func(msg *nats.Msg) {
		v, err := DecodeClockSample(msg.Data)
		if err != nil {
			log.Warn().Err(err).Str("subject", msg.Subject).Msg("discarding bad clock sample")
			return
		}
		fn(v)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", b.clockSubject, err)
	}
	return nil
}

// PublishOrientation sends a pointing-direction update.
func (b *NATSBus) PublishOrientation(o Orientation) error {
	data, err := EncodeOrientation(o)
	if err != nil {
		return err
	}
	return b.nc.Publish(b.orientationSubject, data)
}

// SubscribeOrientation feeds every decodable orientation message to fn.
func (b *NATSBus) SubscribeOrientation(fn func(o Orientation)) error {
	_, err := b.nc.Subscribe(b.orientationSubject, func(msg *nats.Msg) {
		o, err := DecodeOrientation(msg.Data)
		if err != nil {
			log.Warn().Err(err).Str("subject", msg.Subject).Msg("discarding bad orientation message")
			return
		}
		fn(o)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", b.orientationSubject, err)
	}
	return nil
}

// Connected reports whether the underlying connection is up.
func (b *NATSBus) Connected() bool {
	return b.nc.IsConnected()
}

// Close drains nothing and closes the connection; pending best-effort
// publishes are not worth waiting for.
func (b *NATSBus) Close() {
	b.nc.Close()
}
