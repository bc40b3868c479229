// Package natsfeed delivers location fixes published on NATS to a feed.Handler.
package natsfeed

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/1F47E/geo-explored/pkg/feed"
	"github.com/1F47E/geo-explored/pkg/metrics"
	"github.com/1F47E/geo-explored/pkg/models"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

const source = "nats"

// Connect opens a connection that keeps reconnecting in the background
func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("explored"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return conn, nil
}

// Subscriber feeds fixes from one subject into a handler
type Subscriber struct {
	conn    *nats.Conn
	sub     *nats.Subscription
	handler feed.Handler
	log     zerolog.Logger
}

// Subscribe starts delivering fixes published on subject to h. Messages
// are handled one at a time on the subscription goroutine.
func Subscribe(conn *nats.Conn, subject string, h feed.Handler, log zerolog.Logger) (*Subscriber, error) {
	s := &Subscriber{
		conn:    conn,
		handler: h,
		log:     log.With().Str("component", "natsfeed").Str("subject", subject).Logger(),
	}
	sub, err := conn.Subscribe(subject, s.handle)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}
	s.sub = sub
	s.log.Info().Msg("subscribed to fixes")
	return s, nil
}

func (s *Subscriber) handle(msg *nats.Msg) {
	points, err := feed.DecodeFixes(msg.Data)
	if err != nil {
		metrics.FixDecodeErrors.WithLabelValues(source).Inc()
		s.log.Warn().Err(err).Str("msg_subject", msg.Subject).Msg("dropping fix")
		return
	}
	metrics.FixesReceived.WithLabelValues(source).Add(float64(len(points)))
	for _, p := range points {
		s.handler(p)
	}
}

// Close unsubscribes and drains the connection
func (s *Subscriber) Close() error {
	if err := s.sub.Unsubscribe(); err != nil {
		s.log.Warn().Err(err).Msg("unsubscribe failed")
	}
	return s.conn.Drain()
}

// Publisher sends fixes to subjects below a prefix, one subject per device
type Publisher struct {
	conn   *nats.Conn
	prefix string
}

// NewPublisher derives the subject prefix from a wildcard subscription
// subject, so "explored.fixes.>" publishes to "explored.fixes.<device>".
func NewPublisher(conn *nats.Conn, subject string) *Publisher {
	return &Publisher{
		conn:   conn,
		prefix: strings.TrimSuffix(strings.TrimSuffix(subject, ">"), "."),
	}
}

// Subject returns the subject fixes from device are published on
func (p *Publisher) Subject(device string) string {
	return p.prefix + "." + device
}

func (p *Publisher) Publish(device string, fixes ...models.GeoPoint) error {
	var (
		data []byte
		err  error
	)
	if len(fixes) == 1 {
		data, err = json.Marshal(fixes[0])
	} else {
		data, err = json.Marshal(fixes)
	}
	if err != nil {
		return err
	}
	return p.conn.Publish(p.Subject(device), data)
}

// Flush waits until the server has processed everything published so far
func (p *Publisher) Flush() error {
	return p.conn.Flush()
}

func (p *Publisher) Close() {
	_ = p.conn.Drain()
}
