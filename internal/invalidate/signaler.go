package invalidate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/cloo-solutions/pillarpress/internal/logfields"
)

const (
	// DefaultSubject is the NATS subject stale-path messages are published on.
	DefaultSubject = "content.stale"

	flushTimeout = 5 * time.Second
)

// Signaler announces that the given public paths must be re-rendered.
type Signaler interface {
	MarkStale(ctx context.Context, paths []string) error
}

// Message is the payload published for each invalidation.
type Message struct {
	Paths []string  `json:"paths"`
	At    time.Time `json:"at"`
}

// LogSignaler only logs stale paths. It is used when no transport is configured.
type LogSignaler struct {
	logger *slog.Logger
}

// NewLogSignaler creates a LogSignaler writing to logger, or the default logger if nil.
func NewLogSignaler(logger *slog.Logger) *LogSignaler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSignaler{logger: logger}
}

func (s *LogSignaler) MarkStale(ctx context.Context, paths []string) error {
	s.logger.InfoContext(ctx, "paths marked stale", logfields.Paths(paths))
	return nil
}

// Publisher is the subset of *nats.Conn the NATS signaler needs.
type Publisher interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
}

// NATSSignaler publishes stale paths as JSON messages.
type NATSSignaler struct {
	pub     Publisher
	subject string
	now     func() time.Time
}

// NewNATSSignaler creates a NATSSignaler. An empty subject uses DefaultSubject.
func NewNATSSignaler(pub Publisher, subject string) *NATSSignaler {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSSignaler{pub: pub, subject: subject, now: time.Now}
}

// ConnectNATS dials url with a client name and reconnect handlers that log.
func ConnectNATS(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("pillarpress"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("NATS disconnected", logfields.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return conn, nil
}

// MarkStale publishes paths and waits for the server to acknowledge the flush.
func (s *NATSSignaler) MarkStale(ctx context.Context, paths []string) error {
	data, err := json.Marshal(Message{Paths: paths, At: s.now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to marshal stale message: %w", err)
	}

	if err := s.pub.Publish(s.subject, data); err != nil {
		return fmt.Errorf("failed to publish stale paths: %w", err)
	}
	// nats refuses to flush without a deadline
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flushTimeout)
		defer cancel()
	}
	if err := s.pub.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush stale paths: %w", err)
	}

	slog.DebugContext(ctx, "published stale paths", "subject", s.subject, logfields.Paths(paths))
	return nil
}
