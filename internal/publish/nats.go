package publish

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/terrascout/terrascout/internal/constants"
	"github.com/terrascout/terrascout/pkg/explorer"
)

// Message headers set on every published record.
const (
	HeaderBatchID  = "Terrascout-Batch-Id"
	HeaderSequence = "Terrascout-Sequence"
	HeaderTotal    = "Terrascout-Total"
	HeaderKind     = "Terrascout-Kind"
)

// Publisher is the subset of *nats.Conn used by Sink.
type Publisher interface {
	PublishMsg(msg *nats.Msg) error
	FlushWithContext(ctx context.Context) error
}

// Sink publishes query results to NATS, one message per record.
type Sink struct {
	conn   Publisher
	prefix string
	logger explorer.Logger
}

// Option configures a Sink.
type Option func(*Sink)

// WithSubjectPrefix overrides the default subject prefix.
func WithSubjectPrefix(prefix string) Option {
	return func(s *Sink) {
		if prefix != "" {
			s.prefix = strings.TrimSuffix(prefix, ".")
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger explorer.Logger) Option {
	return func(s *Sink) {
		s.logger = logger
	}
}

// Connect dials a NATS server for use with NewSink.
func Connect(url string, opts ...nats.Option) (*nats.Conn, error) {
	opts = append([]nats.Option{
		nats.Name(constants.DefaultUserAgent),
		nats.Timeout(constants.NATSConnectTimeout),
	}, opts...)

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}

	return conn, nil
}

// NewSink creates a sink publishing through conn.
func NewSink(conn Publisher, opts ...Option) *Sink {
	s := &Sink{
		conn:   conn,
		prefix: constants.DefaultSubjectPrefix,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Subject returns <prefix>.<organization>.<kind>. Characters that are
// meaningful in NATS subjects are replaced in the organization name.
func (s *Sink) Subject(organization string, kind explorer.ResourceKind) string {
	return s.prefix + "." + subjectToken(organization) + "." + subjectToken(kind.String())
}

// Publish sends every record as its own message and flushes. Records of one
// call share a batch id. It returns the number of messages published.
func (s *Sink) Publish(ctx context.Context, organization string, kind explorer.ResourceKind, records []explorer.Record) (int, error) {
	subject := s.Subject(organization, kind)
	batchID := uuid.NewString()
	total := strconv.Itoa(len(records))

	for i, record := range records {
		err := ctx.Err()
		if err != nil {
			return i, fmt.Errorf("publishing to %s: %w", subject, err)
		}

		msg := nats.NewMsg(subject)
		msg.Data = record
		msg.Header.Set(nats.MsgIdHdr, uuid.NewString())
		msg.Header.Set(HeaderBatchID, batchID)
		msg.Header.Set(HeaderSequence, strconv.Itoa(i))
		msg.Header.Set(HeaderTotal, total)
		msg.Header.Set(HeaderKind, kind.String())

		err = s.conn.PublishMsg(msg)
		if err != nil {
			return i, fmt.Errorf("publishing to %s: %w", subject, err)
		}
	}

	err := s.conn.FlushWithContext(ctx)
	if err != nil {
		return len(records), fmt.Errorf("flushing %s: %w", subject, err)
	}

	if s.logger != nil {
		s.logger.Info("Published records", map[string]interface{}{
			"subject":  subject,
			"batch_id": batchID,
			"records":  len(records),
		})
	}

	return len(records), nil
}

func subjectToken(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\n', '\r':
			return '_'
		default:
			return r
		}
	}, s)
}
