package pubsub

import (
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"

	"github.com/Billy-Davies-2/draft-board-planner/internal/logger"
)

// EmbeddedNATSPubSub runs a NATS server with JetStream in-process, so that
// development builds exercise the same transport as production
type EmbeddedNATSPubSub struct {
	*fanout
	server  *server.Server
	nc      *nats.Conn
	js      nats.JetStreamContext
	subject string
}

// EmbeddedNATSOptions configures the embedded NATS server
type EmbeddedNATSOptions struct {
	Port       int           // 0 or -1 picks a random free port
	Subject    string        // subject board events are published on
	StreamName string        // JetStream stream name
	StoreDir   string        // JetStream storage directory (empty = in-memory)
	MaxAge     time.Duration // how long the stream keeps events
}

// DefaultEmbeddedNATSOptions returns sensible defaults for development
func DefaultEmbeddedNATSOptions() EmbeddedNATSOptions {
	return EmbeddedNATSOptions{
		Port:       -1,
		Subject:    DefaultSubject,
		StreamName: DefaultStream,
		MaxAge:     time.Hour,
	}
}

// NewEmbeddedNATSPubSub starts an embedded NATS server and connects to it
func NewEmbeddedNATSPubSub(opts EmbeddedNATSOptions) (*EmbeddedNATSPubSub, error) {
	defaults := DefaultEmbeddedNATSOptions()
	if opts.Port == 0 {
		opts.Port = -1 // 0 would mean 4222
	}
	if opts.Subject == "" {
		opts.Subject = defaults.Subject
	}
	if opts.StreamName == "" {
		opts.StreamName = defaults.StreamName
	}
	if opts.MaxAge == 0 {
		opts.MaxAge = defaults.MaxAge
	}

	serverOpts := &server.Options{
		Port:      opts.Port,
		JetStream: true,
		NoSigs:    true,
		StoreDir:  opts.StoreDir,
	}

	ns, err := server.NewServer(serverOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedded NATS server: %w", err)
	}
	ns.SetLogger(&natsLogger{}, false, false)

	go ns.Start()

	if !ns.ReadyForConnections(10 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("embedded NATS server failed to start within timeout")
	}

	clientURL := ns.ClientURL()
	logger.Info("Embedded NATS server started", "url", clientURL)

	nc, err := nats.Connect(clientURL)
	if err != nil {
		ns.Shutdown()
		return nil, fmt.Errorf("failed to connect to embedded NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		ns.Shutdown()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if err := ensureStream(js, opts.StreamName, opts.Subject, nats.MemoryStorage, opts.MaxAge); err != nil {
		nc.Close()
		ns.Shutdown()
		return nil, err
	}

	ps := &EmbeddedNATSPubSub{
		fanout:  newFanout("embedded-nats", 100),
		server:  ns,
		nc:      nc,
		js:      js,
		subject: opts.Subject,
	}

	if err := ps.startSubscription(); err != nil {
		ps.Close()
		return nil, err
	}

	return ps, nil
}

// startSubscription relays JetStream messages to local subscribers
func (p *EmbeddedNATSPubSub) startSubscription() error {
	_, err := p.js.Subscribe(p.subject, func(msg *nats.Msg) {
		event, err := decodeEvent(msg.Data)
		if err != nil {
			logger.Error("Failed to unmarshal event from JetStream", "error", err)
			msg.Nak()
			return
		}
		p.broadcast(event)
		msg.Ack()
	}, nats.ManualAck(), nats.DeliverNew())
	if err != nil {
		return fmt.Errorf("failed to subscribe to JetStream subject %s: %w", p.subject, err)
	}

	logger.Debug("Subscribed to JetStream", "subject", p.subject)
	return nil
}

// Publish publishes an event to the embedded JetStream. Local subscribers
// receive it through the JetStream subscription.
func (p *EmbeddedNATSPubSub) Publish(event Event) {
	data, err := encodeEvent(event)
	if err != nil {
		logger.Error("Failed to marshal event", "error", err, "event_type", event.Type)
		return
	}

	if _, err := p.js.Publish(p.subject, data); err != nil {
		logger.Error("Failed to publish to embedded NATS", "error", err, "subject", p.subject, "event_type", event.Type)
		return
	}

	logger.Debug("Published event to embedded NATS", "event_type", event.Type, "subject", p.subject)
}

// Close shuts down the embedded NATS server
func (p *EmbeddedNATSPubSub) Close() {
	logger.Info("Shutting down embedded NATS server")

	p.closeAll()
	if p.nc != nil {
		p.nc.Close()
	}
	if p.server != nil {
		p.server.Shutdown()
		p.server.WaitForShutdown()
	}
}

// ServerURL returns the client URL of the embedded server
func (p *EmbeddedNATSPubSub) ServerURL() string {
	return p.server.ClientURL()
}

// natsLogger bridges NATS server logs into our logger
type natsLogger struct{}

func (l *natsLogger) Noticef(format string, v ...any) {
	logger.Info(fmt.Sprintf("[NATS] "+format, v...))
}

func (l *natsLogger) Warnf(format string, v ...any) {
	logger.Warn(fmt.Sprintf("[NATS] "+format, v...))
}

func (l *natsLogger) Fatalf(format string, v ...any) {
	logger.Error(fmt.Sprintf("[NATS] "+format, v...))
}

func (l *natsLogger) Errorf(format string, v ...any) {
	logger.Error(fmt.Sprintf("[NATS] "+format, v...))
}

func (l *natsLogger) Debugf(format string, v ...any) {
	logger.Debug(fmt.Sprintf("[NATS] "+format, v...))
}

func (l *natsLogger) Tracef(format string, v ...any) {
	logger.Debug(fmt.Sprintf("[NATS TRACE] "+format, v...))
}
