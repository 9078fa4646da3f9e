package transport

import (
	"context"
	"fmt"
	"net"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/last-brain-cell/smart-heat-pump-mvp/internal/config"
)

// publishTimeout bounds each broker acknowledgement wait at QoS 1.
const publishTimeout = 10 * time.Second

// Topics builds the channel names for one device.
type Topics struct {
	base string
}

// NewTopics creates the topic set for a namespace and device id.
func NewTopics(namespace, deviceID string) Topics {
	return Topics{base: namespace + "/" + deviceID}
}

// Data is the snapshot delivery topic.
func (t Topics) Data() string { return t.base + "/data" }

// Online is the retained liveness topic; its last-will payload is "false".
func (t Topics) Online() string { return t.base + "/status/online" }

// Commands is the subscribed command topic (currently logged only).
func (t Topics) Commands() string { return t.base + "/commands" }

// MQTTSession is a publish session against one broker endpoint. Connecting
// registers a retained "false" last will on the online-status topic, then
// publishes a retained "true" and subscribes to the command topic.
type MQTTSession struct {
	endpoint config.EndpointConfig
	topics   Topics
	clientID string
	client   mqtt.Client
	logger   *zap.Logger
}

// NewMQTTSession creates an unconnected session for the endpoint. Each
// session gets a fresh client-id suffix so the broker never confuses a
// rebind with a stale half-open client.
func NewMQTTSession(endpoint config.EndpointConfig, topics Topics, deviceID string, logger *zap.Logger) *MQTTSession {
	return &MQTTSession{
		endpoint: endpoint,
		topics:   topics,
		clientID: fmt.Sprintf("%s-%s", deviceID, uuid.NewString()[:8]),
		logger:   logger,
	}
}

// Connect authenticates against the broker and performs the session
// handshake. It blocks up to the endpoint's connect timeout.
func (s *MQTTSession) Connect(ctx context.Context) error {
	opts := mqtt.NewClientOptions().
		AddBroker("tcp://" + s.endpoint.Addr()).
		SetClientID(s.clientID).
		SetUsername(s.endpoint.Username).
		SetPassword(s.endpoint.Password).
		SetConnectTimeout(s.endpoint.ConnectTimeout.Duration).
		SetAutoReconnect(false).
		SetCleanSession(true).
		SetWill(s.topics.Online(), "false", 1, true)

	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		s.logger.Warn("MQTT connection lost", zap.Error(err))
	})

	s.client = mqtt.NewClient(opts)

	token := s.client.Connect()
	if !token.WaitTimeout(s.endpoint.ConnectTimeout.Duration) {
		return fmt.Errorf("mqtt connect to %s: timeout", s.endpoint.Addr())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect to %s: %w", s.endpoint.Addr(), err)
	}

	if err := s.Publish(s.topics.Online(), []byte("true"), true); err != nil {
		s.client.Disconnect(0)
		return fmt.Errorf("publishing online status: %w", err)
	}

	sub := s.client.Subscribe(s.topics.Commands(), 1, s.onCommand)
	if !sub.WaitTimeout(publishTimeout) || sub.Error() != nil {
		s.logger.Warn("Command topic subscribe failed",
			zap.String("topic", s.topics.Commands()),
			zap.Error(sub.Error()))
		// Non-fatal: publishing still works without the command channel.
	}

	s.logger.Info("MQTT session established",
		zap.String("broker", s.endpoint.Addr()),
		zap.String("client_id", s.clientID))
	return nil
}

// Connected reports whether the broker connection is live.
func (s *MQTTSession) Connected() bool {
	return s.client != nil && s.client.IsConnected()
}

// Publish delivers a payload at QoS 1 and waits for the acknowledgement.
func (s *MQTTSession) Publish(topic string, payload []byte, retained bool) error {
	if s.client == nil || !s.client.IsConnected() {
		return fmt.Errorf("publish to %s: session not connected", topic)
	}
	token := s.client.Publish(topic, 1, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// Close publishes an explicit offline status when possible and disconnects.
func (s *MQTTSession) Close() {
	if s.client == nil {
		return
	}
	if s.client.IsConnected() {
		// Best effort: the last will covers the unclean case.
		_ = s.Publish(s.topics.Online(), []byte("false"), true)
		s.client.Disconnect(250)
	}
	s.client = nil
}

// onCommand logs received commands. Remote MQTT commands are reserved for
// forward compatibility and not acted upon.
func (s *MQTTSession) onCommand(_ mqtt.Client, msg mqtt.Message) {
	s.logger.Info("Command received",
		zap.String("topic", msg.Topic()),
		zap.ByteString("payload", msg.Payload()))
}

// NetLink is a network path probed by dialing its broker's TCP endpoint.
// Reachability is cached briefly so the scheduler does not dial on every
// tick; Drop discards the cache after a failure.
type NetLink struct {
	name     string
	addr     string
	timeout  time.Duration
	probeTTL time.Duration

	up        bool
	lastProbe time.Time
	logger    *zap.Logger
}

// NewNetLink creates a link that considers itself connected while a recent
// probe of addr succeeded.
func NewNetLink(name, addr string, timeout time.Duration, logger *zap.Logger) *NetLink {
	return &NetLink{
		name:     name,
		addr:     addr,
		timeout:  timeout,
		probeTTL: 30 * time.Second,
		logger:   logger,
	}
}

// Name returns the link name.
func (l *NetLink) Name() string { return l.name }

// Connect probes the endpoint. It blocks up to the configured timeout.
func (l *NetLink) Connect(ctx context.Context) error {
	d := net.Dialer{Timeout: l.timeout}
	conn, err := d.DialContext(ctx, "tcp", l.addr)
	if err != nil {
		l.up = false
		return fmt.Errorf("probing %s: %w", l.addr, err)
	}
	conn.Close()
	l.up = true
	l.lastProbe = time.Now()
	l.logger.Info("Link up", zap.String("link", l.name), zap.String("addr", l.addr))
	return nil
}

// Connected reports cached reachability, re-probing once the cache is stale.
func (l *NetLink) Connected() bool {
	if !l.up {
		return false
	}
	if time.Since(l.lastProbe) <= l.probeTTL {
		return true
	}
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()
	if err := l.Connect(ctx); err != nil {
		return false
	}
	return true
}

// Drop discards cached reachability.
func (l *NetLink) Drop() {
	l.up = false
}
