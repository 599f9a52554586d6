package od4

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/ipv4"
	"golang.org/x/sys/unix"
)

// DefaultPort every OD4 session uses.
const DefaultPort = 12175

const readTimeout = 100 * time.Millisecond

// Handler processes one envelope. A returned error counts the datagram as malformed.
type Handler func(Envelope) error

// Stats collects datagram counters.
type Stats interface {
	DatagramReceived(bytes int)
	DatagramMalformed()
}

type noopStats struct{}

func (noopStats) DatagramReceived(int) {}
func (noopStats) DatagramMalformed()   {}

// Config for joining a session.
type Config struct {
	CID       int            // conference id, selects group 225.0.0.<cid>
	Port      int            // DefaultPort when zero
	Interface *net.Interface // multicast interface, system default when nil
	Stats     Stats
	Logger    *zap.Logger
}

// Session member of one OD4 multicast conference.
type Session struct {
	conn   net.PacketConn
	group  net.Addr
	stats  Stats
	logger *zap.Logger
	now    func() time.Time

	mu       sync.RWMutex
	handlers map[int32][]Handler

	running atomic.Bool
}

// GroupAddr returns the multicast address for a conference id.
func GroupAddr(cid, port int) (*net.UDPAddr, error) {
	if cid < 1 || cid > 254 {
		return nil, fmt.Errorf("cid %d out of range 1..254", cid)
	}
	if port == 0 {
		port = DefaultPort
	}
	return &net.UDPAddr{IP: net.IPv4(225, 0, 0, byte(cid)), Port: port}, nil
}

// Open joins the conference. Several processes on one host may join the same conference.
func Open(cfg Config) (*Session, error) {
	group, err := GroupAddr(cfg.CID, cfg.Port)
	if err != nil {
		return nil, err
	}

	lc := net.ListenConfig{Control: reuseAddr}
	conn, err := lc.ListenPacket(context.Background(), "udp4", fmt.Sprintf(":%d", group.Port))
	if err != nil {
		return nil, fmt.Errorf("listen on %d: %w", group.Port, err)
	}

	p := ipv4.NewPacketConn(conn)
	if err := p.JoinGroup(cfg.Interface, &net.UDPAddr{IP: group.IP}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("join %s: %w", group.IP, err)
	}
	if cfg.Interface != nil {
		if err := p.SetMulticastInterface(cfg.Interface); err != nil {
			conn.Close()
			return nil, fmt.Errorf("set multicast interface %s: %w", cfg.Interface.Name, err)
		}
	}
	if err := p.SetMulticastLoopback(true); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable multicast loopback: %w", err)
	}

	return newSession(conn, group, cfg), nil
}

func newSession(conn net.PacketConn, group net.Addr, cfg Config) *Session {
	stats := cfg.Stats
	if stats == nil {
		stats = noopStats{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Session{
		conn:     conn,
		group:    group,
		stats:    stats,
		logger:   logger,
		now:      time.Now,
		handlers: make(map[int32][]Handler),
	}
	s.running.Store(true)
	return s
}

func reuseAddr(_, _ string, c syscall.RawConn) error {
	var serr error
	err := c.Control(func(fd uintptr) {
		serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
		if serr == nil {
			serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
		}
	})
	if err != nil {
		return err
	}
	return serr
}

// OnMessage registers h for envelopes of dataType. Handlers run on the receive goroutine.
func (s *Session) OnMessage(dataType int32, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[dataType] = append(s.handlers[dataType], h)
}

// IsRunning reports whether the receive loop is still alive.
func (s *Session) IsRunning() bool {
	return s.running.Load()
}

// Run receives datagrams until ctx is done or the session is closed.
func (s *Session) Run(ctx context.Context) error {
	defer s.running.Store(false)

	buf := make([]byte, 64*1024)
	var deadlineErrLogged bool
	for {
		if ctx.Err() != nil {
			return nil
		}
		if err := s.conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil && !deadlineErrLogged {
			s.logger.Warn("failed to set read deadline", zap.Error(err))
			deadlineErrLogged = true
		}

		n, _, err := s.conn.ReadFrom(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read od4 datagram: %w", err)
		}
		s.dispatch(buf[:n])
	}
}

func (s *Session) dispatch(packet []byte) {
	s.stats.DatagramReceived(len(packet))

	env, err := UnmarshalEnvelope(packet)
	if err != nil {
		s.stats.DatagramMalformed()
		s.logger.Debug("dropping malformed datagram", zap.Int("bytes", len(packet)), zap.Error(err))
		return
	}
	env.Received = s.now()

	s.mu.RLock()
	handlers := s.handlers[env.DataType]
	s.mu.RUnlock()

	for _, h := range handlers {
		if err := h(env); err != nil {
			s.stats.DatagramMalformed()
			s.logger.Debug("handler rejected envelope",
				zap.Int32("data_type", env.DataType),
				zap.Uint32("sender", env.SenderStamp),
				zap.Error(err),
			)
		}
	}
}

// send publishes payload to the conference. A zero sampleTime is replaced by the send time.
// Steering output goes to stdout, so only the loopback tests publish.
func (s *Session) send(dataType int32, sender uint32, sampleTime time.Time, payload []byte) error {
	now := s.now()
	if sampleTime.IsZero() {
		sampleTime = now
	}
	b, err := Envelope{
		DataType:        dataType,
		SerializedData:  payload,
		Sent:            now,
		SampleTimeStamp: sampleTime,
		SenderStamp:     sender,
	}.Marshal()
	if err != nil {
		return err
	}
	if _, err := s.conn.WriteTo(b, s.group); err != nil {
		return fmt.Errorf("send %d: %w", dataType, err)
	}
	return nil
}

// Close leaves the conference and stops Run.
func (s *Session) Close() error {
	s.running.Store(false)
	if err := s.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

var _ Registrar = (*Session)(nil)
