// Package server owns the UDP socket: the receive loop that feeds
// datagrams to the dispatch coordinator, the sender sweep that drains
// and retransmits each session's outbound queue, and the side /metrics
// HTTP listener. Grounded on the teacher's source/server/server.go
// Start/listen/updateLoop trio, generalized from RakNet's binary framing
// to the text wire protocol and from a single update tick to a
// dedicated sender sweep plus the watchdog's own ticker.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/ludoserver/ludoserver/internal/config"
	"github.com/ludoserver/ludoserver/internal/dispatch"
	"github.com/ludoserver/ludoserver/internal/obs"
	"github.com/ludoserver/ludoserver/internal/wire"
)

// Server binds the game UDP socket and, optionally, a metrics HTTP
// listener alongside it.
type Server struct {
	Coordinator *dispatch.Coordinator
	conn        *net.UDPConn
	metricsSrv  *http.Server
}

// New wires a Server around an already-constructed Coordinator. The
// caller is responsible for constructing the Coordinator's registries
// first, mirroring the teacher's NewServer(host, port, maxPlayers)
// shape but with the domain objects assembled by the caller instead of
// by this constructor.
func New(coordinator *dispatch.Coordinator) *Server {
	return &Server{Coordinator: coordinator}
}

// Listen binds the UDP socket. Must be called before Run.
func (s *Server) Listen(host string, port int) error {
	addr := &net.UDPAddr{IP: net.ParseIP(host), Port: port}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return pkgerrors.Wrapf(err, "bind udp socket on %s", addr.String())
	}
	s.conn = conn
	s.Coordinator.SendRaw = s.sendRaw
	obs.Success("listening on %s", conn.LocalAddr().String())
	return nil
}

// ListenMetrics starts the Prometheus HTTP listener on its own address,
// returning immediately; Shutdown tears it down with the rest of the
// server.
func (s *Server) ListenMetrics(addr string) {
	if s.Coordinator.Metrics == nil {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", s.Coordinator.Metrics.Handler())
	s.metricsSrv = &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := s.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			obs.Error("metrics listener stopped: %v", err)
		}
	}()
	obs.Info("metrics available at http://%s/metrics", addr)
}

// Run blocks, driving the receive loop and the sender sweep until ctx is
// canceled. Both loops share ctx so a single cancellation tears down the
// whole server, the same cooperative-shutdown shape as watchdog.Run.
func (s *Server) Run(ctx context.Context) {
	go s.sendLoop(ctx)
	s.receiveLoop(ctx)
}

// receiveLoop reads datagrams and hands each to the coordinator on its
// own goroutine, the same fire-and-forget dispatch the teacher's listen()
// uses for HandlePacket — the coordinator's own locking keeps concurrent
// datagrams from the same session safe.
func (s *Server) receiveLoop(ctx context.Context) {
	buf := make([]byte, config.MaxDatagramSize)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		s.conn.SetReadDeadline(time.Now().Add(config.ReceiveTimeout))
		n, raddr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			select {
			case <-ctx.Done():
				return
			default:
				obs.Warn("udp read error: %v", err)
				continue
			}
		}

		data := make([]byte, n)
		copy(data, buf[:n])
		go s.Coordinator.HandleDatagram(raddr, data)
	}
}

// sendLoop wakes every SenderSweepPeriod and pushes each session's queue
// head out, retransmitting anything stale past MaxPacketAge. Grounded on
// the teacher's updateLoop ticker, generalized from a single
// raknet.Update() call to the stop-and-wait materialize/retransmit pair.
func (s *Server) sendLoop(ctx context.Context) {
	ticker := time.NewTicker(config.SenderSweepPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepSend()
		}
	}
}

func (s *Server) sweepSend() {
	now := time.Now()
	for _, idx := range s.Coordinator.Sessions.Indices() {
		sess, ok := s.Coordinator.Sessions.LookupByIndex(idx)
		if !ok {
			continue
		}
		q := sess.Queue()
		var out []byte
		if q.ShouldRetransmit(now, config.MaxPacketAge) {
			out = q.Retransmit(now)
			if s.Coordinator.Metrics != nil {
				s.Coordinator.Metrics.FramesRetransmits.Inc()
			}
		} else {
			out = q.Materialize(config.AppToken, now)
		}
		addr := sess.Addr()
		s.Coordinator.Sessions.Release(sess)

		if out != nil {
			s.conn.WriteToUDP(out, addr)
		}
	}
}

// sendRaw implements dispatch.UnreliableSender for messages sent outside
// the stop-and-wait queue (SERVER_FULL to a client never admitted,
// SERVER_SHUTDOWN broadcast during teardown).
func (s *Server) sendRaw(addr *net.UDPAddr, payload string) {
	s.conn.WriteToUDP(wire.Materialize(config.AppToken, 0, payload), addr)
}

// Shutdown broadcasts SERVER_SHUTDOWN to every connected session before
// closing the socket, matching the teacher's Stop() but adding the
// outbound notice the game protocol requires clients receive.
func (s *Server) Shutdown() {
	if s.conn != nil {
		for _, idx := range s.Coordinator.Sessions.Indices() {
			sess, ok := s.Coordinator.Sessions.LookupByIndex(idx)
			if !ok {
				continue
			}
			s.sendRaw(sess.Addr(), wire.BuildServerShutdown())
			s.Coordinator.Sessions.Release(sess)
		}
	}
	if s.metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		s.metricsSrv.Shutdown(ctx)
	}
	if s.conn != nil {
		s.conn.Close()
	}
}
