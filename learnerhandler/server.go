package learnerhandler

import (
	"context"
	"log/slog"
	"sync"

	rpcx "github.com/smallnest/rpcx/server"

	"github.com/muzammilar/zookeeper/decide"
	"github.com/muzammilar/zookeeper/model"
)

// entry pairs a running Handler's goroutine with the Handle the RPC
// method uses to talk to it — the RPC method never reaches into the
// Handler's own state, only through the message-passing boundary.
type entry struct {
	handler *Handler
	handle  Handle
}

// Server is the rpcx service learners dial to report their last-known
// zxid (model.FollowerInfoRequest) and kick off the sync decision. It
// runs one Handler per connected learner, keyed by learner id.
type Server struct {
	mu       sync.Mutex
	handlers map[int]entry

	decider *decide.Decider
	newSink func(learnerID int) PacketSender

	addr string
	rpc  *rpcx.Server
	log  *slog.Logger
}

// NewServer builds a Server bound to addr. newSink builds the transport
// sink for a newly connected learner id — in a full deployment this
// wraps the learner's socket connection.
func NewServer(addr string, decider *decide.Decider, newSink func(learnerID int) PacketSender, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		handlers: make(map[int]entry),
		decider:  decider,
		newSink:  newSink,
		addr:     addr,
		log:      log,
	}
}

// Serve registers the service and starts accepting connections.
func (s *Server) Serve() error {
	rpcServer := rpcx.NewServer()
	if err := rpcServer.Register(s, ""); err != nil {
		return err
	}
	s.rpc = rpcServer
	go rpcServer.Serve("tcp", s.addr)
	return nil
}

// Close stops accepting connections and closes every learner's handle.
func (s *Server) Close() error {
	s.mu.Lock()
	for id, e := range s.handlers {
		e.handle.Close()
		delete(s.handlers, id)
	}
	s.mu.Unlock()

	if s.rpc == nil {
		return nil
	}
	return s.rpc.Close()
}

func (s *Server) entryFor(learnerID int) entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.handlers[learnerID]; ok {
		return e
	}
	h, handle := New(learnerID, s.newSink(learnerID), 0)
	e := entry{handler: h, handle: handle}
	s.handlers[learnerID] = e
	go h.Run()
	return e
}

// FollowerInfo is the RPC entry point: decide the learner's sync plan and
// drive its handler through it via the message-passing boundary.
func (s *Server) FollowerInfo(ctx context.Context, req model.FollowerInfoRequest, res *model.FollowerInfoResponse) error {
	plan, err := s.decider.Decide(req.LastZxid)
	if err != nil {
		res.Accepted = false
		res.Reason = err.Error()
		s.log.Error("sync decision failed", slog.Int("learner", req.LearnerID), slog.Any("error", err))
		return err
	}

	e := s.entryFor(req.LearnerID)

	if plan.Strategy == decide.StrategySnap {
		if err := e.handler.SendSnapshot(); err != nil {
			res.Accepted = false
			res.Reason = err.Error()
			return err
		}
		res.Accepted = true
		return nil
	}

	e.handle.ResetSyncPlan()
	for _, p := range plan.Packets {
		e.handle.EnqueuePacket(p)
	}
	e.handle.NotifyForwardFrom(plan.ForwardFromZxid)
	res.Accepted = true
	return nil
}
