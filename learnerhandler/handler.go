// Package learnerhandler is the per-learner boundary between a
// reconnecting follower's RPC connection and the leader's sync decider
// and broadcast pipeline. It replaces what the original implementation
// modeled as a learner handler holding a reference to its leader (and
// vice versa) with a message-passing boundary (spec.md §9): the handler
// owns a channel accepting typed messages, and the leader side holds
// only a thin Handle to send them. Neither side reaches into the
// other's state directly.
package learnerhandler

import (
	"github.com/muzammilar/zookeeper/quorum"
	"github.com/muzammilar/zookeeper/zxid"
)

// Message is one of the things the leader side can tell a running
// Handler (spec.md §9): ship a packet, move the forward-from watermark,
// or re-arm the first-packet discipline ahead of a new sync plan. SNAP
// delivery is deliberately not a Message — it isn't part of the
// ordered, first-packet-disciplined stream Queue enforces, so it goes
// through SendSnapshot instead.
type Message interface {
	isMessage()
}

// EnqueuePacket asks the handler to hand p to its transport queue.
type EnqueuePacket struct {
	Packet quorum.Packet
}

func (EnqueuePacket) isMessage() {}

// NotifyForwardFrom tells the handler the zxid from which the broadcast
// pipeline will start forwarding newly committed proposals.
type NotifyForwardFrom struct {
	Zxid zxid.Zxid
}

func (NotifyForwardFrom) isMessage() {}

// ResetSyncPlan re-arms the first-packet discipline. The leader side
// sends this once before enqueuing a freshly decided sync plan's
// packets, so the queue's DIFF/TRUNC-first check applies per plan, not
// once for a handler's whole lifetime.
type ResetSyncPlan struct{}

func (ResetSyncPlan) isMessage() {}

// Handle is the reference the leader side keeps to a running Handler:
// enough to send it messages, nothing more. It implements
// broadcast.Forwarder directly, so a Handle can be handed to the
// broadcast pipeline without either side knowing the other's type.
type Handle struct {
	messages chan<- Message
}

// Send delivers a message to the handler's goroutine. It blocks if the
// handler's inbox is full, applying backpressure to a slow learner
// rather than growing memory without bound.
func (h Handle) Send(m Message) {
	h.messages <- m
}

// EnqueuePacket is a convenience wrapper over Send.
func (h Handle) EnqueuePacket(p quorum.Packet) {
	h.Send(EnqueuePacket{Packet: p})
}

// NotifyForwardFrom implements broadcast.Forwarder.
func (h Handle) NotifyForwardFrom(z zxid.Zxid) {
	h.Send(NotifyForwardFrom{Zxid: z})
}

// ResetSyncPlan is a convenience wrapper over Send.
func (h Handle) ResetSyncPlan() {
	h.Send(ResetSyncPlan{})
}

// Close shuts down the handler's inbox, causing its Run goroutine to
// return once any already-queued messages drain. Call it once, when the
// learner disconnects.
func (h Handle) Close() {
	close(h.messages)
}

// PacketSender is the transport-facing sink a Handler drains enqueued
// packets into; in a full deployment this writes onto the learner's
// socket, but the handler itself never touches the socket directly.
// Implementations must tolerate concurrent Send calls: SendSnapshot
// writes to it directly from the RPC goroutine while Run drains queued
// packets onto it from the handler's own goroutine.
type PacketSender interface {
	Send(p quorum.Packet) error
}

// Handler owns one learner's inbox and forwards queued packets to its
// transport sink in order, through a quorum.Queue that enforces the
// first-packet discipline for each sync plan.
type Handler struct {
	learnerID int
	out       PacketSender
	messages  chan Message
	queue     *quorum.Queue
	forward   zxid.Zxid
}

// New starts a Handler for learnerID and returns it alongside the Handle
// the leader side should keep. Run must be called (typically in its own
// goroutine) to actually drain messages.
func New(learnerID int, out PacketSender, inbox int) (*Handler, Handle) {
	if inbox <= 0 {
		inbox = 16
	}
	ch := make(chan Message, inbox)
	h := &Handler{learnerID: learnerID, out: out, messages: ch, queue: quorum.NewQueue()}
	return h, Handle{messages: ch}
}

// Run drains messages until its inbox channel is closed, via Handle's
// Close.
func (h *Handler) Run() {
	for msg := range h.messages {
		switch m := msg.(type) {
		case EnqueuePacket:
			h.queue.Enqueue(m.Packet)
			for _, p := range h.queue.Drain() {
				// A transport failure here means the learner connection
				// is already gone; nothing left to do but drop the
				// packet.
				_ = h.out.Send(p)
			}
		case NotifyForwardFrom:
			h.forward = m.Zxid
		case ResetSyncPlan:
			h.queue.Reset()
		}
	}
}

// ForwardFrom returns the most recently notified forward-from watermark.
func (h *Handler) ForwardFrom() zxid.Zxid {
	return h.forward
}

// SendSnapshot pushes a SNAP packet straight to the transport sink,
// bypassing the ordered message queue entirely: SNAP precedes any
// DIFF/TRUNC-anchored stream and carries the full data-tree payload, not
// a queued proposal.
func (h *Handler) SendSnapshot() error {
	return h.out.Send(quorum.Packet{Type: quorum.SNAP})
}
