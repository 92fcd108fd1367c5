package pipeline

import "github.com/muzammilar/zookeeper/config"

// Peer is one quorum member's dialable address.
type Peer struct {
	*config.Node
}

// Addr returns the peer's "host:port" dial target.
func (p Peer) Addr() string {
	return p.GetAddress()
}

// Peers is the set of quorum members a leader can dial, built once from
// the loaded Config.
type Peers []Peer

// NewPeers builds the peer list from conf.
func NewPeers(conf *config.Config) Peers {
	peers := make(Peers, 0, len(conf.Nodes))
	for i := range conf.Nodes {
		peers = append(peers, Peer{&conf.Nodes[i]})
	}
	return peers
}

// Find returns the peer with the given id, or ok=false.
func (ps Peers) Find(id int) (Peer, bool) {
	for _, p := range ps {
		if p.Id == id {
			return p, true
		}
	}
	return Peer{}, false
}
