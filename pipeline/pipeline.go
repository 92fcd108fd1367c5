// Package pipeline implements the leader-side RequestPipeline
// (spec.md §6) the container reaper submits deletions into, plus the
// peer-dialing registry backing outbound RPC calls to the rest of the
// quorum.
package pipeline

import (
	"context"

	rpcx "github.com/smallnest/rpcx/client"

	"github.com/muzammilar/zookeeper/model"
)

// RequestPipeline is the entry point R submits DELETE_CONTAINER requests
// into. Submission failure is non-fatal: the reaper logs and reconsiders
// the same path on its next sweep.
type RequestPipeline interface {
	Submit(ctx context.Context, req model.DeleteContainerRequest) error
}

// RPCPipeline submits requests over an rpcx client connection, the same
// transport the rest of this module uses for quorum RPC.
type RPCPipeline struct {
	client rpcx.XClient
}

// NewRPCPipeline dials addr ("host:port") for the leader's quorum RPC
// service.
func NewRPCPipeline(addr string) (*RPCPipeline, error) {
	d, err := rpcx.NewPeer2PeerDiscovery("tcp@"+addr, "")
	if err != nil {
		return nil, err
	}
	return &RPCPipeline{
		client: rpcx.NewXClient("", rpcx.Failover, rpcx.RandomSelect, d, rpcx.DefaultOption),
	}, nil
}

func (p *RPCPipeline) Submit(ctx context.Context, req model.DeleteContainerRequest) error {
	var res model.DeleteContainerResponse
	return p.client.Call(ctx, "DeleteContainer", req, &res)
}

// Close releases the underlying client connection.
func (p *RPCPipeline) Close() error {
	return p.client.Close()
}
