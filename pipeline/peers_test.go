package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muzammilar/zookeeper/config"
	"github.com/muzammilar/zookeeper/pipeline"
)

func Test_NewPeers_AddrAndFind(t *testing.T) {
	conf := &config.Config{
		Nodes: []config.Node{
			{Id: 1, Address: "10.0.0.1", Port: "2888"},
			{Id: 2, Address: "10.0.0.2", Port: "2888"},
		},
	}

	peers := pipeline.NewPeers(conf)
	require.Len(t, peers, 2)
	assert.Equal(t, "10.0.0.1:2888", peers[0].Addr())

	p, ok := peers.Find(2)
	require.True(t, ok)
	assert.Equal(t, "10.0.0.2:2888", p.Addr())

	_, ok = peers.Find(99)
	assert.False(t, ok)
}
