// Package config loads the cluster and reaper/decider settings a leader
// process needs at startup.
package config

import (
	"errors"
	"net"
	"os"

	"gopkg.in/yaml.v3"

	rpcx "github.com/smallnest/rpcx/client"
)

// Node identifies one quorum member and, once Connect is called, the
// client used to reach it.
type Node struct {
	Id      int    `yaml:"id"`
	Address string `yaml:"address"`
	Port    string `yaml:"port"`

	Conn rpcx.XClient
}

// Connect dials the node over rpcx, replacing any prior connection.
func (n *Node) Connect() error {
	addr := n.GetAddress()
	d, err := rpcx.NewPeer2PeerDiscovery("tcp@"+addr, "")
	if err != nil {
		return err
	}
	n.Conn = rpcx.NewXClient("", rpcx.Failover, rpcx.RandomSelect, d, rpcx.DefaultOption)
	return nil
}

func (n *Node) GetAddress() string {
	return net.JoinHostPort(n.Address, n.Port)
}

// Config is the full set of settings a leader process reads at startup:
// the cluster's member list plus the reaper and decider's tunables
// (spec.md §6 "Configuration (enumerated)").
type Config struct {
	Dir   string `yaml:"dir"`
	Nodes []Node `yaml:"nodes"`

	// CheckIntervalMs is the reaper's fixed sweep period.
	CheckIntervalMs int `yaml:"checkIntervalMs"`
	// MaxPerMinute caps how many container deletes the reaper submits
	// per minute across a whole sweep.
	MaxPerMinute int `yaml:"maxPerMinute"`
	// MaxNeverUsedIntervalMs is the grace period for a container that
	// has never had a child (cversion == 0); 0 disables the check.
	MaxNeverUsedIntervalMs int64 `yaml:"maxNeverUsedIntervalMs"`
	// TxnLogSizeBudget bounds how many payload bytes the sync decider
	// will ship via the on-disk log before falling back to SNAP; 0
	// disables txn-log-driven sync entirely.
	TxnLogSizeBudget uint64 `yaml:"txnLogSizeBudget"`
}

func (c *Config) GetNode(id int) (Node, error) {
	for _, n := range c.Nodes {
		if n.Id == id {
			return n, nil
		}
	}
	return Node{}, errors.New("config not found")
}

func ReadConfig(file string) (*Config, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	var c Config
	err = yaml.Unmarshal(raw, &c)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
