// Command core runs a leader process: it loads cluster configuration,
// opens the transaction log, and wires the sync decider, container
// reaper, and learner-handler RPC server together.
package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/muzammilar/zookeeper/clock"
	"github.com/muzammilar/zookeeper/config"
	"github.com/muzammilar/zookeeper/container"
	"github.com/muzammilar/zookeeper/datatree"
	"github.com/muzammilar/zookeeper/decide"
	"github.com/muzammilar/zookeeper/learnerhandler"
	"github.com/muzammilar/zookeeper/logview"
	"github.com/muzammilar/zookeeper/pipeline"
	"github.com/muzammilar/zookeeper/quorum"
	"github.com/muzammilar/zookeeper/txnlog"
)

func main() {
	configFile := flag.String("config", "config.yaml", "path to the leader config file")
	nodeID := flag.Int("id", 1, "this node's id in the cluster config")
	windowSize := flag.Int("window-size", 1000, "committed window retention size")
	flag.Parse()

	log := slog.Default()

	conf, err := config.ReadConfig(*configFile)
	if err != nil {
		log.Error("failed to read config", slog.Any("error", err))
		os.Exit(1)
	}
	node, err := conf.GetNode(*nodeID)
	if err != nil {
		log.Error("node not found in config", slog.Int("id", *nodeID), slog.Any("error", err))
		os.Exit(1)
	}

	txnStore, err := txnlog.Open(filepath.Join(conf.Dir, "txnlog.msgpack"))
	if err != nil {
		log.Error("failed to open txn log", slog.Any("error", err))
		os.Exit(1)
	}

	view := logview.New(*windowSize, txnStore, conf.TxnLogSizeBudget)
	decider := decide.New(view)

	tree := datatree.NewMemTree()
	cachedTree := datatree.NewCachedTree(tree, 32*1024*1024)

	reaperPipeline, err := pipeline.NewRPCPipeline(node.GetAddress())
	if err != nil {
		log.Error("failed to build request pipeline", slog.Any("error", err))
		os.Exit(1)
	}
	defer reaperPipeline.Close()

	reaper := container.New(cachedTree, reaperPipeline, clock.New(),
		conf.CheckIntervalMs, conf.MaxPerMinute, conf.MaxNeverUsedIntervalMs, log)
	reaper.Start()
	defer reaper.Stop()

	newSink := func(learnerID int) learnerhandler.PacketSender {
		return loggingSink{learnerID: learnerID, log: log}
	}
	handlerServer := learnerhandler.NewServer(node.GetAddress(), decider, newSink, log)
	if err := handlerServer.Serve(); err != nil {
		log.Error("failed to start learner-handler server", slog.Any("error", err))
		os.Exit(1)
	}
	defer handlerServer.Close()

	log.Info("leader started", slog.Int("id", *nodeID), slog.String("addr", node.GetAddress()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	log.Info("shutting down")
}

// loggingSink stands in for the real wire transport, which would write
// packets onto a learner's socket connection.
type loggingSink struct {
	learnerID int
	log       *slog.Logger
}

func (s loggingSink) Send(p quorum.Packet) error {
	s.log.Info("would send packet",
		slog.Int("learner", s.learnerID),
		slog.String("type", p.Type.String()),
		slog.String("zxid", p.Zxid.String()))
	return nil
}
