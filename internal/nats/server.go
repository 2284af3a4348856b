package nats

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/parchlabs/sitesmith/internal/logger"
)

// portFileName is written into the data directory by the primary process so
// that later sitesmith invocations can join its server instead of fighting
// over the JetStream store lock.
const portFileName = "nats.port"

// StartEmbeddedNATS starts an embedded NATS server with JetStream enabled,
// listening on a random localhost port. The chosen port is written to the
// data directory so other sitesmith processes can connect (node mode).
// Returns the server instance and the bound port.
func StartEmbeddedNATS(dataDir string) (*server.Server, int, error) {
	logger.Debug("Starting embedded NATS server with data dir: %s", dataDir)

	opts := &server.Options{
		JetStream: true,
		StoreDir:  dataDir,
		Host:      "127.0.0.1",
		Port:      server.RANDOM_PORT,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		logger.Error("Failed to create NATS server: %v", err)
		return nil, 0, err
	}

	// Start server in background goroutine
	logger.Debug("Starting NATS server in background")
	go ns.Start()

	// Wait for server to be ready with timeout
	if !ns.ReadyForConnections(4 * time.Second) {
		logger.Error("NATS server failed to start within 4s timeout")
		return nil, 0, errors.New("nats server failed to start within timeout")
	}

	addr, ok := ns.Addr().(*net.TCPAddr)
	if !ok {
		ns.Shutdown()
		return nil, 0, errors.New("nats server has no TCP listen address")
	}
	port := addr.Port
	if err := writePortFile(dataDir, port); err != nil {
		logger.Warn("Failed to write NATS port file: %v", err)
	}

	logger.Debug("NATS server ready for connections on port %d", port)
	return ns, port, nil
}

// ConnectInProcess creates an in-process connection to the embedded NATS
// server, bypassing the network stack. Used by the primary process and tests.
func ConnectInProcess(ns *server.Server) (*nats.Conn, error) {
	logger.Debug("Connecting to NATS server in-process")
	conn, err := nats.Connect("", nats.InProcessServer(ns))
	if err != nil {
		logger.Error("Failed to connect to NATS in-process: %v", err)
		return nil, err
	}
	logger.Debug("Connected to NATS successfully")
	return conn, nil
}

// ConnectToPort connects to a NATS server on the given localhost port.
func ConnectToPort(port int) (*nats.Conn, error) {
	conn, err := nats.Connect(
		fmt.Sprintf("nats://127.0.0.1:%d", port),
		nats.Timeout(2*time.Second),
	)
	if err != nil {
		logger.Error("Failed to connect to NATS on port %d: %v", port, err)
		return nil, err
	}
	logger.Debug("Connected to NATS on port %d", port)
	return conn, nil
}

// TryConnectExisting attempts to connect to a NATS server left running by
// another sitesmith process, using the port file in the data directory.
// Returns nil if no server is reachable (stale or missing port file), in
// which case the caller should start its own server.
func TryConnectExisting(dataDir string) *nats.Conn {
	port, err := ReadPortFile(dataDir)
	if err != nil {
		return nil
	}

	conn, err := nats.Connect(
		fmt.Sprintf("nats://127.0.0.1:%d", port),
		nats.Timeout(500*time.Millisecond),
		nats.RetryOnFailedConnect(false),
	)
	if err != nil {
		logger.Debug("Stale NATS port file (port %d): %v", port, err)
		return nil
	}
	return conn
}

// ReadPortFile reads the port written by a primary process.
func ReadPortFile(dataDir string) (int, error) {
	data, err := os.ReadFile(filepath.Join(dataDir, portFileName))
	if err != nil {
		return 0, err
	}
	port, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid port file: %w", err)
	}
	return port, nil
}

func writePortFile(dataDir string, port int) error {
	return os.WriteFile(filepath.Join(dataDir, portFileName), []byte(strconv.Itoa(port)), 0644)
}

// RemovePortFile deletes the port file. Called by the primary on shutdown;
// stale files are tolerated by TryConnectExisting, so failure is not fatal.
func RemovePortFile(dataDir string) {
	_ = os.Remove(filepath.Join(dataDir, portFileName))
}

// CreateJetStream creates a JetStream context from a NATS connection.
func CreateJetStream(nc *nats.Conn) (jetstream.JetStream, error) {
	return jetstream.New(nc)
}

// Shutdown gracefully shuts down the NATS connection and server.
// It first drains and closes the connection, then shuts down the server
// with a timeout to allow in-flight operations to complete.
func Shutdown(nc *nats.Conn, ns *server.Server) error {
	logger.Debug("Starting NATS shutdown")

	// Close the connection first (drain buffered messages)
	if nc != nil {
		logger.Debug("Draining NATS connection")
		// Drain waits for published messages to be acknowledged
		// and subscriptions to complete before closing
		drainDone := make(chan error, 1)
		go func() {
			drainDone <- nc.Drain()
		}()

		select {
		case err := <-drainDone:
			if err != nil {
				logger.Warn("NATS drain failed, forcing close: %v", err)
				nc.Close()
			} else {
				logger.Debug("NATS connection drained successfully")
			}
		case <-time.After(2 * time.Second):
			logger.Warn("NATS drain timed out after 2s, forcing close")
			nc.Close()
		}
	}

	// Shutdown the server with a grace period
	if ns != nil {
		logger.Debug("Shutting down NATS server")
		ns.Shutdown()

		shutdownDone := make(chan struct{})
		go func() {
			ns.WaitForShutdown()
			close(shutdownDone)
		}()

		select {
		case <-shutdownDone:
			logger.Debug("NATS server shut down cleanly")
		case <-time.After(5 * time.Second):
			// No force-stop API, but at least we don't hang forever
			logger.Error("NATS server shutdown timed out after 5s")
			return errors.New("NATS server shutdown timed out")
		}
	}

	logger.Debug("NATS shutdown complete")
	return nil
}
