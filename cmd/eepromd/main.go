//go:build !(rp2040 || rp2350)

// Command eepromd is the host-side daemon: it loads a board's embedded
// config, opens the configured transport (a real UART or an in-process
// pipe for --board sim), wires a Session to either a simulated or a
// periph.io-backed Programmer, and serves the protocol until
// interrupted. Command-line handling follows the teacher's preference
// for cobra over flag, and metrics/logging follow the rest of the pack
// (prometheus client_golang, logrus via logx).
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"eeprombridge/backend"
	"eeprombridge/backend/periphprog"
	"eeprombridge/backend/simprog"
	"eeprombridge/backend/simtransport"
	"eeprombridge/backend/uarttransport"
	"eeprombridge/bus"
	"eeprombridge/logx"
	"eeprombridge/protocol"
	"eeprombridge/services/config"
	"eeprombridge/services/heartbeat"
	"eeprombridge/services/metrics"
)

const (
	rxBufSize = 4096
	txBufSize = 4096
)

func main() {
	var (
		board       string
		metricsAddr string
		idle        time.Duration
	)

	root := &cobra.Command{
		Use:   "eepromd",
		Short: "Serve the EEPROM/Flash programmer protocol over UART or an in-process pipe.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), board, metricsAddr, idle)
		},
	}
	root.Flags().StringVar(&board, "board", "sim", "board name, resolved against the embedded config set")
	root.Flags().StringVar(&metricsAddr, "metrics-addr", ":9400", "address to serve /metrics on")
	root.Flags().DurationVar(&idle, "idle", 2*time.Millisecond, "poll interval when no command is waiting")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := root.ExecuteContext(ctx); err != nil {
		logx.Default.Error("eepromd exited with error", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, board, metricsAddr string, idle time.Duration) error {
	cfg, err := config.Load(board)
	if err != nil {
		return fmt.Errorf("eepromd: load config: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	b := bus.NewBus(8)
	conn := b.NewConnection("eepromd")
	defer conn.Disconnect()

	metricsSvc, err := metrics.NewService(reg)
	if err != nil {
		return fmt.Errorf("eepromd: register metrics: %w", err)
	}
	metricsSvc.Start(ctx, conn)

	hb := &heartbeat.Service{}
	if err := hb.Start(ctx, conn); err != nil {
		return fmt.Errorf("eepromd: start heartbeat: %w", err)
	}

	go serveMetrics(ctx, metricsAddr, reg)

	prog, err := openProgrammer(board, cfg)
	if err != nil {
		return fmt.Errorf("eepromd: open programmer: %w", err)
	}
	if err := prog.Init(); err != nil {
		return fmt.Errorf("eepromd: init programmer: %w", err)
	}

	sess, err := protocol.NewSession(make([]byte, rxBufSize), make([]byte, txBufSize), prog, cfg.Session.SupportedBusMask)
	if err != nil {
		return fmt.Errorf("eepromd: new session: %w", err)
	}
	sess.AddressBusWidth = cfg.Session.AddressBusWidth
	sess.AddressHoldNs = cfg.Session.AddressHoldNs
	sess.CEPulseWidthNs = cfg.Session.CEPulseWidthNs
	sess.SpiMode = cfg.Session.SpiMode
	sess.SpiFrequency = cfg.Session.SpiFrequencyHz
	sess.Diag = conn

	logx.Default.Info("eepromd serving", "board", board, "transport", cfg.Transport.Type, "metrics_addr", metricsAddr)

	switch cfg.Transport.Type {
	case "uart":
		transport, err := uarttransport.Open(defaultUARTDevice(), cfg.Transport.Baud)
		if err != nil {
			return fmt.Errorf("eepromd: open transport: %w", err)
		}
		return protocol.Serve(ctx, sess, transport, idle)
	case "pipe", "":
		return servePipeLoopback(ctx, sess, idle)
	default:
		return fmt.Errorf("eepromd: unknown transport type %q", cfg.Transport.Type)
	}
}

// servePipeLoopback backs the session with an in-process pipe instead of
// a real UART/USB link, for boards (cfgSim, and any board with no
// reachable hardware) that have nothing else to transport over.
// io.Pipe has no peer of its own, so the session's real protocol.Serve
// loop runs against one pipe pair and a lightweight Sync/ACK self-check
// runs once against the other end to prove the loop is alive; driving
// both ends with protocol.Serve would mean two goroutines ticking the
// same Session, which Session is not built to tolerate.
func servePipeLoopback(ctx context.Context, sess *protocol.Session, idle time.Duration) error {
	serverR, peerW := io.Pipe()
	peerR, serverW := io.Pipe()
	serverTransport := simtransport.New(serverR, serverW)
	peerTransport := simtransport.New(peerR, peerW)

	serveErr := make(chan error, 1)
	go func() { serveErr <- protocol.Serve(ctx, sess, serverTransport, idle) }()

	if err := selfCheck(peerTransport); err != nil {
		return fmt.Errorf("eepromd: pipe self-check: %w", err)
	}
	logx.Default.Info("eepromd pipe loopback self-check passed")

	<-ctx.Done()
	// Serve is blocked in ReadFull on the server side of the pipe;
	// closing the peer's writer unblocks it with io.EOF.
	peerW.Close()
	<-serveErr
	return ctx.Err()
}

// selfCheck sends a Sync command and confirms the reply is an ACK,
// proving the loop on the other end of the pipe is ticking before
// settling in for the life of the process.
func selfCheck(t backend.Transport) error {
	if err := t.Write([]byte{0x01}); err != nil {
		return err
	}
	status := make([]byte, 1)
	if err := t.ReadFull(status); err != nil {
		return err
	}
	if status[0] != 0x05 {
		return fmt.Errorf("unexpected self-check reply 0x%02x", status[0])
	}
	return nil
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logx.Default.Error("metrics server stopped", "err", err)
	}
}

// openProgrammer picks the real periph.io-backed Programmer on boards
// that publish a gpio config (the host itself drives the bus) and falls
// back to simprog otherwise, so the sim board and any future
// not-yet-wired board still exercise the exact same Session/dispatch
// code the real periphprog path runs.
func openProgrammer(board string, cfg config.BoardConfig) (backend.Programmer, error) {
	if len(cfg.GPIO.AddressPins) == 0 {
		return simprog.New(1<<20, busWidthOrDefault(cfg.Session.AddressBusWidth), 0x0F, 1), nil
	}
	names := periphprog.PinoutNames{
		AddressPins: cfg.GPIO.AddressPins,
		DataPins:    cfg.GPIO.DataPins,
		CE:          cfg.GPIO.CE,
		OE:          cfg.GPIO.OE,
		WE:          cfg.GPIO.WE,
	}
	prog, err := periphprog.NewFromNames(names, cfg.GPIO.SPIPort, 0x0F, 1)
	if err != nil {
		return nil, fmt.Errorf("board %q: %w", board, err)
	}
	return prog, nil
}

func busWidthOrDefault(width uint8) uint8 {
	if width == 0 {
		return 24
	}
	return width
}

func defaultUARTDevice() string {
	if dev := os.Getenv("EEPROMD_UART_DEVICE"); dev != "" {
		return dev
	}
	return "/dev/ttyACM0"
}
