// mbcat CLI
//
// Replays captured Modbus byte streams through the framing core and
// packs/unpacks coil bitfields. Input comes from a capture file or
// stdin; mbcat performs no live transport I/O.
package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/commatea/modbus-core/pkg/config"
	"github.com/commatea/modbus-core/pkg/logger"
	"github.com/commatea/modbus-core/pkg/modbus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var (
	version   = "1.0.0"
	buildTime = "dev"
	gitCommit = "unknown"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mbcat",
		Short: "mbcat - Modbus stream decoder",
		Long: `mbcat replays captured Modbus TCP byte streams through the
stream framer, printing each decoded ADU, and converts coil values
to and from their packed on-wire bitfield.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildTime),
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ./mbcat.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	// Add commands
	rootCmd.AddCommand(
		newDecodeCmd(),
		newCoilsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newDecodeCmd creates the decode command.
func newDecodeCmd() *cobra.Command {
	var chunkSize int

	cmd := &cobra.Command{
		Use:   "decode [file]",
		Short: "Decode a captured Modbus TCP stream",
		Long: `Decode a raw captured Modbus TCP byte stream into ADUs.
Reads from the given file, or stdin when no file is given. The stream
is fed to the framer in configurable chunk sizes to mirror fragmented
delivery.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := ""
			if len(args) == 1 {
				file = args[0]
			}
			return runDecode(file, chunkSize)
		},
	}

	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "bytes fed to the framer per call (0 = config value)")

	return cmd
}

// runDecode replays the capture through a TCP framer.
func runDecode(file string, chunkSize int) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if chunkSize > 0 {
		cfg.Decode.ChunkSize = chunkSize
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	log := logger.New(cfg.Logging)
	logger.SetGlobal(log)

	if cfg.Metrics.Enabled {
		go serveMetrics(log, cfg.Metrics)
	}

	var in io.Reader = os.Stdin
	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	framer := modbus.New[modbus.TCPHeader](modbus.TCP{},
		modbus.WithLogger[modbus.TCPHeader](log),
		modbus.WithMetrics[modbus.TCPHeader](),
	)

	readSize := cfg.Decode.ChunkSize
	if readSize <= 0 {
		readSize = 4096
	}

	buf := make([]byte, readSize)
	frames := 0
	for {
		n, err := in.Read(buf)
		if n > 0 {
			frames += feed(framer, log, buf[:n], cfg.Decode.HexDump)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}

	if framer.Used() > 0 {
		log.Warn("input ended mid-frame", "buffered_bytes", framer.Used())
	}
	log.Info("decode finished", "frames", frames)
	return nil
}

// feed pushes one received chunk through the framer, draining any
// surplus until the framer asks for more input.
func feed(framer *modbus.Framer[modbus.TCPHeader], log *logger.Logger, chunk []byte, hexDump bool) int {
	frames := 0
	for {
		packet, leftover, err := framer.Process(chunk)
		if errors.Is(err, modbus.ErrNotEnoughData) {
			return frames
		}
		if err != nil {
			log.Error("frame error", "error", err)
			return frames
		}

		frames++
		log.Info("decoded adu",
			"transaction_id", packet.Header.TransactionID,
			"protocol_id", packet.Header.ProtocolID,
			"unit_id", packet.Header.UnitID,
			"pdu_bytes", len(packet.PDU),
		)
		if hexDump {
			fmt.Println(hex.EncodeToString(packet.PDU))
		}

		if len(leftover) == 0 {
			return frames
		}
		chunk = leftover
	}
}

// serveMetrics exposes the Prometheus endpoint.
func serveMetrics(log *logger.Logger, cfg config.MetricsConfig) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(endpoint, promhttp.Handler())

	log.Info("serving metrics", "listen", cfg.Listen, "endpoint", endpoint)
	if err := http.ListenAndServe(cfg.Listen, mux); err != nil {
		log.Error("metrics server failed", "error", err)
	}
}

// newCoilsCmd creates the coils command group.
func newCoilsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coils",
		Short: "Pack and unpack coil bitfields",
	}

	cmd.AddCommand(newCoilsPackCmd(), newCoilsUnpackCmd())

	return cmd
}

// newCoilsPackCmd creates the coils pack command.
func newCoilsPackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pack <bits>",
		Short: "Pack coil values into hex bytes",
		Long: `Pack a sequence of coil values, written as a string of 0s and
1s in coil order, into the on-wire bitfield, printed as hex.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			coils, err := parseCoils(args[0])
			if err != nil {
				return err
			}

			packed := make([]byte, modbus.BytesNeeded(len(coils)))
			modbus.PackCoils(coils, packed)
			fmt.Println(hex.EncodeToString(packed))
			return nil
		},
	}
}

// newCoilsUnpackCmd creates the coils unpack command.
func newCoilsUnpackCmd() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "unpack <hex>",
		Short: "Unpack hex bytes into coil values",
		Long: `Unpack an on-wire coil bitfield, given as hex, back into a
string of 0s and 1s in coil order. --count limits how many coils are
decoded; by default every bit is.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			packed, err := hex.DecodeString(args[0])
			if err != nil {
				return fmt.Errorf("invalid hex: %w", err)
			}

			n := count
			if n <= 0 {
				n = len(packed) * 8
			}
			if modbus.BytesNeeded(n) > len(packed) {
				return fmt.Errorf("%d coils need %d bytes, got %d", n, modbus.BytesNeeded(n), len(packed))
			}

			coils := make([]bool, n)
			modbus.UnpackCoils(packed, coils)
			fmt.Println(formatCoils(coils))
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 0, "number of coils to decode (0 = all bits)")

	return cmd
}

// parseCoils converts a "10110…" string into coil values.
func parseCoils(s string) ([]bool, error) {
	coils := make([]bool, 0, len(s))
	for _, c := range s {
		switch c {
		case '0':
			coils = append(coils, false)
		case '1':
			coils = append(coils, true)
		default:
			return nil, fmt.Errorf("invalid coil value %q: want 0 or 1", c)
		}
	}
	return coils, nil
}

// formatCoils is the inverse of parseCoils.
func formatCoils(coils []bool) string {
	var b strings.Builder
	b.Grow(len(coils))
	for _, on := range coils {
		if on {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}
