// sonic-log-simulator generates synthetic transit time logs and optionally
// submits them to a running fracgrad TCP controller.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

func main() {
	model := DefaultLogModel()

	flag.IntVar(&model.WaterDepth, "water-depth", model.WaterDepth, "Water depth in meters")
	flag.IntVar(&model.IntervalDepth, "interval", model.IntervalDepth, "Depth interval between samples")
	flag.IntVar(&model.Samples, "samples", model.Samples, "Number of samples")
	flag.Float64Var(&model.SurfaceTT, "surface-tt", model.SurfaceTT, "Transit time at the mudline")
	flag.Float64Var(&model.CompactionRate, "compaction-rate", model.CompactionRate, "Transit time lost per meter of burial")
	flag.IntVar(&model.OverpressureTop, "overpressure-top", model.OverpressureTop, "Burial depth where overpressure starts (0 disables)")
	flag.Float64Var(&model.OverpressureRate, "overpressure-rate", model.OverpressureRate, "Transit time gained per meter inside the overpressure zone")
	flag.Float64Var(&model.Noise, "noise", model.Noise, "Gaussian noise standard deviation")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "Random seed")
	format := flag.String("format", "list", "Output format: list (one value per line) or line (TCP request line)")
	send := flag.String("send", "", "Submit the log to a TCP controller at host:port and print the reply")
	count := flag.Int("count", 1, "Number of logs to submit with -send")
	flag.Parse()

	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      slog.LevelInfo,
			TimeFormat: "15:04:05",
		}),
	))

	if *send != "" {
		if err := submit(*send, model, *seed, *count, os.Stdout); err != nil {
			slog.Error("submission failed", "addr", *send, "error", err)
			os.Exit(1)
		}
		return
	}

	tts := model.Generate(*seed)
	switch *format {
	case "list":
		for _, tt := range tts {
			fmt.Println(tt)
		}
	case "line":
		fmt.Print(requestLine(model, tts))
	default:
		slog.Error("unknown output format", "format", *format)
		os.Exit(1)
	}
}

// requestLine formats a log as one TCP protocol request line
func requestLine(m LogModel, tts []int) string {
	vals := make([]string, len(tts))
	for i, tt := range tts {
		vals[i] = strconv.Itoa(tt)
	}
	return fmt.Sprintf("%d %d %s\n", m.WaterDepth, m.IntervalDepth, strings.Join(vals, ","))
}

// submit sends count logs over one connection, copying each reply line to w
func submit(addr string, m LogModel, seed uint64, count int, w io.Writer) error {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return err
	}
	defer conn.Close()

	replies := bufio.NewReader(conn)
	for i := 0; i < count; i++ {
		start := time.Now()
		if _, err := io.WriteString(conn, requestLine(m, m.Generate(seed+uint64(i)))); err != nil {
			return err
		}
		reply, err := replies.ReadString('\n')
		if err != nil {
			return fmt.Errorf("reading reply %d: %w", i+1, err)
		}
		slog.Info("log submitted", "n", i+1, "samples", m.Samples, "rtt", time.Since(start))
		if _, err := io.WriteString(w, reply); err != nil {
			return err
		}
	}
	return nil
}
