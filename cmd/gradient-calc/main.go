// gradient-calc runs a single gradient calculation from the command line.
// Transit times are read from a file argument or stdin, separated by
// whitespace or commas, with '#' starting a comment.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"unicode"

	"github.com/chrissnell/fracgrad/internal/constants"
	"github.com/chrissnell/fracgrad/internal/gradient"
	"github.com/chrissnell/fracgrad/internal/service"
	"github.com/lmittmann/tint"
	"github.com/vmihailenco/msgpack/v5"
)

func main() {
	waterDepth := flag.Int("water-depth", 0, "Water depth in meters (0 for an onshore rig)")
	interval := flag.Int("interval", 0, "Depth interval between transit time samples (required)")
	format := flag.String("format", "table", "Output format: table, json or msgpack")
	threshold := flag.Float64("threshold", gradient.DefaultAcceptanceThresholdPct, "Trend line acceptance threshold in percent")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: "15:04:05",
		}),
	))

	if *showVersion {
		fmt.Printf("gradient-calc %s\n", constants.Version)
		os.Exit(0)
	}

	if *interval <= 0 {
		fmt.Fprintf(os.Stderr, "Usage: %s -interval <meters> [-water-depth <meters>] [file]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	var in io.Reader = os.Stdin
	if flag.NArg() > 0 {
		f, err := os.Open(flag.Arg(0))
		if err != nil {
			slog.Error("cannot open input", "file", flag.Arg(0), "error", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	tts, err := parseTransitTimes(in)
	if err != nil {
		slog.Error("cannot read transit times", "error", err)
		os.Exit(1)
	}
	slog.Debug("read transit times", "samples", len(tts))

	rs, err := gradient.Run(gradient.Params{
		TransitTimes:  tts,
		IntervalDepth: *interval,
		WaterDepth:    *waterDepth,
		Fit:           gradient.FitOptions{AcceptanceThresholdPct: *threshold},
	})
	if err != nil {
		slog.Error("calculation failed", "error", err)
		os.Exit(2)
	}
	slog.Debug("trend line fitted",
		"slope", rs.TrendLine.Slope,
		"intercept", rs.TrendLine.Intercept,
		"r_squared", rs.RSquared,
		"accepted", len(rs.NormalTransitTimeByDepth[0]))

	if err := write(os.Stdout, *format, rs); err != nil {
		slog.Error("cannot write output", "error", err)
		os.Exit(1)
	}
}

// parseTransitTimes reads integers separated by whitespace or commas.
// Anything after a '#' on a line is ignored.
func parseTransitTimes(r io.Reader) ([]int, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16<<20)

	var tts []int
	for line := 1; sc.Scan(); line++ {
		text, _, _ := strings.Cut(sc.Text(), "#")
		fields := strings.FieldsFunc(text, func(c rune) bool {
			return c == ',' || unicode.IsSpace(c)
		})
		for _, tok := range fields {
			tt, err := strconv.Atoi(tok)
			if err != nil {
				return nil, fmt.Errorf("line %d: %q is not an integer", line, tok)
			}
			tts = append(tts, tt)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return tts, nil
}

func write(w io.Writer, format string, rs *gradient.ResultSeries) error {
	switch format {
	case "table":
		return writeTable(w, rs)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(service.NewResponse("", rs))
	case "msgpack":
		enc := msgpack.NewEncoder(w)
		enc.SetCustomStructTag("json")
		return enc.Encode(service.NewResponse("", rs))
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func writeTable(w io.Writer, rs *gradient.ResultSeries) error {
	fmt.Fprintf(w, "rig: %s  trend: t = (depth - %.4f) / %.4f  r²: %.4f\n\n",
		rs.Rig, rs.TrendLine.Intercept, rs.TrendLine.Slope, rs.RSquared)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "depth\ttt\ttt normal\tpore\toverburden\tfracture\t")
	for _, p := range rs.Points {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%.4f\t%.4f\t%.4f\t\n",
			p.Sample.Depth, p.Sample.TransitTime, p.NormalTransitTime,
			p.PorePressureGradient, p.OverburdenGradient, p.FractureGradient)
	}
	return tw.Flush()
}
