package tcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/chrissnell/fracgrad/internal/gradient"
	"github.com/chrissnell/fracgrad/internal/service"
)

// ErrorLine is the document written back for a failed request
type ErrorLine struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// ParseLine parses one request line of the form
//
//	<water-depth> <interval-depth> <tt1>,<tt2>,...
//
// Fields are separated by whitespace; transit times by commas.
func ParseLine(line string) (*service.Request, error) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return nil, fmt.Errorf("%w: expected 3 fields, got %d", gradient.ErrInvalidInput, len(fields))
	}

	water, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, fmt.Errorf("%w: water depth %q is not an integer", gradient.ErrInvalidInput, fields[0])
	}
	interval, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, fmt.Errorf("%w: interval depth %q is not an integer", gradient.ErrInvalidInput, fields[1])
	}

	parts := strings.Split(strings.Trim(fields[2], ","), ",")
	tts := make([]int, 0, len(parts))
	for i, p := range parts {
		tt, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("%w: transit time %d (%q) is not an integer", gradient.ErrInvalidInput, i, p)
		}
		tts = append(tts, tt)
	}

	return &service.Request{
		WaterDepth:    &water,
		IntervalDepth: &interval,
		TransitTimes:  tts,
	}, nil
}

// ErrorKind names the class of a calculation error
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, gradient.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, gradient.ErrDegenerateFit):
		return "degenerate_fit"
	case errors.Is(err, gradient.ErrArithmeticDomain):
		return "arithmetic_domain"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "unavailable"
	default:
		return "internal"
	}
}

// handleLine runs one request line and returns the newline-terminated reply
func handleLine(ctx context.Context, calc *service.Calculator, line string) []byte {
	req, err := ParseLine(line)
	if err != nil {
		return errorLine(err)
	}
	resp, err := calc.Calculate(ctx, req)
	if err != nil {
		return errorLine(err)
	}
	b, err := json.Marshal(resp)
	if err != nil {
		return errorLine(err)
	}
	return append(b, '\n')
}

func errorLine(err error) []byte {
	b, _ := json.Marshal(ErrorLine{Error: err.Error(), Kind: ErrorKind(err)})
	return append(b, '\n')
}
