package simulation

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sarchlab/memsim/translation"
	"github.com/sarchlab/memsim/vm"
)

// ReadReferences parses one decimal logical address per line. Blank lines are
// skipped.
func ReadReferences(r io.Reader) ([]uint32, error) {
	var addrs []uint32

	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		addr, err := strconv.ParseUint(line, 10, 32)
		if err != nil {
			return nil, &vm.ConfigError{
				Field:  "reference",
				Value:  line,
				Reason: fmt.Sprintf("line %d is not a 32-bit address", lineNo),
			}
		}

		addrs = append(addrs, uint32(addr))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading references: %w", err)
	}

	return addrs, nil
}

// WriteResult prints `address, value, frame, offset` for one translation. If
// page is not nil, its bytes follow in uppercase hex.
func WriteResult(w io.Writer, res translation.Result, page []byte) error {
	var err error

	if page == nil {
		_, err = fmt.Fprintf(w, "%d, %d, %d, %d\n",
			res.Address, res.SignedValue(), res.Frame, res.Offset)
	} else {
		_, err = fmt.Fprintf(w, "%d, %d, %d, %d, %X\n",
			res.Address, res.SignedValue(), res.Frame, res.Offset, page)
	}

	return err
}

// WriteSummary prints the counters and rates of a run.
func WriteSummary(w io.Writer, stats translation.Stats) error {
	_, err := fmt.Fprintf(w,
		"Number of Translated Addresses = %d\n"+
			"Page Faults = %d\n"+
			"Page Fault Rate = %.3f\n"+
			"TLB Hits = %d\n"+
			"TLB Misses = %d\n"+
			"TLB Hit Rate = %.3f\n",
		stats.Translated,
		stats.PageFaults,
		stats.PageFaultRate(),
		stats.TLBHits,
		stats.TLBMisses,
		stats.TLBHitRate(),
	)

	return err
}
