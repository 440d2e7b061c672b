package loader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	gfn "github.com/panyam/goutils/fn"
	"github.com/panyam/vmsim/core"
)

// TraceData is a parsed and compacted guest access trace: every raw
// virtual page number has been remapped to a dense index in
// [0, PageCount), preserving ascending numeric order.
type TraceData struct {
	History   core.AccessHistory
	PageCount int
}

type rawAccess struct {
	page uint64
	op   core.Operation
}

// ParseTrace reads a trace with one record per line:
//
//	<tag> <R|W> <hex-address>
//
// The tag is ignored. "R" is a read; any other kind token is treated as
// a write. The address is shifted right by 12 bits to get the raw page
// number. Blank lines are skipped; anything else malformed is an error.
func ParseTrace(r io.Reader) (*TraceData, error) {
	var accesses []rawAccess

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 3 {
			return nil, fmt.Errorf("trace line %d: expected '<tag> <R|W> <hex-address>', got %q", lineNo, scanner.Text())
		}
		op := core.OpWrite
		if fields[1] == "R" {
			op = core.OpRead
		}
		addr, err := strconv.ParseUint(strings.TrimPrefix(fields[2], "0x"), 16, 64)
		if err != nil {
			return nil, fmt.Errorf("trace line %d: bad hex address %q", lineNo, fields[2])
		}
		accesses = append(accesses, rawAccess{page: addr >> 12, op: op})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading trace: %w", err)
	}

	// Compact the touched pages into [0, N) keeping ascending order.
	pages := gfn.Map(accesses, func(a rawAccess) uint64 { return a.page })
	sort.Slice(pages, func(i, j int) bool { return pages[i] < pages[j] })
	index := make(map[uint64]int, len(pages))
	for _, p := range pages {
		if _, seen := index[p]; !seen {
			index[p] = len(index)
		}
	}

	return &TraceData{
		History: gfn.Map(accesses, func(a rawAccess) core.PageAccess {
			return core.PageAccess{Page: index[a.page], Op: a.op}
		}),
		PageCount: len(index),
	}, nil
}

// ParseTraceFile opens path and parses it with ParseTrace.
func ParseTraceFile(path string) (*TraceData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening trace '%s': %w", path, err)
	}
	defer f.Close()
	return ParseTrace(f)
}
