package cpu

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrMalformedStat is wrapped by ParseProcStatLine errors.
var ErrMalformedStat = errors.New("malformed /proc/stat cpu line")

// procStatFields is user, nice, system, idle, iowait, irq, softirq, steal,
// guest and guest_nice.
const procStatFields = 10

// ParseProcStatLine parses one "cpu" or "cpuN" line of /proc/stat. Idle is
// idle + iowait, Total the sum of all ten counters.
func ParseProcStatLine(line string) (Usage, error) {
	fields := strings.Fields(line)
	if len(fields) < procStatFields+1 || !isCPUToken(fields[0]) {
		return Usage{}, fmt.Errorf("%w: %q", ErrMalformedStat, line)
	}

	var values [procStatFields]uint64
	for i := range values {
		v, err := strconv.ParseUint(fields[i+1], 10, 64)
		if err != nil {
			return Usage{}, fmt.Errorf("%w: field %d: %w", ErrMalformedStat, i+1, err)
		}
		values[i] = v
	}

	var total uint64
	for _, v := range values {
		total = saturatingAdd(total, v)
	}

	return Usage{
		Idle:  saturatingAdd(values[3], values[4]),
		Total: total,
	}, nil
}

func isCPUToken(s string) bool {
	rest, ok := strings.CutPrefix(s, "cpu")
	if !ok {
		return false
	}
	for _, c := range rest {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// cpuLines keeps the lines of /proc/stat that start with "cpu": the
// aggregate line first, then one per logical core.
func cpuLines(stat string) []string {
	var lines []string
	for _, line := range strings.Split(stat, "\n") {
		if strings.HasPrefix(line, "cpu") {
			lines = append(lines, line)
		}
	}
	return lines
}

func saturatingAdd(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}
