package cpu

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	reLscpuModelName      = regexp.MustCompile(`(?m)^[ \t]*Model name:[ \t]*(.*)$`)
	reLscpuArchitecture   = regexp.MustCompile(`(?m)^[ \t]*Architecture:[ \t]*(.*)$`)
	reLscpuCPUs           = regexp.MustCompile(`(?m)^[ \t]*CPU\(s\):[ \t]*(.*)$`)
	reLscpuSockets        = regexp.MustCompile(`(?m)^[ \t]*Socket\(s\):[ \t]*(.*)$`)
	reLscpuCores          = regexp.MustCompile(`(?m)^[ \t]*Core\(s\) per socket:[ \t]*(.*)$`)
	reLscpuVirtualization = regexp.MustCompile(`(?m)^[ \t]*Virtualization:[ \t]*(.*)$`)
	reLscpuMaxMHz         = regexp.MustCompile(`(?m)^[ \t]*CPU max MHz:[ \t]*(.*)$`)
)

var trademarks = strings.NewReplacer(
	"(R)", "®",
	"(tm)", "™",
	"(TM)", "™",
)

// TradeMarkSymbols replaces the ASCII spellings vendors use in model names
// with the actual symbols.
func TradeMarkSymbols(s string) string {
	return trademarks.Replace(s)
}

// ParseLscpu extracts CPU identity from `LC_ALL=C lscpu` output. Each field
// is parsed on its own; a missing or malformed line only leaves that field
// nil.
func ParseLscpu(output string) Info {
	var info Info

	if s, ok := capture(reLscpuModelName, output); ok {
		s = TradeMarkSymbols(s)
		info.ModelName = &s
	}
	if s, ok := capture(reLscpuArchitecture, output); ok {
		info.Architecture = &s
	}
	if s, ok := capture(reLscpuVirtualization, output); ok {
		info.Virtualization = &s
	}

	info.LogicalCPUs = captureCount(reLscpuCPUs, output)
	info.Sockets = captureCount(reLscpuSockets, output)

	if cores := captureCount(reLscpuCores, output); cores != nil {
		sockets := 1
		if info.Sockets != nil && *info.Sockets > 1 {
			sockets = *info.Sockets
		}
		physical := saturatingMul(*cores, sockets)
		info.PhysicalCPUs = &physical
	}

	if s, ok := capture(reLscpuMaxMHz, output); ok {
		if mhz, err := strconv.ParseFloat(s, 64); err == nil {
			hz := mhz * 1_000_000
			info.MaxSpeed = &hz
		}
	}

	return info
}

func capture(re *regexp.Regexp, s string) (string, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

func captureCount(re *regexp.Regexp, s string) *int {
	v, ok := capture(re, s)
	if !ok {
		return nil
	}
	n, err := strconv.ParseUint(v, 10, 0)
	if err != nil || n > math.MaxInt {
		return nil
	}
	count := int(n)
	return &count
}

// saturatingMul multiplies two non-negative ints, clamping at math.MaxInt.
func saturatingMul(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	if a > math.MaxInt/b {
		return math.MaxInt
	}
	return a * b
}
