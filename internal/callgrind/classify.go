package callgrind

import (
	"regexp"
	"strconv"
	"strings"
)

// LineKind is the shape of a single callgrind input line.
type LineKind int

const (
	KindBlank LineKind = iota
	KindComment
	KindHeaderField
	KindFile
	KindFunction
	KindCallFile
	KindCallFunction
	KindCalls
	KindCost
	KindUnknown
)

func (k LineKind) String() string {
	names := [...]string{
		"blank",
		"comment",
		"header-field",
		"file",
		"function",
		"call-file",
		"call-function",
		"calls",
		"cost",
		"unknown",
	}
	if int(k) >= 0 && int(k) < len(names) {
		return names[k]
	}
	return "unknown"
}

// Line is a classified input line. Only the fields relevant to Kind are set.
type Line struct {
	Kind LineKind

	// Key and Value hold a header field ("events: Ir" -> "events", "Ir").
	Key   string
	Value string

	// ID and Name hold a fl/fn/cfl/cfi/cfn declaration. ID is the
	// parenthesised id when present, otherwise the name itself.
	ID   string
	Name string

	// Numbers holds the integers of a cost line, or the call count of a
	// calls= line.
	Numbers []uint64
}

var (
	headerRx    = regexp.MustCompile(`^(\w+):\s(.*)$`)
	directiveRx = regexp.MustCompile(`^(fl|fn|cfl|cfi|cfn)=\s*(\(\d+\))?(.*)$`)
	callsRx     = regexp.MustCompile(`^calls=(\d+)\s+(\S+)$`)
	costRx      = regexp.MustCompile(`^\d+(\s+\d+)*$`)
)

var directiveKinds = map[string]LineKind{
	"fl":  KindFile,
	"fn":  KindFunction,
	"cfl": KindCallFile,
	"cfi": KindCallFile,
	"cfn": KindCallFunction,
}

// Classify maps a trimmed line to its shape. It does not know which section
// the parser is in: a header-shaped line is reported as KindHeaderField and
// a two-number line as KindCost everywhere, and the caller decides whether
// that shape is valid in its current section.
func Classify(line string) Line {
	switch {
	case line == "":
		return Line{Kind: KindBlank}
	case strings.HasPrefix(line, "#"):
		return Line{Kind: KindComment}
	}

	if m := directiveRx.FindStringSubmatch(line); m != nil {
		name := strings.TrimSpace(m[3])
		id := m[2]
		if id == "" {
			id = name
		}
		return Line{Kind: directiveKinds[m[1]], ID: id, Name: name}
	}

	if m := callsRx.FindStringSubmatch(line); m != nil {
		return Line{Kind: KindCalls, Numbers: []uint64{parseCount(m[1])}}
	}

	if costRx.MatchString(line) {
		fields := strings.Fields(line)
		numbers := make([]uint64, len(fields))
		for i, f := range fields {
			numbers[i] = parseCount(f)
		}
		return Line{Kind: KindCost, Numbers: numbers}
	}

	if m := headerRx.FindStringSubmatch(line); m != nil {
		return Line{Kind: KindHeaderField, Key: m[1], Value: strings.TrimSpace(m[2])}
	}

	return Line{Kind: KindUnknown}
}

// parseCount parses an unsigned decimal. Values that overflow uint64 count
// as zero.
func parseCount(s string) uint64 {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
