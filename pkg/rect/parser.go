package rect

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Messages reported in ParseError.Message
const (
	MsgInvalidFormat = "Invalid format. Expect: *?lx,ly,lz,x,y,z"
	MsgNonFinite     = "Non-finite number detected."
	MsgNonPositive   = "lx,ly,lz must be > 0."
)

const number = `([+-]?\d+(?:\.\d*)?)`

var lineRE = regexp.MustCompile(`^(\*?)` + strings.Repeat(number+",", 5) + number + `$`)

var lineBreak = regexp.MustCompile(`\r?\n`)

// Result is the outcome of one Parse call
type Result struct {
	Rects  []Definition
	Errors []ParseError
	// Lines counts the non-blank, non-comment lines that were examined
	Lines int
}

// Parse turns definition text into validated prisms. It never fails as a
// whole: every rejected line yields one ParseError and parsing continues.
// Blank lines and lines starting with # or // are skipped.
func Parse(text string) Result {
	res := Result{
		Rects:  make([]Definition, 0),
		Errors: make([]ParseError, 0),
	}

	for i, raw := range lineBreak.Split(text, -1) {
		lineNo := i + 1
		line := strings.TrimFunc(raw, isBlank)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		res.Lines++

		def, msg := parseLine(line)
		if msg != "" {
			res.Errors = append(res.Errors, ParseError{Line: lineNo, Message: msg, Raw: raw})
			continue
		}
		def.RawLine = raw
		res.Rects = append(res.Rects, def)
	}

	return res
}

// isBlank also treats a byte order mark as whitespace so files saved with
// one parse from their first line
func isBlank(r rune) bool {
	return unicode.IsSpace(r) || r == '\ufeff'
}

// parseLine validates one trimmed line; the first failing rule wins
func parseLine(line string) (Definition, string) {
	m := lineRE.FindStringSubmatch(line)
	if m == nil {
		return Definition{}, MsgInvalidFormat
	}

	var nums [6]float64
	for i := range nums {
		v, err := strconv.ParseFloat(m[i+2], 64)
		// ParseFloat reports overflow as a range error with ±Inf
		if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
			return Definition{}, MsgNonFinite
		}
		nums[i] = v
	}

	if nums[0] <= 0 || nums[1] <= 0 || nums[2] <= 0 {
		return Definition{}, MsgNonPositive
	}

	return Definition{
		Size:        Size3{LX: nums[0], LY: nums[1], LZ: nums[2]},
		Pos:         Vec3{X: nums[3], Y: nums[4], Z: nums[5]},
		Highlighted: m[1] == "*",
	}, ""
}
