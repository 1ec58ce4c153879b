package stl

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/philipparndt/rectplacer/pkg/geometry"
)

const (
	binaryHeaderSize   = 80
	binaryTriangleSize = 50
)

// ErrTruncated is returned when a binary payload ends before the declared
// triangle count.
var ErrTruncated = errors.New("stl: truncated binary data")

// Parse reads an STL file from disk and decodes it
func Parse(filename string) (*Model, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Decode(data)
}

// Decode decodes an STL payload, detecting binary or ASCII encoding.
// Binary files may also start with "solid", so the declared triangle count
// is checked against the payload length before falling back to ASCII.
func Decode(data []byte) (*Model, error) {
	if isBinary(data) {
		return decodeBinary(data)
	}
	if bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("solid")) {
		return decodeASCII(data)
	}
	return decodeBinary(data)
}

func isBinary(data []byte) bool {
	if len(data) < binaryHeaderSize+4 {
		return false
	}
	count := binary.LittleEndian.Uint32(data[binaryHeaderSize:])
	return uint64(len(data)) == binaryHeaderSize+4+uint64(count)*binaryTriangleSize
}

// decodeASCII parses the "solid ... facet normal ... vertex ..." text form
func decodeASCII(data []byte) (*Model, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	model := NewModel("")

	var currentNormal geometry.Vector3
	var vertices []geometry.Vector3
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "solid":
			if len(fields) > 1 {
				model.Name = strings.Join(fields[1:], " ")
			}

		case "facet":
			if len(fields) >= 5 && fields[1] == "normal" {
				v, err := parseVector(fields[2:5])
				if err != nil {
					return nil, fmt.Errorf("line %d: invalid normal: %w", lineNo, err)
				}
				currentNormal = v
			}

		case "vertex":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: vertex needs three coordinates", lineNo)
			}
			v, err := parseVector(fields[1:4])
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid vertex: %w", lineNo, err)
			}
			vertices = append(vertices, v)

		case "endfacet":
			if len(vertices) != 3 {
				return nil, fmt.Errorf("line %d: facet has %d vertices, expected 3", lineNo, len(vertices))
			}
			model.AddTriangle(geometry.NewTriangle(currentNormal, vertices[0], vertices[1], vertices[2]))
			vertices = vertices[:0]
			currentNormal = geometry.Vector3{}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading ASCII STL: %w", err)
	}

	return model, nil
}

func parseVector(fields []string) (geometry.Vector3, error) {
	var c [3]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return geometry.Vector3{}, err
		}
		c[i] = v
	}
	return geometry.NewVector3(c[0], c[1], c[2]), nil
}

// decodeBinary parses the 80-byte header, triangle count and 50-byte records
func decodeBinary(data []byte) (*Model, error) {
	if len(data) < binaryHeaderSize+4 {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrTruncated, len(data))
	}

	model := NewModel(strings.TrimSpace(string(bytes.TrimRight(data[:binaryHeaderSize], "\x00"))))
	triangleCount := binary.LittleEndian.Uint32(data[binaryHeaderSize:])

	body := data[binaryHeaderSize+4:]
	if uint64(len(body)) < uint64(triangleCount)*binaryTriangleSize {
		return nil, fmt.Errorf("%w: header declares %d triangles, payload holds %d",
			ErrTruncated, triangleCount, len(body)/binaryTriangleSize)
	}

	model.Triangles = make([]geometry.Triangle, 0, triangleCount)
	for i := uint32(0); i < triangleCount; i++ {
		rec := body[i*binaryTriangleSize:]
		// The trailing attribute byte count is ignored
		model.AddTriangle(geometry.NewTriangle(
			readVector(rec[0:]),
			readVector(rec[12:]),
			readVector(rec[24:]),
			readVector(rec[36:]),
		))
	}

	return model, nil
}

func readVector(b []byte) geometry.Vector3 {
	x := math.Float32frombits(binary.LittleEndian.Uint32(b[0:]))
	y := math.Float32frombits(binary.LittleEndian.Uint32(b[4:]))
	z := math.Float32frombits(binary.LittleEndian.Uint32(b[8:]))
	return geometry.NewVector3(float64(x), float64(y), float64(z))
}
