// Package npy loads and saves motion arrays as NumPy .npy files.
package npy

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"bvhToolkit/src/motion"

	"github.com/sbinet/npyio"
)

// DType selects the element type written to disk.
type DType string

// Supported element types, little-endian.
const (
	Float32 DType = "<f4"
	Float64 DType = "<f8"
)

const (
	magic       = "\x93NUMPY"
	headerAlign = 64
)

// Sentinel errors.
var (
	ErrUnsupportedDType = errors.New("npy: unsupported dtype")
	ErrFortranOrder     = errors.New("npy: fortran order not supported")
)

// Read decodes a rank-3 array from r.
func Read(r io.Reader) (*motion.Array, error) {
	nr, err := npyio.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("npy: read header: %w", err)
	}
	if nr.Header.Descr.Fortran {
		return nil, ErrFortranOrder
	}

	shape := nr.Header.Descr.Shape
	n := 1
	for _, dim := range shape {
		n *= dim
	}

	var data []float64
	switch nr.Header.Descr.Type {
	case string(Float64):
		data = make([]float64, n)
		if err := nr.Read(&data); err != nil {
			return nil, fmt.Errorf("npy: read data: %w", err)
		}
	case string(Float32):
		raw := make([]float32, n)
		if err := nr.Read(&raw); err != nil {
			return nil, fmt.Errorf("npy: read data: %w", err)
		}
		data = make([]float64, n)
		for i, v := range raw {
			data[i] = float64(v)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDType, nr.Header.Descr.Type)
	}

	return motion.FromData(data, shape...)
}

// Load reads the array stored at path.
func Load(path string) (*motion.Array, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Read(bufio.NewReader(f))
}

// Write encodes a as a version 1.0 .npy stream in C order.
func Write(w io.Writer, a *motion.Array, dtype DType) error {
	if dtype != Float32 && dtype != Float64 {
		return fmt.Errorf("%w: %s", ErrUnsupportedDType, dtype)
	}

	if _, err := w.Write(header(dtype, a.Shape())); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	var buf [8]byte
	for _, v := range a.Data {
		switch dtype {
		case Float32:
			binary.LittleEndian.PutUint32(buf[:4], math.Float32bits(float32(v)))
			if _, err := bw.Write(buf[:4]); err != nil {
				return err
			}
		case Float64:
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			if _, err := bw.Write(buf[:]); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// Save writes a to path, replacing any existing file.
func Save(path string, a *motion.Array, dtype DType) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, a, dtype); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// header builds the magic string, version and the padded dict literal.
func header(dtype DType, shape []int) []byte {
	dims := make([]string, len(shape))
	for i, d := range shape {
		dims[i] = fmt.Sprint(d)
	}
	shapeStr := strings.Join(dims, ", ")
	if len(shape) == 1 {
		shapeStr += ","
	}
	dict := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': (%s), }", dtype, shapeStr)

	// magic(6) + version(2) + length(2) + dict + padding + '\n'
	prefix := len(magic) + 4
	total := prefix + len(dict) + 1
	if rem := total % headerAlign; rem != 0 {
		dict += strings.Repeat(" ", headerAlign-rem)
	}
	dict += "\n"

	var b bytes.Buffer
	b.WriteString(magic)
	b.WriteByte(1)
	b.WriteByte(0)
	var hlen [2]byte
	binary.LittleEndian.PutUint16(hlen[:], uint16(len(dict)))
	b.Write(hlen[:])
	b.WriteString(dict)
	return b.Bytes()
}
