package bench

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	ferrors "github.com/quincunx271/nickeltools/internal/foundation/errors"
)

// Descriptor is the header of a .bench file.
type Descriptor struct {
	Name   string
	Whichs []string
	Ns     []int
	Path   string // absolute
}

// ParseDescriptor reads the two header lines of the .bench file at path.
func ParseDescriptor(path string) (*Descriptor, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, ferrors.FileSystemError("failed to resolve benchmark path").WithCause(err).Fatal().Build()
	}
	f, err := os.Open(abs)
	if err != nil {
		return nil, ferrors.NotFoundError("failed to open benchmark").WithCause(err).
			WithContext("path", abs).Build()
	}
	defer func() { _ = f.Close() }()

	d, err := parseDescriptor(f)
	if err != nil {
		if ce, ok := ferrors.AsClassified(err); ok {
			return nil, ce.WithContext("path", abs)
		}
		return nil, err
	}
	d.Path = abs
	return d, nil
}

func parseDescriptor(r io.Reader) (*Descriptor, error) {
	sc := bufio.NewScanner(r)
	var lines []string
	for len(lines) < 2 && sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, ferrors.FileSystemError("failed to read benchmark header").WithCause(err).Fatal().Build()
	}
	if len(lines) < 2 {
		return nil, ferrors.ValidationError("benchmark header needs two comment lines").Build()
	}
	for _, l := range lines {
		if !strings.HasPrefix(l, "//") {
			return nil, ferrors.ValidationError("benchmark header line must start with //").
				WithContext("line", l).Build()
		}
	}

	name, rest, ok := strings.Cut(lines[0][2:], ":")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return nil, ferrors.ValidationError("first header line must be 'name: which, ...'").
			WithContext("line", lines[0]).Build()
	}

	d := &Descriptor{Name: name}
	for _, w := range strings.Split(rest, ",") {
		w = strings.TrimSpace(w)
		if w == "" {
			return nil, ferrors.ValidationError("empty configuration name").WithContext("line", lines[0]).Build()
		}
		d.Whichs = append(d.Whichs, w)
	}

	ns, err := ParseNs(lines[1][2:])
	if err != nil {
		return nil, err
	}
	d.Ns = ns
	return d, nil
}

// NsList renders Ns the way the runner's --ns flag expects them.
func (d *Descriptor) NsList() string {
	parts := make([]string, len(d.Ns))
	for i, n := range d.Ns {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

// ParseNs parses a comma-separated list of N values.
func ParseNs(s string) ([]int, error) {
	var ns []int
	for _, field := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil || n < 0 {
			return nil, ferrors.ValidationError("invalid N value").WithContext("value", field).Build()
		}
		ns = append(ns, n)
	}
	return ns, nil
}
