// Package sysfs reads the plain-text scalar and key=value files the kernel
// exposes under /sys and /proc.
//
// Every reader takes an afero.Fs so callers can point it at the real
// filesystem or at an in-memory tree in tests.
package sysfs

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// ParseError reports a file that could not be read or whose content did not
// parse as the requested type.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("error parsing file %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// OsFs returns the filesystem backed by the running kernel.
func OsFs() afero.Fs {
	return afero.NewReadOnlyFs(afero.NewOsFs())
}

// ReadString returns the file content without its trailing newline.
func ReadString(fs afero.Fs, path string) (string, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return "", &ParseError{Path: path, Err: err}
	}
	return strings.TrimRight(string(data), "\n"), nil
}

// ReadInt parses the file as a signed decimal integer.
func ReadInt(fs afero.Fs, path string) (int64, error) {
	s, err := ReadString(fs, path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, &ParseError{Path: path, Err: err}
	}
	return v, nil
}

// ReadUint parses the file as an unsigned decimal integer.
func ReadUint(fs afero.Fs, path string) (uint64, error) {
	s, err := ReadString(fs, path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, &ParseError{Path: path, Err: err}
	}
	return v, nil
}

// ReadFloat parses the file as a decimal floating point number.
func ReadFloat(fs afero.Fs, path string) (float64, error) {
	s, err := ReadString(fs, path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, &ParseError{Path: path, Err: err}
	}
	return v, nil
}

// ReadUevent parses a uevent style file, one key=value pair per line.
// Lines without '=' are ignored; for repeated keys the last one wins.
func ReadUevent(fs afero.Fs, path string) (map[string]string, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return ParseKeyValues(data), nil
}

// ParseKeyValues splits key=value lines into a map.
func ParseKeyValues(data []byte) map[string]string {
	values := make(map[string]string)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), "=")
		if !ok {
			continue
		}
		values[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	return values
}
