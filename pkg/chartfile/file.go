package chartfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ha1tch/fcstm-toolkit/pkg/chart"
)

var tracer = otel.Tracer("github.com/ha1tch/fcstm-toolkit/pkg/chartfile")

// Format is a chart file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat converts a format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown chart format %q", s)
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("cannot tell chart format of %q: no extension", path)
	}
	return ParseFormat(ext)
}

// SerializationError reports a failure reading or writing a chart file.
type SerializationError struct {
	Path string
	Op   string
	Err  error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// Encode serializes a chart in the given format.
func Encode(c *chart.Statechart, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		data, err := ToJSON(c, true)
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case FormatYAML:
		return ToYAML(c)
	}
	return nil, fmt.Errorf("unknown chart format %q", format)
}

// Decode parses a chart in the given format.
func Decode(data []byte, format Format, opts ...chart.Option) (*chart.Statechart, error) {
	switch format {
	case FormatJSON:
		return ParseJSON(data, opts...)
	case FormatYAML:
		return ParseYAML(data, opts...)
	}
	return nil, fmt.Errorf("unknown chart format %q", format)
}

// ReadFile loads a chart, choosing the codec from the file extension.
func ReadFile(ctx context.Context, path string, opts ...chart.Option) (*chart.Statechart, error) {
	_, span := tracer.Start(ctx, "chartfile.ReadFile", trace.WithAttributes(attribute.String("path", path)))
	defer span.End()

	c, err := readFile(path, opts...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("states", c.NumStates()),
		attribute.Int("transitions", len(c.Transitions())),
	)
	return c, nil
}

func readFile(path string, opts ...chart.Option) (*chart.Statechart, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, &SerializationError{Path: path, Op: "read", Err: err}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &SerializationError{Path: path, Op: "read", Err: err}
	}
	c, err := Decode(data, format, opts...)
	if err != nil {
		return nil, &SerializationError{Path: path, Op: "decode", Err: err}
	}
	return c, nil
}

// WriteFile saves a chart, choosing the codec from the file extension. The
// data goes to a temporary file in the same directory which is then renamed
// over path, so a failed write leaves any previous file intact.
func WriteFile(ctx context.Context, path string, c *chart.Statechart) error {
	_, span := tracer.Start(ctx, "chartfile.WriteFile", trace.WithAttributes(attribute.String("path", path)))
	defer span.End()

	if err := writeFile(path, c); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func writeFile(path string, c *chart.Statechart) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return &SerializationError{Path: path, Op: "write", Err: err}
	}
	data, err := Encode(c, format)
	if err != nil {
		return &SerializationError{Path: path, Op: "encode", Err: err}
	}
	if err := writeAtomic(path, data, 0o644); err != nil {
		return &SerializationError{Path: path, Op: "write", Err: err}
	}
	return nil
}

func writeAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
