package activities

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bkovacev/runsight/internal/telemetry/tracing"

	"github.com/parquet-go/parquet-go"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// Store persists the activity dataset as a parquet file on the local disk.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

// Load reads the cache file. A missing, empty, or unparsable file degrades to
// an empty dataset instead of an error, so a cold or corrupted cache means
// "fetch everything from scratch" rather than a crash.
func (s *Store) Load(ctx context.Context) (_ Dataset, err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "activitiesStore.load")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	fileBytes, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		log.Debugf("activity cache [%s] not found, starting cold", s.path)
		return Dataset{}, nil
	}
	if err != nil {
		return Dataset{}, fmt.Errorf("read activity cache file: %w", err)
	}
	if len(fileBytes) == 0 {
		log.Warnf("activity cache [%s] is empty, starting cold", s.path)
		return Dataset{}, nil
	}

	records, err := decodeParquet(fileBytes)
	if err != nil {
		log.Errorf("activity cache [%s] unreadable, starting cold: %s", s.path, err)
		return Dataset{}, nil
	}

	span.SetAttributes(attribute.Int("loaded", len(records)))

	return Dataset{Activities: records}, nil
}

// Save encodes the dataset and writes it to the cache file, returning the
// encoded bytes so the caller can push the exact same content to the remote
// mirror without a second encode.
func (s *Store) Save(ctx context.Context, dataset Dataset) (_ []byte, err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "activitiesStore.save")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("saving", dataset.Len()))

	encoded, err := encodeParquet(dataset.Activities)
	if err != nil {
		return nil, &PersistError{Path: s.path, Err: fmt.Errorf("encode: %w", err)}
	}

	if err := os.WriteFile(s.path, encoded, 0o644); err != nil {
		return nil, &PersistError{Path: s.path, Err: err}
	}

	log.Debugf("activity cache [%s] saved, %d records, %d bytes", s.path, dataset.Len(), len(encoded))

	return encoded, nil
}

func encodeParquet(records []Activity) ([]byte, error) {
	var buf bytes.Buffer
	writer := parquet.NewGenericWriter[Activity](&buf)
	if len(records) > 0 {
		if _, err := writer.Write(records); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeParquet(fileBytes []byte) (records []Activity, err error) {
	// the parquet reader panics on some malformed footers instead of
	// returning an error, a corrupt cache must not take the process down
	defer func() {
		if r := recover(); r != nil {
			records = nil
			err = fmt.Errorf("parquet decode panic: %v", r)
		}
	}()

	records, err = parquet.Read[Activity](bytes.NewReader(fileBytes), int64(len(fileBytes)))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return records, nil
}
