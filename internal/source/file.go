package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	"github.com/straye-as/sales-dashboard-api/internal/domain"
	"github.com/straye-as/sales-dashboard-api/internal/storage"
	"go.uber.org/zap"
)

// ErrInvalidSnapshot is returned when a snapshot is neither an array of deals
// nor an object carrying one under "data" or "deals"
var ErrInvalidSnapshot = errors.New("invalid deal snapshot")

// FileSource reads the current snapshot file from storage
type FileSource struct {
	store  storage.Storage
	key    string
	logger *zap.Logger
}

func NewFileSource(store storage.Storage, key string, logger *zap.Logger) *FileSource {
	return &FileSource{store: store, key: key, logger: logger}
}

func (s *FileSource) Name() string { return "file" }

func (s *FileSource) Load(ctx context.Context) ([]domain.DealRecord, error) {
	rc, err := s.store.Get(ctx, s.key)
	if err != nil {
		return nil, unavailable(s.Name(), err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, unavailable(s.Name(), fmt.Errorf("failed to read %s: %w", s.key, err))
	}

	payloads, err := ParseSnapshot(data)
	if err != nil {
		s.logger.Error("Snapshot file rejected",
			zap.String("key", s.key),
			zap.Int("bytes", len(data)),
			zap.Error(err))
		return nil, unavailable(s.Name(), err)
	}
	records, err := DecodeRecords(payloads)
	if err != nil {
		return nil, unavailable(s.Name(), err)
	}
	return records, nil
}

// ParseSnapshot splits a snapshot document into raw deal payloads. A document
// that is not valid JSON, such as a file cut off mid-write, is rejected.
func ParseSnapshot(data []byte) ([]json.RawMessage, error) {
	payloads, err := splitSnapshot(data)
	if errors.Is(err, errMalformedJSON) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	return payloads, err
}

// Repair describes what RepairSnapshot changed
type Repair struct {
	OriginalBytes int
	RepairedBytes int
	Repaired      string
}

// RepairSnapshot is ParseSnapshot for offline recovery: malformed JSON is
// repaired once before giving up. The returned Repair is nil when the
// document was already valid. Repaired snapshots may be missing deals or
// carry truncated ones, so only explicit opt-in callers use this.
func RepairSnapshot(data []byte) ([]json.RawMessage, *Repair, error) {
	payloads, err := splitSnapshot(data)
	if err == nil {
		return payloads, nil, nil
	}
	if !errors.Is(err, errMalformedJSON) {
		return nil, nil, err
	}

	fixed, repairErr := jsonrepair.RepairJSON(string(data))
	if repairErr != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, repairErr)
	}
	payloads, err = splitSnapshot([]byte(fixed))
	if err != nil {
		return nil, nil, err
	}
	return payloads, &Repair{
		OriginalBytes: len(data),
		RepairedBytes: len(fixed),
		Repaired:      fixed,
	}, nil
}

var errMalformedJSON = errors.New("malformed json")

func splitSnapshot(data []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if !json.Valid(trimmed) {
		return nil, errMalformedJSON
	}

	switch {
	case len(trimmed) > 0 && trimmed[0] == '[':
		var payloads []json.RawMessage
		if err := json.Unmarshal(trimmed, &payloads); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
		}
		return payloads, nil
	case len(trimmed) > 0 && trimmed[0] == '{':
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
		}
		for _, key := range []string{"data", "deals"} {
			raw, ok := envelope[key]
			if !ok {
				continue
			}
			var payloads []json.RawMessage
			if err := json.Unmarshal(raw, &payloads); err != nil {
				return nil, fmt.Errorf("%w: %q is not an array", ErrInvalidSnapshot, key)
			}
			return payloads, nil
		}
	}
	return nil, ErrInvalidSnapshot
}

// DecodeRecords decodes raw payloads into deal records. Payloads that are not
// objects become records with every field absent.
func DecodeRecords(payloads []json.RawMessage) ([]domain.DealRecord, error) {
	records := make([]domain.DealRecord, len(payloads))
	for i, p := range payloads {
		if err := json.Unmarshal(p, &records[i]); err != nil {
			return nil, fmt.Errorf("failed to decode deal %d: %w", i, err)
		}
	}
	return records, nil
}
