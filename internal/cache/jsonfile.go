package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
)

const (
	fetchedAtField = "lastUpdated"
	binanceData    = "data"
)

// JSONFile keeps every cache entry in one JSON document:
//
//	{ "<coin key>": {...payload, "lastUpdated": ms}, "global": {...payload, "lastUpdated": ms},
//	  "bin": {"data": {...}, "lastUpdated": ms} }
//
// The file is re-read before every write so entries written by another process survive.
type JSONFile struct {
	mu   sync.Mutex
	path string
}

func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

func (f *JSONFile) Load(_ context.Context) ([]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(doc))
	for key, raw := range doc {
		rec, err := decodeRecord(key, raw)
		if err != nil {
			return nil, errors.Wrapf(ErrCorrupt, "%s: entry %q: %v", f.path, key, err)
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].Space != records[j].Space {
			return records[i].Space < records[j].Space
		}
		return records[i].Key < records[j].Key
	})
	return records, nil
}

func (f *JSONFile) Save(_ context.Context, rec Record) error {
	key, ok := documentKey(rec)
	if !ok {
		return nil
	}

	value, err := encodeRecord(rec)
	if err != nil {
		return errors.Wrapf(err, "could not encode %s entry %q", rec.Space, rec.Key)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return err
	}
	doc[key] = value
	return f.write(doc)
}

func (f *JSONFile) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "could not remove %s", f.path)
	}
	return nil
}

func (f *JSONFile) Close() error {
	return nil
}

func (f *JSONFile) read() (map[string]json.RawMessage, error) {
	doc := make(map[string]json.RawMessage)

	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return doc, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "could not read %s", f.path)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil
	}

	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(ErrCorrupt, "%s: %v", f.path, err)
	}
	return doc, nil
}

func (f *JSONFile) write(doc map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "could not encode cache document")
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "could not create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "could not write %s", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "could not close %s", tmp.Name())
	}
	return errors.Wrapf(os.Rename(tmp.Name(), f.path), "could not replace %s", f.path)
}

// documentKey maps a record to its top-level key. Coin entries named like one of
// the single-slot keys would clobber that slot and are not written.
func documentKey(rec Record) (string, bool) {
	switch rec.Space {
	case SpaceGlobal:
		return GlobalKey, true
	case SpaceBinance:
		return BinanceKey, true
	case SpaceCoin:
		if rec.Key == GlobalKey || rec.Key == BinanceKey {
			return "", false
		}
		return rec.Key, true
	}
	return "", false
}

func encodeRecord(rec Record) (json.RawMessage, error) {
	stamp, _ := json.Marshal(rec.FetchedAt.UnixMilli())

	if rec.Space == SpaceBinance {
		return json.Marshal(map[string]json.RawMessage{
			binanceData:    rec.Payload,
			fetchedAtField: stamp,
		})
	}

	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(rec.Payload, &fields); err != nil {
		return nil, errors.Wrap(err, "payload is not an object")
	}
	fields[fetchedAtField] = stamp
	return json.Marshal(fields)
}

func decodeRecord(key string, raw json.RawMessage) (Record, error) {
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Record{}, err
	}

	var millis int64
	if stamp, ok := fields[fetchedAtField]; ok {
		if err := json.Unmarshal(stamp, &millis); err != nil {
			return Record{}, errors.Wrap(err, fetchedAtField)
		}
	}
	delete(fields, fetchedAtField)

	rec := Record{Key: key, FetchedAt: time.UnixMilli(millis).UTC()}
	switch key {
	case BinanceKey:
		rec.Space = SpaceBinance
		rec.Payload = fields[binanceData]
		if rec.Payload == nil {
			rec.Payload = json.RawMessage("{}")
		}
		return rec, nil
	case GlobalKey:
		rec.Space = SpaceGlobal
	default:
		rec.Space = SpaceCoin
	}

	payload, err := json.Marshal(fields)
	if err != nil {
		return Record{}, err
	}
	rec.Payload = payload
	return rec, nil
}
