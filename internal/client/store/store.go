package store

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"currency-rates-service/internal/domain/model"
	"currency-rates-service/pkg/logger"
)

// The store persists two durable documents, mirroring the two browser
// localStorage entries of the original client: one maps cache scopes to rate
// tables, the other maps scopes to retrieval metadata.
const (
	ratesFile = "currency_rates.json"
	metaFile  = "rates_meta.json"
)

// ScopeLatest is the client-side key for latest rates; dated requests use
// ScopeForDate.
const ScopeLatest = "latest"

func ScopeForDate(date string) string {
	if date == "" {
		return ScopeLatest
	}
	return "date:" + date
}

// Meta is the retrieval metadata persisted next to a rate table.
type Meta struct {
	Timestamp           int64  `json:"timestamp"` // retrieval instant, epoch milliseconds
	Date                string `json:"date"`      // the snapshot's published date
	LastUpdatedLocalISO string `json:"lastUpdatedLocalISO"`
}

// Record is a persisted snapshot plus its metadata. Records are overwritten
// whole on every successful fetch and never explicitly deleted; staleness is
// a read-time judgment made by IsFresh.
type Record struct {
	Rates map[model.Currency]float64
	Meta  Meta
}

// Store is a file-backed scope-keyed cache of validated rate snapshots. All
// reads are forgiving: a missing, corrupt or partially-valid document reads
// as a cache miss, never as an error.
type Store struct {
	dir string
	now func() time.Time
	log *logger.Logger
}

func NewStore(dir string, log *logger.Logger) *Store {
	return &Store{
		dir: dir,
		now: time.Now,
		log: log,
	}
}

// NewStoreWithClock is for tests that need to move time.
func NewStoreWithClock(dir string, log *logger.Logger, now func() time.Time) *Store {
	s := NewStore(dir, log)
	s.now = now
	return s
}

// Read returns the persisted record for a scope, or nil when absent or not
// usable. A record is usable only when its rate table has every supported
// currency as a positive finite number and its metadata is well-formed.
func (s *Store) Read(scope string) *Record {
	ratesBucket := s.readRatesBucket()
	metaBucket := s.readMetaBucket()

	rates, ok := ratesBucket[scope]
	if !ok {
		return nil
	}
	meta, ok := metaBucket[scope]
	if !ok {
		return nil
	}
	if !validRates(rates) || !validMeta(meta) {
		return nil
	}

	return &Record{Rates: rates, Meta: meta}
}

// Write persists a record for a scope, preserving every other scope's entry.
// Writes are whole-document replacements; the last writer wins.
func (s *Store) Write(scope string, record Record) error {
	if !validRates(record.Rates) {
		return fmt.Errorf("refusing to persist invalid rate table for scope %q", scope)
	}
	if !validMeta(record.Meta) {
		return fmt.Errorf("refusing to persist invalid metadata for scope %q", scope)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}

	ratesBucket := s.readRatesBucket()
	metaBucket := s.readMetaBucket()

	ratesBucket[scope] = record.Rates
	metaBucket[scope] = record.Meta

	if err := s.writeJSON(ratesFile, ratesBucket); err != nil {
		return err
	}
	return s.writeJSON(metaFile, metaBucket)
}

// IsFresh reports whether a record is within the TTL window of its retrieval
// instant. This is a pure read-time predicate; nothing is ever expired on
// write.
func (s *Store) IsFresh(record *Record, ttl time.Duration) bool {
	if record == nil {
		return false
	}
	age := s.now().UnixMilli() - record.Meta.Timestamp
	return age >= 0 && time.Duration(age)*time.Millisecond < ttl
}

// readRatesBucket decodes the rates document. The current format maps scopes
// to rate tables; storage written before scope keys existed holds one bare
// rate table, which decodes as an implicit latest entry. Anything else reads
// as empty.
func (s *Store) readRatesBucket() map[string]map[model.Currency]float64 {
	raw, err := os.ReadFile(filepath.Join(s.dir, ratesFile))
	if err != nil {
		return map[string]map[model.Currency]float64{}
	}

	var bucket map[string]map[model.Currency]float64
	if err := json.Unmarshal(raw, &bucket); err == nil && validRatesBucket(bucket) {
		return bucket
	}

	var legacy map[model.Currency]float64
	if err := json.Unmarshal(raw, &legacy); err == nil && validRates(legacy) {
		return map[string]map[model.Currency]float64{ScopeLatest: legacy}
	}

	s.log.Debug("Discarding undecodable rates document")
	return map[string]map[model.Currency]float64{}
}

func (s *Store) readMetaBucket() map[string]Meta {
	raw, err := os.ReadFile(filepath.Join(s.dir, metaFile))
	if err != nil {
		return map[string]Meta{}
	}

	var bucket map[string]Meta
	if err := json.Unmarshal(raw, &bucket); err == nil && validMetaBucket(bucket) {
		return bucket
	}

	var legacy Meta
	if err := json.Unmarshal(raw, &legacy); err == nil && validMeta(legacy) {
		return map[string]Meta{ScopeLatest: legacy}
	}

	s.log.Debug("Discarding undecodable metadata document")
	return map[string]Meta{}
}

func (s *Store) writeJSON(name string, value interface{}) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

func validRates(rates map[model.Currency]float64) bool {
	if rates == nil {
		return false
	}
	for _, currency := range model.SupportedCurrencies {
		rate, ok := rates[currency]
		if !ok || rate <= 0 || math.IsInf(rate, 0) || math.IsNaN(rate) {
			return false
		}
	}
	return true
}

func validRatesBucket(bucket map[string]map[model.Currency]float64) bool {
	for _, rates := range bucket {
		if !validRates(rates) {
			return false
		}
	}
	return true
}

func validMeta(meta Meta) bool {
	return meta.Timestamp > 0 && meta.Date != "" && meta.LastUpdatedLocalISO != ""
}

func validMetaBucket(bucket map[string]Meta) bool {
	for _, meta := range bucket {
		if !validMeta(meta) {
			return false
		}
	}
	return true
}
