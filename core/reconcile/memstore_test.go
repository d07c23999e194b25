package reconcile

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
)

// memStore is an in-memory Store used by the package tests.
type memStore struct {
	mu      sync.Mutex
	records map[string]StoredRecord
	changes []ChangeEntry
	assets  []AssetVersion
	runs    map[string]RunRecord

	// Failure hooks; a non-nil return is reported as the operation's error.
	insertRecordErr func(rec *StoredRecord) error
	appendErr       func(entries []ChangeEntry) error
	promoteErr      func(next *AssetVersion) error
	finalizeErr     func(run *RunRecord) error
}

func newMemStore() *memStore {
	return &memStore{
		records: make(map[string]StoredRecord),
		runs:    make(map[string]RunRecord),
	}
}

func (m *memStore) GetRecord(_ context.Context, key string) (*StoredRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[key]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *memStore) InsertRecord(_ context.Context, rec *StoredRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertRecordErr != nil {
		if err := m.insertRecordErr(rec); err != nil {
			return err
		}
	}
	if _, ok := m.records[rec.IdentityKey]; ok {
		return fmt.Errorf("duplicate key %s", rec.IdentityKey)
	}
	rec.Version = 1
	m.records[rec.IdentityKey] = *rec
	return nil
}

func (m *memStore) UpdateRecord(_ context.Context, principal string, rec *StoredRecord) error {
	return m.conditionalWrite(principal, rec)
}

func (m *memStore) TouchValidation(_ context.Context, principal string, rec *StoredRecord) error {
	return m.conditionalWrite(principal, rec)
}

func (m *memStore) conditionalWrite(principal string, rec *StoredRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.records[rec.IdentityKey]
	if !ok || cur.Version != rec.Version || cur.OwnerID != principal {
		return ErrConcurrentUpdate
	}
	rec.Version++
	m.records[rec.IdentityKey] = *rec
	return nil
}

func (m *memStore) AppendChanges(_ context.Context, entries []ChangeEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		if err := m.appendErr(entries); err != nil {
			return err
		}
	}
	m.changes = append(m.changes, entries...)
	return nil
}

func (m *memStore) CurrentAsset(_ context.Context, profileKey string, category AssetCategory) (*AssetVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.assets {
		if a.ProfileKey == profileKey && a.Category == category && a.IsCurrent {
			return &a, nil
		}
	}
	return nil, nil
}

func (m *memStore) PromoteAsset(_ context.Context, previousID string, next *AssetVersion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.promoteErr != nil {
		if err := m.promoteErr(next); err != nil {
			return err
		}
	}
	if previousID != "" {
		found := false
		for i := range m.assets {
			if m.assets[i].ID == previousID && m.assets[i].IsCurrent {
				m.assets[i].IsCurrent = false
				found = true
			}
		}
		if !found {
			return ErrConcurrentUpdate
		}
	}
	m.assets = append(m.assets, *next)
	return nil
}

func (m *memStore) InsertRun(_ context.Context, run *RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = *run
	return nil
}

func (m *memStore) FinalizeRun(_ context.Context, run *RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.finalizeErr != nil {
		if err := m.finalizeErr(run); err != nil {
			return err
		}
	}
	cur, ok := m.runs[run.ID]
	if !ok || cur.Status != RunRunning {
		return eris.Wrapf(ErrInvalidRunTransition, "run %s not running", run.ID)
	}
	m.runs[run.ID] = *run
	return nil
}

func (m *memStore) assetsFor(profileKey string, category AssetCategory) []AssetVersion {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []AssetVersion
	for _, a := range m.assets {
		if a.ProfileKey == profileKey && a.Category == category {
			out = append(out, a)
		}
	}
	return out
}

func (m *memStore) changeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.changes)
}

// testNormalizer maps a flat raw record onto NormalizedRecord.
type testNormalizer struct{}

func (testNormalizer) Normalize(raw RawRecord) (NormalizedRecord, error) {
	str := func(k string) string {
		s, _ := raw[k].(string)
		return s
	}
	rec := NormalizedRecord{
		IdentityKey: str("id"),
		Name:        str("name"),
		Headline:    str("headline"),
		Location:    str("location"),
		Summary:     str("summary"),
		Experience:  []Experience{},
		Education:   []Education{},
		Skills:      []string{},
		Assets:      []AssetRef{},
	}
	if n, ok := raw["connections"].(int); ok {
		rec.Connections = n
	}
	if skills, ok := raw["skills"].([]string); ok {
		rec.Skills = skills
	}
	if url := str("photo"); url != "" {
		rec.Assets = append(rec.Assets, AssetRef{URL: url, Category: CategoryProfilePhoto})
	}
	if url := str("background"); url != "" {
		rec.Assets = append(rec.Assets, AssetRef{URL: url, Category: CategoryBackground})
	}
	return rec, nil
}

// testValidator flags records whose "invalid" key is set.
type testValidator struct{}

func (testValidator) Validate(raw RawRecord) []Finding {
	var findings []Finding
	if msg, ok := raw["invalid"].(string); ok {
		findings = append(findings, Finding{Field: "name", Message: msg, Severity: SeverityError})
	}
	if msg, ok := raw["warn"].(string); ok {
		findings = append(findings, Finding{Message: msg, Severity: SeverityWarning})
	}
	return findings
}

func (testValidator) Classify(findings []Finding) ValidationStatus {
	status := StatusValid
	for _, f := range findings {
		switch f.Severity {
		case SeverityError:
			return StatusInvalid
		case SeverityWarning:
			status = StatusWarning
		}
	}
	return status
}

// mapFetcher serves asset bodies from memory.
type mapFetcher struct {
	mu     sync.Mutex
	bodies map[string]string
	errs   map[string]error
}

func (f *mapFetcher) Fetch(_ context.Context, ref string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.errs[ref]; ok {
		return nil, err
	}
	body, ok := f.bodies[ref]
	if !ok {
		return nil, fmt.Errorf("404 %s", ref)
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func (f *mapFetcher) set(ref, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bodies[ref] = body
}
