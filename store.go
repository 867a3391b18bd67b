package hostmdns

import (
	"slices"
	"strings"
	"sync"
)

// recordStore maps canonical hostnames to records. The map is allocated on
// first put and dropped by reset.
type recordStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

func newRecordStore() *recordStore {
	return &recordStore{}
}

// canonicalHost folds case and one trailing dot so "Foo.local." and
// "foo.local" are the same key.
func canonicalHost(host string) string {
	return strings.ToLower(strings.TrimSuffix(host, "."))
}

func (s *recordStore) put(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.records == nil {
		s.records = make(map[string]Record)
	}
	s.records[canonicalHost(rec.Host)] = rec
}

func (s *recordStore) remove(host string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := canonicalHost(host)
	rec, ok := s.records[key]
	if ok {
		delete(s.records, key)
	}
	return rec, ok
}

func (s *recordStore) reset() {
	s.mu.Lock()
	s.records = nil
	s.mu.Unlock()
}

// all returns every record sorted by host.
func (s *recordStore) all() []Record {
	s.mu.RLock()
	recs := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		recs = append(recs, rec)
	}
	s.mu.RUnlock()

	slices.SortFunc(recs, func(a, b Record) int {
		return strings.Compare(a.Host, b.Host)
	})
	return recs
}

func (s *recordStore) hosts() []string {
	recs := s.all()
	hosts := make([]string, len(recs))
	for i, rec := range recs {
		hosts[i] = rec.Host
	}
	return hosts
}

// match returns the records for the given names, once per host, in the order
// the names were asked.
func (s *recordStore) match(names []string) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		found []Record
		seen  map[string]bool
	)
	for _, name := range names {
		key := canonicalHost(name)
		rec, ok := s.records[key]
		if !ok || seen[key] {
			continue
		}
		if seen == nil {
			seen = make(map[string]bool)
		}
		seen[key] = true
		found = append(found, rec)
	}
	return found
}
