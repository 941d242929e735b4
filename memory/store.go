// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package memory

import (
	"context"

	"github.com/diffeo/go-restler/entity"
	"github.com/satori/go.uuid"
)

// memStore holds the members of one kind.  rows is keyed by the
// canonical key string; order remembers insertion order, which is
// also the order Find() returns members in before sorting.
type memStore struct {
	db       *memDatabase
	kind     *entity.Kind
	rows     map[string]*entity.Member
	order    []string
	sequence int64
}

func newStore(db *memDatabase, kind *entity.Kind) *memStore {
	return &memStore{
		db:   db,
		kind: kind,
		rows: make(map[string]*entity.Member),
	}
}

func (s *memStore) Database() *memDatabase {
	return s.db
}

func (s *memStore) Kind() *entity.Kind {
	return s.kind
}

func (s *memStore) New() *entity.Member {
	return s.kind.New()
}

func (s *memStore) Get(ctx context.Context, key entity.Key) (*entity.Member, error) {
	globalLock(s)
	defer globalUnlock(s)

	id := key.String()
	m, present := s.rows[id]
	if !present {
		return nil, entity.ErrNoSuchMember{Kind: s.kind.Name, ID: id}
	}
	return m.Copy(), nil
}

// find returns the stored members matching q's filters, sorted but
// not paged.  It assumes the global lock.
func (s *memStore) find(q entity.Query) ([]*entity.Member, error) {
	q, err := q.Normalize(s.kind)
	if err != nil {
		return nil, err
	}
	result := []*entity.Member{}
	for _, id := range s.order {
		m := s.rows[id]
		if q.Matches(m) {
			result = append(result, m)
		}
	}
	q.Sort(result)
	return result, nil
}

func (s *memStore) Find(ctx context.Context, q entity.Query) ([]*entity.Member, error) {
	globalLock(s)
	defer globalUnlock(s)

	all, err := s.find(q)
	if err != nil {
		return nil, err
	}
	page := q.Page(all)
	result := make([]*entity.Member, len(page))
	for i, m := range page {
		result[i] = m.Copy()
	}
	return result, nil
}

func (s *memStore) Count(ctx context.Context, q entity.Query) (int, error) {
	globalLock(s)
	defer globalUnlock(s)

	all, err := s.find(q)
	if err != nil {
		return 0, err
	}
	return len(all), nil
}

// generateKey fills in a missing single-column integer or uuid key.
// It assumes the global lock.
func (s *memStore) generateKey(m *entity.Member) error {
	column, ok := s.kind.GeneratedKey()
	if !ok {
		return nil
	}
	if value, _ := m.Value(column.Name); value != nil {
		if id, isInt := value.(int64); isInt && id > s.sequence {
			s.sequence = id
		}
		return nil
	}
	switch column.Type {
	case entity.Integer:
		s.sequence++
		return m.Set(column.Name, s.sequence)
	case entity.UUID:
		return m.Set(column.Name, uuid.NewV4().String())
	}
	return nil
}

func (s *memStore) Create(ctx context.Context, m *entity.Member) error {
	globalLock(s)
	defer globalUnlock(s)

	candidate := m.Copy()
	if err := s.generateKey(candidate); err != nil {
		return err
	}
	key := candidate.Key()
	if !key.Complete() {
		return entity.ErrMalformedKey{Value: key.String(), Reason: "incomplete primary key"}
	}
	id := key.String()
	if _, present := s.rows[id]; present {
		return entity.ErrDuplicateKey{Kind: s.kind.Name, ID: id}
	}
	candidate.MarkSaved()
	s.rows[id] = candidate
	s.order = append(s.order, id)
	*m = *candidate.Copy()
	return nil
}

func (s *memStore) Update(ctx context.Context, m *entity.Member) error {
	globalLock(s)
	defer globalUnlock(s)

	if !m.Saved() {
		return entity.ErrNotSaved
	}
	id := m.Key().String()
	if _, present := s.rows[id]; !present {
		return entity.ErrNoSuchMember{Kind: s.kind.Name, ID: id}
	}
	s.rows[id] = m.Copy()
	return nil
}

func (s *memStore) Delete(ctx context.Context, m *entity.Member) error {
	globalLock(s)
	defer globalUnlock(s)

	if !m.Saved() {
		return entity.ErrNotSaved
	}
	id := m.Key().String()
	if _, present := s.rows[id]; !present {
		return entity.ErrNoSuchMember{Kind: s.kind.Name, ID: id}
	}
	delete(s.rows, id)
	for i, other := range s.order {
		if other == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}
