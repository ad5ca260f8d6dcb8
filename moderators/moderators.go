package moderators

import (
	"github.com/alijnmerchant21/messagefeed/model"
)

// Set is an ordered set of identities allowed to ban users.
type Set struct {
	l []model.Identity
	m map[model.Identity]struct{}
}

func NewSet(ids ...model.Identity) *Set {
	s := &Set{
		l: []model.Identity{},
		m: map[model.Identity]struct{}{},
	}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Parse builds a set from hex encoded identities.
func Parse(hexIDs []string) (*Set, error) {
	s := NewSet()
	for _, h := range hexIDs {
		id, err := model.ParseIdentity(h)
		if err != nil {
			return nil, err
		}
		s.Add(id)
	}
	return s, nil
}

func (s *Set) Add(id model.Identity) bool {
	if _, ok := s.m[id]; ok {
		return false
	}
	s.l = append(s.l, id)
	s.m[id] = struct{}{}
	return true
}

func (s *Set) Has(id model.Identity) bool {
	_, ok := s.m[id]
	return ok
}

func (s *Set) Len() int {
	return len(s.l)
}

func (s *Set) List() []model.Identity {
	return s.l
}
