package domain

import (
	"golang.org/x/exp/slices"
)

type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
)

type Member struct {
	Username string `json:"username" validate:"required"`
	Status   Status `json:"status"`
}

// Members is the room roster keyed by username. Insertion order is kept for display.
type Members struct {
	list []Member
}

func NewMembers() *Members {
	return &Members{}
}

func (m Members) Length() int {
	return len(m.list)
}

func (m Members) AsList() []Member {
	if m.list == nil {
		return []Member{}
	}

	return slices.Clone(m.list)
}

func (m Members) GetByUsername(username string) (Member, int, bool) {
	index := slices.IndexFunc(m.list, func(member Member) bool {
		return member.Username == username
	})
	if index < 0 {
		return Member{}, 0, false
	}

	return m.list[index], index, true
}

// Add reports whether the roster changed. Re-adding an existing username is a no-op.
func (m *Members) Add(username string) bool {
	if _, _, ok := m.GetByUsername(username); ok {
		return false
	}

	m.list = append(m.list, Member{
		Username: username,
		Status:   StatusOnline,
	})
	return true
}

func (m *Members) RemoveByUsername(username string) bool {
	_, index, ok := m.GetByUsername(username)
	if !ok {
		return false
	}

	m.list = slices.Delete(m.list, index, index+1)
	return true
}

// Replace swaps the whole roster. Later duplicates of a username are dropped and
// a missing status defaults to online.
func (m *Members) Replace(members []Member) {
	list := make([]Member, 0, len(members))
	for _, member := range members {
		if slices.ContainsFunc(list, func(existing Member) bool {
			return existing.Username == member.Username
		}) {
			continue
		}

		if member.Status == "" {
			member.Status = StatusOnline
		}
		list = append(list, member)
	}

	m.list = list
}
