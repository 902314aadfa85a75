package leaderboard

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
)

type memMember struct {
	member string
	score  int
	streak int
	seq    int
}

// MemoryStore is an in-process Store with the same ranking rules as SQLStore.
type MemoryStore struct {
	mu      sync.RWMutex
	members map[string]*memMember
	seq     int
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{members: make(map[string]*memMember)}
}

func (m *MemoryStore) Submit(ctx context.Context, run Run) error {
	member, err := json.Marshal(run)
	if err != nil {
		return err
	}
	m.AddRaw(string(member), run.Score, run.Streak)
	return nil
}

// AddRaw inserts a member verbatim, without encoding it.
func (m *MemoryStore) AddRaw(member string, score, streak int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mm, ok := m.members[member]; ok {
		mm.score, mm.streak = score, streak
		return
	}
	m.seq++
	m.members[member] = &memMember{member: member, score: score, streak: streak, seq: m.seq}
}

func (m *MemoryStore) Top(ctx context.Context, start, limit int) ([]Entry, error) {
	m.mu.RLock()
	all := make([]memMember, 0, len(m.members))
	for _, mm := range m.members {
		all = append(all, *mm)
	}
	m.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		if all[i].streak != all[j].streak {
			return all[i].streak > all[j].streak
		}
		return all[i].seq < all[j].seq
	})
	if start >= len(all) {
		return []Entry{}, nil
	}
	end := min(start+limit, len(all))
	out := make([]Entry, 0, end-start)
	for _, mm := range all[start:end] {
		out = append(out, ParseEntry(mm.member))
	}
	return out, nil
}
