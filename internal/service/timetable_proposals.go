package service

import (
	"sync"
	"time"

	"github.com/noah-isme/timetable-engine/internal/dto"
	"github.com/noah-isme/timetable-engine/internal/scheduler"
)

// timetableProposal is a generated timetable awaiting edits or a save. It is
// JSON encoded when written through to the cache.
type timetableProposal struct {
	ID        string                        `json:"id"`
	Name      string                        `json:"name"`
	Strategy  string                        `json:"strategy"`
	Classes   []dto.ClassRequest            `json:"classes"`
	Grid      *scheduler.Grid               `json:"grid"`
	Meetings  []scheduler.MeetingAssignment `json:"meetings,omitempty"`
	Unplaced  []string                      `json:"unplaced,omitempty"`
	Stats     scheduler.Stats               `json:"stats"`
	Failure   *dto.SolveFailure             `json:"failure,omitempty"`
	Blocked   scheduler.TeacherBlocks       `json:"blocked,omitempty"`
	CreatedAt time.Time                     `json:"createdAt"`
}

func (p *timetableProposal) expiresAt(ttl time.Duration) time.Time {
	return p.CreatedAt.Add(ttl)
}

type proposalStore struct {
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
	items map[string]timetableProposal
}

func newProposalStore(ttl time.Duration) *proposalStore {
	return &proposalStore{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]timetableProposal),
	}
}

func (s *proposalStore) Save(proposal timetableProposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[proposal.ID] = proposal
}

func (s *proposalStore) Get(id string) (timetableProposal, bool) {
	s.mu.RLock()
	proposal, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return timetableProposal{}, false
	}
	if s.expired(proposal) {
		s.Delete(id)
		return timetableProposal{}, false
	}
	return proposal, true
}

func (s *proposalStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}

func (s *proposalStore) expired(proposal timetableProposal) bool {
	return s.now().Sub(proposal.CreatedAt) > s.ttl
}
