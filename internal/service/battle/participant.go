package battle

import model "github.com/zhouzirui/ball-arena/backend/internal/model/battle"

// participant is one side of a session. It owns its proposal slice.
type participant struct {
	identity model.Identity
	proposal []model.Collectible
	locked   bool
}

func newParticipant(identity model.Identity) *participant {
	return &participant{identity: identity, proposal: make([]model.Collectible, 0, 8)}
}

func (p *participant) indexOf(id string) int {
	for i, item := range p.proposal {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func (p *participant) add(c model.Collectible) error {
	if p.indexOf(c.ID) >= 0 {
		return ErrAlreadyProposed
	}
	p.proposal = append(p.proposal, c)
	return nil
}

func (p *participant) remove(id string) error {
	idx := p.indexOf(id)
	if idx < 0 {
		return ErrNotInProposal
	}
	p.proposal = append(p.proposal[:idx], p.proposal[idx+1:]...)
	return nil
}

// addAll appends every owned item not yet proposed and returns the ones it added.
func (p *participant) addAll(owned []model.Collectible) []model.Collectible {
	added := make([]model.Collectible, 0, len(owned))
	for _, item := range owned {
		if item.Owner != p.identity {
			continue
		}
		if err := p.add(item); err != nil {
			continue
		}
		added = append(added, item)
	}
	return added
}

func (p *participant) snapshot() []model.Collectible {
	return append([]model.Collectible(nil), p.proposal...)
}

func (p *participant) view(limit int) model.ParticipantView {
	shown := p.proposal
	if len(shown) > limit {
		shown = shown[:limit]
	}
	return model.ParticipantView{
		Identity:  p.identity,
		Proposal:  append([]model.Collectible(nil), shown...),
		Remaining: len(p.proposal) - len(shown),
		Total:     len(p.proposal),
		Locked:    p.locked,
	}
}
