package relationship

import (
	"fmt"
	"sort"

	"github.com/mroshb/moodgram/internal/models"
)

// plan is the write set one action produces: the edges to persist and the
// counter delta per user.
type plan struct {
	edges   []*models.Relationship
	deltas  map[string]models.Counters
	outcome Outcome
}

func newPlan() *plan {
	return &plan{deltas: make(map[string]models.Counters)}
}

// move changes edge's status and books the matching counter deltas.
func (p *plan) move(edge *models.Relationship, to models.RelationshipStatus) {
	source, target := models.Shift(edge.Status, to)
	p.deltas[edge.SourceID] = p.deltas[edge.SourceID].Add(source)
	p.deltas[edge.TargetID] = p.deltas[edge.TargetID].Add(target)
	edge.Status = to
	p.touch(edge)
}

func (p *plan) touch(edge *models.Relationship) {
	for _, e := range p.edges {
		if e == edge {
			return
		}
	}
	p.edges = append(p.edges, edge)
}

// users returns the ids with a non-zero delta in a stable order.
func (p *plan) users() []string {
	ids := make([]string, 0, len(p.deltas))
	for id, d := range p.deltas {
		if !d.IsZero() {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// decide computes the transition for action given the acting user's forward
// edge and the inverse edge. Both edges are mutated in place; only those
// listed in the returned plan need writing.
func decide(action Action, fwd, inv *models.Relationship, targetPublic bool) *plan {
	p := newPlan()
	p.outcome.Status = fwd.Status

	// A block on the acting user's own edge freezes everything but unblock.
	if fwd.Status == models.StatusBlock && action != ActionUnblock {
		return p
	}

	switch action {
	case ActionFollow:
		if fwd.Status != models.StatusNone {
			return p
		}
		to := models.StatusRequest
		if targetPublic {
			to = models.StatusFollow
		}
		p.move(fwd, to)

	case ActionUnfollow:
		switch fwd.Status {
		case models.StatusRequest, models.StatusFollow, models.StatusIgnore:
			p.move(fwd, models.StatusNone)
		default:
			return p
		}

	case ActionBlock:
		p.move(fwd, models.StatusBlock)
		switch inv.Status {
		case models.StatusRequest, models.StatusFollow, models.StatusIgnore:
			p.move(inv, models.StatusNone)
		}
		inv.IsBlocked = true
		p.touch(inv)

	case ActionUnblock:
		if fwd.Status != models.StatusBlock {
			return p
		}
		p.move(fwd, models.StatusNone)
		if inv.Exists() && inv.IsBlocked {
			inv.IsBlocked = false
			p.touch(inv)
		}

	case ActionApprove, ActionIgnore:
		p.outcome.Status = inv.Status
		if inv.Status != models.StatusRequest {
			return p
		}
		to := models.StatusFollow
		if action == ActionIgnore {
			to = models.StatusIgnore
		}
		p.move(inv, to)
		p.outcome.Status = to
		p.outcome.Applied = true
		return p

	default:
		panic(fmt.Sprintf("relationship: unhandled action %d", int(action)))
	}

	p.outcome.Status = fwd.Status
	p.outcome.Applied = true
	return p
}
