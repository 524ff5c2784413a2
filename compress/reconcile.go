package compress

import (
	"fmt"

	"github.com/benhall-io/squish/types"
)

// Reconcile writes task results back into a deep copy of the
// conversation. The input is never mutated.
//
// A successful task replaces its segment's text; a responder assembled
// from multiple fragments collapses into a single fragment carrying the
// compressed text. Skipped and failed tasks leave their segment as an
// unchanged copy. Auxiliary segments are always copied unchanged and
// keep their order relative to surrounding segments.
//
// A task that cannot be located on the conversation, or that was left
// in a non-terminal status, is a defect in the pipeline and fails the
// whole call rather than silently dropping content.
func Reconcile(conv types.Conversation, tasks []*Task) (types.Conversation, error) {
	out := conv.Clone()

	for _, t := range tasks {
		if !t.Terminal() {
			return nil, fmt.Errorf("%w: unit %d still %s after execution", ErrTaskMismatch, t.UnitIndex, t.Status)
		}
		turnIndex := t.TurnIndex()
		if turnIndex < 0 || turnIndex >= len(out) {
			return nil, fmt.Errorf("%w: unit %d addresses turn %d of %d", ErrTaskMismatch, t.UnitIndex, turnIndex, len(out))
		}
		if t.Status != StatusSuccess {
			continue
		}

		switch t.Role {
		case RoleInitiator:
			out[turnIndex].Initiator.Fragments = []string{t.Result}
		case RoleResponder:
			out[turnIndex].Responder.Fragments = []string{t.Result}
		default:
			return nil, fmt.Errorf("%w: unit %d has unknown role %q", ErrTaskMismatch, t.UnitIndex, t.Role)
		}
	}

	return out, nil
}
