package compress

import (
	"time"

	"github.com/benhall-io/squish/types"
)

// Status is a task's lifecycle state.
type Status string

const (
	// StatusPending means the task is waiting for a provider call.
	StatusPending Status = "pending"

	// StatusSuccess means the provider returned a compressed result.
	StatusSuccess Status = "success"

	// StatusSkipped means the unit was below the minimum token
	// threshold and was never sent to the provider.
	StatusSkipped Status = "skipped"

	// StatusFailed means the task exhausted its attempts. The original
	// text is retained in the clone.
	StatusFailed Status = "failed"
)

// UnitRole identifies which of a turn's two text units a task covers.
type UnitRole string

const (
	// RoleInitiator is the user-authored text unit.
	RoleInitiator UnitRole = "initiator"

	// RoleResponder is the assistant-authored text unit.
	RoleResponder UnitRole = "responder"
)

// unitsPerTurn is the number of compressible text units per turn:
// initiator and responder.
const unitsPerTurn = 2

// Task is one unit of compression work. Tasks are created by
// BuildTasks, mutated only by Execute during its own lifecycle, and
// then frozen for Reconcile and Summarize.
type Task struct {
	// UnitIndex is derived from (turn index, role) and is stable across
	// execution order: turnIndex*2 for the initiator, turnIndex*2+1 for
	// the responder. Reconciliation is keyed by it.
	UnitIndex int

	Role         UnitRole
	OriginalText string
	Level        types.Level

	// EstimatedTokens is the length-based estimate of OriginalText.
	EstimatedTokens int

	// Attempt is the number of failed attempts so far.
	Attempt int

	// Timeout is the deadline applied to the most recent attempt.
	Timeout time.Duration

	Status Status
	Result string
	Err    error
}

// TurnIndex returns the index of the turn this task belongs to.
func (t *Task) TurnIndex() int {
	return t.UnitIndex / unitsPerTurn
}

// Terminal reports whether the task has reached a final status.
func (t *Task) Terminal() bool {
	return t.Status == StatusSuccess || t.Status == StatusSkipped || t.Status == StatusFailed
}

// BuildTasks creates one task per compressible text unit of every turn
// that carries a band. The initiator unit is the turn's user text; the
// responder unit is the concatenation of the assistant fragments.
// Auxiliary segments are excluded from extraction entirely: they are
// never summarized, only carried through unchanged.
//
// A unit whose token estimate is below minTokens becomes a skipped
// task; everything else starts pending with the band's level.
func BuildTasks(conv types.Conversation, mapping []TurnBand, minTokens int) []*Task {
	var tasks []*Task
	for _, m := range mapping {
		if m.Band == nil || m.TurnIndex >= len(conv) {
			continue
		}
		turn := conv[m.TurnIndex]
		tasks = append(tasks,
			newTask(m.TurnIndex, RoleInitiator, turn.Initiator.Text(), m.Band.Level, minTokens),
			newTask(m.TurnIndex, RoleResponder, turn.Responder.Text(), m.Band.Level, minTokens),
		)
	}
	return tasks
}

func newTask(turnIndex int, role UnitRole, text string, level types.Level, minTokens int) *Task {
	t := &Task{
		UnitIndex:       turnIndex * unitsPerTurn,
		Role:            role,
		OriginalText:    text,
		Level:           level,
		EstimatedTokens: EstimateTokens(text),
		Status:          StatusPending,
	}
	if role == RoleResponder {
		t.UnitIndex++
	}
	if t.EstimatedTokens < minTokens {
		t.Status = StatusSkipped
	}
	return t
}
