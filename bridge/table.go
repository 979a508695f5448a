package bridge

import (
	"sync"
)

// goalTable tracks live Executions by goal id.
//
// Terminal goals leave the table once their outcome is reported.
type goalTable struct {
	sync.Mutex

	goals map[string]*Execution
}

func newGoalTable() *goalTable {
	return &goalTable{
		goals: make(map[string]*Execution, 32),
	}
}

func (t *goalTable) put(e *Execution) {
	t.Lock()
	t.goals[e.ID] = e
	t.Unlock()
}

func (t *goalTable) get(id string) (*Execution, bool) {
	t.Lock()
	e, have := t.goals[id]
	t.Unlock()
	return e, have
}

func (t *goalTable) rem(id string) {
	t.Lock()
	delete(t.goals, id)
	t.Unlock()
}

func (t *goalTable) len() int {
	t.Lock()
	n := len(t.goals)
	t.Unlock()
	return n
}
