package engine

import (
	"fmt"
	"sync"

	"github.com/flowkit-go/flowkit/pkg/api"
)

// runState is the per-run mutable state backing one Run call: result
// thunks and variable cells. Flows themselves stay immutable so that one
// built Flow can be handed to multiple concurrent Run calls safely.
type runState struct {
	flow *api.Flow

	mu     sync.Mutex
	thunks map[api.NodeID]*api.ResultThunk
	cells  map[api.VariableID]*api.VariableCell
}

func newRunState(flow *api.Flow) *runState {
	cells := make(map[api.VariableID]*api.VariableCell, len(flow.Variables))
	for id, decl := range flow.Variables {
		cells[id] = api.NewVariableCell(decl)
	}
	return &runState{
		flow:   flow,
		thunks: make(map[api.NodeID]*api.ResultThunk),
		cells:  cells,
	}
}

func (s *runState) thunkFor(id api.NodeID) *api.ResultThunk {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.thunks[id]
	if !ok {
		t = api.NewResultThunk()
		s.thunks[id] = t
	}
	return t
}

// ReadResult implements api.ResultReader.
func (s *runState) ReadResult(id api.NodeID) (any, error) {
	return s.thunkFor(id).Get()
}

// ReadVariable implements api.ResultReader.
func (s *runState) ReadVariable(id api.VariableID) (any, bool) {
	s.mu.Lock()
	cell, ok := s.cells[id]
	s.mu.Unlock()
	if !ok {
		return nil, false
	}
	return cell.Current()
}

func (s *runState) cell(id api.VariableID) (*api.VariableCell, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cells[id]
	if !ok {
		return nil, fmt.Errorf("flowkit: unknown variable %s", id)
	}
	return c, nil
}

// resetScope reinitializes every variable declared in scope, run on each
// entry into the block that owns it (a looping block re-enters its
// initial state every iteration).
func (s *runState) resetScope(scope api.ScopeID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, decl := range s.flow.Variables {
		if decl.Scope == scope {
			s.cells[id].Reset()
		}
	}
}

// applyUpdates runs a node's post-completion variable updates in
// declaration order. trigger is the node whose completion triggered them.
func (s *runState) applyUpdates(updates []*api.VariableUpdate, trigger api.NodeID, logger api.Logger, instanceID string) error {
	for _, u := range updates {
		cell, err := s.cell(u.Target)
		if err != nil {
			return err
		}
		switch u.Op {
		case api.OpAssign:
			cell.Assign(u.Value)
		case api.OpAssignResult:
			v, err := s.ReadResult(u.Source)
			if err != nil {
				return err
			}
			cell.Assign(v)
		case api.OpUpdate:
			if err := cell.Update(u.Fn); err != nil {
				return err
			}
		default:
			return fmt.Errorf("flowkit: unknown variable update op %q", u.Op)
		}
		logger.VariableUpdated(instanceID, u.Target, trigger)
	}
	return nil
}
