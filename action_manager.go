package sprig

type actionElement struct {
	target  *Node
	actions []Action
	paused  bool
}

// ActionManager steps the running actions of every target once per frame.
//
// Both actions and targets are retained while registered. An action removed
// during Update keeps its slot (set to nil) and is released once the pass
// ends, so an action may safely remove itself or its own target.
type ActionManager struct {
	rt       *Runtime
	targets  []*actionElement
	byTarget map[*Node]*actionElement
	pending  []Action
	updating bool
}

func newActionManager(rt *Runtime) *ActionManager {
	return &ActionManager{
		rt:       rt,
		byTarget: make(map[*Node]*actionElement),
	}
}

// AddAction retains action and target and starts the action.
// Panics if either is nil or the action is already running on target.
func (m *ActionManager) AddAction(action Action, target *Node, paused bool) {
	if action == nil || target == nil {
		panic("sprig: action and target must not be nil")
	}
	el := m.byTarget[target]
	if el == nil {
		target.Retain()
		el = &actionElement{target: target, paused: paused}
		m.byTarget[target] = el
		m.targets = append(m.targets, el)
	}
	for _, a := range el.actions {
		if a == action {
			panic("sprig: action already running on target")
		}
	}
	action.Retain()
	el.actions = append(el.actions, action)
	action.StartWithTarget(target)
}

// RemoveAction removes action from its original target.
func (m *ActionManager) RemoveAction(action Action) {
	if action == nil {
		return
	}
	el := m.byTarget[action.OriginalTarget()]
	if el == nil {
		return
	}
	for i, a := range el.actions {
		if a == action {
			m.removeAt(el, i)
			break
		}
	}
	m.compact()
}

// RemoveActionByTag removes the first action on target with the given tag.
func (m *ActionManager) RemoveActionByTag(tag int, target *Node) {
	el := m.byTarget[target]
	if el == nil {
		return
	}
	for i, a := range el.actions {
		if a != nil && a.Tag() == tag {
			m.removeAt(el, i)
			break
		}
	}
	m.compact()
}

// RemoveAllActionsFromTarget removes every action running on target.
func (m *ActionManager) RemoveAllActionsFromTarget(target *Node) {
	el := m.byTarget[target]
	if el == nil {
		return
	}
	for i := range el.actions {
		m.removeAt(el, i)
	}
	m.compact()
}

// RemoveAllActions removes every action of every target.
func (m *ActionManager) RemoveAllActions() {
	for _, el := range m.targets {
		for i := range el.actions {
			m.removeAt(el, i)
		}
	}
	m.compact()
}

// ActionByTag returns the first action on target with the given tag.
func (m *ActionManager) ActionByTag(tag int, target *Node) Action {
	el := m.byTarget[target]
	if el == nil {
		return nil
	}
	for _, a := range el.actions {
		if a != nil && a.Tag() == tag {
			return a
		}
	}
	return nil
}

// NumberOfRunningActions counts the actions registered for target.
func (m *ActionManager) NumberOfRunningActions(target *Node) int {
	el := m.byTarget[target]
	if el == nil {
		return 0
	}
	n := 0
	for _, a := range el.actions {
		if a != nil {
			n++
		}
	}
	return n
}

// PauseTarget stops stepping target's actions.
func (m *ActionManager) PauseTarget(target *Node) {
	if el := m.byTarget[target]; el != nil {
		el.paused = true
	}
}

// ResumeTarget resumes stepping target's actions.
func (m *ActionManager) ResumeTarget(target *Node) {
	if el := m.byTarget[target]; el != nil {
		el.paused = false
	}
}

// Update steps every action of every unpaused target. Finished actions are
// stopped and removed.
func (m *ActionManager) Update(dt float32) {
	m.updating = true
	for i := 0; i < len(m.targets); i++ {
		el := m.targets[i]
		if el.paused {
			continue
		}
		for j := 0; j < len(el.actions); j++ {
			a := el.actions[j]
			if a == nil {
				continue
			}
			a.Step(dt)
			if el.actions[j] == a && a.IsDone() {
				a.Stop()
				m.removeAt(el, j)
			}
		}
	}
	m.updating = false
	m.compact()
}

// removeAt clears slot i and queues the action's release.
func (m *ActionManager) removeAt(el *actionElement, i int) {
	a := el.actions[i]
	if a == nil {
		return
	}
	el.actions[i] = nil
	m.pending = append(m.pending, a)
}

// compact drops empty slots and targets, then performs the queued releases.
// It does nothing while Update is running.
func (m *ActionManager) compact() {
	if m.updating {
		return
	}
	var targets []*Node
	kept := m.targets[:0]
	for _, el := range m.targets {
		actions := el.actions[:0]
		for _, a := range el.actions {
			if a != nil {
				actions = append(actions, a)
			}
		}
		clear(el.actions[len(actions):])
		el.actions = actions
		if len(actions) == 0 {
			delete(m.byTarget, el.target)
			targets = append(targets, el.target)
			continue
		}
		kept = append(kept, el)
	}
	clear(m.targets[len(kept):])
	m.targets = kept

	pending := m.pending
	m.pending = nil
	for _, a := range pending {
		a.Release()
	}
	for _, t := range targets {
		t.Release()
	}
}
