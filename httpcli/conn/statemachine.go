/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package conn

import "sync"

// StateMachine is the shared ConnState guard embedded by every BaseBackend
// implementation (h1, h2, h3). It centralizes the legal-transition check so
// each backend's operations only need to describe what a transition does,
// not re-derive whether it is allowed.
type StateMachine struct {
	mu    sync.Mutex
	state ConnState
	info  ConnectionInfo
}

// State returns the current state.
func (m *StateMachine) State() ConnState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Info returns a copy of the telemetry gathered so far.
func (m *StateMachine) Info() ConnectionInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.info
}

// UpdateInfo merges fct's mutations into the telemetry under lock.
func (m *StateMachine) UpdateInfo(fct func(*ConnectionInfo)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fct(&m.info)
}

// Transition moves the machine to next if legal from the current state,
// returning ErrorProtocolState otherwise. Callers do their own I/O before
// calling Transition so a failed dial/write never leaves the state advanced.
func (m *StateMachine) Transition(next ConnState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.state.legal(next) {
		return ErrorProtocolState.Error(nil)
	}

	m.state = next
	return nil
}

// RequireState returns ErrorProtocolState unless the current state is one of want.
func (m *StateMachine) RequireState(want ...ConnState) error {
	m.mu.Lock()
	cur := m.state
	m.mu.Unlock()

	for _, w := range want {
		if cur == w {
			return nil
		}
	}

	return ErrorProtocolState.Error(nil)
}
