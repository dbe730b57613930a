package application

import (
	"fmt"
	"sync"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func sequentialIDs(prefix string) func() string {
	var (
		mu      sync.Mutex
		counter int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		counter++
		return fmt.Sprintf("%s-%d", prefix, counter)
	}
}

type recordedTransition struct {
	status SessionStatus
	reason string
}

type metricsStub struct {
	mu          sync.Mutex
	operations  map[string]int
	transitions []recordedTransition
	active      int
}

func newMetricsStub() *metricsStub {
	return &metricsStub{operations: make(map[string]int)}
}

func (m *metricsStub) ObserveSurgeryOperation(operation, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operations[operation+"/"+outcome]++
}

func (m *metricsStub) ObserveSessionTransition(status SessionStatus, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions = append(m.transitions, recordedTransition{status: status, reason: reason})
}

func (m *metricsStub) SetActiveSessions(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = count
}

var referenceTime = time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC)
