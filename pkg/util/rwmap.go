package util

import (
	"sync"
	"time"
)

// RWMap remembers when each message was last seen.
type RWMap struct {
	sync.RWMutex
	m map[string]time.Time
}

func NewRWMap() *RWMap {
	return &RWMap{
		m: make(map[string]time.Time),
	}
}

// SetIfOlder stores v for k unless the existing entry is younger than window.
// It reports whether v was stored.
func (m *RWMap) SetIfOlder(k string, v time.Time, window time.Duration) bool {
	m.Lock()
	defer m.Unlock()
	if last, ok := m.m[k]; ok && v.Sub(last) < window {
		return false
	}
	m.m[k] = v
	return true
}
