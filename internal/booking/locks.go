package booking

import "sync"

// stationLocks hands out one mutex per station so that admission and
// pool-mutating transitions for the same station serialize while
// different stations stay independent.  Locks are created lazily and
// never discarded; the set of stations is small and stable.
type stationLocks struct {
    mu sync.Mutex
    m  map[uint64]*sync.Mutex
}

func newStationLocks() *stationLocks {
    return &stationLocks{m: make(map[uint64]*sync.Mutex)}
}

// get returns the mutex for a station, creating it on first use.
func (l *stationLocks) get(stationID uint64) *sync.Mutex {
    l.mu.Lock()
    defer l.mu.Unlock()
    mu, ok := l.m[stationID]
    if !ok {
        mu = &sync.Mutex{}
        l.m[stationID] = mu
    }
    return mu
}
