package rr

import (
	"sync/atomic"
)

// RoundRobin cycles over a proxy list that can be swapped at runtime
type RoundRobin interface {
	Next() (string, bool)
	GetProxyCount() int
}

type rr struct {
	data  *atomic.Pointer[[]string]
	index atomic.Uint32
}

func New(data *atomic.Pointer[[]string]) *rr {
	return &rr{data: data}
}

func (rr *rr) Next() (string, bool) {
	servers := *rr.data.Load()

	if len(servers) == 0 {
		return "", false
	}

	// the counter keeps growing across list swaps, the modulo keeps it in range
	n := rr.index.Add(1)
	return servers[(int(n)-1)%len(servers)], true
}

func (rr *rr) GetProxyCount() int {
	return len(*rr.data.Load())
}
