package pool

import (
	"errors"
	"os"
	"strings"
	"sync"
)

var ErrExhausted = errors.New("pool exhausted")

// Pool hands out receiving identifiers to invoices and takes them back on
// release. an invoice that already holds an identifier gets the same one
// again, which is what lets two networks share one address space
type Pool struct {
	mu        sync.Mutex
	free      []string
	byInvoice map[string]string // invoiceId -> identifier
	watched   map[string]string // identifier -> invoiceId
}

func New(identifiers []string) *Pool {
	return &Pool{
		free:      identifiers,
		byInvoice: make(map[string]string),
		watched:   make(map[string]string),
	}
}

// one identifier per line, empty lines skipped
func LoadFromFile(path string) (*Pool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var identifiers []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		identifiers = append(identifiers, line)
	}

	return New(identifiers), nil
}

func (p *Pool) Allocate(invoiceId string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if identifier, ok := p.byInvoice[invoiceId]; ok {
		return identifier, nil
	}

	if len(p.free) == 0 {
		return "", ErrExhausted
	}

	identifier := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]

	p.byInvoice[invoiceId] = identifier
	p.watched[identifier] = invoiceId

	return identifier, nil
}

// Restore re-marks a persisted assignment after a restart, taking the
// identifier out of the free list again. idempotent, two networks sharing
// the pool restore the same pair twice
func (p *Pool) Restore(invoiceId, identifier string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.watched[identifier] == invoiceId {
		return
	}

	for c := range p.free {
		if p.free[c] == identifier {
			p.free = append(p.free[:c], p.free[c+1:]...)
			break
		}
	}

	p.byInvoice[invoiceId] = identifier
	p.watched[identifier] = invoiceId
}

// returns false if the identifier was not handed out
func (p *Pool) Release(identifier string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	invoiceId, ok := p.watched[identifier]
	if !ok {
		return false
	}

	delete(p.watched, identifier)
	delete(p.byInvoice, invoiceId)
	p.free = append(p.free, identifier)

	return true
}

func (p *Pool) IsWatched(identifier string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, ok := p.watched[identifier]
	return ok
}

// snapshot of identifiers currently handed out
func (p *Pool) Watched() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]string, 0, len(p.watched))
	for identifier := range p.watched {
		out = append(out, identifier)
	}
	return out
}

func (p *Pool) FreeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.free)
}
