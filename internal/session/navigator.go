package session

import (
	"context"
	"sync"
)

const (
	LoginPath = "/login"
	HomePath  = "/"
)

// Navigator moves the UI to another page.
type Navigator interface {
	Navigate(ctx context.Context, path string)
}

// PendingRedirect remembers the last navigation until the transport hands it to the UI.
type PendingRedirect struct {
	mu   sync.Mutex
	path string
}

func (p *PendingRedirect) Navigate(_ context.Context, path string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.path = path
}

// Take returns the pending path and forgets it.
func (p *PendingRedirect) Take() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	path := p.path
	p.path = ""
	return path
}
