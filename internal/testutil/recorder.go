package testutil

import (
	"context"
	"sync"

	"github.com/clearpath/warehouse-flow/internal/model"
)

// Published is one message captured by Publisher.
type Published struct {
	Key   string
	Value any
}

// Publisher records PublishJSON calls. Err, when set, is returned from every
// call after recording it.
type Publisher struct {
	mu       sync.Mutex
	Messages []Published
	Err      error
}

func (p *Publisher) PublishJSON(_ context.Context, key string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Messages = append(p.Messages, Published{Key: key, Value: v})
	return p.Err
}

// Notifier records the products passed to StockChanged.
type Notifier struct {
	mu      sync.Mutex
	Changed []string
}

func (n *Notifier) StockChanged(_ context.Context, p *model.Product) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Changed = append(n.Changed, p.ID)
}
