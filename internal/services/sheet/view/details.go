package view

import (
	"context"
	"sync"

	"github.com/louisbranch/swnsheet/internal/services/sheet/client"
)

// DetailsPanel holds the editable name buffer.
type DetailsPanel struct {
	onChangeDetail func(ctx context.Context, detail client.Detail, value string) error

	mu     sync.Mutex
	buffer string
	synced string
}

// NewDetailsPanel returns a panel with an empty buffer.
func NewDetailsPanel(onChangeDetail func(ctx context.Context, detail client.Detail, value string) error) *DetailsPanel {
	return &DetailsPanel{onChangeDetail: onChangeDetail}
}

// Sync reseeds the buffer from rec. A nil record yields an empty buffer.
func (p *DetailsPanel) Sync(rec *client.Record) {
	p.mu.Lock()
	defer p.mu.Unlock()
	name := ""
	if rec != nil {
		name = rec.Name
	}
	p.buffer = name
	p.synced = name
}

// Input records a keystroke-level edit without committing it.
func (p *DetailsPanel) Input(value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buffer = value
}

// Value returns the buffer.
func (p *DetailsPanel) Value() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buffer
}

// Blur commits value as the NAME detail when it differs from the last
// synced value. It reports whether a commit was issued.
func (p *DetailsPanel) Blur(ctx context.Context, value string) (bool, error) {
	p.mu.Lock()
	p.buffer = value
	changed := value != p.synced
	p.mu.Unlock()

	if !changed || p.onChangeDetail == nil {
		return false, nil
	}
	return true, p.onChangeDetail(ctx, client.DetailName, value)
}
