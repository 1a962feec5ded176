package assembler

import "sync"

// BootState tracks the one-time full-context load. The transition from
// "needs full context" to "established" happens at most once per process
// and never reverts, even under concurrent first messages.
type BootState struct {
	mu      sync.Mutex
	claimed bool
	done    bool
}

// NewBootState returns a state that still needs the full context load.
func NewBootState() *BootState {
	return &BootState{}
}

// BeginBoot claims the boot turn. Exactly one caller across the process
// lifetime gets true; everyone else proceeds as a normal turn.
func (b *BootState) BeginBoot() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.claimed {
		return false
	}
	b.claimed = true
	return true
}

// MarkEstablished records that the boot-summary synthesis was attempted.
func (b *BootState) MarkEstablished() {
	b.mu.Lock()
	b.done = true
	b.mu.Unlock()
}

// Established reports whether the boot turn has completed.
func (b *BootState) Established() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.done
}
