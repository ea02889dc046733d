package compiler

import "time"

// SetProviderClock replaces the Provider clock for tests.
func SetProviderClock(p *Provider, now func() time.Time) {
	p.now = now
}
