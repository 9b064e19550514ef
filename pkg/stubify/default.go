package stubify

import (
	"github.com/flavioaiello/resource-stubifier/pkg/discovery"
	"github.com/flavioaiello/resource-stubifier/pkg/resource"
)

// Default is the process-wide stubification context. Its visited set lives as
// long as the process and is never cleared.
var Default = New()

// Stubify stubifies t using Default.
func Stubify(t *resource.Type) error {
	return Default.Stubify(t)
}

// StubifyAll stubifies every resource d returns using Default.
func StubifyAll(d discovery.Discoverer) error {
	return Default.StubifyAll(d)
}
