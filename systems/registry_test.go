package systems

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pthm-cable/danger/telemetry"
)

func TestSystemRegistryNamesEveryPhase(t *testing.T) {
	reg := NewSystemRegistry()
	for _, ph := range telemetry.Phases {
		assert.NotEqual(t, ph.String(), reg.GetName(ph.String()), "phase %s has a display name", ph)
	}
	assert.Equal(t, "Decision", reg.GetName("decision"))
	assert.Equal(t, "nope", reg.GetName("nope"))

	reg.Register(SystemInfo{ID: "nope", Name: "Nope"})
	assert.Equal(t, "Nope", reg.GetName("nope"))
}
