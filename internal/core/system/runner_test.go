package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	name  string
	phase Phase
	log   *[]string
}

func (r recorder) Phase() Phase { return r.phase }

func (r recorder) Update(time.Duration) { *r.log = append(*r.log, r.name) }

func TestRunnerOrdersByPhaseThenRegistration(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(recorder{"autosave", PhasePersist, &log})
	r.Register(recorder{"routes", PhaseMove, &log})
	r.Register(recorder{"interp", PhaseInterpret, &log})
	r.Register(recorder{"followers", PhaseMove, &log})

	r.Tick(time.Millisecond)
	r.Tick(time.Millisecond)

	assert.Equal(t, []string{
		"interp", "routes", "followers", "autosave",
		"interp", "routes", "followers", "autosave",
	}, log)
	assert.Equal(t, uint64(2), r.Ticks())
}
