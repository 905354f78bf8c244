package build

import (
	"testing"

	"github.com/netrep/bitgen/layout"
	"github.com/netrep/bitgen/registry"
	"github.com/stretchr/testify/assert"
)

type score struct{ V int32 }

func scoreRecord(name string) layout.Record[score] {
	return layout.Record[score]{
		Name: name,
		Role: layout.RolePredicted,
		New:  func() score { return score{} },
		Fields: []layout.Field[score]{
			{
				Name:    "v",
				Kind:    layout.KindI32,
				GetBits: func(v *score) uint64 { return uint64(uint32(v.V)) },
				SetBits: func(v *score, bits uint64) { v.V = int32(uint32(bits)) },
			},
		},
	}
}

type bonus struct{ V int32 }

func bonusRecord() layout.Record[bonus] {
	return layout.Record[bonus]{
		Name: "Bonus",
		Role: layout.RolePredicted,
		Fields: []layout.Field[bonus]{
			{
				Name:    "v",
				Kind:    layout.KindI32,
				GetBits: func(v *bonus) uint64 { return uint64(uint32(v.V)) },
				SetBits: func(v *bonus, bits uint64) { v.V = int32(uint32(bits)) },
			},
		},
	}
}

func TestRegisterSucceedsAndAssignsIDs(t *testing.T) {
	s := NewSession()
	// Type ids are keyed by Go type, so the two records use distinct types.
	id1 := Register(s, scoreRecord("ScoreA"), layout.RolePredicted, registry.Receiver[score]{})
	id2 := Register(s, bonusRecord(), layout.RolePredicted, registry.Receiver[bonus]{})

	assert.NoError(t, s.Err())
	assert.NotEqual(t, id1, id2)
	assert.NotPanics(t, s.MustHaveSucceeded)
}

func TestRegisterAccumulatesFailures(t *testing.T) {
	s := NewSession()
	broken := layout.Record[score]{Name: "Broken", Fields: []layout.Field[score]{{Name: "v", Kind: layout.KindI32}}}

	Register(s, broken, layout.RolePredicted, registry.Receiver[score]{})
	assert.Error(t, s.Err())
	assert.Panics(t, s.MustHaveSucceeded)
}
