package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModule struct {
	name     string
	priority int
	order    *[]string
	err      error
}

func (m *fakeModule) Name() string  { return m.name }
func (m *fakeModule) Priority() int { return m.priority }
func (m *fakeModule) Init(ctx *ModuleContext) error {
	*m.order = append(*m.order, m.name)
	ctx.Provide(m.name, m.priority)
	return m.err
}

func TestSorted(t *testing.T) {
	var order []string
	mods := map[string]Module{
		"payment": &fakeModule{name: "payment", priority: 20, order: &order},
		"user":    &fakeModule{name: "user", priority: 1, order: &order},
		"points":  &fakeModule{name: "points", priority: 5, order: &order},
		"deal":    &fakeModule{name: "deal", priority: 5, order: &order},
	}

	var names []string
	for _, m := range Sorted(mods) {
		names = append(names, m.Name())
	}
	assert.Equal(t, []string{"user", "deal", "points", "payment"}, names)
}

func TestResolve(t *testing.T) {
	ctx := &ModuleContext{}
	ctx.Provide("answer", 42)

	v, err := Resolve[int](ctx, "answer")
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	_, err = Resolve[string](ctx, "answer")
	assert.Error(t, err)

	_, err = Resolve[int](ctx, "missing")
	assert.Error(t, err)
}

func TestInitModules_StopsOnError(t *testing.T) {
	saved := moduleRegistry
	defer func() { moduleRegistry = saved }()

	var order []string
	boom := errors.New("boom")
	moduleRegistry = map[string]Module{}
	Register(&fakeModule{name: "a", priority: 1, order: &order})
	Register(&fakeModule{name: "b", priority: 2, order: &order, err: boom})
	Register(&fakeModule{name: "c", priority: 3, order: &order})

	err := InitModules(&ModuleContext{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a", "b"}, order)
}

type stoppable struct {
	fakeModule
	stopped *[]string
}

func (s *stoppable) Shutdown() { *s.stopped = append(*s.stopped, s.name) }

func TestShutdownModules_ReverseOrder(t *testing.T) {
	saved := moduleRegistry
	t.Cleanup(func() { moduleRegistry = saved })

	var order, stopped []string
	moduleRegistry = map[string]Module{
		"payment": &stoppable{fakeModule: fakeModule{name: "payment", priority: 20, order: &order}, stopped: &stopped},
		"claim":   &stoppable{fakeModule: fakeModule{name: "claim", priority: 10, order: &order}, stopped: &stopped},
		"user":    &fakeModule{name: "user", priority: 1, order: &order},
	}

	ShutdownModules()
	assert.Equal(t, []string{"payment", "claim"}, stopped)
}
