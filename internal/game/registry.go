package game

// Registry is the fixed name -> Game mapping. It is populated once at
// startup and never mutated at request time, so lookups need no locking.
type Registry struct {
	games map[string]Game
	names []string
}

func NewRegistry(games ...Game) *Registry {
	registry := &Registry{
		games: make(map[string]Game, len(games)),
	}

	for _, g := range games {
		if _, ok := registry.games[g.Name()]; ok {
			continue
		}
		registry.games[g.Name()] = g
		registry.names = append(registry.names, g.Name())
	}

	return registry
}

func (that *Registry) Contains(name string) bool {
	_, ok := that.games[name]
	return ok
}

func (that *Registry) Get(name string) (Game, bool) {
	g, ok := that.games[name]
	return g, ok
}

// All returns every registered game in registration order.
func (that *Registry) All() []Game {
	all := make([]Game, 0, len(that.names))
	for _, name := range that.names {
		all = append(all, that.games[name])
	}

	return all
}
