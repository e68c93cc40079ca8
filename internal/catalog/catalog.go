package catalog

import "sort"

// GameInfo describes one arcade title for the lobby page.
type GameInfo struct {
	Name      string `json:"name"`
	Title     string `json:"title"`
	Players   int    `json:"players"`
	Networked bool   `json:"networked"` // true if played through the match relay
}

// Catalog holds the site's games.
type Catalog struct {
	games map[string]GameInfo
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{games: make(map[string]GameInfo)}
}

// Default returns the catalog of games the site ships with. The
// fighter is the only networked title; the rest run entirely in the
// browser and only report scores back.
func Default() *Catalog {
	c := New()
	c.Add(GameInfo{Name: "fighter", Title: "Shadow Fist Duel", Players: 2, Networked: true})
	c.Add(GameInfo{Name: "runner", Title: "Neon Runner", Players: 1})
	c.Add(GameInfo{Name: "breaker", Title: "Brick Breaker", Players: 1})
	c.Add(GameInfo{Name: "snake", Title: "Hyper Snake", Players: 1})
	c.Add(GameInfo{Name: "memory", Title: "Memory Grid", Players: 1})
	return c
}

// Add registers a game. Last write wins on duplicate names.
func (c *Catalog) Add(g GameInfo) {
	if g.Players == 0 {
		g.Players = 1
	}
	c.games[g.Name] = g
}

// Get returns a game by name.
func (c *Catalog) Get(name string) (GameInfo, bool) {
	g, ok := c.games[name]
	return g, ok
}

// List returns all games, sorted by name for stable API output.
func (c *Catalog) List() []GameInfo {
	infos := make([]GameInfo, 0, len(c.games))
	for _, g := range c.games {
		infos = append(infos, g)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}
