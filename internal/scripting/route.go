package scripting

// Route is a move route: Lua lines run one per tick against a character.
type Route struct {
	Lines     []string
	Repeat    bool // start over after the last line
	Skippable bool // advance past a line whose step was blocked
	Wait      bool // the issuing thread waits for the route to end
}

// CompileRoute checks every line of a route.
func (e *Engine) CompileRoute(r Route) error {
	for _, line := range r.Lines {
		if err := e.Compile(line); err != nil {
			return err
		}
	}
	return nil
}
