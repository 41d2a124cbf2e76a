package scripting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/l1jgo/followctl/internal/movement"
	"github.com/l1jgo/followctl/internal/world"
)

const characterType = "Character"

// Stepper performs a primitive one-tile step. *world.State satisfies it.
type Stepper interface {
	MoveStraight(ch *world.Character, d world.Direction) bool
}

// Engine wraps a single gopher-lua VM running move-route lines.
// Single-goroutine access only (game loop).
type Engine struct {
	vm      *lua.LState
	log     *zap.Logger
	planner *movement.Planner
	stepper Stepper
	chunks  map[string]*lua.LFunction
	callErr error // Go error raised by a method during the current line
}

// NewEngine creates a Lua engine and loads the route library from
// scriptsDir/route. A missing directory is not an error.
func NewEngine(scriptsDir string, planner *movement.Planner, stepper Stepper, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{
		vm:      vm,
		log:     log,
		planner: planner,
		stepper: stepper,
		chunks:  make(map[string]*lua.LFunction),
	}
	e.registerCharacter()

	if err := e.loadDir(filepath.Join(scriptsDir, "route")); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load route scripts: %w", err)
	}
	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// Compile checks a route line without running it.
func (e *Engine) Compile(line string) error {
	_, err := e.compile(line)
	return err
}

func (e *Engine) compile(line string) (*lua.LFunction, error) {
	if fn, ok := e.chunks[line]; ok {
		return fn, nil
	}
	chunk, err := e.vm.LoadString("return function(self)\n" + line + "\nend")
	if err != nil {
		return nil, fmt.Errorf("compile route line %q: %w", line, err)
	}
	if err := e.vm.CallByParam(lua.P{Fn: chunk, NRet: 1, Protect: true}); err != nil {
		return nil, fmt.Errorf("compile route line %q: %w", line, err)
	}
	fn, ok := e.vm.Get(-1).(*lua.LFunction)
	e.vm.Pop(1)
	if !ok {
		return nil, fmt.Errorf("compile route line %q: not a function", line)
	}
	e.chunks[line] = fn
	return fn, nil
}

// RunLine runs one move-route line with self bound to ch. Errors raised by
// the planner (movement.ErrNoTarget, movement.ErrBadTarget) are returned
// unwrapped-compatible so callers can errors.Is them.
func (e *Engine) RunLine(ch *world.Character, line string) error {
	fn, err := e.compile(line)
	if err != nil {
		return err
	}
	e.callErr = nil
	err = e.vm.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, e.newCharacter(ch))
	if e.callErr != nil {
		goErr := e.callErr
		e.callErr = nil
		return fmt.Errorf("route line %q on %s: %w", line, ch.Key(), goErr)
	}
	if err != nil {
		return fmt.Errorf("route line %q on %s: %w", line, ch.Key(), err)
	}
	return nil
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}

// --- Character userdata ---

func (e *Engine) registerCharacter() {
	mt := e.vm.NewTypeMetatable(characterType)
	methods := e.vm.SetFuncs(e.vm.NewTable(), map[string]lua.LGFunction{
		"path":          e.luaPath,
		"moveToward":    e.luaMoveToward,
		"turnToward":    e.luaTurnToward,
		"pathMax":       e.luaPathMax,
		"move":          e.luaMove,
		"turn":          e.luaTurn,
		"x":             luaX,
		"y":             luaY,
		"direction":     luaDirection,
		"searchLimit":   luaSearchLimit,
		"moveSucceeded": luaMoveSucceeded,
		"setThrough":    luaSetThrough,
		"key":           luaKey,
	})
	e.vm.SetField(mt, "__index", methods)
	// route scripts extend Character with their own methods
	e.vm.SetGlobal(characterType, methods)
}

func (e *Engine) newCharacter(ch *world.Character) *lua.LUserData {
	ud := e.vm.NewUserData()
	ud.Value = ch
	e.vm.SetMetatable(ud, e.vm.GetTypeMetatable(characterType))
	return ud
}

func checkCharacter(L *lua.LState) *world.Character {
	ud := L.CheckUserData(1)
	if ch, ok := ud.Value.(*world.Character); ok {
		return ch
	}
	L.ArgError(1, "Character expected")
	return nil
}

// fail records a Go error for RunLine and aborts the Lua call.
func (e *Engine) fail(L *lua.LState, err error) int {
	e.callErr = err
	L.RaiseError("%s", err.Error())
	return 0
}

func (e *Engine) targetMethod(L *lua.LState, do func(*world.Character, movement.Target) error) int {
	ch := checkCharacter(L)
	t, err := movement.ParseTarget(goValue(L.Get(2)), goValue(L.Get(3)))
	if err != nil {
		return e.fail(L, err)
	}
	if err := do(ch, t); err != nil {
		return e.fail(L, err)
	}
	return 0
}

func (e *Engine) luaPath(L *lua.LState) int       { return e.targetMethod(L, e.planner.PathStep) }
func (e *Engine) luaMoveToward(L *lua.LState) int { return e.targetMethod(L, e.planner.MoveToward) }
func (e *Engine) luaTurnToward(L *lua.LState) int { return e.targetMethod(L, e.planner.TurnToward) }

func (e *Engine) luaPathMax(L *lua.LState) int {
	ch := checkCharacter(L)
	movement.SetSearchLimit(ch, L.OptInt(2, 0))
	return 0
}

func (e *Engine) luaMove(L *lua.LState) int {
	ch := checkCharacter(L)
	d := world.Direction(L.CheckInt(2))
	if !d.Valid() {
		return e.fail(L, errors.New("move: direction must be 2, 4, 6 or 8"))
	}
	L.Push(lua.LBool(e.stepper.MoveStraight(ch, d)))
	return 1
}

func (e *Engine) luaTurn(L *lua.LState) int {
	ch := checkCharacter(L)
	ch.SetDirection(world.Direction(L.CheckInt(2)))
	return 0
}

func luaX(L *lua.LState) int {
	L.Push(lua.LNumber(checkCharacter(L).X))
	return 1
}

func luaY(L *lua.LState) int {
	L.Push(lua.LNumber(checkCharacter(L).Y))
	return 1
}

func luaDirection(L *lua.LState) int {
	L.Push(lua.LNumber(checkCharacter(L).Dir))
	return 1
}

func luaSearchLimit(L *lua.LState) int {
	L.Push(lua.LNumber(checkCharacter(L).SearchLimit()))
	return 1
}

func luaMoveSucceeded(L *lua.LState) int {
	L.Push(lua.LBool(checkCharacter(L).MovementSucceeded()))
	return 1
}

func luaSetThrough(L *lua.LState) int {
	checkCharacter(L).Through = L.ToBool(2)
	return 0
}

func luaKey(L *lua.LState) int {
	L.Push(lua.LString(checkCharacter(L).Key()))
	return 1
}

// goValue converts a Lua argument for movement.ParseTarget.
func goValue(v lua.LValue) any {
	switch v := v.(type) {
	case lua.LNumber:
		return float64(v)
	case lua.LString:
		return string(v)
	case lua.LBool:
		return bool(v)
	default:
		return nil
	}
}
