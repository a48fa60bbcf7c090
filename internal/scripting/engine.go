package scripting

import (
	"fmt"
	"path/filepath"
	"sort"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// scriptDirs are loaded in order: helpers in core/ before the palette.
var scriptDirs = []string{"core", "palette"}

// Engine owns one gopher-lua state holding the presentation scripts.
// The frame loop is its only caller.
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine runs every .lua file under dir/core and dir/palette. Missing
// directories are skipped.
func NewEngine(dir string, log *zap.Logger) (*Engine, error) {
	e := &Engine{vm: newVM(), log: log}
	for _, sub := range scriptDirs {
		if err := e.runAll(filepath.Join(dir, sub)); err != nil {
			e.vm.Close()
			return nil, fmt.Errorf("%s scripts: %w", sub, err)
		}
	}
	return e, nil
}

func newVM() *lua.LState {
	vm := lua.NewState()
	for name, v := range map[string]lua.LValue{
		"API_VERSION":     lua.LNumber(1),
		"KIND_ORBIT":      lua.LString("orbit"),
		"KIND_TRAIL":      lua.LString("trail"),
		"KIND_PREDICTION": lua.LString("prediction"),
	} {
		vm.SetGlobal(name, v)
	}
	return vm
}

func (e *Engine) runAll(dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.lua"))
	if err != nil {
		return err
	}
	sort.Strings(files)
	for _, f := range files {
		if err := e.vm.DoFile(f); err != nil {
			return fmt.Errorf("run %s: %w", f, err)
		}
		e.log.Debug("lua script loaded", zap.String("file", f))
	}
	return nil
}

// HasFunc reports whether a global Lua function is defined.
func (e *Engine) HasFunc(name string) bool {
	_, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	return ok
}

// call runs a global function in protected mode and returns its single
// result. ok is false when the function is missing or raised an error.
func (e *Engine) call(name string, args ...lua.LValue) (lua.LValue, bool) {
	fn, isFn := e.vm.GetGlobal(name).(*lua.LFunction)
	if !isFn {
		return lua.LNil, false
	}
	if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...); err != nil {
		e.log.Error("lua call error", zap.String("name", name), zap.Error(err))
		return lua.LNil, false
	}
	ret := e.vm.Get(-1)
	e.vm.Pop(1)
	return ret, true
}

// callTableFunc calls name with string arguments and expects a table back.
func (e *Engine) callTableFunc(name string, args ...string) *lua.LTable {
	largs := make([]lua.LValue, len(args))
	for i, a := range args {
		largs[i] = lua.LString(a)
	}
	ret, ok := e.call(name, largs...)
	if !ok {
		return nil
	}
	t, isTable := ret.(*lua.LTable)
	if !isTable && ret != lua.LNil {
		e.log.Error("lua function returned non-table", zap.String("name", name), zap.String("type", ret.Type().String()))
	}
	return t
}

func (e *Engine) callStringFunc(name string) (string, bool) {
	ret, ok := e.call(name)
	if !ok {
		return "", false
	}
	s, isStr := ret.(lua.LString)
	return string(s), isStr
}

// lNum reads a numeric field from a Lua table, or def if absent.
func lNum(t *lua.LTable, key string, def float64) float64 {
	if n, ok := t.RawGetString(key).(lua.LNumber); ok {
		return float64(n)
	}
	return def
}

func lStr(t *lua.LTable, key string) string {
	return lua.LVAsString(t.RawGetString(key))
}

func (e *Engine) Close() { e.vm.Close() }
