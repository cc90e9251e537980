// This file is part of AHBFabric.
//
// AHBFabric is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// AHBFabric is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with AHBFabric.  If not, see <https://www.gnu.org/licenses/>.


package macro

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jetsetilly/ahbfabric/curated"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/databus"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/masterdriver"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/trace"
	"github.com/jetsetilly/ahbfabric/hardware/soc"
	"github.com/jetsetilly/ahbfabric/logger"
	lua "github.com/yuin/gopher-lua"
)

// Sentinel patterns for errors returned by this package.
const (
	ScriptError = "macro: %s: %v"
	Failed      = "macro: %s: %d expectations failed"
)

// default limit for run()
const runLimit = 100000

// Macro is a type that allows control of a SoC from a Lua script.
type Macro struct {
	soc *soc.SoC
	out io.Writer

	filename string
	script   string

	// transfers queued by the script. the id of a transfer is its index plus
	// one
	transfers []*masterdriver.Transfer

	// number of failed expectations
	Failures int
}

// NewMacro is the preferred method of initialisation for the Macro type. The
// script is read from the named file.
func NewMacro(filename string, s *soc.SoC, out io.Writer) (*Macro, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, curated.Errorf(ScriptError, filename, err)
	}
	return NewMacroFromString(filename, string(b), s, out), nil
}

// NewMacroFromString creates a macro from a script that is already in memory.
// The name is used in error messages.
func NewMacroFromString(name string, script string, s *soc.SoC, out io.Writer) *Macro {
	if out == nil {
		out = io.Discard
	}
	return &Macro{
		soc:      s,
		out:      out,
		filename: name,
		script:   script,
	}
}

// Run the macro to completion.
func (mcr *Macro) Run() error {
	L := lua.NewState()
	defer L.Close()

	for name, f := range map[string]lua.LGFunction{
		"read":   mcr.read,
		"write":  mcr.write,
		"step":   mcr.step,
		"run":    mcr.run,
		"result": mcr.result,
		"cycle":  mcr.cycle,
		"peek":   mcr.peek,
		"poke":   mcr.poke,
		"expect": mcr.expect,
		"trace":  mcr.trace,
		"print":  mcr.print,
	} {
		L.SetGlobal(name, L.NewFunction(f))
	}

	fn, err := L.Load(strings.NewReader(mcr.script), mcr.filename)
	if err != nil {
		return curated.Errorf(ScriptError, mcr.filename, err)
	}
	L.Push(fn)
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		return curated.Errorf(ScriptError, mcr.filename, err)
	}

	if mcr.Failures > 0 {
		return curated.Errorf(Failed, mcr.filename, mcr.Failures)
	}
	return nil
}

func (mcr *Macro) master(L *lua.LState, n int) *masterdriver.Master {
	m, err := mcr.soc.Master(L.CheckString(n))
	if err != nil {
		L.ArgError(n, err.Error())
	}
	return m
}

func (mcr *Macro) size(L *lua.LState, n int) databus.Size {
	sz, err := databus.ParseSize(L.OptInt(n, 4))
	if err != nil || sz > databus.Word {
		L.ArgError(n, fmt.Sprintf("bad size (%d)", L.OptInt(n, 4)))
	}
	return sz
}

func (mcr *Macro) queued(L *lua.LState, t *masterdriver.Transfer) int {
	mcr.transfers = append(mcr.transfers, t)
	L.Push(lua.LNumber(len(mcr.transfers)))
	return 1
}

func (mcr *Macro) read(L *lua.LState) int {
	m := mcr.master(L, 1)
	addr := uint32(L.CheckInt64(2))
	return mcr.queued(L, m.Read(addr, mcr.size(L, 3)))
}

func (mcr *Macro) write(L *lua.LState) int {
	m := mcr.master(L, 1)
	addr := uint32(L.CheckInt64(2))
	v := databus.ClipWord(uint32(L.CheckInt64(3)), mcr.size(L, 4))
	t, err := m.Write(addr, v)
	if err != nil {
		L.RaiseError("%v", err)
	}
	return mcr.queued(L, t)
}

func (mcr *Macro) step(L *lua.LState) int {
	for range L.OptInt(1, 1) {
		mcr.soc.Step()
	}
	return 0
}

func (mcr *Macro) run(L *lua.LState) int {
	n, err := mcr.soc.RunUntilIdle(L.OptInt(1, runLimit))
	if err != nil {
		L.RaiseError("%v", err)
	}
	L.Push(lua.LNumber(n))
	return 1
}

func (mcr *Macro) result(L *lua.LState) int {
	id := L.CheckInt(1)
	if id < 1 || id > len(mcr.transfers) {
		L.ArgError(1, fmt.Sprintf("no transfer with id %d", id))
	}
	t := mcr.transfers[id-1]

	if t.Status == masterdriver.DataPhaseDone && t.Meta.IsReading() {
		L.Push(lua.LNumber(t.Result.Raw()))
	} else {
		L.Push(lua.LNil)
	}
	if t.IsFinished() {
		L.Push(lua.LString(t.Response.String()))
	} else {
		L.Push(lua.LString(t.Status.String()))
	}
	L.Push(lua.LNumber(t.Issued))
	L.Push(lua.LNumber(t.Completed))
	return 4
}

func (mcr *Macro) cycle(L *lua.LState) int {
	L.Push(lua.LNumber(mcr.soc.Cycle()))
	return 1
}

func (mcr *Macro) peek(L *lua.LState) int {
	addr := uint32(L.CheckInt64(1))
	m, err := mcr.soc.Memory(addr)
	if err != nil {
		L.RaiseError("%v", err)
	}
	v, err := m.Peek(addr, mcr.size(L, 2))
	if err != nil {
		L.RaiseError("%v", err)
	}
	L.Push(lua.LNumber(v.Raw()))
	return 1
}

func (mcr *Macro) poke(L *lua.LState) int {
	addr := uint32(L.CheckInt64(1))
	m, err := mcr.soc.Memory(addr)
	if err != nil {
		L.RaiseError("%v", err)
	}
	v := databus.ClipWord(uint32(L.CheckInt64(2)), mcr.size(L, 3))
	if err := m.Poke(addr, v); err != nil {
		L.RaiseError("%v", err)
	}
	return 0
}

func (mcr *Macro) expect(L *lua.LState) int {
	ok := L.ToBool(1)
	if !ok {
		mcr.Failures++
		msg := L.OptString(2, "expectation failed")
		logger.Logf(logger.Allow, "macro", "%s: cycle %d: %s", mcr.filename, mcr.soc.Cycle(), msg)
		fmt.Fprintf(mcr.out, "FAIL: %s\n", msg)
	}
	L.Push(lua.LBool(ok))
	return 1
}

func (mcr *Macro) trace(L *lua.LState) int {
	trace.Bus.Set(L.ToBool(1))
	return 0
}

func (mcr *Macro) print(L *lua.LState) int {
	var s []string
	for i := 1; i <= L.GetTop(); i++ {
		s = append(s, L.ToStringMeta(L.Get(i)).String())
	}
	fmt.Fprintln(mcr.out, strings.Join(s, "\t"))
	return 0
}
