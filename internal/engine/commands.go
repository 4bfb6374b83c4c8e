package engine

import (
	"fmt"
	"strings"

	"arena3/internal/cvar"
)

func (e *Engine) registerCommands() {
	e.Cmds.Register("map", func(args []string) {
		if len(args) < 2 {
			e.Console.Print("usage: map <name>\n")
			return
		}
		e.CVars.SetCheats(false)
		if err := e.LoadMap(args[1]); err != nil {
			e.Console.Error(fmt.Sprintf("map load failed: %v\n", err))
		}
	})

	e.Cmds.Register("devmap", func(args []string) {
		if len(args) < 2 {
			e.Console.Print("usage: devmap <name>\n")
			return
		}
		e.CVars.SetCheats(true)
		if err := e.LoadMap(args[1]); err != nil {
			e.Console.Error(fmt.Sprintf("map load failed: %v\n", err))
		}
	})

	e.Cmds.Register("disconnect", func(args []string) {
		e.CL.Disconnect()
		e.SV.Shutdown()
		e.CVars.ForceSet("sv_running", "0")
	})

	e.Cmds.Register("echo", func(args []string) {
		e.Console.Print(strings.Join(args[1:], " ") + "\n")
	})

	e.Cmds.Register("exec", func(args []string) {
		if len(args) < 2 {
			e.Console.Print("usage: exec <filename>\n")
			return
		}
		name := args[1]
		data := e.FS.Load(name)
		if data == nil && !strings.Contains(name, ".") {
			data = e.FS.Load(name + ".cfg")
		}
		if data == nil {
			e.Console.Print(fmt.Sprintf("couldn't exec %s\n", name))
			return
		}
		e.Cmds.Insert(string(data))
	})

	e.Cmds.Register("vstr", func(args []string) {
		if len(args) < 2 {
			e.Console.Print("usage: vstr <variablename>\n")
			return
		}
		e.Cmds.Insert(e.CVars.VariableString(args[1]))
	})

	setWith := func(flags cvar.Flags) func([]string) {
		return func(args []string) {
			if len(args) < 3 {
				e.Console.Print(fmt.Sprintf("usage: %s <variable> <value>\n", args[0]))
				return
			}
			v := e.CVars.Set(args[1], strings.Join(args[2:], " "))
			v.Flags |= flags
		}
	}
	e.Cmds.Register("set", setWith(0))
	e.Cmds.Register("seta", setWith(cvar.Archive))
	e.Cmds.Register("sets", setWith(cvar.ServerInfo))
	e.Cmds.Register("setu", setWith(cvar.UserInfo))

	e.Cmds.Register("reset", func(args []string) {
		if len(args) < 2 {
			return
		}
		if v := e.CVars.Lookup(args[1]); v != nil {
			e.CVars.Set(v.Name, v.ResetString)
		}
	})

	e.Cmds.Register("cvarlist", func(args []string) {
		match := ""
		if len(args) > 1 {
			match = args[1]
		}
		e.CVars.List(match)
	})

	e.Cmds.Register("cmdlist", func(args []string) {
		names := e.Cmds.Names()
		for _, name := range names {
			e.Console.Print(name + "\n")
		}
		e.Console.Print(fmt.Sprintf("%d commands\n", len(names)))
	})

	e.Cmds.Register("vm_restart", func(args []string) {
		if e.mapName == "" {
			return
		}
		if err := e.LoadMap(e.mapName); err != nil {
			e.Console.Error(fmt.Sprintf("restart failed: %v\n", err))
		}
	})
}
