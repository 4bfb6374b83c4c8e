// Package engine owns the whole simulation context: every subsystem is a
// field here, never a global. The scheduler consumes wall-clock
// milliseconds, advances the authoritative world in fixed ticks, and
// drives the presentation module once per render frame.
package engine

import (
	"fmt"
	"time"

	"arena3/internal/api"
	"arena3/internal/bsp"
	"arena3/internal/client"
	"arena3/internal/cm"
	"arena3/internal/command"
	"arena3/internal/cvar"
	"arena3/internal/host"
	"arena3/internal/relay"
	"arena3/internal/server"
	"arena3/internal/wire"
)

// maxFrameMsec caps how much wall time one frame may consume, so a debug
// pause or load hitch cannot turn into a tick avalanche.
const maxFrameMsec = 200

// Options carry the external collaborators into the context.
type Options struct {
	Console  host.Console
	FS       host.FileSystem
	Clock    host.Clock
	Renderer host.Renderer
	Audio    host.Audio
	Input    host.Input

	VidWidth  int
	VidHeight int
}

// Engine is the explicit context object: subsystems are fields, external
// collaborators are capabilities, and the scheduler drives everything.
type Engine struct {
	Console host.Console
	FS      host.FileSystem
	Clock   host.Clock

	CVars *cvar.Registry
	Cmds  *command.System
	Loop  *relay.Loopback
	SV    *server.Server
	CL    *client.Client

	mapName string

	lastMs       int
	started      bool
	timeResidual int

	// engine-side read pointer into the client→server stream
	toServerProcessed int

	pendingCmd wire.UserCmd
	hasPending bool

	// syscall counters already published to the metrics layer
	reportedGameSyscalls   uint64
	reportedClientSyscalls uint64

	// FrameCount increments once per scheduler frame, for observability.
	FrameCount uint64
}

// New wires the full context together and registers the core console
// commands.
func New(opts Options) *Engine {
	e := &Engine{
		Console: opts.Console,
		FS:      opts.FS,
		Clock:   opts.Clock,
		Loop:    &relay.Loopback{},
	}
	e.CVars = cvar.NewRegistry(opts.Console)
	e.Cmds = command.NewSystem(opts.Console)
	e.SV = server.New(server.Deps{
		Console: opts.Console,
		FS:      opts.FS,
		Clock:   opts.Clock,
		CVars:   e.CVars,
		Cmds:    e.Cmds,
		Relay:   e.Loop,
	})
	e.CL = client.New(client.Deps{
		Console:   opts.Console,
		FS:        opts.FS,
		Clock:     opts.Clock,
		CVars:     e.CVars,
		Cmds:      e.Cmds,
		Relay:     e.Loop,
		Renderer:  opts.Renderer,
		Audio:     opts.Audio,
		Input:     opts.Input,
		SV:        e.SV,
		VidWidth:  opts.VidWidth,
		VidHeight: opts.VidHeight,
	})

	e.registerCoreCvars()
	e.registerCommands()
	e.Cmds.Fallback = e.commandFallback
	return e
}

func (e *Engine) registerCoreCvars() {
	e.CVars.Get("sv_running", "0", cvar.ROM)
	e.CVars.Get("sv_hostname", "noname", cvar.Archive|cvar.ServerInfo)
	e.CVars.Get("sv_maxclients", "8", cvar.Latch|cvar.ServerInfo)
	e.CVars.Get("sv_cheats", "0", cvar.ServerInfo|cvar.SystemInfo)
	e.CVars.Get("g_gravity", "800", cvar.ServerInfo)
	e.CVars.Get("timescale", "1", cvar.Cheat|cvar.SystemInfo)
	e.CVars.Get("name", "UnnamedPlayer", cvar.Archive|cvar.UserInfo)
	e.CVars.Get("model", "sarge", cvar.Archive|cvar.UserInfo)
	e.CVars.Get("com_version", "arena3 1.0", cvar.ROM|cvar.ServerInfo)
}

// Init sources the startup configs in their contractual order, then
// closes the init-only window.
func (e *Engine) Init() {
	for _, name := range []string{"default.cfg", "q3config.cfg", "autoexec.cfg"} {
		if data := e.FS.Load(name); data != nil {
			e.Console.Print(fmt.Sprintf("execing %s\n", name))
			e.Cmds.Append(string(data))
		}
	}
	e.Cmds.Execute()
	e.CVars.FinishStartup()

	if image := e.FS.Load("vm/ui.qvm"); image != nil {
		if err := e.CL.LoadUI(image); err != nil {
			e.Console.Warn(fmt.Sprintf("ui load failed: %v\n", err))
		}
	}
}

// PushInput hands the shell's latest input frame to the scheduler; it is
// stamped with server time and delivered on the next frame.
func (e *Engine) PushInput(cmd wire.UserCmd) {
	e.pendingCmd = cmd
	e.hasPending = true
}

// Frame runs one scheduler pass: consume wall-clock ms (clamped), drain
// the command buffer, pump user commands, advance whole simulation ticks,
// then draw the presentation frame.
func (e *Engine) Frame() {
	frameStart := time.Now()
	now := e.Clock.Milliseconds()
	if !e.started {
		e.lastMs = now
		e.started = true
	}
	msec := now - e.lastMs
	if msec < 1 {
		msec = 1
	}
	if msec > maxFrameMsec {
		msec = maxFrameMsec
	}
	e.lastMs = now
	e.FrameCount++

	e.Cmds.Execute()
	e.drainClientCommands()

	if e.SV.State() == server.StateGame {
		if e.hasPending {
			cmd := e.pendingCmd
			cmd.ServerTime = e.SV.Time + server.TickMsec
			e.SV.SetUserCmd(0, cmd)
			e.CL.PushUserCmd(cmd)
			e.hasPending = false
		}

		e.timeResidual += msec
		for e.timeResidual >= server.TickMsec {
			e.timeResidual -= server.TickMsec
			tickStart := time.Now()
			e.SV.Tick()
			api.RecordTick(time.Since(tickStart))
			if e.CL.Connected() {
				api.RecordSnapshot()
			}
			if e.SV.State() != server.StateGame {
				api.RecordAbort("game")
				e.Console.Print("server stopped\n")
				e.CL.Disconnect()
				e.timeResidual = 0
				break
			}
		}
	}

	e.CL.Frame(e.SV.Time, now)

	if d := e.SV.MetricSyscalls - e.reportedGameSyscalls; d > 0 {
		api.RecordSyscalls("game", d)
		e.reportedGameSyscalls = e.SV.MetricSyscalls
	}
	if d := e.CL.MetricSyscalls - e.reportedClientSyscalls; d > 0 {
		api.RecordSyscalls("client", d)
		e.reportedClientSyscalls = e.CL.MetricSyscalls
	}
	api.RecordFrame(time.Since(frameStart))
}

// drainClientCommands routes client→server reliable commands into the
// game module's client-command entry.
func (e *Engine) drainClientCommands() {
	stream := &e.Loop.ToServer
	for seq := e.toServerProcessed + 1; seq <= stream.Sequence(); seq++ {
		payload, ok := stream.Get(seq)
		e.toServerProcessed = seq
		if !ok {
			continue
		}
		stream.Acknowledge(seq)
		args := command.Tokenize(payload)
		if len(args) == 0 {
			continue
		}
		e.SV.ClientCommand(0, args)
	}
}

// commandFallback handles console lines with no registered handler: cvar
// access first, then the game module's console entry.
func (e *Engine) commandFallback(args []string) bool {
	if v := e.CVars.Lookup(args[0]); v != nil {
		if len(args) == 1 {
			e.Console.Print(fmt.Sprintf("\"%s\" is:\"%s\" default:\"%s\"\n", v.Name, v.String, v.ResetString))
		} else {
			e.CVars.Set(v.Name, args[1])
		}
		return true
	}
	return e.SV.ConsoleCommand(args)
}

// LoadMap tears the current game down and brings the named map up: BSP →
// collision → sectors → config strings → game module init → warm-up →
// local client connect → presentation module load.
func (e *Engine) LoadMap(name string) error {
	e.CL.Disconnect()
	e.SV.Shutdown()
	e.Loop.Reset()
	e.toServerProcessed = 0
	e.CVars.ApplyAllLatched()

	data := e.FS.Load("maps/" + name + ".bsp")
	if data == nil {
		return fmt.Errorf("maps/%s.bsp not found", name)
	}
	world, err := bsp.Parse(data)
	if err != nil {
		return fmt.Errorf("maps/%s.bsp: %v", name, err)
	}
	clip := cm.Load(world)

	game := e.FS.Load("vm/qagame.qvm")
	if game == nil {
		return fmt.Errorf("vm/qagame.qvm not found")
	}
	if err := e.SV.Spawn(name, clip, game, 0); err != nil {
		return err
	}
	e.CVars.ForceSet("sv_running", "1")
	e.mapName = name

	userinfo := e.CVars.InfoString(cvar.UserInfo)
	if err := e.SV.ConnectClient(0, userinfo); err != nil {
		e.Console.Warn(fmt.Sprintf("local client refused: %v\n", err))
		return nil
	}
	// one tick so the first snapshot exists before the presentation runs
	e.SV.Tick()

	cgame := e.FS.Load("vm/cgame.qvm")
	if cgame == nil {
		e.Console.Warn("vm/cgame.qvm not found; running headless\n")
		return nil
	}
	if err := e.CL.Connect(0, cgame); err != nil {
		e.Console.Warn(fmt.Sprintf("presentation load failed: %v\n", err))
	}
	return nil
}

// MapName returns the running map, empty when dead.
func (e *Engine) MapName() string {
	if e.SV.State() != server.StateGame {
		return ""
	}
	return e.mapName
}

// Shutdown stops everything and renders the archive cvars for the shell
// to persist.
func (e *Engine) Shutdown() string {
	e.CL.Disconnect()
	e.CL.ShutdownUI()
	e.SV.Shutdown()
	e.CVars.ForceSet("sv_running", "0")
	return e.CVars.WriteVariables()
}
