package engine

import (
	"math"
	"strings"
	"testing"

	"arena3/internal/bsp"
	"arena3/internal/bsp/bsptest"
	"arena3/internal/cvar"
	"arena3/internal/host"
	"arena3/internal/qvm"
	"arena3/internal/server"
	"arena3/internal/wire"
)

// game module syscall numbers used by the fixture image.
const (
	trapLocateGameData = 15
	trapLinkEntity     = 30
)

const (
	gentsBase   = 0x2000
	gentSize    = 512
	clientsBase = 0x6000
	clientSize  = 512
)

func fbits(v float32) int32 { return int32(math.Float32bits(v)) }

// gameImage assembles a module that, on its init entry, locates its game
// data and links one entity at (50,0,16); every other entry returns zero.
func gameImage() []byte {
	a := qvm.NewAssembler()
	a.Bss(1 << 16)

	ent := int32(gentsBase + gentSize) // slot 1

	a.Enter(64)
	a.Local(72)
	a.Load4()
	a.Const(0) // GAME_INIT
	skip := a.Mark()
	a.BranchNE(0) // patched below

	store := func(addr, val int32) {
		a.Const(addr)
		a.Const(val)
		a.Store4()
	}

	// locate the entity and client arrays for the host
	a.Const(gentsBase)
	a.Arg(8)
	a.Const(4)
	a.Arg(12)
	a.Const(gentSize)
	a.Arg(16)
	a.Const(clientsBase)
	a.Arg(20)
	a.Const(clientSize)
	a.Arg(24)
	a.Syscall(trapLocateGameData)
	a.Pop()

	// entity 1: a body-sized box at (50, 0, 16)
	store(ent+wire.ESNumber, 1)
	store(ent+wire.ESEType, 2)
	store(ent+wire.ESOrigin, fbits(50))
	store(ent+wire.ESOrigin+8, fbits(16))
	store(ent+wire.ShCurrentOrigin, fbits(50))
	store(ent+wire.ShCurrentOrigin+8, fbits(16))
	store(ent+wire.ShMins, fbits(-8))
	store(ent+wire.ShMins+4, fbits(-8))
	store(ent+wire.ShMins+8, fbits(-8))
	store(ent+wire.ShMaxs, fbits(8))
	store(ent+wire.ShMaxs+4, fbits(8))
	store(ent+wire.ShMaxs+8, fbits(8))
	store(ent+wire.ShContents, 0x02000000) // CONTENTS_BODY

	a.Const(ent)
	a.Arg(8)
	a.Syscall(trapLinkEntity)
	a.Pop()

	out := a.Mark()
	a.Patch(skip, out)
	a.Const(0)
	a.Leave(64)
	return a.Build()
}

func idleImage() []byte {
	a := qvm.NewAssembler()
	a.Enter(64)
	a.Const(0)
	a.Leave(64)
	a.Bss(1 << 16)
	return a.Build()
}

type world struct {
	e     *Engine
	con   *host.RecordingConsole
	clock *host.FixedClock
	fs    *host.MemFS
	rend  *host.NullRenderer
}

func newWorld(t *testing.T) *world {
	t.Helper()
	mapData := bsp.Encode(bsptest.World(bsptest.Box{
		Mins: [3]float32{-512, -512, -64},
		Maxs: [3]float32{512, 512, 0},
	}))
	w := &world{
		con:   &host.RecordingConsole{},
		clock: &host.FixedClock{Now: 10000},
		rend:  &host.NullRenderer{},
		fs: host.NewMemFS(map[string][]byte{
			"maps/arena_test.bsp": mapData,
			"vm/qagame.qvm":       gameImage(),
			"vm/cgame.qvm":        idleImage(),
			"vm/ui.qvm":           idleImage(),
			"default.cfg":         []byte("seta sv_hostname \"testhost\"\n"),
		}),
	}
	w.e = New(Options{
		Console:  w.con,
		FS:       w.fs,
		Clock:    w.clock,
		Renderer: w.rend,
		Audio:    &host.NullAudio{},
		Input:    &host.NullInput{},
	})
	w.e.Init()
	return w
}

func (w *world) frame(ms int) {
	w.clock.Advance(ms)
	w.e.Frame()
}

func TestInitSourcesConfigs(t *testing.T) {
	w := newWorld(t)
	if got := w.e.CVars.VariableString("sv_hostname"); got != "testhost" {
		t.Fatalf("sv_hostname = %q", got)
	}
	if !w.e.CL.UIActive() {
		t.Fatal("ui module not loaded")
	}
}

func TestMapLoadBringsUpGame(t *testing.T) {
	w := newWorld(t)
	w.e.Cmds.Append("map arena_test")
	w.frame(10)

	if w.e.SV.State() != server.StateGame {
		t.Fatalf("server state = %d", w.e.SV.State())
	}
	if w.e.CVars.VariableString("sv_running") != "1" {
		t.Fatal("sv_running not set")
	}
	if w.e.MapName() != "arena_test" {
		t.Fatalf("map name = %q", w.e.MapName())
	}
	if !w.e.CL.Connected() {
		t.Fatal("local client not connected")
	}

	// the fixture module linked entity 1; it must appear in the snapshot
	slot := w.e.SV.Client(0)
	snapshot := slot.Snaps.Get(slot.Snaps.Current())
	if snapshot == nil {
		t.Fatal("no snapshot after load")
	}
	if snapshot.Count != 1 {
		t.Fatalf("snapshot entities = %d", snapshot.Count)
	}
	es := slot.Snaps.Entity(snapshot, 0)
	if es.Number() != 1 || es.Origin() != ([3]float32{50, 0, 16}) {
		t.Fatalf("entity = %d at %v", es.Number(), es.Origin())
	}
}

func TestSchedulerAdvancesWholeTicks(t *testing.T) {
	w := newWorld(t)
	w.e.Cmds.Append("map arena_test")
	w.frame(10)
	base := w.e.SV.Time

	w.frame(30) // under one tick: no advance
	if w.e.SV.Time != base {
		t.Fatalf("time advanced on partial tick: %d -> %d", base, w.e.SV.Time)
	}

	w.frame(30) // residual 61 ms (the loading frame counted 1): exactly one tick
	if w.e.SV.Time != base+server.TickMsec {
		t.Fatalf("time = %d, want %d", w.e.SV.Time, base+server.TickMsec)
	}

	w.frame(110) // plus 11 residual: two more ticks
	if w.e.SV.Time != base+3*server.TickMsec {
		t.Fatalf("time = %d, want %d", w.e.SV.Time, base+3*server.TickMsec)
	}
}

func TestFrameMsecClamped(t *testing.T) {
	w := newWorld(t)
	w.e.Cmds.Append("map arena_test")
	w.frame(10)
	base := w.e.SV.Time

	// a huge stall may only produce maxFrameMsec worth of ticks
	w.frame(10000)
	if got := w.e.SV.Time - base; got > maxFrameMsec {
		t.Fatalf("one frame advanced %d ms", got)
	}
}

func TestUserCmdReachesGame(t *testing.T) {
	w := newWorld(t)
	w.e.Cmds.Append("map arena_test")
	w.frame(10)

	w.e.PushInput(wire.UserCmd{Forward: 127, Buttons: 1})
	w.frame(60)

	cl := w.e.SV.Client(0)
	if cl.LastCmd.Forward != 127 || cl.LastCmd.Buttons != 1 {
		t.Fatalf("server cmd = %+v", cl.LastCmd)
	}
	if cl.LastCmd.ServerTime == 0 {
		t.Fatal("command not stamped with server time")
	}
	if w.e.CL.CurrentCmdNumber() != 1 {
		t.Fatalf("client cmd ring = %d", w.e.CL.CurrentCmdNumber())
	}
}

func TestMissingMapFailsCleanly(t *testing.T) {
	w := newWorld(t)
	w.e.Cmds.Append("map nosuchmap")
	w.frame(10)

	if w.e.SV.State() != server.StateDead {
		t.Fatal("server not dead after failed load")
	}
	if len(w.con.Errors) == 0 {
		t.Fatal("failure not reported")
	}
}

func TestConsoleFallbackToCvar(t *testing.T) {
	w := newWorld(t)
	w.e.Cmds.Append("sv_hostname myarena")
	w.frame(10)
	if got := w.e.CVars.VariableString("sv_hostname"); got != "myarena" {
		t.Fatalf("sv_hostname = %q", got)
	}

	w.e.Cmds.Append("sv_hostname")
	w.frame(10)
	found := false
	for _, line := range w.con.Lines {
		if strings.Contains(line, "myarena") {
			found = true
		}
	}
	if !found {
		t.Fatal("cvar print missing")
	}
}

func TestDevmapEnablesCheats(t *testing.T) {
	w := newWorld(t)
	w.e.CVars.Get("g_cheatvalue", "1", cvar.Cheat)
	w.e.Cmds.Append("devmap arena_test")
	w.frame(10)

	w.e.CVars.Set("g_cheatvalue", "99")
	if w.e.CVars.VariableString("g_cheatvalue") != "99" {
		t.Fatal("cheat cvar refused under devmap")
	}
}

func TestShutdownWritesArchive(t *testing.T) {
	w := newWorld(t)
	w.e.Cmds.Append("map arena_test")
	w.frame(10)

	out := w.e.Shutdown()
	if !strings.Contains(out, "seta sv_hostname") {
		t.Fatalf("archive output = %q", out)
	}
	if w.e.SV.State() != server.StateDead {
		t.Fatal("server alive after shutdown")
	}
}

func TestClientCommandForwarding(t *testing.T) {
	w := newWorld(t)
	w.e.Cmds.Append("map arena_test")
	w.frame(10)

	w.e.Loop.ToServer.Send("say hello")
	w.frame(10)
	if w.e.Loop.ToServer.Acknowledged() != 1 {
		t.Fatal("client command not drained")
	}
}
