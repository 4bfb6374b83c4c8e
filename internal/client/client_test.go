package client

import (
	"strings"
	"testing"

	"arena3/internal/bsp/bsptest"
	"arena3/internal/cm"
	"arena3/internal/command"
	"arena3/internal/cvar"
	"arena3/internal/host"
	"arena3/internal/qvm"
	"arena3/internal/relay"
	"arena3/internal/server"
	"arena3/internal/wire"
)

// idleImage returns a module whose every entry returns zero.
func idleImage() []byte {
	a := qvm.NewAssembler()
	a.Enter(64)
	a.Const(0)
	a.Leave(64)
	a.Bss(1 << 16)
	return a.Build()
}

type fixture struct {
	cl    *Client
	sv    *server.Server
	con   *host.RecordingConsole
	loop  *relay.Loopback
	rend  *host.NullRenderer
	cvars *cvar.Registry
	cmds  *command.System
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		con:  &host.RecordingConsole{},
		loop: &relay.Loopback{},
		rend: &host.NullRenderer{},
	}
	f.cvars = cvar.NewRegistry(f.con)
	f.cmds = command.NewSystem(f.con)
	clock := &host.FixedClock{Now: 5000}
	fs := host.NewMemFS(nil)

	f.sv = server.New(server.Deps{
		Console: f.con, FS: fs, Clock: clock,
		CVars: f.cvars, Cmds: f.cmds, Relay: f.loop,
	})
	clip := cm.Load(bsptest.World(bsptest.Box{
		Mins: [3]float32{-512, -512, -64},
		Maxs: [3]float32{512, 512, 39.75},
	}))
	if err := f.sv.Spawn("q3dm_test", clip, idleImage(), 0); err != nil {
		t.Fatalf("server Spawn: %v", err)
	}
	if err := f.sv.ConnectClient(0, "\\name\\local"); err != nil {
		t.Fatalf("ConnectClient: %v", err)
	}

	f.cl = New(Deps{
		Console: f.con, FS: fs, Clock: clock,
		CVars: f.cvars, Cmds: f.cmds, Relay: f.loop,
		Renderer: f.rend, Audio: &host.NullAudio{}, Input: &host.NullInput{},
		SV: f.sv,
	})
	if err := f.cl.Connect(0, idleImage()); err != nil {
		t.Fatalf("client Connect: %v", err)
	}
	return f
}

func args16(vals ...int32) []int32 {
	out := make([]int32, 16)
	copy(out, vals)
	return out
}

// TestPrintThroughBytecode runs a real cgame image whose init entry prints
// a literal through the boundary.
func TestPrintThroughBytecode(t *testing.T) {
	f := newFixture(t)

	a := qvm.NewAssembler()
	msg := a.DataString("hello from cgame\n")
	a.Enter(16)
	a.Const(msg)
	a.Arg(8)
	a.Syscall(cgPrint)
	a.Pop()
	a.Const(0)
	a.Leave(16)
	a.Bss(1 << 14)

	if err := f.cl.Connect(0, a.Build()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	found := false
	for _, line := range f.con.Lines {
		if strings.Contains(line, "hello from cgame") {
			found = true
		}
	}
	if !found {
		t.Fatalf("print not delivered: %v", f.con.Lines)
	}
}

// TestSnapshotPollRoundTrip captures a snapshot server-side and reads it
// back through the presentation boundary, checking the exact layout.
func TestSnapshotPollRoundTrip(t *testing.T) {
	f := newFixture(t)
	slot := f.sv.Client(0)

	var ps wire.PlayerState
	ps.SetOrigin([3]float32{10, 20, 64})
	ents := make([]*wire.EntityState, 3)
	for i := range ents {
		es := &wire.EntityState{}
		es.SetNumber(int32(i + 1))
		es.SetOrigin([3]float32{float32(i) * 64, 0, 16})
		ents[i] = es
	}
	seq := slot.Snaps.Capture(200, 15, &ps, ents)

	vm := f.cl.cgvm
	const (
		seqAddr  = 0x1000
		timeAddr = 0x1004
		snapAddr = 0x2000
	)
	f.cl.cgDispatch(args16(cgGetCurrentSnapshotNumber, seqAddr, timeAddr))
	if got := vm.ReadI32(seqAddr); got != int32(seq) {
		t.Fatalf("current snapshot number = %d, want %d", got, seq)
	}
	if got := vm.ReadI32(timeAddr); got != 200 {
		t.Fatalf("current snapshot time = %d", got)
	}

	if r := f.cl.cgDispatch(args16(cgGetSnapshot, int32(seq), snapAddr)); r != 1 {
		t.Fatalf("GetSnapshot = %d", r)
	}
	if got := vm.ReadI32(snapAddr + wire.SnapServerTimeOfs); got != 200 {
		t.Fatalf("serverTime in VM = %d", got)
	}
	var psb [wire.PlayerStateBytes]byte
	vm.ReadBytes(snapAddr+wire.SnapPlayerStateOfs, psb[:])
	if psb != ps.B {
		t.Fatal("player state bytes differ across the boundary")
	}
	if got := vm.ReadI32(snapAddr + wire.SnapNumEntitiesOfs); got != 3 {
		t.Fatalf("numEntities = %d", got)
	}
	for i := 0; i < 3; i++ {
		base := snapAddr + wire.SnapEntitiesOfs + int32(i)*wire.EntityStateBytes
		if got := vm.ReadI32(base + wire.ESNumber); got != int32(i+1) {
			t.Fatalf("entity %d number = %d", i, got)
		}
	}

	// a missed poll returns zero
	if r := f.cl.cgDispatch(args16(cgGetSnapshot, int32(seq)+5, snapAddr)); r != 0 {
		t.Fatal("future snapshot poll succeeded")
	}
}

// TestServerCommandPoll mirrors the reliable-stream scenario through the
// presentation boundary.
func TestServerCommandPoll(t *testing.T) {
	f := newFixture(t)
	f.loop.ToClient.Send("print a")
	f.loop.ToClient.Send("print b")

	if r := f.cl.cgDispatch(args16(cgGetServerCommand, 1)); r != 1 {
		t.Fatal("sequence 1 missing")
	}
	if len(f.cl.args) != 2 || f.cl.args[1] != "a" {
		t.Fatalf("args = %q", f.cl.args)
	}
	if r := f.cl.cgDispatch(args16(cgGetServerCommand, 2)); r != 1 {
		t.Fatal("sequence 2 missing")
	}
	if f.cl.args[1] != "b" {
		t.Fatalf("args = %q", f.cl.args)
	}
	if r := f.cl.cgDispatch(args16(cgGetServerCommand, 3)); r != 0 {
		t.Fatal("sequence 3 should not exist")
	}
	if f.loop.ToClient.Acknowledged() != 2 {
		t.Fatalf("ack = %d", f.loop.ToClient.Acknowledged())
	}
}

func TestUserCmdRing(t *testing.T) {
	f := newFixture(t)
	f.cl.PushUserCmd(wire.UserCmd{ServerTime: 100, Forward: 50})
	f.cl.PushUserCmd(wire.UserCmd{ServerTime: 150, Forward: 60})

	if r := f.cl.cgDispatch(args16(cgGetCurrentCmdNumber)); r != 2 {
		t.Fatalf("cmd number = %d", r)
	}
	if r := f.cl.cgDispatch(args16(cgGetUserCmd, 2, 0x3000)); r != 1 {
		t.Fatal("latest cmd missing")
	}
	var b [wire.UserCmdBytes]byte
	f.cl.cgvm.ReadBytes(0x3000, b[:])
	var cmd wire.UserCmd
	cmd.Decode(b[:])
	if cmd.ServerTime != 150 || cmd.Forward != 60 {
		t.Fatalf("cmd = %+v", cmd)
	}
	if r := f.cl.cgDispatch(args16(cgGetUserCmd, 99, 0x3000)); r != 0 {
		t.Fatal("missing cmd reported present")
	}
}

// TestWeaponValueOverridesPush: SETUSERCMDVALUE applies to later pushes.
func TestWeaponValueOverridesPush(t *testing.T) {
	f := newFixture(t)
	f.cl.cgDispatch(args16(cgSetUserCmdValue, 7))
	f.cl.PushUserCmd(wire.UserCmd{ServerTime: 100})
	cmd, ok := f.cl.cmdAt(1)
	if !ok || cmd.Weapon != 7 {
		t.Fatalf("weapon = %d", cmd.Weapon)
	}
}

func TestPredictionAdvancesFromSnapshot(t *testing.T) {
	f := newFixture(t)
	slot := f.sv.Client(0)

	var ps wire.PlayerState
	ps.SetOrigin([3]float32{0, 0, 64})
	ps.SetCommandTime(1000)
	slot.Snaps.Capture(1000, 0, &ps, nil)

	// two pending commands beyond the snapshot
	f.cl.PushUserCmd(wire.UserCmd{ServerTime: 1050, Forward: 127})
	f.cl.PushUserCmd(wire.UserCmd{ServerTime: 1100, Forward: 127})
	f.cl.predict()

	pred := f.cl.PredictedState()
	if pred.CommandTime() != 1100 {
		t.Fatalf("predicted command time = %d", pred.CommandTime())
	}
	if pred.Origin()[0] <= 0 {
		t.Fatalf("prediction did not advance: %v", pred.Origin())
	}
}

func TestGameStateLayout(t *testing.T) {
	f := newFixture(t)
	f.sv.SetConfigString(3, "cs-three")

	vm := f.cl.cgvm
	f.cl.cgDispatch(args16(cgGetGameState, 0x4000))

	ofs := vm.ReadI32(0x4000 + 3*4)
	if ofs == 0 {
		t.Fatal("configstring 3 has no offset")
	}
	s := vm.ReadString(0x4000 + 4*wire.MaxConfigStrings + ofs)
	if s != "cs-three" {
		t.Fatalf("configstring through gamestate = %q", s)
	}
	// unset slots share the empty string at offset 0
	if vm.ReadI32(0x4000+9*4) != 0 {
		t.Fatal("unset slot offset not zero")
	}
}

func TestCgameAbortDisconnects(t *testing.T) {
	f := newFixture(t)
	vm := f.cl.cgvm
	vm.WriteString(0x5000, "cgame blew up", 64)
	f.cl.cgDispatch(args16(cgError, 0x5000))

	f.cl.Frame(100, 100)
	if f.cl.Connected() {
		t.Fatal("client still connected after module abort")
	}
}

func TestUIClientState(t *testing.T) {
	f := newFixture(t)
	if err := f.cl.LoadUI(idleImage()); err != nil {
		t.Fatalf("LoadUI: %v", err)
	}
	if r := f.cl.uiDispatch(args16(uiGetClientState)); r != caActive {
		t.Fatalf("client state = %d", r)
	}
	f.cl.Disconnect()
	if r := f.cl.uiDispatch(args16(uiGetClientState)); r != caDisconnected {
		t.Fatalf("client state after disconnect = %d", r)
	}
}

func TestRendererForwarding(t *testing.T) {
	f := newFixture(t)
	f.cl.cgDispatch(args16(cgRClearScene))
	f.cl.cgDispatch(args16(cgRAddRefEntityToScene, 0x6000))
	f.cl.cgDispatch(args16(cgRAddRefEntityToScene, 0x6000))
	f.cl.cgDispatch(args16(cgRRenderScene, 0x7000))
	if f.rend.Entities != 2 || f.rend.Scenes != 1 {
		t.Fatalf("renderer saw %d entities, %d scenes", f.rend.Entities, f.rend.Scenes)
	}

	h1 := f.cl.cgDispatch(args16(cgRRegisterShader, 0x6100))
	h2 := f.cl.cgDispatch(args16(cgRRegisterShader, 0x6100))
	if h1 != h2 || h1 == 0 {
		t.Fatalf("shader handles unstable: %d vs %d", h1, h2)
	}
}

func TestSnapshotUnusedForUnconnectedSlot(t *testing.T) {
	f := newFixture(t)
	// reading from a slot with no captures yields zero cleanly
	if r := f.cl.cgDispatch(args16(cgGetSnapshot, 1, 0x2000)); r != 0 {
		t.Fatal("empty ring returned a snapshot")
	}
}
