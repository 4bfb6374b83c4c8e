// Package client hosts the two presentation-side modules: the cgame VM
// that renders the authoritative snapshots and the UI VM. It consumes the
// server through the loopback contracts only — snapshot polls, reliable
// command polls, and the shared collision model.
package client

import (
	"fmt"

	"arena3/internal/cm"
	"arena3/internal/command"
	"arena3/internal/cvar"
	"arena3/internal/host"
	"arena3/internal/pmove"
	"arena3/internal/qvm"
	"arena3/internal/relay"
	"arena3/internal/server"
	"arena3/internal/wire"
)

// Deps are the capabilities and loopback peers injected by the engine.
type Deps struct {
	Console  host.Console
	FS       host.FileSystem
	Clock    host.Clock
	CVars    *cvar.Registry
	Cmds     *command.System
	Relay    *relay.Loopback
	Renderer host.Renderer
	Audio    host.Audio
	Input    host.Input
	SV       *server.Server

	// VidWidth and VidHeight feed the glconfig the modules query.
	VidWidth  int
	VidHeight int
}

// Client is the local presentation side.
type Client struct {
	d Deps

	clientNum int
	connected bool

	cgvm *qvm.VM
	uivm *qvm.VM

	// ring of recent user commands for the GETUSERCMD traps
	cmds      [cmdRingSize]wire.UserCmd
	cmdNumber int

	// tokens of the server command most recently fetched by the cgame
	args    []string
	argsRaw string

	userCmdWeapon int32

	vmCvars []string

	// commands registered by the modules route into the shared system
	addedCommands map[string]struct{}

	predicted wire.PlayerState
	warned    map[int32]struct{}

	// MetricSyscalls counts boundary crossings for observability.
	MetricSyscalls uint64
}

// New returns a disconnected client.
func New(d Deps) *Client {
	if d.VidWidth == 0 {
		d.VidWidth = 640
	}
	if d.VidHeight == 0 {
		d.VidHeight = 480
	}
	return &Client{
		d:             d,
		warned:        make(map[int32]struct{}),
		addedCommands: make(map[string]struct{}),
	}
}

// Connected reports whether a cgame module is live.
func (cl *Client) Connected() bool { return cl.connected }

// UIActive reports whether a UI module is live.
func (cl *Client) UIActive() bool { return cl.uivm != nil }

// PredictedState returns the last predicted player state.
func (cl *Client) PredictedState() *wire.PlayerState { return &cl.predicted }

// Connect loads the presentation module for the given client slot and
// runs its init entry against the current snapshot and command sequences.
func (cl *Client) Connect(clientNum int, image []byte) error {
	cl.Disconnect()
	cl.clientNum = clientNum

	cl.cgvm = qvm.New("cgame", cl.d.Console, cl.cgDispatch)
	if err := cl.cgvm.Load(image); err != nil {
		cl.cgvm = nil
		return err
	}

	snapSeq := 0
	if slot := cl.d.SV.Client(clientNum); slot != nil {
		snapSeq = slot.Snaps.Current()
	}
	cl.cgvm.Call(CGInit, int32(snapSeq), int32(cl.d.Relay.ToClient.Sequence()), int32(clientNum))
	if cl.cgvm.Aborted() {
		cl.cgvm = nil
		return fmt.Errorf("presentation module aborted during init")
	}
	cl.connected = true
	return nil
}

// Disconnect shuts the presentation module down.
func (cl *Client) Disconnect() {
	if cl.cgvm != nil && !cl.cgvm.Aborted() {
		cl.cgvm.Call(CGShutdown)
	}
	cl.cgvm = nil
	cl.connected = false
	for name := range cl.addedCommands {
		cl.d.Cmds.Unregister(name)
	}
	cl.addedCommands = make(map[string]struct{})
}

// LoadUI loads the UI module and runs its init entry.
func (cl *Client) LoadUI(image []byte) error {
	cl.ShutdownUI()
	cl.uivm = qvm.New("ui", cl.d.Console, cl.uiDispatch)
	if err := cl.uivm.Load(image); err != nil {
		cl.uivm = nil
		return err
	}
	cl.uivm.Call(UIInit, 0)
	if cl.uivm.Aborted() {
		cl.uivm = nil
		return fmt.Errorf("ui module aborted during init")
	}
	return nil
}

// ShutdownUI unloads the UI module.
func (cl *Client) ShutdownUI() {
	if cl.uivm != nil && !cl.uivm.Aborted() {
		cl.uivm.Call(UIShutdown)
	}
	cl.uivm = nil
}

// PushUserCmd appends one input frame to the command ring; the weapon
// value the cgame selected overrides the shell's.
func (cl *Client) PushUserCmd(cmd wire.UserCmd) {
	if cl.userCmdWeapon != 0 {
		cmd.Weapon = byte(cl.userCmdWeapon)
	}
	cl.cmdNumber++
	cl.cmds[cl.cmdNumber&(cmdRingSize-1)] = cmd
}

// CurrentCmdNumber returns the latest pushed command number.
func (cl *Client) CurrentCmdNumber() int { return cl.cmdNumber }

// cmdAt returns the command at a ring number; ok is false once aged out.
func (cl *Client) cmdAt(n int) (wire.UserCmd, bool) {
	if n <= 0 || n > cl.cmdNumber || n <= cl.cmdNumber-cmdRingSize {
		return wire.UserCmd{}, false
	}
	return cl.cmds[n&(cmdRingSize-1)], true
}

// Frame runs one presentation frame: predict the local player forward
// from the latest snapshot, then hand the scene to the cgame module (or
// the UI when disconnected). A module that aborts is discarded.
func (cl *Client) Frame(serverTime int32, realtime int) {
	if cl.connected && cl.cgvm != nil {
		cl.predict()
		cl.cgvm.Call(CGDrawActiveFrame, serverTime, 0, 0)
		if cl.cgvm.Aborted() {
			cl.d.Console.Error("presentation module aborted; disconnecting\n")
			cl.cgvm = nil
			cl.connected = false
		}
		return
	}
	if cl.uivm != nil {
		cl.uivm.Call(UIRefresh, int32(realtime))
		if cl.uivm.Aborted() {
			cl.d.Console.Error("ui module aborted; ui disabled\n")
			cl.uivm = nil
		}
	}
}

// predict replays the commands newer than the latest snapshot through the
// movement core so the local view leads the authoritative state.
func (cl *Client) predict() {
	slot := cl.d.SV.Client(cl.clientNum)
	clip := cl.d.SV.ClipMap()
	if slot == nil || clip == nil {
		return
	}
	snapshot := slot.Snaps.Get(slot.Snaps.Current())
	if snapshot == nil {
		return
	}
	cl.predicted = snapshot.PS

	trace := func(start, end, mins, maxs [3]float32) wire.Trace {
		return clip.BoxTrace(start, end, mins, maxs, 0, cm.MaskPlayerSolid)
	}
	for n := cl.cmdNumber - cmdRingSize + 1; n <= cl.cmdNumber; n++ {
		cmd, ok := cl.cmdAt(n)
		if !ok || cmd.ServerTime <= cl.predicted.CommandTime() {
			continue
		}
		pmove.Run(&pmove.Move{PS: &cl.predicted, Cmd: cmd, Trace: trace})
	}
}

// gameState renders the config string table in the gameState_t layout.
func (cl *Client) gameState() []byte {
	b := make([]byte, wire.GameStateBytes)
	dataCount := 1 // offset 0 is the empty string every unset slot shares
	for i := 0; i < wire.MaxConfigStrings; i++ {
		s := cl.d.SV.ConfigString(i)
		if s == "" {
			continue
		}
		if dataCount+len(s)+1 > wire.MaxGameStateChars {
			break
		}
		wire.PutI32(b, i*4, int32(dataCount))
		copy(b[4*wire.MaxConfigStrings+dataCount:], s)
		dataCount += len(s) + 1
	}
	wire.PutI32(b, 4*wire.MaxConfigStrings+wire.MaxGameStateChars, int32(dataCount))
	return b
}

func (cl *Client) warnOnce(sel int32, which string) {
	key := sel
	if which == "ui" {
		key = sel | 1<<20
	}
	if _, seen := cl.warned[key]; seen {
		return
	}
	cl.warned[key] = struct{}{}
	cl.d.Console.Warn(fmt.Sprintf("unhandled %s syscall %d\n", which, sel))
}
