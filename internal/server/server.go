// Package server owns the authoritative world: the game VM and its host
// boundary, client slots, config strings, entity linkage, and per-tick
// snapshot construction.
package server

import (
	"fmt"

	"arena3/internal/cm"
	"arena3/internal/command"
	"arena3/internal/cvar"
	"arena3/internal/host"
	"arena3/internal/qvm"
	"arena3/internal/relay"
	"arena3/internal/snap"
	"arena3/internal/wire"
	"arena3/internal/world"
)

// State is the server lifecycle.
type State int

const (
	StateDead State = iota
	StateLoading
	StateGame
)

// TickMsec is the fixed simulation step.
const TickMsec = 50

// Client is one connected player slot.
type Client struct {
	Active   bool
	IsBot    bool
	Name     string
	Userinfo string
	LastCmd  wire.UserCmd
	Snaps    snap.Ring
}

// Deps are the capabilities and sibling subsystems the server consumes,
// injected by the engine context.
type Deps struct {
	Console host.Console
	FS      host.FileSystem
	Clock   host.Clock
	CVars   *cvar.Registry
	Cmds    *command.System
	Relay   *relay.Loopback
}

// Server is the authoritative simulation.
type Server struct {
	d Deps

	state State
	Time  int32 // sv.time, advances in whole ticks

	clip  *cm.ClipMap
	world *world.World
	gvm   *qvm.VM

	configStrings [wire.MaxConfigStrings]string
	clients       [MaxClients]Client

	// game data located by the VM via its boundary
	gentBase     int32
	gentSize     int32
	numGEntities int32
	clientBase   int32
	clientSize   int32

	// entity-token iterator over the world's entities lump
	entTokens   []string
	entTokenPos int

	// current console argument frame for the ARGC/ARGV traps
	args []string

	// registered vmCvars for CVAR_UPDATE polling
	vmCvars []string

	debugPolys  map[int32]struct{}
	nextPolyID  int32
	warnedTraps map[int32]struct{}

	// MetricSyscalls counts boundary crossings for the observability
	// layer; read racily by the debug server, written only on the
	// simulation path.
	MetricSyscalls uint64
}

// New returns a dead server awaiting a spawn.
func New(d Deps) *Server {
	return &Server{
		d:           d,
		debugPolys:  make(map[int32]struct{}),
		warnedTraps: make(map[int32]struct{}),
	}
}

// State returns the lifecycle state.
func (sv *Server) State() State { return sv.state }

// ClipMap exposes the loaded collision world (nil when dead).
func (sv *Server) ClipMap() *cm.ClipMap { return sv.clip }

// World exposes the linkage tree (nil when dead).
func (sv *Server) World() *world.World { return sv.world }

// GameVM exposes the running game module (nil when dead).
func (sv *Server) GameVM() *qvm.VM { return sv.gvm }

// Client returns a client slot.
func (sv *Server) Client(num int) *Client {
	if num < 0 || num >= MaxClients {
		return nil
	}
	return &sv.clients[num]
}

// Spawn brings the server up on a parsed world and a game module image:
// collision and linkage initialize, default config strings publish, the
// game VM loads and runs its init entry, then three warm-up ticks run
// before the server goes live.
func (sv *Server) Spawn(mapName string, clip *cm.ClipMap, image []byte, startTime int32) error {
	sv.Shutdown()
	sv.state = StateLoading
	sv.Time = startTime

	sv.clip = clip
	mins, maxs := clip.InlineModelBounds(0)
	sv.world = world.New(mins, maxs)

	sv.entTokens = command.Tokenize(clip.EntityString())
	sv.entTokenPos = 0

	sv.d.CVars.ForceSet("mapname", mapName)
	sv.configStrings[CSServerInfo] = sv.d.CVars.InfoString(cvar.ServerInfo)
	sv.configStrings[CSSystemInfo] = sv.d.CVars.InfoString(cvar.SystemInfo)

	sv.gvm = qvm.New("game", sv.d.Console, sv.dispatch)
	if err := sv.gvm.Load(image); err != nil {
		sv.state = StateDead
		sv.gvm = nil
		return err
	}

	sv.gvm.Call(GameInit, sv.Time, 0, 0) // levelTime, randomSeed, restart
	if sv.gvm.Aborted() {
		sv.Shutdown()
		return fmt.Errorf("game module aborted during init")
	}

	// warm-up ticks let the game settle spawn events before clients join
	for i := 0; i < 3; i++ {
		sv.Time += TickMsec
		sv.gvm.Call(GameRunFrame, sv.Time)
		if sv.gvm.Aborted() {
			sv.Shutdown()
			return fmt.Errorf("game module aborted during warm-up")
		}
	}

	sv.state = StateGame
	sv.d.Console.Print(fmt.Sprintf("Server spawned: %s\n", mapName))
	return nil
}

// Shutdown tears the simulation down, telling the game module first when
// it is still alive.
func (sv *Server) Shutdown() {
	if sv.gvm != nil && !sv.gvm.Aborted() {
		sv.gvm.Call(GameShutdown, 0)
	}
	sv.gvm = nil
	sv.clip = nil
	sv.world = nil
	sv.state = StateDead
	sv.gentBase, sv.gentSize, sv.numGEntities = 0, 0, 0
	sv.clientBase, sv.clientSize = 0, 0
	for i := range sv.clients {
		sv.clients[i] = Client{}
	}
	for i := range sv.configStrings {
		sv.configStrings[i] = ""
	}
}

// ConnectClient attaches a client slot and runs it through the game
// module's connect and begin entries.
func (sv *Server) ConnectClient(num int, userinfo string) error {
	cl := sv.Client(num)
	if cl == nil || sv.state != StateGame {
		return fmt.Errorf("no slot %d to connect", num)
	}
	cl.Active = true
	cl.Userinfo = userinfo
	cl.Name = infoValue(userinfo, "name")

	denied := sv.gvm.Call(GameClientConnect, int32(num), 1, 0)
	if sv.gvm.Aborted() {
		return fmt.Errorf("game module aborted during client connect")
	}
	if denied != 0 {
		cl.Active = false
		return fmt.Errorf("connection refused for client %d", num)
	}
	sv.gvm.Call(GameClientBegin, int32(num))
	return nil
}

// DropClient detaches a client slot, notifying the game module.
func (sv *Server) DropClient(num int, reason string) {
	cl := sv.Client(num)
	if cl == nil || !cl.Active {
		return
	}
	if sv.gvm != nil && !sv.gvm.Aborted() {
		sv.gvm.Call(GameClientDisconnect, int32(num))
	}
	cl.Active = false
	sv.d.Console.Print(fmt.Sprintf("client %d dropped: %s\n", num, reason))
}

// SetUserCmd stores a client's most recent input command.
func (sv *Server) SetUserCmd(num int, cmd wire.UserCmd) {
	if cl := sv.Client(num); cl != nil {
		cl.LastCmd = cmd
	}
}

// ClientCommand forwards one tokenized console command into the game
// module on behalf of a client.
func (sv *Server) ClientCommand(num int, args []string) {
	if sv.state != StateGame {
		return
	}
	saved := sv.args
	sv.args = args
	sv.gvm.Call(GameClientCommand, int32(num))
	sv.args = saved
}

// ConsoleCommand offers a tokenized command to the game module's console
// entry; false means the game did not recognize it.
func (sv *Server) ConsoleCommand(args []string) bool {
	if sv.state != StateGame {
		return false
	}
	saved := sv.args
	sv.args = args
	r := sv.gvm.Call(GameConsoleCommand, 0)
	sv.args = saved
	return r != 0
}

// Tick advances the simulation one fixed step: every active non-bot client
// thinks, the game frame runs, bots get their frame, and per-client
// snapshots capture the result.
func (sv *Server) Tick() {
	if sv.state != StateGame {
		return
	}
	sv.Time += TickMsec

	for i := range sv.clients {
		cl := &sv.clients[i]
		if !cl.Active || cl.IsBot {
			continue
		}
		sv.gvm.Call(GameClientThink, int32(i))
		if sv.gvm.Aborted() {
			sv.abortGame()
			return
		}
	}

	sv.gvm.Call(GameRunFrame, sv.Time)
	if sv.gvm.Aborted() {
		sv.abortGame()
		return
	}

	sv.gvm.Call(BotAIStartFrame, sv.Time)
	if sv.gvm.Aborted() {
		sv.abortGame()
		return
	}

	sv.buildSnapshots()
}

func (sv *Server) abortGame() {
	sv.d.Console.Error("game module aborted; server going dead\n")
	sv.Shutdown()
}

// buildSnapshots captures one snapshot per active client: the client's
// player state by value plus every linked entity's state. Area visibility
// is approximated as always-visible; the area mask stays zero.
func (sv *Server) buildSnapshots() {
	ents := sv.collectSnapshotEntities()
	for i := range sv.clients {
		cl := &sv.clients[i]
		if !cl.Active {
			continue
		}
		ps := sv.playerState(i)
		cl.Snaps.Capture(sv.Time, ps.Ping(), ps, ents)
	}
}

func (sv *Server) collectSnapshotEntities() []*wire.EntityState {
	if sv.gentSize == 0 {
		return nil
	}
	var ents []*wire.EntityState
	for num := int32(0); num < sv.numGEntities && len(ents) < snap.MaxSnapshotEntities; num++ {
		addr := sv.gentBase + num*sv.gentSize
		if sv.gvm.ReadI32(addr+wire.ShLinked) == 0 {
			continue
		}
		es := &wire.EntityState{}
		sv.gvm.ReadBytes(addr, es.B[:])
		// the slot is authoritative for the number the wire carries
		es.SetNumber(num)
		ents = append(ents, es)
	}
	return ents
}

// playerState reads the client's 468-byte player record from VM memory.
func (sv *Server) playerState(num int) *wire.PlayerState {
	ps := &wire.PlayerState{}
	if sv.clientSize != 0 {
		sv.gvm.ReadBytes(sv.clientBase+int32(num)*sv.clientSize, ps.B[:])
	}
	return ps
}

// ConfigString returns slot idx, empty when out of range.
func (sv *Server) ConfigString(idx int) string {
	if idx < 0 || idx >= wire.MaxConfigStrings {
		return ""
	}
	return sv.configStrings[idx]
}

// SetConfigString stores a slot and broadcasts the change to the client.
func (sv *Server) SetConfigString(idx int, s string) {
	if idx < 0 || idx >= wire.MaxConfigStrings {
		return
	}
	if sv.configStrings[idx] == s {
		return
	}
	sv.configStrings[idx] = s
	if sv.state == StateGame {
		sv.d.Relay.ToClient.Send(fmt.Sprintf("cs %d \"%s\"", idx, s))
	}
}

// infoValue extracts a key from a backslash-separated info string.
func infoValue(info, key string) string {
	fields := splitInfo(info)
	return fields[key]
}

func splitInfo(info string) map[string]string {
	out := make(map[string]string)
	parts := make([]string, 0, 16)
	start := 0
	for i := 0; i <= len(info); i++ {
		if i == len(info) || info[i] == '\\' {
			parts = append(parts, info[start:i])
			start = i + 1
		}
	}
	// leading backslash yields an empty first field
	if len(parts) > 0 && parts[0] == "" {
		parts = parts[1:]
	}
	for i := 0; i+1 < len(parts); i += 2 {
		out[parts[i]] = parts[i+1]
	}
	return out
}
