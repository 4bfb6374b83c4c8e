package server

import (
	"fmt"
	"strconv"
	"strings"

	"arena3/internal/cvar"
	"arena3/internal/host"
	"arena3/internal/traps"
	"arena3/internal/wire"
)

// Entity number sentinels.
const (
	entityNumWorld = 1022
	entityNumNone  = 1023
)

// dispatch is the game VM's system-call callback. Selector ranges: regular
// imports, math/memory traps at 100+, bot library at 200+ (all answered
// with zero here).
func (sv *Server) dispatch(args []int32) int32 {
	sv.MetricSyscalls++
	sel := args[0]

	if sel >= botlibBase {
		sv.warnOnce(sel, "bot library")
		return 0
	}

	switch sel {
	case gPrint:
		sv.d.Console.Print(sv.gvm.ReadString(args[1]))
	case gError:
		sv.d.Console.Error(sv.gvm.ReadString(args[1]))
		sv.gvm.Abort("game module error")
		return -1
	case gMilliseconds:
		return int32(sv.d.Clock.Milliseconds())

	case gCvarRegister:
		return sv.cvarRegister(args)
	case gCvarUpdate:
		return sv.cvarUpdate(args)
	case gCvarSet:
		sv.d.CVars.Set(sv.gvm.ReadString(args[1]), sv.gvm.ReadString(args[2]))
	case gCvarVariableIntegerValue:
		return int32(sv.d.CVars.VariableInteger(sv.gvm.ReadString(args[1])))
	case gCvarVariableStringBuffer:
		sv.gvm.WriteString(args[2], sv.d.CVars.VariableString(sv.gvm.ReadString(args[1])), int(args[3]))

	case gArgc:
		return int32(len(sv.args))
	case gArgv:
		n := int(args[1])
		s := ""
		if n >= 0 && n < len(sv.args) {
			s = sv.args[n]
		}
		sv.gvm.WriteString(args[2], s, int(args[3]))

	case gFSFOpenFile:
		return sv.fsOpen(args)
	case gFSRead:
		buf := make([]byte, args[2])
		sv.d.FS.Read(host.FileHandle(args[3]), buf)
		sv.gvm.WriteBytes(args[1], buf)
	case gFSWrite:
		buf := make([]byte, args[2])
		sv.gvm.ReadBytes(args[1], buf)
		return int32(sv.d.FS.Write(host.FileHandle(args[3]), buf))
	case gFSFCloseFile:
		sv.d.FS.Close(host.FileHandle(args[1]))
	case gFSSeek:
		return int32(sv.d.FS.Seek(host.FileHandle(args[1]), int(args[2]), int(args[3])))
	case gFSGetFileList:
		return sv.fsGetFileList(args)

	case gSendConsoleCommand:
		sv.d.Cmds.Append(sv.gvm.ReadString(args[2]))

	case gLocateGameData:
		sv.gentBase = args[1]
		sv.numGEntities = args[2]
		sv.gentSize = args[3]
		sv.clientBase = args[4]
		sv.clientSize = args[5]

	case gDropClient:
		sv.DropClient(int(args[1]), sv.gvm.ReadString(args[2]))
	case gSendServerCommand:
		// -1 broadcasts; the loopback has a single client either way
		sv.d.Relay.ToClient.Send(sv.gvm.ReadString(args[2]))

	case gSetConfigstring:
		sv.SetConfigString(int(args[1]), sv.gvm.ReadString(args[2]))
	case gGetConfigstring:
		sv.gvm.WriteString(args[2], sv.ConfigString(int(args[1])), int(args[3]))

	case gGetUserinfo:
		if cl := sv.Client(int(args[1])); cl != nil {
			sv.gvm.WriteString(args[2], cl.Userinfo, int(args[3]))
		}
	case gSetUserinfo:
		if cl := sv.Client(int(args[1])); cl != nil {
			cl.Userinfo = sv.gvm.ReadString(args[2])
			cl.Name = infoValue(cl.Userinfo, "name")
		}
	case gGetServerinfo:
		sv.gvm.WriteString(args[1], sv.d.CVars.InfoString(cvar.ServerInfo), int(args[2]))

	case gSetBrushModel:
		sv.setBrushModel(args[1], sv.gvm.ReadString(args[2]))

	case gTrace, gTraceCapsule:
		sv.trace(args)
	case gPointContents:
		return sv.pointContents(args)

	case gInPVS, gInPVSIgnorePortals, gAreasConnected:
		// area visibility is approximated as always-visible in this core
		return 1
	case gAdjustAreaPortalState:
		return 0

	case gLinkEntity:
		sv.linkEntity(args[1])
	case gUnlinkEntity:
		sv.unlinkEntity(args[1])
	case gEntitiesInBox:
		return sv.entitiesInBox(args)
	case gEntityContact, gEntityContactCapsule:
		return sv.entityContact(args)

	case gBotAllocateClient:
		return sv.botAllocateClient()
	case gBotFreeClient:
		if cl := sv.Client(int(args[1])); cl != nil && cl.IsBot {
			cl.Active = false
			cl.IsBot = false
		}

	case gGetUsercmd:
		if cl := sv.Client(int(args[1])); cl != nil {
			var b [wire.UserCmdBytes]byte
			cl.LastCmd.Encode(b[:])
			sv.gvm.WriteBytes(args[2], b[:])
		}
	case gGetEntityToken:
		return sv.getEntityToken(args)

	case gDebugPolygonCreate:
		sv.nextPolyID++
		sv.debugPolys[sv.nextPolyID] = struct{}{}
		return sv.nextPolyID
	case gDebugPolygonDelete:
		delete(sv.debugPolys, args[1])

	case gRealTime:
		// wall-calendar time is a shell concern; the struct zero-fills
		zero := make([]byte, 44)
		sv.gvm.WriteBytes(args[1], zero)
		return 0

	case gSnapVector:
		return traps.SnapVector(sv.gvm, args)

	case gMemset:
		return traps.Memset(sv.gvm, args)
	case gMemcpy:
		return traps.Memcpy(sv.gvm, args)
	case gStrncpy:
		return traps.StrNCpy(sv.gvm, args)
	case gSin:
		return traps.Sin(sv.gvm, args)
	case gCos:
		return traps.Cos(sv.gvm, args)
	case gAtan2:
		return traps.Atan2(sv.gvm, args)
	case gSqrt:
		return traps.Sqrt(sv.gvm, args)
	case gMatrixMultiply:
		return traps.MatrixMultiply(sv.gvm, args)
	case gAngleVectors:
		return traps.AngleVectors(sv.gvm, args)
	case gPerpendicularVector:
		return traps.PerpendicularVector(sv.gvm, args)
	case gFloor:
		return traps.Floor(sv.gvm, args)
	case gCeil:
		return traps.Ceil(sv.gvm, args)
	case gTestPrintInt:
		sv.d.Console.Print(fmt.Sprintf("%s%d\n", sv.gvm.ReadString(args[1]), args[2]))
	case gTestPrintFloat:
		sv.d.Console.Print(fmt.Sprintf("%s%f\n", sv.gvm.ReadString(args[1]), float64(f32(args[2]))))

	default:
		sv.warnOnce(sel, "game")
		return 0
	}
	return 0
}

func (sv *Server) warnOnce(sel int32, which string) {
	if _, seen := sv.warnedTraps[sel]; seen {
		return
	}
	sv.warnedTraps[sel] = struct{}{}
	sv.d.Console.Warn(fmt.Sprintf("unhandled %s syscall %d\n", which, sel))
}

func (sv *Server) cvarRegister(args []int32) int32 {
	name := sv.gvm.ReadString(args[2])
	def := sv.gvm.ReadString(args[3])
	v := sv.d.CVars.Get(name, def, cvar.Flags(args[4]))

	handle := -1
	for i, n := range sv.vmCvars {
		if strings.EqualFold(n, name) {
			handle = i
			break
		}
	}
	if handle == -1 {
		handle = len(sv.vmCvars)
		sv.vmCvars = append(sv.vmCvars, name)
	}
	if args[1] != 0 {
		sv.writeVMCvar(args[1], handle, v)
	}
	return 0
}

func (sv *Server) cvarUpdate(args []int32) int32 {
	if args[1] == 0 {
		return 0
	}
	handle := int(sv.gvm.ReadI32(args[1] + wire.VCHandle))
	if handle < 0 || handle >= len(sv.vmCvars) {
		return 0
	}
	v := sv.d.CVars.Lookup(sv.vmCvars[handle])
	if v == nil {
		return 0
	}
	if int(sv.gvm.ReadI32(args[1]+wire.VCModCount)) != v.ModificationCount {
		sv.writeVMCvar(args[1], handle, v)
	}
	return 0
}

func (sv *Server) writeVMCvar(addr int32, handle int, v *cvar.CVar) {
	var b [wire.VMCvarBytes]byte
	wire.PutI32(b[:], wire.VCHandle, int32(handle))
	wire.PutI32(b[:], wire.VCModCount, int32(v.ModificationCount))
	wire.PutF32(b[:], wire.VCValue, v.Value)
	wire.PutI32(b[:], wire.VCInteger, int32(v.Integer))
	s := v.String
	if len(s) > wire.VCStrLen-1 {
		s = s[:wire.VCStrLen-1]
	}
	copy(b[wire.VCString:], s)
	sv.gvm.WriteBytes(addr, b[:])
}

func (sv *Server) fsOpen(args []int32) int32 {
	path := sv.gvm.ReadString(args[1])
	switch args[3] {
	case fsModeRead:
		h, length := sv.d.FS.OpenRead(path)
		sv.gvm.WriteI32(args[2], int32(h))
		return int32(length)
	case fsModeWrite:
		sv.gvm.WriteI32(args[2], int32(sv.d.FS.OpenWrite(path)))
		return 0
	case fsModeAppend, fsModeAppendSync:
		sv.gvm.WriteI32(args[2], int32(sv.d.FS.OpenAppend(path)))
		return 0
	}
	sv.gvm.WriteI32(args[2], 0)
	return -1
}

func (sv *Server) fsGetFileList(args []int32) int32 {
	path := sv.gvm.ReadString(args[1])
	ext := sv.gvm.ReadString(args[2])
	names := sv.d.FS.ListDir(path, ext)

	buf := args[3]
	room := int(args[4])
	count := int32(0)
	for _, name := range names {
		if len(name)+1 > room {
			break
		}
		sv.gvm.WriteString(buf, name, room)
		buf += int32(len(name) + 1)
		room -= len(name) + 1
		count++
	}
	return count
}

func (sv *Server) getEntityToken(args []int32) int32 {
	if sv.entTokenPos >= len(sv.entTokens) {
		return 0
	}
	sv.gvm.WriteString(args[1], sv.entTokens[sv.entTokenPos], int(args[2]))
	sv.entTokenPos++
	return 1
}

func (sv *Server) botAllocateClient() int32 {
	for i := range sv.clients {
		if !sv.clients[i].Active {
			sv.clients[i].Active = true
			sv.clients[i].IsBot = true
			return int32(i)
		}
	}
	return -1
}

// entityNumAt converts a VM gentity pointer into its slot number.
func (sv *Server) entityNumAt(addr int32) int32 {
	if sv.gentSize == 0 {
		return -1
	}
	num := (addr - sv.gentBase) / sv.gentSize
	if num < 0 || num >= sv.numGEntities {
		return -1
	}
	return num
}

func (sv *Server) setBrushModel(entAddr int32, name string) {
	if sv.clip == nil || !strings.HasPrefix(name, "*") {
		return
	}
	idx, err := strconv.Atoi(name[1:])
	if err != nil || idx <= 0 || idx >= sv.clip.NumInlineModels() {
		return
	}
	mins, maxs := sv.clip.InlineModelBounds(idx)

	sv.writeVec3(entAddr+wire.ShMins, mins)
	sv.writeVec3(entAddr+wire.ShMaxs, maxs)
	sv.gvm.WriteI32(entAddr+wire.ShBModel, 1)
	sv.gvm.WriteI32(entAddr+wire.ShContents, -1) // the clip model decides
	sv.gvm.WriteI32(entAddr+wire.ESModelIndex, int32(idx))
	sv.linkEntity(entAddr)
}

func (sv *Server) linkEntity(entAddr int32) {
	num := sv.entityNumAt(entAddr)
	if num < 0 || sv.world == nil {
		return
	}

	origin := sv.readVec3(entAddr + wire.ShCurrentOrigin)
	mins := sv.readVec3(entAddr + wire.ShMins)
	maxs := sv.readVec3(entAddr + wire.ShMaxs)

	// expanded by a unit so touching entities register contact
	var absMin, absMax [3]float32
	for i := 0; i < 3; i++ {
		absMin[i] = origin[i] + mins[i] - 1
		absMax[i] = origin[i] + maxs[i] + 1
	}
	sv.writeVec3(entAddr+wire.ShAbsMin, absMin)
	sv.writeVec3(entAddr+wire.ShAbsMax, absMax)
	sv.gvm.WriteI32(entAddr+wire.ShLinked, 1)
	sv.gvm.WriteI32(entAddr+wire.ShLinkCount, sv.gvm.ReadI32(entAddr+wire.ShLinkCount)+1)

	e := sv.world.Ent(int(num))
	e.AbsMin = absMin
	e.AbsMax = absMax
	e.Contents = sv.gvm.ReadI32(entAddr + wire.ShContents)
	sv.world.Link(e)
}

func (sv *Server) unlinkEntity(entAddr int32) {
	num := sv.entityNumAt(entAddr)
	if num < 0 || sv.world == nil {
		return
	}
	sv.gvm.WriteI32(entAddr+wire.ShLinked, 0)
	sv.world.Unlink(sv.world.Ent(int(num)))
}

func (sv *Server) entitiesInBox(args []int32) int32 {
	if sv.world == nil {
		return 0
	}
	mins := sv.readVec3(args[1])
	maxs := sv.readVec3(args[2])
	out := make([]int, args[4])
	n := sv.world.EntitiesInBox(mins, maxs, out)
	for i := 0; i < n; i++ {
		sv.gvm.WriteI32(args[3]+int32(i)*4, int32(out[i]))
	}
	return int32(n)
}

func (sv *Server) entityContact(args []int32) int32 {
	num := sv.entityNumAt(args[3])
	if num < 0 || sv.world == nil {
		return 0
	}
	mins := sv.readVec3(args[1])
	maxs := sv.readVec3(args[2])
	if sv.world.Ent(int(num)) == nil {
		return 0
	}
	e := sv.world.Ent(int(num))
	if !e.Linked {
		return 0
	}
	for i := 0; i < 3; i++ {
		if mins[i] > e.AbsMax[i] || maxs[i] < e.AbsMin[i] {
			return 0
		}
	}
	return 1
}

func (sv *Server) readVec3(addr int32) [3]float32 {
	if addr == 0 {
		return [3]float32{}
	}
	var b [12]byte
	sv.gvm.ReadBytes(addr, b[:])
	return wire.Vec3(b[:], 0)
}

func (sv *Server) writeVec3(addr int32, v [3]float32) {
	var b [12]byte
	wire.PutVec3(b[:], 0, v)
	sv.gvm.WriteBytes(addr, b[:])
}
