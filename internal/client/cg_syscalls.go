package client

import (
	"fmt"
	"math"
	"strings"

	"arena3/internal/command"
	"arena3/internal/cvar"
	"arena3/internal/host"
	"arena3/internal/qvm"
	"arena3/internal/traps"
	"arena3/internal/wire"
)

func f32(w int32) float32 { return math.Float32frombits(uint32(w)) }

// cgDispatch routes the presentation module's system calls. Selector
// ranges mirror the game boundary: regular imports, math/memory traps at
// 100+. Selectors in the reserved gap before 100 answer zero.
func (cl *Client) cgDispatch(args []int32) int32 {
	cl.MetricSyscalls++
	vm := cl.cgvm
	sel := args[0]

	switch sel {
	case cgPrint:
		cl.d.Console.Print(vm.ReadString(args[1]))
	case cgError:
		cl.d.Console.Error(vm.ReadString(args[1]))
		vm.Abort("presentation module error")
		return -1
	case cgMilliseconds:
		return int32(cl.d.Clock.Milliseconds())

	case cgCvarRegister:
		return cl.cvarRegister(vm, args)
	case cgCvarUpdate:
		return cl.cvarUpdate(vm, args)
	case cgCvarSet:
		cl.d.CVars.Set(vm.ReadString(args[1]), vm.ReadString(args[2]))
	case cgCvarVariableStringBuffer:
		vm.WriteString(args[2], cl.d.CVars.VariableString(vm.ReadString(args[1])), int(args[3]))

	case cgArgc:
		return int32(len(cl.args))
	case cgArgv:
		n := int(args[1])
		s := ""
		if n >= 0 && n < len(cl.args) {
			s = cl.args[n]
		}
		vm.WriteString(args[2], s, int(args[3]))
	case cgArgs:
		vm.WriteString(args[1], cl.argsRaw, int(args[2]))

	case cgFSFOpenFile:
		return cl.fsOpen(vm, args)
	case cgFSRead:
		buf := make([]byte, args[2])
		cl.d.FS.Read(host.FileHandle(args[3]), buf)
		vm.WriteBytes(args[1], buf)
	case cgFSWrite:
		buf := make([]byte, args[2])
		vm.ReadBytes(args[1], buf)
		return int32(cl.d.FS.Write(host.FileHandle(args[3]), buf))
	case cgFSFCloseFile:
		cl.d.FS.Close(host.FileHandle(args[1]))
	case cgFSSeek:
		return int32(cl.d.FS.Seek(host.FileHandle(args[1]), int(args[2]), int(args[3])))

	case cgSendConsoleCommand:
		cl.d.Cmds.Append(vm.ReadString(args[1]))
	case cgAddCommand:
		cl.addCommand(vm.ReadString(args[1]))
	case cgRemoveCommand:
		name := vm.ReadString(args[1])
		if _, ours := cl.addedCommands[strings.ToLower(name)]; ours {
			cl.d.Cmds.Unregister(name)
			delete(cl.addedCommands, strings.ToLower(name))
		}
	case cgSendClientCommand:
		cl.d.Relay.ToServer.Send(vm.ReadString(args[1]))
	case cgUpdateScreen:
		// redundant under the per-frame scheduler

	case cgCMLoadMap:
		// the loopback already holds the collision world
	case cgCMNumInlineModels:
		return int32(cl.d.SV.ClipMap().NumInlineModels())
	case cgCMInlineModel:
		return args[1]
	case cgCMTempBoxModel, cgCMTempCapsuleModel:
		mins := cl.readVec3(vm, args[1])
		maxs := cl.readVec3(vm, args[2])
		return int32(cl.d.SV.ClipMap().TempBoxModel(mins, maxs))
	case cgCMPointContents:
		p := cl.readVec3(vm, args[1])
		return cl.d.SV.ClipMap().PointContents(p, int(args[2]))
	case cgCMTransformedPointContents:
		p := cl.readVec3(vm, args[1])
		origin := cl.readVec3(vm, args[3])
		local := [3]float32{p[0] - origin[0], p[1] - origin[1], p[2] - origin[2]}
		return cl.d.SV.ClipMap().PointContents(local, int(args[2]))
	case cgCMBoxTrace, cgCMCapsuleTrace:
		cl.cmTrace(vm, args, false)
	case cgCMTransformedBoxTrace, cgCMTransformedCapsuleTrace:
		cl.cmTrace(vm, args, true)
	case cgCMMarkFragments:
		return 0 // decal projection needs render surfaces this core does not keep

	case cgSStartSound:
		cl.d.Audio.StartSound(cl.readVec3(vm, args[1]), int(args[2]), int(args[3]), int(args[4]))
	case cgSStartLocalSound:
		cl.d.Audio.StartLocalSound(int(args[1]), int(args[2]))
	case cgSClearLoopingSounds:
		cl.d.Audio.ClearLoopingSounds(args[1] != 0)
	case cgSAddLoopingSound, cgSAddRealLoopingSound:
		cl.d.Audio.AddLoopingSound(int(args[1]), cl.readVec3(vm, args[2]), cl.readVec3(vm, args[3]), int(args[4]))
	case cgSStopLoopingSound:
		cl.d.Audio.StopLoopingSound(int(args[1]))
	case cgSUpdateEntityPosition:
		cl.d.Audio.UpdateEntityPosition(int(args[1]), cl.readVec3(vm, args[2]))
	case cgSRespatialize:
		var axis [3][3]float32
		for i := 0; i < 3; i++ {
			axis[i] = cl.readVec3(vm, args[3]+int32(i)*12)
		}
		cl.d.Audio.Respatialize(int(args[1]), cl.readVec3(vm, args[2]), axis)
	case cgSRegisterSound:
		return int32(cl.d.Audio.RegisterSound(vm.ReadString(args[1]), args[2] != 0))
	case cgSStartBackgroundTrack:
		cl.d.Audio.StartBackgroundTrack(vm.ReadString(args[1]), vm.ReadString(args[2]))
	case cgSStopBackgroundTrack:
		cl.d.Audio.StopBackgroundTrack()

	case cgRLoadWorldMap:
		cl.d.Renderer.LoadWorld(vm.ReadString(args[1]))
	case cgRRegisterModel:
		return int32(cl.d.Renderer.RegisterModel(vm.ReadString(args[1])))
	case cgRRegisterSkin:
		return int32(cl.d.Renderer.RegisterSkin(vm.ReadString(args[1])))
	case cgRRegisterShader:
		return int32(cl.d.Renderer.RegisterShader(vm.ReadString(args[1])))
	case cgRRegisterShaderNoMip:
		return int32(cl.d.Renderer.RegisterShaderNoMip(vm.ReadString(args[1])))
	case cgRRegisterFont:
		return int32(cl.d.Renderer.RegisterFont(vm.ReadString(args[1]), int(args[2])))
	case cgRClearScene:
		cl.d.Renderer.ClearScene()
	case cgRAddRefEntityToScene:
		cl.d.Renderer.AddRefEntity(cl.readRefEntity(vm, args[1]))
	case cgRAddPolyToScene:
		cl.d.Renderer.AddPoly(cl.readPoly(vm, args))
	case cgRAddPolysToScene:
		cl.d.Renderer.AddPolys(cl.readPoly(vm, args), int(args[4]))
	case cgRAddLightToScene, cgRAddAdditiveLightToScene:
		cl.d.Renderer.AddLight(cl.readVec3(vm, args[1]), f32(args[2]), f32(args[3]), f32(args[4]), f32(args[5]))
	case cgRRenderScene:
		refdef := make([]byte, 256)
		vm.ReadBytes(args[1], refdef)
		cl.d.Renderer.RenderScene(refdef)
	case cgRSetColor:
		var rgba [4]float32
		if args[1] != 0 {
			var b [16]byte
			vm.ReadBytes(args[1], b[:])
			for i := 0; i < 4; i++ {
				rgba[i] = wire.F32(b[:], i*4)
			}
		} else {
			rgba = [4]float32{1, 1, 1, 1}
		}
		cl.d.Renderer.SetColor(rgba)
	case cgRDrawStretchPic:
		cl.d.Renderer.DrawStretchPic(
			f32(args[1]), f32(args[2]), f32(args[3]), f32(args[4]),
			f32(args[5]), f32(args[6]), f32(args[7]), f32(args[8]), int(args[9]))
	case cgRModelBounds:
		mins, maxs := cl.d.Renderer.ModelBounds(int(args[1]))
		cl.writeVec3(vm, args[2], mins)
		cl.writeVec3(vm, args[3], maxs)
	case cgRLerpTag:
		tag := make([]byte, wire.OrientationBytes)
		r := cl.d.Renderer.LerpTag(tag, int(args[2]), int(args[3]), int(args[4]), f32(args[5]), vm.ReadString(args[6]))
		vm.WriteBytes(args[1], tag)
		return int32(r)
	case cgRRemapShader:
		cl.d.Renderer.RemapShader(vm.ReadString(args[1]), vm.ReadString(args[2]), vm.ReadString(args[3]))
	case cgRLightForPoint:
		return 0

	case cgGetGLConfig:
		cl.writeGLConfig(vm, args[1])
	case cgGetGameState:
		vm.WriteBytes(args[1], cl.gameState())
	case cgGetCurrentSnapshotNumber:
		slot := cl.d.SV.Client(cl.clientNum)
		if slot == nil {
			return 0
		}
		seq := slot.Snaps.Current()
		vm.WriteI32(args[1], int32(seq))
		if latest := slot.Snaps.Get(seq); latest != nil {
			vm.WriteI32(args[2], latest.ServerTime)
		} else {
			vm.WriteI32(args[2], 0)
		}
	case cgGetSnapshot:
		return cl.getSnapshot(vm, args)
	case cgGetServerCommand:
		return cl.getServerCommand(args)
	case cgGetCurrentCmdNumber:
		return int32(cl.cmdNumber)
	case cgGetUserCmd:
		cmd, ok := cl.cmdAt(int(args[1]))
		if !ok {
			return 0
		}
		var b [wire.UserCmdBytes]byte
		cmd.Encode(b[:])
		vm.WriteBytes(args[2], b[:])
		return 1
	case cgSetUserCmdValue:
		cl.userCmdWeapon = args[1]

	case cgMemoryRemaining:
		return 1 << 20
	case cgKeyIsDown:
		if cl.d.Input.KeyIsDown(int(args[1])) {
			return 1
		}
		return 0
	case cgKeyGetCatcher:
		return int32(cl.d.Input.KeyGetCatcher())
	case cgKeySetCatcher:
		cl.d.Input.KeySetCatcher(int(args[1]))
	case cgKeyGetKey:
		return -1

	case cgRealTime:
		zero := make([]byte, 44)
		vm.WriteBytes(args[1], zero)
		return 0
	case cgSnapVector:
		return traps.SnapVector(vm, args)
	case cgRInPVS:
		return 1
	case cgGetEntityToken:
		return 0 // the game module owns the spawn string on the server side

	case cgPCAddGlobalDefine, cgPCLoadSource, cgPCFreeSource, cgPCReadToken, cgPCSourceFileAndLine:
		return 0 // script parser is unused by the baseline module
	case cgCinPlayCinematic, cgCinStopCinematic, cgCinRunCinematic, cgCinDrawCinematic, cgCinSetExtents:
		return 0
	case cgCMLoadModel:
		return 0

	case cgMemset:
		return traps.Memset(vm, args)
	case cgMemcpy:
		return traps.Memcpy(vm, args)
	case cgStrncpy:
		return traps.StrNCpy(vm, args)
	case cgSin:
		return traps.Sin(vm, args)
	case cgCos:
		return traps.Cos(vm, args)
	case cgAtan2:
		return traps.Atan2(vm, args)
	case cgSqrt:
		return traps.Sqrt(vm, args)
	case cgFloor:
		return traps.Floor(vm, args)
	case cgCeil:
		return traps.Ceil(vm, args)
	case cgAcos:
		return traps.Acos(vm, args)
	case cgTestPrintInt:
		cl.d.Console.Print(fmt.Sprintf("%s%d\n", vm.ReadString(args[1]), args[2]))
	case cgTestPrintFloat:
		cl.d.Console.Print(fmt.Sprintf("%s%f\n", vm.ReadString(args[1]), float64(f32(args[2]))))

	default:
		cl.warnOnce(sel, "cgame")
		return 0
	}
	return 0
}

func (cl *Client) addCommand(name string) {
	key := strings.ToLower(name)
	if _, ok := cl.addedCommands[key]; ok {
		return
	}
	cl.addedCommands[key] = struct{}{}
	cl.d.Cmds.Register(name, func(args []string) {
		if cl.cgvm == nil {
			return
		}
		saved, savedRaw := cl.args, cl.argsRaw
		cl.args = args
		cl.argsRaw = strings.Join(args[1:], " ")
		cl.cgvm.Call(CGConsoleCommand)
		cl.args, cl.argsRaw = saved, savedRaw
	})
}

// getSnapshot answers the snapshot-at-N poll: a hit writes the exact
// snapshot layout plus the reliable-sequence tail; a miss returns zero.
func (cl *Client) getSnapshot(vm *qvm.VM, args []int32) int32 {
	slot := cl.d.SV.Client(cl.clientNum)
	if slot == nil {
		return 0
	}
	snapshot := slot.Snaps.Get(int(args[1]))
	if snapshot == nil {
		return 0
	}
	slot.Snaps.Marshal(snapshot, vm, args[2])
	tail := args[2] + wire.SnapEntitiesOfs + wire.SnapEntities*wire.EntityStateBytes
	vm.WriteI32(tail, 0) // per-snapshot command count unused on loopback
	vm.WriteI32(tail+4, int32(cl.d.Relay.ToClient.Sequence()))
	return 1
}

func (cl *Client) getServerCommand(args []int32) int32 {
	payload, ok := cl.d.Relay.ToClient.Get(int(args[1]))
	if !ok {
		return 0
	}
	cl.d.Relay.ToClient.Acknowledge(int(args[1]))
	cl.args = command.Tokenize(payload)
	cl.argsRaw = payload
	return 1
}

func (cl *Client) cmTrace(vm *qvm.VM, args []int32, transformed bool) {
	start := cl.readVec3(vm, args[2])
	end := cl.readVec3(vm, args[3])
	mins := cl.readVec3(vm, args[4])
	maxs := cl.readVec3(vm, args[5])
	model := int(args[6])
	mask := args[7]

	var tr wire.Trace
	if transformed {
		origin := cl.readVec3(vm, args[8])
		angles := cl.readVec3(vm, args[9])
		tr = cl.d.SV.ClipMap().TransformedBoxTrace(start, end, mins, maxs, model, mask, origin, angles)
	} else {
		tr = cl.d.SV.ClipMap().BoxTrace(start, end, mins, maxs, model, mask)
	}
	tr.Marshal(vm, args[1])
}

func (cl *Client) writeGLConfig(vm *qvm.VM, addr int32) {
	b := make([]byte, wire.GLConfigBytes)
	copy(b, "loopback renderer\x00")
	wire.PutI32(b, wire.GLConfigVidWidthOfs, int32(cl.d.VidWidth))
	wire.PutI32(b, wire.GLConfigVidHeightOfs, int32(cl.d.VidHeight))
	wire.PutF32(b, wire.GLConfigAspectOfs, float32(cl.d.VidWidth)/float32(cl.d.VidHeight))
	vm.WriteBytes(addr, b)
}

func (cl *Client) readRefEntity(vm *qvm.VM, addr int32) host.RefEntity {
	raw := make([]byte, 256)
	vm.ReadBytes(addr, raw)
	return host.RefEntity{Raw: raw}
}

func (cl *Client) readPoly(vm *qvm.VM, args []int32) host.Poly {
	const polyVertBytes = 44 // xyz + st + rgba
	numVerts := int(args[2])
	verts := make([]byte, numVerts*polyVertBytes)
	vm.ReadBytes(args[3], verts)
	return host.Poly{Shader: int(args[1]), NumVerts: numVerts, Verts: verts}
}

func (cl *Client) cvarRegister(vm *qvm.VM, args []int32) int32 {
	name := vm.ReadString(args[2])
	def := vm.ReadString(args[3])
	v := cl.d.CVars.Get(name, def, cvar.Flags(args[4]))

	handle := -1
	for i, n := range cl.vmCvars {
		if strings.EqualFold(n, name) {
			handle = i
			break
		}
	}
	if handle == -1 {
		handle = len(cl.vmCvars)
		cl.vmCvars = append(cl.vmCvars, name)
	}
	if args[1] != 0 {
		cl.writeVMCvar(vm, args[1], handle, v)
	}
	return 0
}

func (cl *Client) cvarUpdate(vm *qvm.VM, args []int32) int32 {
	if args[1] == 0 {
		return 0
	}
	handle := int(vm.ReadI32(args[1] + wire.VCHandle))
	if handle < 0 || handle >= len(cl.vmCvars) {
		return 0
	}
	v := cl.d.CVars.Lookup(cl.vmCvars[handle])
	if v == nil {
		return 0
	}
	if int(vm.ReadI32(args[1]+wire.VCModCount)) != v.ModificationCount {
		cl.writeVMCvar(vm, args[1], handle, v)
	}
	return 0
}

func (cl *Client) writeVMCvar(vm *qvm.VM, addr int32, handle int, v *cvar.CVar) {
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
	vm.WriteBytes(addr, b[:])
}

func (cl *Client) fsOpen(vm *qvm.VM, args []int32) int32 {
	path := vm.ReadString(args[1])
	switch args[3] {
	case 0: // read
		h, length := cl.d.FS.OpenRead(path)
		vm.WriteI32(args[2], int32(h))
		return int32(length)
	case 1: // write
		vm.WriteI32(args[2], int32(cl.d.FS.OpenWrite(path)))
		return 0
	case 2, 3: // append
		vm.WriteI32(args[2], int32(cl.d.FS.OpenAppend(path)))
		return 0
	}
	vm.WriteI32(args[2], 0)
	return -1
}

func (cl *Client) readVec3(vm *qvm.VM, addr int32) [3]float32 {
	if addr == 0 {
		return [3]float32{}
	}
	var b [12]byte
	vm.ReadBytes(addr, b[:])
	return wire.Vec3(b[:], 0)
}

func (cl *Client) writeVec3(vm *qvm.VM, addr int32, v [3]float32) {
	var b [12]byte
	wire.PutVec3(b[:], 0, v)
	vm.WriteBytes(addr, b[:])
}
