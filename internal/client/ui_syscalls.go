package client

import (
	"fmt"
	"math"
	"strconv"

	"arena3/internal/host"
	"arena3/internal/qvm"
	"arena3/internal/traps"
	"arena3/internal/wire"
)

// uiDispatch routes the UI module's system calls. The LAN browser, CD-key
// and cinematic selectors are live stubs: they answer the way an offline
// build does (empty lists, valid key, no cinematic).
func (cl *Client) uiDispatch(args []int32) int32 {
	cl.MetricSyscalls++
	vm := cl.uivm
	sel := args[0]

	switch sel {
	case uiError:
		cl.d.Console.Error(vm.ReadString(args[1]))
		vm.Abort("ui module error")
		return -1
	case uiPrint:
		cl.d.Console.Print(vm.ReadString(args[1]))
	case uiMilliseconds:
		return int32(cl.d.Clock.Milliseconds())

	case uiCvarSet:
		cl.d.CVars.Set(vm.ReadString(args[1]), vm.ReadString(args[2]))
	case uiCvarVariableValue:
		return int32(math.Float32bits(cl.d.CVars.VariableValue(vm.ReadString(args[1]))))
	case uiCvarVariableStringBuffer:
		vm.WriteString(args[2], cl.d.CVars.VariableString(vm.ReadString(args[1])), int(args[3]))
	case uiCvarSetValue:
		cl.d.CVars.Set(vm.ReadString(args[1]), trimFloat(f32(args[2])))
	case uiCvarReset:
		if v := cl.d.CVars.Lookup(vm.ReadString(args[1])); v != nil {
			cl.d.CVars.ForceSet(v.Name, v.ResetString)
		}
	case uiCvarCreate:
		cl.d.CVars.Get(vm.ReadString(args[1]), vm.ReadString(args[2]), 0)
	case uiCvarInfoStringBuffer:
		vm.WriteString(args[2], cl.d.CVars.InfoString(1<<uint(args[1])), int(args[3]))
	case uiCvarRegister:
		return cl.cvarRegister(vm, args)
	case uiCvarUpdate:
		return cl.cvarUpdate(vm, args)

	case uiArgc:
		return int32(len(cl.args))
	case uiArgv:
		n := int(args[1])
		s := ""
		if n >= 0 && n < len(cl.args) {
			s = cl.args[n]
		}
		vm.WriteString(args[2], s, int(args[3]))
	case uiCmdExecuteText:
		cl.d.Cmds.Append(vm.ReadString(args[2]))

	case uiFSFOpenFile:
		return cl.fsOpen(vm, args)
	case uiFSRead:
		buf := make([]byte, args[2])
		cl.d.FS.Read(host.FileHandle(args[3]), buf)
		vm.WriteBytes(args[1], buf)
	case uiFSWrite:
		buf := make([]byte, args[2])
		vm.ReadBytes(args[1], buf)
		return int32(cl.d.FS.Write(host.FileHandle(args[3]), buf))
	case uiFSFCloseFile:
		cl.d.FS.Close(host.FileHandle(args[1]))
	case uiFSSeek:
		return int32(cl.d.FS.Seek(host.FileHandle(args[1]), int(args[2]), int(args[3])))
	case uiFSGetFileList:
		return cl.uiFileList(vm, args)

	case uiRRegisterModel:
		return int32(cl.d.Renderer.RegisterModel(vm.ReadString(args[1])))
	case uiRRegisterSkin:
		return int32(cl.d.Renderer.RegisterSkin(vm.ReadString(args[1])))
	case uiRRegisterShaderNoMip:
		return int32(cl.d.Renderer.RegisterShaderNoMip(vm.ReadString(args[1])))
	case uiRRegisterFont:
		return int32(cl.d.Renderer.RegisterFont(vm.ReadString(args[1]), int(args[2])))
	case uiRClearScene:
		cl.d.Renderer.ClearScene()
	case uiRAddRefEntityToScene:
		cl.d.Renderer.AddRefEntity(cl.readRefEntity(vm, args[1]))
	case uiRAddPolyToScene:
		cl.d.Renderer.AddPoly(cl.readPoly(vm, args))
	case uiRAddLightToScene:
		cl.d.Renderer.AddLight(cl.readVec3(vm, args[1]), f32(args[2]), f32(args[3]), f32(args[4]), f32(args[5]))
	case uiRRenderScene:
		refdef := make([]byte, 256)
		vm.ReadBytes(args[1], refdef)
		cl.d.Renderer.RenderScene(refdef)
	case uiRSetColor:
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
	case uiRDrawStretchPic:
		cl.d.Renderer.DrawStretchPic(
			f32(args[1]), f32(args[2]), f32(args[3]), f32(args[4]),
			f32(args[5]), f32(args[6]), f32(args[7]), f32(args[8]), int(args[9]))
	case uiRModelBounds:
		mins, maxs := cl.d.Renderer.ModelBounds(int(args[1]))
		cl.writeVec3(vm, args[2], mins)
		cl.writeVec3(vm, args[3], maxs)
	case uiRRemapShader:
		cl.d.Renderer.RemapShader(vm.ReadString(args[1]), vm.ReadString(args[2]), vm.ReadString(args[3]))
	case uiUpdateScreen:
		// redundant under the per-frame scheduler
	case uiCMLerpTag:
		tag := make([]byte, wire.OrientationBytes)
		r := cl.d.Renderer.LerpTag(tag, int(args[2]), int(args[3]), int(args[4]), f32(args[5]), vm.ReadString(args[6]))
		vm.WriteBytes(args[1], tag)
		return int32(r)
	case uiCMLoadModel:
		return 0

	case uiSRegisterSound:
		return int32(cl.d.Audio.RegisterSound(vm.ReadString(args[1]), args[2] != 0))
	case uiSStartLocalSound:
		cl.d.Audio.StartLocalSound(int(args[1]), int(args[2]))
	case uiSStartBackgroundTrack:
		cl.d.Audio.StartBackgroundTrack(vm.ReadString(args[1]), vm.ReadString(args[2]))
	case uiSStopBackgroundTrack:
		cl.d.Audio.StopBackgroundTrack()

	case uiKeyKeynumToStringBuf:
		vm.WriteString(args[2], fmt.Sprintf("key%d", args[1]), int(args[3]))
	case uiKeyGetBindingBuf:
		vm.WriteString(args[2], cl.d.Input.KeyBinding(int(args[1])), int(args[3]))
	case uiKeySetBinding:
		cl.d.Input.SetKeyBinding(int(args[1]), vm.ReadString(args[2]))
	case uiKeyIsDown:
		if cl.d.Input.KeyIsDown(int(args[1])) {
			return 1
		}
		return 0
	case uiKeyGetOverstrikeMode, uiKeySetOverstrikeMode, uiKeyClearStates:
		return 0
	case uiKeyGetCatcher:
		return int32(cl.d.Input.KeyGetCatcher())
	case uiKeySetCatcher:
		cl.d.Input.KeySetCatcher(int(args[1]))

	case uiGetClipboardData:
		vm.WriteString(args[1], "", int(args[2]))
	case uiGetGLConfig:
		cl.writeGLConfig(vm, args[1])
	case uiGetClientState:
		if cl.connected {
			return caActive
		}
		return caDisconnected
	case uiGetConfigString:
		vm.WriteString(args[2], cl.d.SV.ConfigString(int(args[1])), int(args[3]))
	case uiMemoryRemaining:
		return 1 << 20
	case uiRealTime:
		zero := make([]byte, 44)
		vm.WriteBytes(args[1], zero)
		return 0

	case uiGetCDKey:
		vm.WriteString(args[1], "aaaaaaaaaaaaaaaa", int(args[2]))
	case uiSetCDKey, uiVerifyCDKey:
		return 1

	case uiLANGetPingQueueCount, uiLANGetPing, uiLANGetPingInfo, uiLANClearPing,
		uiLANGetServerCount, uiLANGetServerAddressString, uiLANGetServerInfo,
		uiLANMarkServerVisible, uiLANUpdateVisiblePings, uiLANResetPings,
		uiLANLoadCachedServers, uiLANSaveCachedServers, uiLANAddServer,
		uiLANRemoveServer, uiLANServerStatus, uiLANGetServerPing,
		uiLANServerIsVisible, uiLANCompareServers:
		return 0 // no network browser on the loopback build

	case uiCINPlayCinematic, uiCINStopCinematic, uiCINRunCinematic,
		uiCINDrawCinematic, uiCINSetExtents:
		return 0
	case uiPCAddGlobalDefine, uiPCLoadSource, uiPCFreeSource,
		uiPCReadToken, uiPCSourceFileAndLine:
		return 0
	case uiSetPBClStatus:
		return 0

	case uiMemset:
		return traps.Memset(vm, args)
	case uiMemcpy:
		return traps.Memcpy(vm, args)
	case uiStrncpy:
		return traps.StrNCpy(vm, args)
	case uiSin:
		return traps.Sin(vm, args)
	case uiCos:
		return traps.Cos(vm, args)
	case uiAtan2:
		return traps.Atan2(vm, args)
	case uiSqrt:
		return traps.Sqrt(vm, args)
	case uiFloor:
		return traps.Floor(vm, args)
	case uiCeil:
		return traps.Ceil(vm, args)
	case uiTestPrintInt:
		cl.d.Console.Print(fmt.Sprintf("%s%d\n", vm.ReadString(args[1]), args[2]))
	case uiTestPrintFloat:
		cl.d.Console.Print(fmt.Sprintf("%s%f\n", vm.ReadString(args[1]), float64(f32(args[2]))))

	default:
		cl.warnOnce(sel, "ui")
		return 0
	}
	return 0
}

func (cl *Client) uiFileList(vm *qvm.VM, args []int32) int32 {
	path := vm.ReadString(args[1])
	ext := vm.ReadString(args[2])
	names := cl.d.FS.ListDir(path, ext)

	buf := args[3]
	room := int(args[4])
	count := int32(0)
	for _, name := range names {
		if len(name)+1 > room {
			break
		}
		vm.WriteString(buf, name, room)
		buf += int32(len(name) + 1)
		room -= len(name) + 1
		count++
	}
	return count
}

func trimFloat(v float32) string {
	return strconv.FormatFloat(float64(v), 'f', -1, 32)
}
