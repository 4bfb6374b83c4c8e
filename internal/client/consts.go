package client

// Presentation (cgame) module entry points.
const (
	CGInit = iota
	CGShutdown
	CGConsoleCommand
	CGDrawActiveFrame
	CGCrosshairPlayer
	CGLastAttacker
	CGKeyEvent
	CGMouseEvent
	CGEventHandling
)

// UI module entry points.
const (
	UIGetAPIVersion = iota
	UIInit
	UIShutdown
	UIKeyEvent
	UIMouseEvent
	UIRefresh
	UIIsFullscreen
	UISetActiveMenu
	UIConsoleCommand
	UIDrawConnectScreen
	UIHasUniqueCDKey
)

// Presentation module import selectors. The ordering is the wire contract
// with the compiled module; the gap before the trap range is reserved.
const (
	cgPrint = iota
	cgError
	cgMilliseconds
	cgCvarRegister
	cgCvarUpdate
	cgCvarSet
	cgCvarVariableStringBuffer
	cgArgc
	cgArgv
	cgArgs
	cgFSFOpenFile
	cgFSRead
	cgFSWrite
	cgFSFCloseFile
	cgSendConsoleCommand
	cgAddCommand
	cgSendClientCommand
	cgUpdateScreen
	cgCMLoadMap
	cgCMNumInlineModels
	cgCMInlineModel
	cgCMLoadModel
	cgCMTempBoxModel
	cgCMPointContents
	cgCMTransformedPointContents
	cgCMBoxTrace
	cgCMTransformedBoxTrace
	cgCMMarkFragments
	cgSStartSound
	cgSStartLocalSound
	cgSClearLoopingSounds
	cgSAddLoopingSound
	cgSUpdateEntityPosition
	cgSRespatialize
	cgSRegisterSound
	cgSStartBackgroundTrack
	cgRLoadWorldMap
	cgRRegisterModel
	cgRRegisterSkin
	cgRRegisterShader
	cgRClearScene
	cgRAddRefEntityToScene
	cgRAddPolyToScene
	cgRAddLightToScene
	cgRRenderScene
	cgRSetColor
	cgRDrawStretchPic
	cgRModelBounds
	cgRLerpTag
	cgGetGLConfig
	cgGetGameState
	cgGetCurrentSnapshotNumber
	cgGetSnapshot
	cgGetServerCommand
	cgGetCurrentCmdNumber
	cgGetUserCmd
	cgSetUserCmdValue
	cgRRegisterShaderNoMip
	cgMemoryRemaining
	cgRRegisterFont
	cgKeyIsDown
	cgKeyGetCatcher
	cgKeySetCatcher
	cgKeyGetKey
	cgPCAddGlobalDefine
	cgPCLoadSource
	cgPCFreeSource
	cgPCReadToken
	cgPCSourceFileAndLine
	cgSStopBackgroundTrack
	cgRealTime
	cgSnapVector
	cgRemoveCommand
	cgRLightForPoint
	cgCinPlayCinematic
	cgCinStopCinematic
	cgCinRunCinematic
	cgCinDrawCinematic
	cgCinSetExtents
	cgRRemapShader
	cgSAddRealLoopingSound
	cgSStopLoopingSound
	cgCMTempCapsuleModel
	cgCMCapsuleTrace
	cgCMTransformedCapsuleTrace
	cgRAddAdditiveLightToScene
	cgGetEntityToken
	cgRAddPolysToScene
	cgRInPVS
	cgFSSeek
)

// Presentation math/memory traps.
const (
	cgMemset = 100 + iota
	cgMemcpy
	cgStrncpy
	cgSin
	cgCos
	cgAtan2
	cgSqrt
	cgFloor
	cgCeil
	cgTestPrintInt
	cgTestPrintFloat
	cgAcos
)

// UI module import selectors.
const (
	uiError = iota
	uiPrint
	uiMilliseconds
	uiCvarSet
	uiCvarVariableValue
	uiCvarVariableStringBuffer
	uiCvarSetValue
	uiCvarReset
	uiCvarCreate
	uiCvarInfoStringBuffer
	uiArgc
	uiArgv
	uiCmdExecuteText
	uiFSFOpenFile
	uiFSRead
	uiFSWrite
	uiFSFCloseFile
	uiFSGetFileList
	uiRRegisterModel
	uiRRegisterSkin
	uiRRegisterShaderNoMip
	uiRClearScene
	uiRAddRefEntityToScene
	uiRAddPolyToScene
	uiRAddLightToScene
	uiRRenderScene
	uiRSetColor
	uiRDrawStretchPic
	uiUpdateScreen
	uiCMLerpTag
	uiCMLoadModel
	uiSRegisterSound
	uiSStartLocalSound
	uiKeyKeynumToStringBuf
	uiKeyGetBindingBuf
	uiKeySetBinding
	uiKeyIsDown
	uiKeyGetOverstrikeMode
	uiKeySetOverstrikeMode
	uiKeyClearStates
	uiKeyGetCatcher
	uiKeySetCatcher
	uiGetClipboardData
	uiGetGLConfig
	uiGetClientState
	uiGetConfigString
	uiLANGetPingQueueCount
	uiLANClearPing
	uiLANGetPing
	uiLANGetPingInfo
	uiCvarRegister
	uiCvarUpdate
	uiMemoryRemaining
	uiGetCDKey
	uiSetCDKey
	uiRRegisterFont
	uiRModelBounds
	uiPCAddGlobalDefine
	uiPCLoadSource
	uiPCFreeSource
	uiPCReadToken
	uiPCSourceFileAndLine
	uiSStopBackgroundTrack
	uiSStartBackgroundTrack
	uiRealTime
	uiLANGetServerCount
	uiLANGetServerAddressString
	uiLANGetServerInfo
	uiLANMarkServerVisible
	uiLANUpdateVisiblePings
	uiLANResetPings
	uiLANLoadCachedServers
	uiLANSaveCachedServers
	uiLANAddServer
	uiLANRemoveServer
	uiCINPlayCinematic
	uiCINStopCinematic
	uiCINRunCinematic
	uiCINDrawCinematic
	uiCINSetExtents
	uiRRemapShader
	uiVerifyCDKey
	uiLANServerStatus
	uiLANGetServerPing
	uiLANServerIsVisible
	uiLANCompareServers
	uiFSSeek
	uiSetPBClStatus
)

// UI math/memory traps.
const (
	uiMemset = 100 + iota
	uiMemcpy
	uiStrncpy
	uiSin
	uiCos
	uiAtan2
	uiSqrt
	uiFloor
	uiCeil
	uiTestPrintInt
	uiTestPrintFloat
)

// Key catcher bits shared with both client modules.
const (
	KeyCatchConsole = 1
	KeyCatchUI      = 2
	KeyCatchMessage = 4
	KeyCatchCGame   = 8
)

// Client connection state reported to the UI module.
const (
	caUninitialized = iota
	caDisconnected
	caConnecting
	caChallenging
	caConnected
	caLoading
	caPrimed
	caActive
)

// cmdRingSize user commands are retained for the presentation module.
const cmdRingSize = 64
