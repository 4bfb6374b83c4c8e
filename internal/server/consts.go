package server

// Game module entry points, the command argument of every game VM call.
const (
	GameInit = iota
	GameShutdown
	GameClientConnect
	GameClientBegin
	GameClientUserinfoChanged
	GameClientDisconnect
	GameClientCommand
	GameClientThink
	GameRunFrame
	GameConsoleCommand
	BotAIStartFrame
)

// Game module import selectors. The numbering is the wire contract with
// the compiled game binary and must not be reordered.
const (
	gPrint = iota
	gError
	gMilliseconds
	gCvarRegister
	gCvarUpdate
	gCvarSet
	gCvarVariableIntegerValue
	gCvarVariableStringBuffer
	gArgc
	gArgv
	gFSFOpenFile
	gFSRead
	gFSWrite
	gFSFCloseFile
	gSendConsoleCommand
	gLocateGameData
	gDropClient
	gSendServerCommand
	gSetConfigstring
	gGetConfigstring
	gGetUserinfo
	gSetUserinfo
	gGetServerinfo
	gSetBrushModel
	gTrace
	gPointContents
	gInPVS
	gInPVSIgnorePortals
	gAdjustAreaPortalState
	gAreasConnected
	gLinkEntity
	gUnlinkEntity
	gEntitiesInBox
	gEntityContact
	gBotAllocateClient
	gBotFreeClient
	gGetUsercmd
	gGetEntityToken
	gFSGetFileList
	gDebugPolygonCreate
	gDebugPolygonDelete
	gRealTime
	gSnapVector
	gTraceCapsule
	gEntityContactCapsule
	gFSSeek
)

// Math and memory traps.
const (
	gMemset = 100 + iota
	gMemcpy
	gStrncpy
	gSin
	gCos
	gAtan2
	gSqrt
	gMatrixMultiply
	gAngleVectors
	gPerpendicularVector
	gFloor
	gCeil
	gTestPrintInt
	gTestPrintFloat
)

// botlibBase starts the bot library selector range; everything in it is
// answered with zero by this core.
const botlibBase = 200

// File open modes of the FS_FOPEN_FILE trap.
const (
	fsModeRead = iota
	fsModeWrite
	fsModeAppend
	fsModeAppendSync
)

// Well-known config string slots.
const (
	CSServerInfo = 0
	CSSystemInfo = 1
)

// MaxClients bounds the client slot table.
const MaxClients = 64
