// Package host defines the capability interfaces the simulation core
// consumes from its external collaborators (file archive access, console,
// wall clock, renderer back end, audio output, input shell).
//
// Every subsystem receives these as fields on the engine context, never as
// globals, so tests can substitute in-memory fakes.
package host

// FileHandle identifies an open file inside a FileSystem implementation.
type FileHandle int

// Whence values for Seek, matching the VM-side FS_SEEK contract.
const (
	SeekCur = 0
	SeekEnd = 1
	SeekSet = 2
)

// FileSystem is the archive-access capability. Implementations resolve
// paths inside whatever pak/dir layout the shell provides; the core only
// ever asks for byte blobs.
type FileSystem interface {
	// OpenRead opens a file for reading and returns its handle and length.
	// A zero handle with length -1 means not found.
	OpenRead(path string) (FileHandle, int)
	// OpenWrite opens (creating or truncating) a file for writing.
	OpenWrite(path string) FileHandle
	// OpenAppend opens a file for appending.
	OpenAppend(path string) FileHandle
	Read(h FileHandle, p []byte) int
	Write(h FileHandle, p []byte) int
	Seek(h FileHandle, offset int, whence int) int
	Close(h FileHandle)
	// ListDir returns the names (no directories) under path matching ext.
	ListDir(path, ext string) []string
	// Load reads a whole file. nil means not found.
	Load(path string) []byte
}

// Console receives human-readable engine output.
type Console interface {
	Print(msg string)
	Warn(msg string)
	Error(msg string)
}

// Clock supplies monotonic wall time.
type Clock interface {
	// Milliseconds since an arbitrary boot instant. Must never go backward.
	Milliseconds() int
}

// RefEntity is one renderer entity submitted to the scene, already in the
// presentation module's wire layout (the renderer back end decodes it).
type RefEntity struct {
	Raw []byte
}

// Poly is one renderer polygon submission.
type Poly struct {
	Shader   int
	NumVerts int
	Verts    []byte
}

// Renderer is the scene-submission capability. The GPU back end is out of
// scope; the core only forwards what the presentation VM hands it.
type Renderer interface {
	RegisterModel(name string) int
	RegisterShader(name string) int
	RegisterShaderNoMip(name string) int
	RegisterSkin(name string) int
	RegisterFont(name string, pointSize int) int
	LoadWorld(name string)
	ClearScene()
	AddRefEntity(ent RefEntity)
	AddPoly(p Poly)
	AddPolys(p Poly, count int)
	AddLight(org [3]float32, intensity float32, r, g, b float32)
	RenderScene(refdef []byte)
	SetColor(rgba [4]float32)
	DrawStretchPic(x, y, w, h, s1, t1, s2, t2 float32, shader int)
	LerpTag(tag []byte, model int, startFrame, endFrame int, frac float32, tagName string) int
	ModelBounds(model int) (mins, maxs [3]float32)
	RemapShader(oldShader, newShader, timeOffset string)
}

// Audio is the sound-output capability.
type Audio interface {
	RegisterSound(name string, compressed bool) int
	StartSound(origin [3]float32, entityNum, channel, sfx int)
	StartLocalSound(sfx int, channel int)
	ClearLoopingSounds(killAll bool)
	AddLoopingSound(entityNum int, origin, velocity [3]float32, sfx int)
	StopLoopingSound(entityNum int)
	UpdateEntityPosition(entityNum int, origin [3]float32)
	Respatialize(entityNum int, origin [3]float32, axis [3][3]float32)
	StartBackgroundTrack(intro, loop string)
	StopBackgroundTrack()
}

// Input is the keyboard/mouse shell capability consumed by the client VMs.
type Input interface {
	KeyIsDown(key int) bool
	KeyGetCatcher() int
	KeySetCatcher(catcher int)
	KeyBinding(key int) string
	SetKeyBinding(key int, binding string)
}
