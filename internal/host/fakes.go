package host

import (
	"log"
	"sort"
	"strings"
)

// LogConsole writes console output through the standard logger. It is the
// shell's default console.
type LogConsole struct{}

func (LogConsole) Print(msg string) { log.Print(strings.TrimRight(msg, "\n")) }
func (LogConsole) Warn(msg string)  { log.Printf("WARNING: %s", strings.TrimRight(msg, "\n")) }
func (LogConsole) Error(msg string) { log.Printf("ERROR: %s", strings.TrimRight(msg, "\n")) }

// RecordingConsole captures output for tests.
type RecordingConsole struct {
	Lines  []string
	Warns  []string
	Errors []string
}

func (c *RecordingConsole) Print(msg string) { c.Lines = append(c.Lines, msg) }
func (c *RecordingConsole) Warn(msg string)  { c.Warns = append(c.Warns, msg) }
func (c *RecordingConsole) Error(msg string) { c.Errors = append(c.Errors, msg) }

// MemFS is an in-memory FileSystem used by tests and by the shell before a
// real archive tree is mounted.
type MemFS struct {
	Files map[string][]byte

	handles map[FileHandle]*memFile
	nextFH  FileHandle
}

type memFile struct {
	path    string
	data    []byte
	pos     int
	writing bool
}

// NewMemFS wraps a path->contents map.
func NewMemFS(files map[string][]byte) *MemFS {
	if files == nil {
		files = make(map[string][]byte)
	}
	return &MemFS{Files: files, handles: make(map[FileHandle]*memFile), nextFH: 1}
}

func (fs *MemFS) OpenRead(path string) (FileHandle, int) {
	data, ok := fs.Files[path]
	if !ok {
		return 0, -1
	}
	h := fs.nextFH
	fs.nextFH++
	fs.handles[h] = &memFile{path: path, data: data}
	return h, len(data)
}

func (fs *MemFS) OpenWrite(path string) FileHandle {
	h := fs.nextFH
	fs.nextFH++
	fs.handles[h] = &memFile{path: path, writing: true}
	return h
}

func (fs *MemFS) OpenAppend(path string) FileHandle {
	h := fs.nextFH
	fs.nextFH++
	fs.handles[h] = &memFile{path: path, data: append([]byte(nil), fs.Files[path]...), writing: true}
	return h
}

func (fs *MemFS) Read(h FileHandle, p []byte) int {
	f, ok := fs.handles[h]
	if !ok || f.writing {
		return 0
	}
	n := copy(p, f.data[f.pos:])
	f.pos += n
	return n
}

func (fs *MemFS) Write(h FileHandle, p []byte) int {
	f, ok := fs.handles[h]
	if !ok || !f.writing {
		return 0
	}
	f.data = append(f.data, p...)
	return len(p)
}

func (fs *MemFS) Seek(h FileHandle, offset int, whence int) int {
	f, ok := fs.handles[h]
	if !ok {
		return -1
	}
	switch whence {
	case SeekSet:
		f.pos = offset
	case SeekCur:
		f.pos += offset
	case SeekEnd:
		f.pos = len(f.data) + offset
	}
	if f.pos < 0 {
		f.pos = 0
	}
	if f.pos > len(f.data) {
		f.pos = len(f.data)
	}
	return f.pos
}

func (fs *MemFS) Close(h FileHandle) {
	f, ok := fs.handles[h]
	if !ok {
		return
	}
	if f.writing {
		fs.Files[f.path] = f.data
	}
	delete(fs.handles, h)
}

func (fs *MemFS) ListDir(path, ext string) []string {
	prefix := path
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	var out []string
	for name := range fs.Files {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		rest := strings.TrimPrefix(name, prefix)
		if strings.Contains(rest, "/") {
			continue
		}
		if ext != "" && !strings.HasSuffix(rest, ext) {
			continue
		}
		out = append(out, rest)
	}
	sort.Strings(out)
	return out
}

func (fs *MemFS) Load(path string) []byte {
	data, ok := fs.Files[path]
	if !ok {
		return nil
	}
	return append([]byte(nil), data...)
}

// FixedClock is a test clock advanced by hand.
type FixedClock struct {
	Now int
}

func (c *FixedClock) Milliseconds() int { return c.Now }

// Advance moves the clock forward.
func (c *FixedClock) Advance(ms int) { c.Now += ms }

// NullRenderer discards all scene submissions but keeps registration
// handles stable so the presentation VM sees consistent values.
type NullRenderer struct {
	nextHandle int
	names      map[string]int

	// Scene counters, visible to tests and the debug server.
	Entities int
	Polys    int
	Scenes   int
}

func (r *NullRenderer) handleFor(name string) int {
	if r.names == nil {
		r.names = make(map[string]int)
		r.nextHandle = 1
	}
	if h, ok := r.names[name]; ok {
		return h
	}
	h := r.nextHandle
	r.nextHandle++
	r.names[name] = h
	return h
}

func (r *NullRenderer) RegisterModel(name string) int       { return r.handleFor("model:" + name) }
func (r *NullRenderer) RegisterShader(name string) int      { return r.handleFor("shader:" + name) }
func (r *NullRenderer) RegisterShaderNoMip(name string) int { return r.handleFor("shader2d:" + name) }
func (r *NullRenderer) RegisterSkin(name string) int        { return r.handleFor("skin:" + name) }
func (r *NullRenderer) RegisterFont(name string, pointSize int) int {
	return r.handleFor("font:" + name)
}
func (r *NullRenderer) LoadWorld(name string)                                         {}
func (r *NullRenderer) ClearScene()                                                   { r.Entities = 0; r.Polys = 0 }
func (r *NullRenderer) AddRefEntity(ent RefEntity)                                    { r.Entities++ }
func (r *NullRenderer) AddPoly(p Poly)                                                { r.Polys++ }
func (r *NullRenderer) AddPolys(p Poly, count int)                                    { r.Polys += count }
func (r *NullRenderer) AddLight(org [3]float32, intensity float32, red, g, b float32) {}
func (r *NullRenderer) RenderScene(refdef []byte)                                     { r.Scenes++ }
func (r *NullRenderer) SetColor(rgba [4]float32)                                      {}
func (r *NullRenderer) DrawStretchPic(x, y, w, h, s1, t1, s2, t2 float32, shader int) {}
func (r *NullRenderer) LerpTag(tag []byte, model int, startFrame, endFrame int, frac float32, tagName string) int {
	return 0
}
func (r *NullRenderer) ModelBounds(model int) (mins, maxs [3]float32)       { return }
func (r *NullRenderer) RemapShader(oldShader, newShader, timeOffset string) {}

// NullAudio discards all sound output.
type NullAudio struct {
	nextHandle int
	names      map[string]int
}

func (a *NullAudio) RegisterSound(name string, compressed bool) int {
	if a.names == nil {
		a.names = make(map[string]int)
		a.nextHandle = 1
	}
	if h, ok := a.names[name]; ok {
		return h
	}
	h := a.nextHandle
	a.nextHandle++
	a.names[name] = h
	return h
}

func (a *NullAudio) StartSound(origin [3]float32, entityNum, channel, sfx int)           {}
func (a *NullAudio) StartLocalSound(sfx int, channel int)                                {}
func (a *NullAudio) ClearLoopingSounds(killAll bool)                                     {}
func (a *NullAudio) AddLoopingSound(entityNum int, origin, velocity [3]float32, sfx int) {}
func (a *NullAudio) StopLoopingSound(entityNum int)                                      {}
func (a *NullAudio) UpdateEntityPosition(entityNum int, origin [3]float32)               {}
func (a *NullAudio) Respatialize(entityNum int, origin [3]float32, axis [3][3]float32)   {}
func (a *NullAudio) StartBackgroundTrack(intro, loop string)                             {}
func (a *NullAudio) StopBackgroundTrack()                                                {}

// NullInput reports no keys held and empty bindings.
type NullInput struct {
	Catcher  int
	Bindings map[int]string
}

func (i *NullInput) KeyIsDown(key int) bool    { return false }
func (i *NullInput) KeyGetCatcher() int        { return i.Catcher }
func (i *NullInput) KeySetCatcher(catcher int) { i.Catcher = catcher }
func (i *NullInput) KeyBinding(key int) string { return i.Bindings[key] }
func (i *NullInput) SetKeyBinding(key int, binding string) {
	if i.Bindings == nil {
		i.Bindings = make(map[int]string)
	}
	i.Bindings[key] = binding
}
