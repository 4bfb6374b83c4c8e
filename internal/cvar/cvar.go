// Package cvar is the scripted-configuration registry: named, typed,
// flagged values with modification tracking. Values live as strings with
// eagerly cached numeric forms; flagged writes are refused or latched
// according to the flag set.
package cvar

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"arena3/internal/host"
)

// Flags is the cvar flag set. Bit values are part of the VM contract.
type Flags int32

const (
	Archive     Flags = 1 << 0 // written to the config file on exit
	UserInfo    Flags = 1 << 1 // sent to the server in the userinfo string
	ServerInfo  Flags = 1 << 2 // published in the serverinfo string
	SystemInfo  Flags = 1 << 3 // duplicated on all clients
	Init        Flags = 1 << 4 // settable only at startup
	Latch       Flags = 1 << 5 // change applies on next restart
	ROM         Flags = 1 << 6 // never writable from outside
	UserCreated Flags = 1 << 7 // created by a set command
	Temp        Flags = 1 << 8
	Cheat       Flags = 1 << 9  // writable only when cheats are on
	NoRestart   Flags = 1 << 10 // not cleared by a cvar_restart
)

// CVar is one registered variable. Callers read the cached numeric forms
// and the strictly increasing ModificationCount.
type CVar struct {
	Name              string
	String            string
	ResetString       string
	LatchedString     string
	Flags             Flags
	Modified          bool
	ModificationCount int
	Value             float32
	Integer           int
}

func (v *CVar) update(value string) {
	v.String = value
	f, _ := strconv.ParseFloat(value, 32)
	v.Value = float32(f)
	i, err := strconv.Atoi(value)
	if err != nil {
		i = int(f)
	}
	v.Integer = i
	v.Modified = true
	v.ModificationCount++
}

// FlagLetters renders the listing code letters for the flag set.
func (v *CVar) FlagLetters() string {
	var sb strings.Builder
	for _, fl := range []struct {
		bit    Flags
		letter byte
	}{
		{Archive, 'A'},
		{UserInfo, 'U'},
		{ServerInfo, 'S'},
		{ROM, 'R'},
		{Init, 'I'},
		{Latch, 'L'},
		{Cheat, 'C'},
	} {
		if v.Flags&fl.bit != 0 {
			sb.WriteByte(fl.letter)
		} else {
			sb.WriteByte(' ')
		}
	}
	return sb.String()
}

// Registry owns every cvar. It is a field of the engine context, never a
// global.
type Registry struct {
	console  host.Console
	vars     map[string]*CVar
	cheats   bool
	starting bool // init-only cvars accept sets while true

	// ModifiedFlags accumulates the flag bits of every modified cvar so
	// subsystems can notice their group changed.
	ModifiedFlags Flags
}

// NewRegistry returns an empty registry in its startup phase.
func NewRegistry(console host.Console) *Registry {
	return &Registry{
		console:  console,
		vars:     make(map[string]*CVar),
		starting: true,
	}
}

// FinishStartup closes the window in which init-only cvars may be set.
func (r *Registry) FinishStartup() { r.starting = false }

// SetCheats toggles cheat-flagged writes. Turning cheats off resets every
// cheat cvar to its default.
func (r *Registry) SetCheats(on bool) {
	r.cheats = on
	if on {
		return
	}
	for _, v := range r.vars {
		if v.Flags&Cheat != 0 && v.String != v.ResetString {
			v.update(v.ResetString)
		}
	}
}

// Lookup returns the cvar or nil.
func (r *Registry) Lookup(name string) *CVar {
	return r.vars[strings.ToLower(name)]
}

// Get registers a cvar, creating it with the default value or upgrading
// the flags of an existing one. Registration of a latched cvar applies any
// pending latched value.
func (r *Registry) Get(name, defaultValue string, flags Flags) *CVar {
	key := strings.ToLower(name)
	if v, ok := r.vars[key]; ok {
		v.Flags |= flags
		if v.Flags&UserCreated != 0 && flags&^UserCreated != 0 {
			v.Flags &^= UserCreated
			v.ResetString = defaultValue
		}
		if v.ResetString == "" {
			v.ResetString = defaultValue
		}
		if v.LatchedString != "" {
			v.update(v.LatchedString)
			v.LatchedString = ""
		}
		return v
	}
	v := &CVar{
		Name:        name,
		ResetString: defaultValue,
		Flags:       flags,
	}
	v.update(defaultValue)
	r.vars[key] = v
	r.ModifiedFlags |= flags
	return v
}

// Set writes a value under the external-write rules: read-only and
// init-only refuse, latch defers, cheat requires cheats on. Returns the
// cvar (created user_created when unknown).
func (r *Registry) Set(name, value string) *CVar {
	v := r.Lookup(name)
	if v == nil {
		return r.Get(name, value, UserCreated)
	}

	switch {
	case v.Flags&ROM != 0:
		r.console.Print(fmt.Sprintf("%s is read only.\n", v.Name))
		return v
	case v.Flags&Init != 0 && !r.starting:
		r.console.Print(fmt.Sprintf("%s is write protected.\n", v.Name))
		return v
	case v.Flags&Cheat != 0 && !r.cheats:
		r.console.Print(fmt.Sprintf("%s is cheat protected.\n", v.Name))
		return v
	case v.Flags&Latch != 0:
		if v.String == value {
			v.LatchedString = ""
			return v
		}
		if v.LatchedString == value {
			return v
		}
		r.console.Print(fmt.Sprintf("%s will be changed upon restarting.\n", v.Name))
		v.LatchedString = value
		return v
	}

	if v.String == value {
		return v
	}
	r.ModifiedFlags |= v.Flags
	v.update(value)
	return v
}

// ForceSet writes a value bypassing the external-write rules; the engine
// uses it for values it owns (serverinfo projection, rom bookkeeping).
func (r *Registry) ForceSet(name, value string) *CVar {
	v := r.Lookup(name)
	if v == nil {
		return r.Get(name, value, 0)
	}
	if v.String != value {
		r.ModifiedFlags |= v.Flags
		v.update(value)
	}
	v.LatchedString = ""
	return v
}

// ApplyLatched promotes a pending latched value into the live one.
func (r *Registry) ApplyLatched(name string) {
	v := r.Lookup(name)
	if v == nil || v.LatchedString == "" {
		return
	}
	v.update(v.LatchedString)
	v.LatchedString = ""
}

// ApplyAllLatched promotes every pending latched value, as a restart does.
func (r *Registry) ApplyAllLatched() {
	for _, v := range r.vars {
		if v.LatchedString != "" {
			v.update(v.LatchedString)
			v.LatchedString = ""
		}
	}
}

// VariableString returns the live value, empty for unknown names.
func (r *Registry) VariableString(name string) string {
	if v := r.Lookup(name); v != nil {
		return v.String
	}
	return ""
}

// VariableInteger returns the cached integer, zero for unknown names.
func (r *Registry) VariableInteger(name string) int {
	if v := r.Lookup(name); v != nil {
		return v.Integer
	}
	return 0
}

// VariableValue returns the cached float, zero for unknown names.
func (r *Registry) VariableValue(name string) float32 {
	if v := r.Lookup(name); v != nil {
		return v.Value
	}
	return 0
}

// InfoString renders a backslash-separated key/value string over the cvars
// carrying the given flag, the serverinfo/userinfo projection format.
func (r *Registry) InfoString(flag Flags) string {
	names := make([]string, 0, len(r.vars))
	for key, v := range r.vars {
		if v.Flags&flag != 0 {
			names = append(names, key)
		}
	}
	sort.Strings(names)
	var sb strings.Builder
	for _, key := range names {
		v := r.vars[key]
		if v.String == "" {
			continue
		}
		sb.WriteByte('\\')
		sb.WriteString(v.Name)
		sb.WriteByte('\\')
		sb.WriteString(v.String)
	}
	return sb.String()
}

// WriteVariables renders the archive cvars as config-file set lines, the
// form sourced back on the next startup.
func (r *Registry) WriteVariables() string {
	names := make([]string, 0, len(r.vars))
	for key, v := range r.vars {
		if v.Flags&Archive != 0 {
			names = append(names, key)
		}
	}
	sort.Strings(names)
	var sb strings.Builder
	for _, key := range names {
		v := r.vars[key]
		value := v.String
		if v.LatchedString != "" {
			value = v.LatchedString
		}
		fmt.Fprintf(&sb, "seta %s \"%s\"\n", v.Name, value)
	}
	return sb.String()
}

// List prints every cvar with its flag letters, filtered by an optional
// substring match.
func (r *Registry) List(match string) {
	names := make([]string, 0, len(r.vars))
	for key := range r.vars {
		names = append(names, key)
	}
	sort.Strings(names)
	count := 0
	for _, key := range names {
		v := r.vars[key]
		if match != "" && !strings.Contains(strings.ToLower(v.Name), strings.ToLower(match)) {
			continue
		}
		r.console.Print(fmt.Sprintf("%s %s \"%s\"\n", v.FlagLetters(), v.Name, v.String))
		count++
	}
	r.console.Print(fmt.Sprintf("%d cvars\n", count))
}
