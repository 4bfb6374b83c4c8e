package cvar

import (
	"strings"
	"testing"

	"arena3/internal/host"
)

func newTestRegistry() (*Registry, *host.RecordingConsole) {
	con := &host.RecordingConsole{}
	return NewRegistry(con), con
}

func TestGetCachesNumericForms(t *testing.T) {
	r, _ := newTestRegistry()
	v := r.Get("g_speed", "320", 0)
	if v.Integer != 320 || v.Value != 320 {
		t.Fatalf("cached forms = %d / %v", v.Integer, v.Value)
	}

	r.Set("g_speed", "12.5")
	if v.Value != 12.5 || v.Integer != 12 {
		t.Fatalf("after set: %v / %d", v.Value, v.Integer)
	}
}

// TestModificationCounter: every successful set strictly increments, and
// refused or no-op sets leave the counter alone.
func TestModificationCounter(t *testing.T) {
	r, _ := newTestRegistry()
	v := r.Get("name", "base", 0)
	start := v.ModificationCount

	r.Set("name", "one")
	if v.ModificationCount != start+1 {
		t.Fatalf("count = %d after first set", v.ModificationCount)
	}
	r.Set("name", "one") // unchanged value
	if v.ModificationCount != start+1 {
		t.Fatal("no-op set bumped the counter")
	}
	r.Set("name", "two")
	if v.ModificationCount != start+2 {
		t.Fatal("second set did not increment")
	}
}

func TestReadOnlyRefused(t *testing.T) {
	r, con := newTestRegistry()
	v := r.Get("version", "1.32", ROM)
	before := v.ModificationCount

	r.Set("version", "hacked")
	if v.String != "1.32" || v.ModificationCount != before {
		t.Fatalf("rom cvar changed: %q", v.String)
	}
	if len(con.Lines) == 0 || !strings.Contains(con.Lines[0], "read only") {
		t.Fatalf("no refusal message: %v", con.Lines)
	}
}

func TestInitOnlyWindow(t *testing.T) {
	r, _ := newTestRegistry()
	v := r.Get("fs_game", "baseq3", Init)

	r.Set("fs_game", "mod") // startup phase still open
	if v.String != "mod" {
		t.Fatal("init cvar refused during startup")
	}

	r.FinishStartup()
	r.Set("fs_game", "other")
	if v.String != "mod" {
		t.Fatal("init cvar writable after startup")
	}
}

// TestLatch: a latched set leaves the live value alone until applied, then
// applies with exactly one counter increment.
func TestLatch(t *testing.T) {
	r, con := newTestRegistry()
	v := r.Get("sv_maxclients", "8", Latch)
	before := v.ModificationCount

	r.Set("sv_maxclients", "16")
	if v.String != "8" || v.LatchedString != "16" {
		t.Fatalf("live %q latched %q", v.String, v.LatchedString)
	}
	if v.ModificationCount != before {
		t.Fatal("latched set bumped the counter early")
	}
	if len(con.Lines) == 0 || !strings.Contains(con.Lines[0], "restarting") {
		t.Fatalf("no latch notice: %v", con.Lines)
	}

	r.ApplyLatched("sv_maxclients")
	if v.String != "16" || v.LatchedString != "" {
		t.Fatalf("after apply: live %q latched %q", v.String, v.LatchedString)
	}
	if v.ModificationCount != before+1 {
		t.Fatalf("counter = %d, want exactly one increment", v.ModificationCount)
	}
}

func TestLatchBackToCurrentClears(t *testing.T) {
	r, _ := newTestRegistry()
	v := r.Get("sv_maxclients", "8", Latch)
	r.Set("sv_maxclients", "16")
	r.Set("sv_maxclients", "8") // back to live value
	if v.LatchedString != "" {
		t.Fatalf("latched = %q, want cleared", v.LatchedString)
	}
}

func TestCheatProtection(t *testing.T) {
	r, _ := newTestRegistry()
	v := r.Get("g_knockback", "1000", Cheat)

	r.Set("g_knockback", "9999")
	if v.String != "1000" {
		t.Fatal("cheat cvar writable with cheats off")
	}

	r.SetCheats(true)
	r.Set("g_knockback", "9999")
	if v.String != "9999" {
		t.Fatal("cheat cvar refused with cheats on")
	}

	// cheats off resets to default
	r.SetCheats(false)
	if v.String != "1000" {
		t.Fatalf("cheat cvar kept %q after cheats off", v.String)
	}
}

func TestUserCreatedUpgrade(t *testing.T) {
	r, _ := newTestRegistry()
	r.Set("g_custom", "5") // set before any registration
	v := r.Get("g_custom", "0", Archive)
	if v.String != "5" {
		t.Fatalf("value lost on upgrade: %q", v.String)
	}
	if v.Flags&UserCreated != 0 {
		t.Fatal("user-created flag kept after registration")
	}
}

func TestFlagLetters(t *testing.T) {
	r, _ := newTestRegistry()
	v := r.Get("sv_hostname", "noname", Archive|ServerInfo)
	letters := v.FlagLetters()
	if letters[0] != 'A' || letters[2] != 'S' {
		t.Fatalf("letters = %q", letters)
	}
	if strings.ContainsAny(letters, "UILC") {
		t.Fatalf("unexpected letters: %q", letters)
	}
}

func TestInfoString(t *testing.T) {
	r, _ := newTestRegistry()
	r.Get("sv_hostname", "arena", ServerInfo)
	r.Get("g_gravity", "800", ServerInfo)
	r.Get("cl_name", "player", UserInfo)

	info := r.InfoString(ServerInfo)
	if !strings.Contains(info, "\\sv_hostname\\arena") || !strings.Contains(info, "\\g_gravity\\800") {
		t.Fatalf("serverinfo = %q", info)
	}
	if strings.Contains(info, "cl_name") {
		t.Fatalf("userinfo leaked into serverinfo: %q", info)
	}
}

func TestWriteVariables(t *testing.T) {
	r, _ := newTestRegistry()
	r.Get("com_hunkmegs", "64", Archive)
	r.Get("notsaved", "1", 0)
	out := r.WriteVariables()
	if !strings.Contains(out, "seta com_hunkmegs \"64\"") {
		t.Fatalf("archive output = %q", out)
	}
	if strings.Contains(out, "notsaved") {
		t.Fatalf("non-archive cvar written: %q", out)
	}
}
