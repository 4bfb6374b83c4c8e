package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"arena3/internal/api"
	"arena3/internal/config"
	"arena3/internal/debugview"
	"arena3/internal/engine"
	"arena3/internal/host"
	"arena3/internal/server"
	"arena3/internal/sound"
	"arena3/internal/world"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("no .env file, using environment only")
	}

	log.Println("================================")
	log.Println(" ARENA3 - dedicated engine shell")
	log.Println("================================")

	appConfig := config.Load()
	serverCfg := appConfig.Server
	debugCfg := appConfig.Debug
	audioCfg := appConfig.Audio
	videoCfg := appConfig.Video

	log.Printf("base path: %s", serverCfg.BasePath)

	fs := host.NewDirFS(serverCfg.BasePath)
	clock := host.NewSystemClock()
	audio := sound.NewOutput(fs, audioCfg.Volume, audioCfg.Enabled)

	e := engine.New(engine.Options{
		Console:   host.LogConsole{},
		FS:        fs,
		Clock:     clock,
		Renderer:  &host.NullRenderer{},
		Audio:     audio,
		Input:     &host.NullInput{},
		VidWidth:  videoCfg.Width,
		VidHeight: videoCfg.Height,
	})
	e.Init()

	if debugCfg.Enabled {
		if err := api.StartDebugServer(api.ObservabilityConfig{
			Enabled:    true,
			ListenAddr: debugCfg.DebugAddr,
		}); err != nil {
			log.Printf("debug server disabled: %v", err)
		}

		status := api.NewServer(api.RouterConfig{
			StatusFunc:  func() api.Status { return sampleStatus(e) },
			ViewFunc:    func() []byte { return renderView(e) },
			ConsoleFunc: func(line string) { e.Cmds.Append(line) },
		})
		go func() {
			if err := status.Start(debugCfg.StatusAddr); err != nil {
				log.Printf("status API stopped: %v", err)
			}
		}()
	}

	for _, arg := range os.Args[1:] {
		e.Cmds.Append(arg)
	}
	if serverCfg.StartMap != "" {
		e.Cmds.Append("map " + serverCfg.StartMap)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(time.Duration(serverCfg.FrameMsec) * time.Millisecond)
	defer ticker.Stop()

	log.Printf("engine running (%d ms frame granularity)", serverCfg.FrameMsec)
	for {
		select {
		case <-sigChan:
			log.Println("shutting down")
			writeConfiguration(fs, serverCfg.ConfigFile, e.Shutdown())
			return
		case <-ticker.C:
			e.Frame()
		}
	}
}

// sampleStatus copies the engine state the status API publishes.
func sampleStatus(e *engine.Engine) api.Status {
	stateNames := map[server.State]string{
		server.StateDead:    "dead",
		server.StateLoading: "loading",
		server.StateGame:    "game",
	}
	s := api.Status{
		Map:             e.MapName(),
		ServerState:     stateNames[e.SV.State()],
		ServerTime:      e.SV.Time,
		FrameCount:      e.FrameCount,
		GameSyscalls:    e.SV.MetricSyscalls,
		ClientSyscalls:  e.CL.MetricSyscalls,
		ClientConnected: e.CL.Connected(),
		UIActive:        e.CL.UIActive(),
	}
	if w := e.SV.World(); w != nil {
		out := make([]int, world.MaxGentities)
		s.LinkedEntities = w.EntitiesInBox(
			[3]float32{-65536, -65536, -65536},
			[3]float32{65536, 65536, 65536}, out)
	}
	api.SetServerTime(s.ServerTime)
	api.SetEntityCount(s.LinkedEntities)
	return s
}

// renderView rasterizes the top-down debug image of the linked world.
func renderView(e *engine.Engine) []byte {
	clip := e.SV.ClipMap()
	w := e.SV.World()
	if clip == nil || w == nil {
		return nil
	}
	mins, maxs := clip.InlineModelBounds(0)
	scene := &debugview.Scene{
		Map:        e.MapName(),
		ServerTime: e.SV.Time,
		WorldMin:   mins,
		WorldMax:   maxs,
	}

	out := make([]int, world.MaxGentities)
	n := w.EntitiesInBox(mins, maxs, out)
	for i := 0; i < n; i++ {
		ent := w.Ent(out[i])
		scene.Entities = append(scene.Entities, debugview.Box{
			Num: ent.Num,
			Min: ent.AbsMin,
			Max: ent.AbsMax,
		})
	}

	if e.CL.Connected() {
		scene.Player = e.CL.PredictedState().Origin()
		scene.HasPlayer = true
	}
	return debugview.RenderPNG(scene)
}

func writeConfiguration(fs *host.DirFS, name, contents string) {
	if contents == "" {
		return
	}
	h := fs.OpenWrite(name)
	if h == 0 {
		log.Printf("couldn't write %s", name)
		return
	}
	fs.Write(h, []byte(contents))
	fs.Close(h)
	log.Printf("wrote %s", name)
}
