package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/ayusman/poseguard/internal/analyzer"
	"github.com/ayusman/poseguard/internal/app"
	"github.com/ayusman/poseguard/internal/config"
	"github.com/ayusman/poseguard/internal/server"
	"github.com/ayusman/poseguard/internal/store"
	"github.com/ayusman/poseguard/internal/tray"
)

func main() {
	configPath := flag.String("config", "", "path to a JSON config file")
	headless := flag.Bool("headless", false, "run without the system tray")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	flag.Parse()

	fmt.Println("PoseGuard - Raise Both Hands")

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	if *headless {
		cfg.Headless = true
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	st, err := store.New(cfg.DatabasePath())
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	a := app.New(app.Config{
		Store:          st,
		HookDir:        cfg.HookDir,
		HookTimeout:    cfg.GetHookTimeout(),
		CameraID:       cfg.CameraID,
		FPS:            cfg.FPS,
		MinLikelihood:  cfg.MinLikelihood,
		RequiredFrames: cfg.RequiredFrames,
		Viewport: analyzer.Viewport{
			Width:       cfg.Viewport.Width,
			Height:      cfg.Viewport.Height,
			FrontCamera: cfg.FrontCamera,
		},
	})

	if err := a.DiscoverHooks(); err != nil {
		log.Printf("Failed to discover hooks: %v", err)
	} else {
		log.Printf("Loaded %d hooks from %s", len(a.HookManager().List()), cfg.HookDir)
	}

	if err := a.Start(); err != nil {
		log.Fatalf("Failed to start pipeline: %v", err)
	}

	webDir := findWebDir(cfg.DataDir)
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		Pipeline:  a,
	})
	defer srv.Close()

	go func() {
		fmt.Printf("Starting server on %s\n", cfg.ListenAddr)
		if err := srv.ListenAndServe(cfg.ListenAddr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	if cfg.Headless {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()
		a.Stop()
		return
	}

	t := tray.New(a.Viewport().FrontCamera)
	t.OnToggle(a.SetEnabled)
	t.OnReset(a.Reset)
	t.OnSwitchCamera(func() bool {
		front, err := a.SwitchCamera()
		if err != nil {
			log.Printf("Failed to save camera facing: %v", err)
		}
		return front
	})
	t.OnSettings(func() {
		openBrowser("http://" + browserAddr(cfg.ListenAddr))
	})
	t.OnQuit(a.Stop)

	a.OnConfirmation(func(c *store.Confirmation) {
		t.SetLastConfirmation(c.ConfirmedAt)
	})

	go func() {
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()
		for range ticker.C {
			s := a.State()
			t.SetPhase(s.Phase(), s.Count)
		}
	}()

	t.Run()
}

// browserAddr turns a listen address like ":8080" into a dialable host.
func browserAddr(listen string) string {
	if strings.HasPrefix(listen, ":") {
		return "localhost" + listen
	}
	return listen
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Failed to open browser: %v", err)
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and <dataDir>/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	candidates := []string{"web", "../web", "../../web", filepath.Join(dataDir, "web")}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}
	return ""
}
