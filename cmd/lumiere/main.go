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

	"github.com/lumiere-studio/lumiere/internal/app"
	"github.com/lumiere-studio/lumiere/internal/config"
	"github.com/lumiere-studio/lumiere/internal/session"
	"github.com/lumiere-studio/lumiere/internal/tray"
)

func main() {
	configPath := flag.String("config", defaultConfigPath(), "path to the TOML config file")
	addr := flag.String("addr", "", "listen address (overrides server.addr)")
	webDir := flag.String("web", "", "static viewer directory (overrides server.static_dir)")
	cameraID := flag.Int("camera", -1, "camera device id (overrides capture.device_id)")
	noCamera := flag.Bool("no-camera", false, "disable hand tracking")
	noTray := flag.Bool("no-tray", false, "run without the system tray")
	flag.Parse()

	fmt.Println("Lumiere - Photo Tree")

	settings, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *addr != "" {
		settings.Server.Addr = *addr
	}
	if *cameraID >= 0 {
		settings.Capture.DeviceID = *cameraID
	}
	if *webDir != "" {
		settings.Server.StaticDir = *webDir
	} else {
		settings.Server.StaticDir = findWebDir(settings.Server.StaticDir)
	}
	if settings.Server.StaticDir != "" {
		fmt.Printf("Serving static files from: %s\n", settings.Server.StaticDir)
	}

	a, err := app.New(app.Config{
		Settings:   settings,
		ConfigPath: *configPath,
		NoCamera:   *noCamera,
	})
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *noTray {
		runErr := a.Run(ctx)
		closeApp(a)
		if runErr != nil {
			log.Fatal(runErr)
		}
		return
	}

	// systray owns the main thread; the app runs beside it.
	t := tray.New()
	t.OnGestureControl(a.SetGestureControl)
	t.OnRecord(func(kind session.RecordingKind) {
		rctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := a.Record(rctx, kind); err != nil {
			log.Printf("Recording %s not started: %v", kind, err)
		}
	})
	t.OnOpenViewer(func() { openBrowser(viewerURL(settings.Server.Addr)) })
	t.OnQuit(stop)

	done := make(chan error, 1)
	go func() {
		done <- a.Run(ctx)
		t.Quit()
	}()
	go syncTray(ctx, t, a)

	t.Run()
	stop()
	if err := <-done; err != nil {
		log.Printf("Run failed: %v", err)
	}
	closeApp(a)
}

func closeApp(a *app.App) {
	if err := a.Close(); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

// syncTray mirrors the session into the tray menu.
func syncTray(ctx context.Context, t *tray.Tray, a *app.App) {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Sync(a.Session())
		}
	}
}

func viewerURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
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

// defaultConfigPath returns ~/.lumiere/config.toml, or config.toml in the
// working directory when the home directory is unknown.
func defaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(homeDir, ".lumiere", "config.toml")
}

// findWebDir searches for the web directory in common locations.
// It checks the configured path, "web", "../web", "../../web", and
// ~/.lumiere/web. Returns the first existing directory or empty string if
// none found.
func findWebDir(configured string) string {
	relativePaths := []string{"web", "../web", "../../web"}
	if configured != "" {
		relativePaths = append([]string{configured}, relativePaths...)
	}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".lumiere", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
