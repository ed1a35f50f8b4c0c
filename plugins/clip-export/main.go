// Package main provides a clip export plugin. It records the screen with
// ffmpeg between a start and a stop request. Each request is a separate
// process, so the running recorder is tracked through a pid file.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action    string          `json:"action"`
	Recording string          `json:"recording"`
	Kind      string          `json:"kind"`
	ElapsedMs int64           `json:"elapsedMs"`
	Config    json.RawMessage `json:"config"`
	Params    json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Params configures where and how clips are written.
type Params struct {
	OutputDir string `json:"outputDir"`
	FPS       int    `json:"fps"`
	// DryRun writes a small description file instead of launching ffmpeg.
	DryRun bool `json:"dryRun"`
}

// ClipInfo is returned in the response data.
type ClipInfo struct {
	File      string `json:"file"`
	Kind      string `json:"kind,omitempty"`
	ElapsedMs int64  `json:"elapsedMs,omitempty"`
}

type actionHandler func(req *Request, p Params) (*ClipInfo, error)

var actionHandlers = map[string]actionHandler{
	"start": start,
	"stop":  stop,
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	handler, ok := actionHandlers[req.Action]
	if !ok {
		writeErrorResponse(fmt.Sprintf("unknown action: %s", req.Action))
		return
	}

	p, err := parseParams(req.Params)
	if err != nil {
		writeErrorResponse(err.Error())
		return
	}

	info, err := handler(&req, p)
	if err != nil {
		writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
		return
	}

	writeSuccessResponse(info)
}

func parseParams(raw json.RawMessage) (Params, error) {
	p := Params{OutputDir: "clips", FPS: 30}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p); err != nil {
			return p, fmt.Errorf("failed to parse params: %w", err)
		}
	}
	if p.FPS <= 0 {
		p.FPS = 30
	}
	return p, nil
}

func clipPath(p Params, recording string) string {
	return filepath.Join(p.OutputDir, recording+".mp4")
}

func pidPath(p Params, recording string) string {
	return filepath.Join(p.OutputDir, "."+recording+".pid")
}

func start(req *Request, p Params) (*ClipInfo, error) {
	if req.Recording == "" {
		return nil, errors.New("recording id is required")
	}
	if err := os.MkdirAll(p.OutputDir, 0755); err != nil {
		return nil, err
	}

	out := clipPath(p, req.Recording)
	info := &ClipInfo{File: out, Kind: req.Kind}

	if p.DryRun {
		data, _ := json.Marshal(info)
		return info, os.WriteFile(out+".json", data, 0644)
	}

	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found: %w", err)
	}

	cmd := exec.Command(ffmpeg, captureArgs(runtime.GOOS, p.FPS, out)...)
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	pid := strconv.Itoa(cmd.Process.Pid)
	if err := os.WriteFile(pidPath(p, req.Recording), []byte(pid), 0644); err != nil {
		cmd.Process.Kill()
		return nil, err
	}
	return info, cmd.Process.Release()
}

func stop(req *Request, p Params) (*ClipInfo, error) {
	if req.Recording == "" {
		return nil, errors.New("recording id is required")
	}

	out := clipPath(p, req.Recording)
	info := &ClipInfo{File: out, Kind: req.Kind, ElapsedMs: req.ElapsedMs}

	if p.DryRun {
		if _, err := os.Stat(out + ".json"); err != nil {
			return nil, fmt.Errorf("no clip started for %s", req.Recording)
		}
		data, _ := json.Marshal(info)
		return info, os.WriteFile(out+".json", data, 0644)
	}

	raw, err := os.ReadFile(pidPath(p, req.Recording))
	if err != nil {
		return nil, fmt.Errorf("no clip started for %s", req.Recording)
	}
	defer os.Remove(pidPath(p, req.Recording))

	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("bad pid file: %w", err)
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return nil, err
	}
	// ffmpeg finalises the container on SIGINT.
	if err := proc.Signal(os.Interrupt); err != nil {
		return nil, err
	}
	return info, nil
}

// captureArgs returns the ffmpeg arguments for a full-screen grab.
func captureArgs(goos string, fps int, out string) []string {
	rate := strconv.Itoa(fps)
	var input []string
	switch goos {
	case "darwin":
		input = []string{"-f", "avfoundation", "-framerate", rate, "-i", "1:none"}
	case "windows":
		input = []string{"-f", "gdigrab", "-framerate", rate, "-i", "desktop"}
	default:
		display := os.Getenv("DISPLAY")
		if display == "" {
			display = ":0"
		}
		input = []string{"-f", "x11grab", "-framerate", rate, "-i", display}
	}
	return append(input, "-y", "-pix_fmt", "yuv420p", out)
}

func writeErrorResponse(errMsg string) {
	resp := Response{
		Success: false,
		Error:   errMsg,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

func writeSuccessResponse(info *ClipInfo) {
	resp := Response{Success: true}
	if info != nil {
		resp.Data, _ = json.Marshal(info)
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
