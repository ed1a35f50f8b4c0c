package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// ErrServiceNotFound is returned when the MediaPipe service script cannot be
// located.
var ErrServiceNotFound = errors.New("mediapipe_service.py not found")

const serviceScript = "mediapipe_service.py"

// MediaPipeDetector runs hand landmark detection in a Python MediaPipe
// subprocess. Each frame is written to its stdin as a 4-byte big-endian
// length followed by a JPEG; the service answers with one JSON line.
//
// The service starts on the first Detect and is stopped after
// Config.IdleShutdownMs without frames, so pointer-only sessions do not keep
// a Python process alive.
type MediaPipeDetector struct {
	config Config
	script string
	python string

	mu      sync.Mutex
	proc    *service
	idle    *time.Timer
	stopped bool
}

// service is one running subprocess.
type service struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
}

// NewMediaPipeDetector locates the service script and a Python interpreter.
// Nothing is started until the first Detect.
func NewMediaPipeDetector(config Config) (*MediaPipeDetector, error) {
	candidates := scriptCandidates()
	if config.ScriptPath != "" {
		candidates = []string{config.ScriptPath}
	}
	script := findFile(candidates)
	if script == "" {
		return nil, ErrServiceNotFound
	}
	python := findFile(venvCandidates())
	if python == "" {
		python = "python3"
	}
	return &MediaPipeDetector{config: config, script: script, python: python}, nil
}

// Detect sends frame to the service and returns the hands it found.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return nil, errors.New("detector closed")
	}
	if d.proc == nil {
		proc, err := d.start()
		if err != nil {
			return nil, err
		}
		d.proc = proc
	}

	hands, err := d.proc.roundTrip(frame)
	if err != nil {
		// A broken pipe leaves the service unusable; the next call restarts it.
		d.stopService()
		return nil, err
	}

	d.scheduleIdleStop()
	return filterHands(hands, d.config), nil
}

// Close stops the service. Detect fails afterwards.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	return d.stopService()
}

func (d *MediaPipeDetector) start() (*service, error) {
	cmd := exec.Command(d.python, d.script,
		"--max-hands", strconv.Itoa(d.config.MaxHands),
		"--min-detection-confidence", strconv.FormatFloat(d.config.MinConfidence, 'f', -1, 64),
		"--min-tracking-confidence", strconv.FormatFloat(d.config.MinTrackingConf, 'f', -1, 64),
	)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start mediapipe service: %w", err)
	}

	return &service{cmd: cmd, stdin: stdin, stdout: bufio.NewReader(stdout)}, nil
}

func (d *MediaPipeDetector) scheduleIdleStop() {
	if d.config.IdleShutdownMs <= 0 {
		return
	}
	if d.idle != nil {
		d.idle.Stop()
	}
	d.idle = time.AfterFunc(time.Duration(d.config.IdleShutdownMs)*time.Millisecond, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.stopService()
	})
}

// stopService closes the service's stdin and waits for it to exit. Callers
// hold mu.
func (d *MediaPipeDetector) stopService() error {
	if d.idle != nil {
		d.idle.Stop()
		d.idle = nil
	}
	if d.proc == nil {
		return nil
	}
	proc := d.proc
	d.proc = nil
	proc.stdin.Close()
	return proc.cmd.Wait()
}

func (s *service) roundTrip(frame *gocv.Mat) ([]HandLandmarks, error) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()
	data := buf.GetBytes()

	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(data)))
	if _, err := s.stdin.Write(header[:]); err != nil {
		return nil, fmt.Errorf("write length: %w", err)
	}
	if _, err := s.stdin.Write(data); err != nil {
		return nil, fmt.Errorf("write frame: %w", err)
	}

	line, err := s.stdout.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return parseResponse(line)
}

// parseResponse decodes one service answer.
func parseResponse(line []byte) ([]HandLandmarks, error) {
	var resp struct {
		Hands []jsonHand `json:"hands"`
		Error string     `json:"error"`
	}
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("mediapipe service: %s", resp.Error)
	}

	hands := make([]HandLandmarks, 0, len(resp.Hands))
	for _, h := range resp.Hands {
		if len(h.Points) < NumLandmarks {
			continue
		}
		lm := HandLandmarks{Handedness: h.Handedness, Score: h.Score}
		copy(lm.Points[:], h.Points)
		hands = append(hands, lm)
	}
	return hands, nil
}

// filterHands drops low-confidence hands and caps the count at MaxHands.
func filterHands(hands []HandLandmarks, cfg Config) []HandLandmarks {
	kept := hands[:0]
	for _, h := range hands {
		if h.Score < cfg.MinConfidence {
			continue
		}
		kept = append(kept, h)
		if cfg.MaxHands > 0 && len(kept) == cfg.MaxHands {
			break
		}
	}
	return kept
}

type jsonHand struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness"`
	Score      float64   `json:"score"`
}

func scriptCandidates() []string {
	paths := []string{
		filepath.Join("scripts", serviceScript),
		filepath.Join("..", "scripts", serviceScript),
	}
	if exe, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(exe), "scripts", serviceScript))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".lumiere", "scripts", serviceScript))
	}
	return paths
}

func venvCandidates() []string {
	paths := []string{
		filepath.Join("venv", "bin", "python"),
		filepath.Join("..", "venv", "bin", "python"),
	}
	if exe, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(exe), "venv", "bin", "python"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".lumiere", "venv", "bin", "python"))
	}
	return paths
}

// findFile returns the absolute path of the first existing candidate.
func findFile(candidates []string) string {
	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
		return path
	}
	return ""
}
