// Package testdata embeds camera frames and sample photos for tests.
package testdata

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"gocv.io/x/gocv"
)

//go:embed frames photos
var fixturesFS embed.FS

// LoadFrame loads a test frame by name
func LoadFrame(name string) (*gocv.Mat, error) {
	data, err := fixturesFS.ReadFile("frames/" + name)
	if err != nil {
		return nil, fmt.Errorf("load frame %s: %w", name, err)
	}

	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode frame %s: %w", name, err)
	}

	return &mat, nil
}

// LoadSequence loads every frame in dir, in name order.
func LoadSequence(dir string) ([]*gocv.Mat, error) {
	entries, err := fixturesFS.ReadDir("frames/" + dir)
	if err != nil {
		return nil, err
	}

	var frames []*gocv.Mat
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		frame, err := LoadFrame(dir + "/" + entry.Name())
		if err != nil {
			// Clean up already loaded frames
			for _, f := range frames {
				f.Close()
			}
			return nil, err
		}
		frames = append(frames, frame)
	}

	return frames, nil
}

// Photo returns the encoded bytes of a sample photo.
func Photo(name string) ([]byte, error) {
	data, err := fixturesFS.ReadFile("photos/" + name)
	if err != nil {
		return nil, fmt.Errorf("load photo %s: %w", name, err)
	}
	return data, nil
}

// PhotoNames lists the sample photos in name order.
func PhotoNames() []string {
	names, _ := fs.Glob(fixturesFS, "photos/*")
	for i, n := range names {
		names[i] = n[len("photos/"):]
	}
	sort.Strings(names)
	return names
}
