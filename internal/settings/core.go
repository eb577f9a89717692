// Package settings implements SettingsCore (C9): a live, hot-mutable
// parameter surface consumed by the detection, gate, and packaging
// stages (spec.md §4.9).
package settings

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Core is the full parameter surface. Reads/writes are protected by a
// short mutex critical section; consumers copy primitives out at the
// top of each frame step so no lock is held across OpenCV work
// (spec.md §5).
type Core struct {
	mu sync.RWMutex

	Detection   DetectionConfig   `yaml:"detection"`
	Gate        GateConfig        `yaml:"gate"`
	Packaging   PackagingConfig   `yaml:"packaging"`
	Performance PerformanceConfig `yaml:"performance"`
	Camera      CameraConfig      `yaml:"camera"`
	Storage     StorageConfig     `yaml:"storage"`
}

// Load reads a YAML file into a fresh Core seeded with Defaults(), so
// any field the file omits keeps its compiled-in default.
func Load(path string) (*Core, error) {
	c := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("read settings %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", path, err)
	}
	return c, nil
}

// Save persists the current settings back to path (disk persistence of
// the full settings surface is a boundary concern; this is provided
// for the CLI/service-restart path, not a GUI save dialog).
func (c *Core) Save(path string) error {
	c.mu.RLock()
	data, err := yaml.Marshal(c)
	c.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write settings %s: %w", path, err)
	}
	return nil
}

// DetectionSnapshot returns a copy of the detection section.
func (c *Core) DetectionSnapshot() DetectionConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Detection
}

// GateSnapshot returns a copy of the gate section.
func (c *Core) GateSnapshot() GateConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Gate
}

// PackagingSnapshot returns a copy of the packaging section.
func (c *Core) PackagingSnapshot() PackagingConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Packaging
}

// PerformanceSnapshot returns a copy of the performance section.
func (c *Core) PerformanceSnapshot() PerformanceConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Performance
}

// CameraSnapshot returns a copy of the camera section.
func (c *Core) CameraSnapshot() CameraConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Camera
}

// StorageSnapshot returns a copy of the storage section.
func (c *Core) StorageSnapshot() StorageConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Storage
}

// UpdateDetection validates and applies a full replacement of the
// detection section. A ConfigInvariantViolation rejects the update and
// keeps the previous value (spec.md §7).
func (c *Core) UpdateDetection(next DetectionConfig) error {
	if err := validateDetection(next); err != nil {
		return err
	}
	c.mu.Lock()
	c.Detection = next
	c.mu.Unlock()
	return nil
}

// UpdateGate validates and applies a full replacement of the gate section.
func (c *Core) UpdateGate(next GateConfig) error {
	if err := validateGate(next); err != nil {
		return err
	}
	c.mu.Lock()
	c.Gate = next
	c.mu.Unlock()
	return nil
}

// UpdatePackaging validates and applies a full replacement of the
// packaging section.
func (c *Core) UpdatePackaging(next PackagingConfig) error {
	if err := validatePackaging(next); err != nil {
		return err
	}
	c.mu.Lock()
	c.Packaging = next
	c.mu.Unlock()
	return nil
}

// UpdatePerformance applies the performance section (no invariants to
// violate beyond non-negativity, checked inline).
func (c *Core) UpdatePerformance(next PerformanceConfig) error {
	if next.TargetProcessingWidth < 0 || next.SkipFrames < 0 {
		return &ConfigInvariantViolation{Field: "performance", Reason: "negative value"}
	}
	c.mu.Lock()
	c.Performance = next
	c.mu.Unlock()
	return nil
}
