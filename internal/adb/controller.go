package adb

import (
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// Controller drives one ADB device. The device string is the target selector
// handed in at start ("127.0.0.1:port" for emulators, a serial for hardware);
// it is the only component-level knowledge of which window/process is driven.
type Controller struct {
	path      string
	device    string
	mu        sync.Mutex
	connected bool
}

// NewController creates a controller for the given adb binary and device
func NewController(adbPath, device string) *Controller {
	return &Controller{
		path:   adbPath,
		device: device,
	}
}

// Connect establishes the connection to the device
func (c *Controller) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cmd := exec.Command(c.path, "connect", c.device)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to connect to device %s: %w, output: %s", c.device, err, output)
	}

	if !strings.Contains(string(output), "connected") && !strings.Contains(string(output), "already connected") {
		return fmt.Errorf("unexpected connect output: %s", output)
	}

	c.connected = true
	return nil
}

// Disconnect drops the connection to the device
func (c *Controller) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil
	}

	cmd := exec.Command(c.path, "disconnect", c.device)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to disconnect from %s: %w, output: %s", c.device, err, output)
	}

	c.connected = false
	return nil
}

// IsConnected returns whether the controller is connected
func (c *Controller) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Device returns the target device selector
func (c *Controller) Device() string {
	return c.device
}

// Shell executes a shell command on the device and returns trimmed output
func (c *Controller) Shell(command string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cmd := exec.Command(c.path, "-s", c.device, "shell", command)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("shell command failed: %w, output: %s", err, output)
	}

	return strings.TrimSpace(string(output)), nil
}

// ExecOut runs a device command with raw stdout, used for binary payloads
// like screencap where shell output would mangle line endings.
func (c *Controller) ExecOut(args ...string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cmdArgs := append([]string{"-s", c.device, "exec-out"}, args...)
	cmd := exec.Command(c.path, cmdArgs...)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("exec-out %v failed: %w", args, err)
	}

	return output, nil
}
