package adb

import (
	"fmt"
	"strings"
)

// Input and capture commands. These are thin wrappers over "input" and
// "screencap" on the device; coordinate translation happens upstream.

// Tap performs a tap at the specified coordinates
func (c *Controller) Tap(x, y int) error {
	_, err := c.Shell(fmt.Sprintf("input tap %d %d", x, y))
	return err
}

// Swipe performs a swipe gesture over the given duration in milliseconds
func (c *Controller) Swipe(x1, y1, x2, y2, durationMs int) error {
	_, err := c.Shell(fmt.Sprintf("input swipe %d %d %d %d %d", x1, y1, x2, y2, durationMs))
	return err
}

// SendKey sends a key event (e.g., "KEYCODE_BACK", "KEYCODE_HOME")
func (c *Controller) SendKey(key string) error {
	_, err := c.Shell(fmt.Sprintf("input keyevent %s", key))
	return err
}

// Screencap captures the device screen and returns the PNG bytes
func (c *Controller) Screencap() ([]byte, error) {
	data, err := c.ExecOut("screencap", "-p")
	if err != nil {
		return nil, fmt.Errorf("screencap failed: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("screencap returned no data")
	}
	return data, nil
}

// GetWindowSize returns the device screen size
func (c *Controller) GetWindowSize() (width, height int, err error) {
	output, err := c.Shell("wm size")
	if err != nil {
		return 0, 0, err
	}

	// Parse output like "Physical size: 1080x1920"
	var w, h int
	_, err = fmt.Sscanf(output, "Physical size: %dx%d", &w, &h)
	if err != nil {
		_, err = fmt.Sscanf(output, "Override size: %dx%d", &w, &h)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to parse window size: %s", output)
		}
	}

	return w, h, nil
}

// IsScreenOn reports whether the device display is awake
func (c *Controller) IsScreenOn() (bool, error) {
	output, err := c.Shell("dumpsys power | grep 'mWakefulness='")
	if err != nil {
		return false, err
	}
	return strings.Contains(output, "Awake"), nil
}
