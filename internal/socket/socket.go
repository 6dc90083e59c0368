// Package socket opens and dials the Unix domain socket shared by afd and
// the afdd daemon.
package socket

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

var (
	// ErrAddressInUse is returned when another daemon already listens on the path.
	ErrAddressInUse = errors.New("address already in use")
	// ErrNotRunning is returned when the daemon cannot be reached.
	ErrNotRunning = errors.New("daemon not running")
)

// DaemonProcess is the executable name of the daemon.
const DaemonProcess = "afdd"

// Config controls connection retries and socket file permissions.
type Config struct {
	// StartupTimeout bounds how long Connect keeps retrying.
	StartupTimeout time.Duration
	// RetryInterval is the pause between attempts.
	RetryInterval time.Duration
	// Permissions of the socket file.
	Permissions os.FileMode
	// ProcessName is looked up to decide whether retrying is worthwhile.
	ProcessName string
}

// DefaultConfig returns a 5s startup timeout, 250ms retry interval,
// OS-appropriate permissions and DaemonProcess as process name.
func DefaultConfig() *Config {
	return &Config{
		StartupTimeout: 5 * time.Second,
		RetryInterval:  250 * time.Millisecond,
		Permissions:    defaultPermissions(),
		ProcessName:    DaemonProcess,
	}
}

// Socket dials and listens on Unix domain sockets.
type Socket struct {
	config    *Config
	procCheck ProcessChecker
	startTime time.Time
}

// New creates a Socket. A nil cfg selects DefaultConfig().
func New(cfg *Config, checker ProcessChecker) *Socket {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Socket{
		config:    cfg,
		procCheck: checker,
		startTime: time.Now(),
	}
}

// ConnectContext dials path with the default configuration.
func ConnectContext(ctx context.Context, path string) (net.Conn, error) {
	return New(nil, &DefaultProcessChecker{}).Connect(ctx, path)
}

// Listen listens on path with the default configuration.
func Listen(path string) (net.Listener, error) {
	return New(nil, &DefaultProcessChecker{}).Listen(path)
}

// Connect dials path, retrying while the daemon process is alive and the
// startup timeout has not elapsed. When it gives up the error wraps
// ErrNotRunning.
func (s *Socket) Connect(ctx context.Context, path string) (net.Conn, error) {
	deadline := time.Now().Add(s.config.StartupTimeout)

	for {
		var d net.Dialer
		conn, err := d.DialContext(ctx, "unix", path)
		if err == nil {
			return conn, nil
		}
		if !s.shouldRetry(deadline) {
			return nil, fmt.Errorf("%w: %v", ErrNotRunning, err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.config.RetryInterval):
		}
	}
}

// Listen creates the socket directory, removes a stale socket file, listens
// on path and applies the configured permissions. A live socket at path
// yields ErrAddressInUse.
func (s *Socket) Listen(path string) (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating socket directory: %w", err)
	}
	if err := removeStale(path); err != nil {
		return nil, err
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("creating socket listener: %w", err)
	}
	if err := os.Chmod(path, s.config.Permissions); err != nil {
		listener.Close()
		return nil, fmt.Errorf("setting socket permissions: %w", err)
	}
	return listener, nil
}

func (s *Socket) shouldRetry(deadline time.Time) bool {
	if time.Now().After(deadline) {
		return false
	}
	// The daemon may not show up in the process table right after launch.
	if time.Since(s.startTime) < 2*time.Second {
		return true
	}
	return s.procCheck.IsRunning(s.config.ProcessName)
}

func removeStale(path string) error {
	if conn, err := net.Dial("unix", path); err == nil {
		_ = conn.Close()
		return ErrAddressInUse
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale socket: %w", err)
	}
	return nil
}

func defaultPermissions() os.FileMode {
	switch runtime.GOOS {
	case "linux", "darwin", "freebsd":
		return 0o666
	default:
		return 0o600
	}
}
