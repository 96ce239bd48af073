package dupsample

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
)

var (
	globalVerboseLevel atomic.Int32

	logMu     sync.Mutex
	logOutput io.Writer = os.Stderr

	debugMu    sync.RWMutex
	debugFlags map[string]bool
)

// SetVerboseLevel sets the global verbose level (0=quiet, 1=basic, 2=detailed, 3=trace)
func SetVerboseLevel(level int) {
	globalVerboseLevel.Store(int32(level))
}

// GetVerboseLevel returns the current verbose level
func GetVerboseLevel() int {
	return int(globalVerboseLevel.Load())
}

// SetLogOutput redirects verbose and warning output, primarily for testing.
// A nil writer restores stderr.
func SetLogOutput(w io.Writer) {
	logMu.Lock()
	defer logMu.Unlock()
	if w == nil {
		w = os.Stderr
	}
	logOutput = w
}

func logf(prefix, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	logMu.Lock()
	defer logMu.Unlock()
	fmt.Fprint(logOutput, prefix+msg)
}

// VerboseEnter logs function entry at level 3+ and returns a defer function for exit logging
func VerboseEnter() func() {
	if GetVerboseLevel() < 3 {
		return func() {} // No-op
	}

	pc, _, _, ok := runtime.Caller(1)
	if !ok {
		return func() {}
	}

	funcName := runtime.FuncForPC(pc).Name()
	if idx := strings.LastIndex(funcName, "."); idx != -1 {
		funcName = funcName[idx+1:]
	}

	logf("[TRACE] ", "Entering function: %s", funcName)
	return func() {
		logf("[TRACE] ", "Exiting function: %s", funcName)
	}
}

// VerboseLog logs a message at the specified verbose level
func VerboseLog(level int, format string, args ...interface{}) {
	if GetVerboseLevel() >= level {
		logf(fmt.Sprintf("[VERBOSE-%d] ", level), format, args...)
	}
}

// Warnf reports a non-fatal problem regardless of verbose level
func Warnf(format string, args ...interface{}) {
	logf("Warning: ", format, args...)
}

// SetDebugFlags sets the debug flags from a comma-separated string
// Supports both simple flags ("sample,digest") and key:value format ("sample:true,digest:false")
func SetDebugFlags(flagsStr string) {
	flags := make(map[string]bool)
	for _, flag := range strings.Split(flagsStr, ",") {
		flag = strings.TrimSpace(flag)
		if flag == "" {
			continue
		}

		parts := strings.SplitN(flag, ":", 2)
		flagValue := true
		if len(parts) > 1 {
			switch strings.ToLower(parts[1]) {
			case "false", "0", "no", "off":
				flagValue = false
			}
		}
		flags[strings.ToLower(parts[0])] = flagValue
	}

	debugMu.Lock()
	debugFlags = flags
	debugMu.Unlock()
}

// IsDebugEnabled returns true if the specified debug flag is enabled
func IsDebugEnabled(flag string) bool {
	debugMu.RLock()
	defer debugMu.RUnlock()
	return debugFlags[strings.ToLower(flag)]
}
