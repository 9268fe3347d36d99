package main

import (
	"fmt"
	"os"
	"runtime"
	"sync"
)

var (
	cleanupMu sync.Mutex
	cleanups  []func()
)

// OnPanic registers f to run before a panic is reported, so a full-screen
// terminal is restored before the stack is printed.
func OnPanic(f func()) {
	cleanupMu.Lock()
	defer cleanupMu.Unlock()
	cleanups = append(cleanups, f)
}

func Recover() {
	if r := recover(); r != nil {
		HandlePanic(r)
	}
}

func HandlePanic(panic any) {
	defer os.Exit(1)

	buf := make([]byte, 100000)
	n := runtime.Stack(buf, false)
	buf = buf[:n]

	cleanupMu.Lock()
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
	cleanupMu.Unlock()

	fmt.Fprintf(os.Stderr, "Panic: %v\n\n%s\n\n", panic, string(buf))
}
