// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/awnumar/memguard"
	"golang.org/x/sys/unix"
)

// MinMlockLimitKB is the minimum mlock limit required for sealed keys.
// Keys are small; one locked page plus memguard's guard pages is enough.
const MinMlockLimitKB = 64

var (
	memguardInitOnce sync.Once

	// mlockSufficient is set during initialization to indicate if secure
	// memory is available on this system.
	mlockSufficient bool

	// currentMlockLimitKB stores the observed mlock limit for logging.
	currentMlockLimitKB int64
)

// SealedKey holds a caller-supplied API key for the life of one request.
//
// # Description
//
// The key bytes live in a memguard enclave: mlocked so they cannot be
// swapped to disk, encrypted at rest in process memory, and wiped on
// Destroy. When the system's mlock limit is insufficient the constructor
// fails closed unless WORKBENCH_INSECURE_MEMORY=true, in which case a
// plain-memory fallback is used and a warning logged.
//
// # Thread Safety
//
// Safe for concurrent Open calls. Destroy must not race Open.
type SealedKey struct {
	mu        sync.Mutex
	enclave   *memguard.Enclave
	plain     []byte // insecure fallback only
	destroyed bool
}

// Seal wraps an API key in protected memory.
//
// The empty string is representable; request validation rejects blank
// keys before any stage runs, so Seal does not.
func Seal(key string) (*SealedKey, error) {
	initMemguard()

	// memguard buffers cannot be zero length; an empty key carries no
	// secret to protect anyway.
	if key == "" {
		return &SealedKey{plain: []byte{}}, nil
	}

	if !mlockSufficient {
		if os.Getenv("WORKBENCH_INSECURE_MEMORY") != "true" {
			return nil, fmt.Errorf(
				"mlock limit insufficient: have %d KB, need %d KB. "+
					"Configure system limits or set WORKBENCH_INSECURE_MEMORY=true",
				currentMlockLimitKB, MinMlockLimitKB,
			)
		}
		slog.Warn("Sealing key in INSECURE process memory due to mlock limits",
			"current_limit_kb", currentMlockLimitKB,
			"required_kb", MinMlockLimitKB,
		)
		return &SealedKey{plain: []byte(key)}, nil
	}

	return &SealedKey{enclave: memguard.NewEnclave([]byte(key))}, nil
}

// Open yields the key string for one provider call.
//
// The returned string is a copy; callers should keep its lifetime as
// short as possible.
func (k *SealedKey) Open() (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.destroyed {
		return "", fmt.Errorf("sealed key already destroyed")
	}
	if k.enclave == nil {
		return string(k.plain), nil
	}

	buf, err := k.enclave.Open()
	if err != nil {
		return "", fmt.Errorf("open sealed key: %w", err)
	}
	defer buf.Destroy()
	// buf.String() aliases the locked pages, which Destroy unmaps;
	// copy the bytes so the returned string outlives the buffer.
	return string(buf.Bytes()), nil
}

// Destroy wipes the key material. Idempotent.
func (k *SealedKey) Destroy() {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.destroyed {
		return
	}
	k.destroyed = true
	k.enclave = nil
	for i := range k.plain {
		k.plain[i] = 0
	}
	k.plain = nil
}

// initMemguard initializes memguard and probes the mlock limit once.
func initMemguard() {
	memguardInitOnce.Do(func() {
		memguard.CatchInterrupt()
		mlockSufficient, currentMlockLimitKB = checkMlockLimit()
		if mlockSufficient {
			slog.Info("Secure key memory initialized",
				"mlock_limit_kb", currentMlockLimitKB,
				"required_kb", MinMlockLimitKB,
			)
		} else {
			slog.Warn("Mlock limit insufficient for secure key memory",
				"mlock_limit_kb", currentMlockLimitKB,
				"required_kb", MinMlockLimitKB,
			)
		}
	})
}

// checkMlockLimit returns whether RLIMIT_MEMLOCK covers MinMlockLimitKB.
// A limit of -1 means unlimited or undeterminable (treated as sufficient).
func checkMlockLimit() (bool, int64) {
	var rlimit unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_MEMLOCK, &rlimit); err != nil {
		slog.Warn("Could not determine mlock limit", "error", err)
		return true, -1
	}
	if rlimit.Cur == unix.RLIM_INFINITY {
		return true, -1
	}
	limitKB := int64(rlimit.Cur / 1024)
	return limitKB >= MinMlockLimitKB, limitKB
}
