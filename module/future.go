// SPDX-License-Identifier: Apache-2.0
//
// Copyright 2025 Binaek Sarkar
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package module

import "context"

// RecordFuture memoizes the in-flight or completed discovery of one
// full specifier's ModuleRecord. The loader uses it to make concurrent
// discovery of a module graph with cycles safe: a module's own record
// future resolves as soon as its own resolvedImports are computed,
// independent of whether the modules it imports have finished
// resolving — so A's future never has to wait on B's future while B's
// is in turn waiting on A's.
type RecordFuture struct {
	done chan struct{}
	rec  *ModuleRecord
	err  error
}

func newRecordFuture() *RecordFuture {
	return &RecordFuture{done: make(chan struct{})}
}

// Resolve settles the future. Calling it more than once is a no-op.
func (f *RecordFuture) Resolve(rec *ModuleRecord, err error) {
	select {
	case <-f.done:
		return
	default:
	}
	f.rec, f.err = rec, err
	close(f.done)
}

// Wait blocks until the future resolves or ctx is cancelled.
func (f *RecordFuture) Wait(ctx context.Context) (*ModuleRecord, error) {
	select {
	case <-f.done:
		return f.rec, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *RecordFuture) peek() (*ModuleRecord, bool) {
	select {
	case <-f.done:
		return f.rec, f.err == nil
	default:
		return nil, false
	}
}

// BeginRecord returns the RecordFuture for full, creating it if this is
// the first claim. isOwner reports whether this call created the
// future — only the owner should do the discovery work and call
// Resolve; every other caller (including a cyclic re-entrant caller)
// leaves that work to the owner and blocks only if it calls Wait.
func (pf *PrivateFields) BeginRecord(full FullSpecifier) (fut *RecordFuture, isOwner bool) {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	if existing, ok := pf.moduleRecords[full]; ok {
		return existing, false
	}
	fut = newRecordFuture()
	pf.moduleRecords[full] = fut
	return fut, true
}
