// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package storage provides the storage abstraction layer for meetkb.
//
// This package defines the interfaces that decouple storage implementations
// from ingestion and retrieval. Two concerns are covered:
//
//   - ObjectStore: the flat bucket/key store holding uploads, transcripts,
//     summaries and vector index sub-artifacts
//   - JobRepository: persisted transcription job records
//
// It also owns the object key layout shared by every component, the mus-go
// codecs for index sub-artifacts and job records, and KeyLocker, which
// serializes writers to one document key within a process.
//
// # Constructor Return Type Pattern
//
// Public constructors in backend packages return the interface:
//
//	store, err := badger.NewObjectStore(backend)  // returns storage.ObjectStore
//
// Internal package constructors may return concrete types since they're only
// used within the implementation package.
//
// # Usage
//
// Use in tests with in-memory storage:
//
//	backend, err := badger.OpenBackend("", true)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
// # Thread Safety
//
// All implementations must be thread-safe and support concurrent access
// from multiple goroutines.
//
// # Context Support
//
// All methods accept context.Context for cancellation and timeout support.
package storage
