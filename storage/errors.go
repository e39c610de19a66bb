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

package storage

import "errors"

var (
	// ErrNotFound is returned when a bucket has no object under the key,
	// or no job record exists for a name.
	ErrNotFound = errors.New("object not found")

	// ErrStorageClosed is returned by object and job stores after Close.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrInvalidLocation indicates an empty bucket or object key.
	ErrInvalidLocation = errors.New("invalid storage location")

	// ErrSerializationFailed wraps encode and decode failures of index
	// artifacts and job records.
	ErrSerializationFailed = errors.New("serialization failed")

	// ErrTruncatedData means an encoded artifact ended before its declared length.
	ErrTruncatedData = errors.New("truncated data")
)
