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

package core

import "errors"

// Domain validation errors
var (
	// ErrValidation is the parent of every request validation failure.
	ErrValidation = errors.New("validation failed")

	// ErrUnknownKnowledgeBase indicates a knowledge base id missing from configuration.
	ErrUnknownKnowledgeBase = errors.New("unknown knowledge base")

	// ErrEmptyDocumentKey indicates a document key that is empty after sanitizing.
	ErrEmptyDocumentKey = errors.New("document key cannot be empty")

	// ErrEmptyQuestion indicates a blank question.
	ErrEmptyQuestion = errors.New("question cannot be empty")

	// ErrNoDocuments indicates a knowledge base query without any document keys.
	ErrNoDocuments = errors.New("at least one document key is required")

	// ErrInvalidKnowledgeBase indicates a knowledge base entry with missing fields.
	ErrInvalidKnowledgeBase = errors.New("invalid knowledge base")
)
