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

import (
	"fmt"
	"regexp"
	"strings"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// SanitizeName replaces every character outside [a-zA-Z0-9._-] with '-'.
func SanitizeName(name string) string {
	return unsafeChars.ReplaceAllString(name, "-")
}

// DocumentKeyFromFilename derives a document key from an uploaded filename:
// the sanitized name without its final extension.
func DocumentKeyFromFilename(filename string) string {
	safe := SanitizeName(filename)
	if i := strings.LastIndex(safe, "."); i > 0 {
		return safe[:i]
	}
	return safe
}

// ValidateKnowledgeBase checks that a knowledge base entry is usable.
//
// Validation rules:
//   - Prefix must not be empty
//   - Every bucket must be named
func ValidateKnowledgeBase(kb *KnowledgeBase) error {
	if kb == nil {
		return fmt.Errorf("%w: knowledge base is nil", ErrInvalidKnowledgeBase)
	}
	if kb.Prefix == "" {
		return fmt.Errorf("%w: %q has no prefix", ErrInvalidKnowledgeBase, kb.ID)
	}
	b := kb.Buckets
	if b.Uploads == "" || b.Transcripts == "" || b.Summaries == "" || b.Embeddings == "" {
		return fmt.Errorf("%w: %q is missing a bucket", ErrInvalidKnowledgeBase, kb.ID)
	}
	return nil
}

// ValidateDocumentKey rejects keys that are empty or contain unsafe characters.
func ValidateDocumentKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyDocumentKey)
	}
	if SanitizeName(key) != key {
		return fmt.Errorf("%w: document key %q contains unsafe characters", ErrValidation, key)
	}
	return nil
}

// ValidateQuestion rejects blank questions.
func ValidateQuestion(question string) error {
	if strings.TrimSpace(question) == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyQuestion)
	}
	return nil
}
