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

// Package answer produces natural-language answers to questions about
// meetings.
//
// An Answerer retrieves the chunks of a vector index most similar to the
// question, assembles them with the meeting summary into a single prompt and
// makes one generation call. Failures never escape as errors; they are
// reported through Result so the caller decides how to render them.
// Result.Display keeps the text form older callers expect.
package answer
