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

package ingestion

import (
	"context"

	"github.com/poiesic/meetkb/extract"
)

// textExtractor obtains transcript text from an upload synchronously.
// There is one per MediaKind that can be read in-process.
type textExtractor interface {
	// extract returns the cleaned text of the upload.
	extract(ctx context.Context, upload Upload) (string, error)
}

// docxExtractor reads structured documents.
type docxExtractor struct{}

var _ textExtractor = docxExtractor{}

func (docxExtractor) extract(_ context.Context, upload Upload) (string, error) {
	text, err := extract.Docx(upload.Data)
	if err != nil {
		return "", err
	}
	return extract.Normalize([]byte(text), extract.FormatPlain), nil
}

// plainTextExtractor decodes text and WebVTT uploads.
type plainTextExtractor struct{}

var _ textExtractor = plainTextExtractor{}

func (plainTextExtractor) extract(_ context.Context, upload Upload) (string, error) {
	return extract.Normalize(upload.Data, extract.FormatForFilename(upload.Filename)), nil
}

// extractors maps every synchronously readable kind to its handler.
var extractors = map[MediaKind]textExtractor{
	MediaStructuredDocument: docxExtractor{},
	MediaPlainText:          plainTextExtractor{},
}
