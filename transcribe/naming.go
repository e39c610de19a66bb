package transcribe

import (
	"strings"

	"github.com/google/uuid"
	"github.com/poiesic/meetkb/core"
)

// JobName derives a job name from the output key: the key without its final
// extension, sanitized, plus the first eight hex digits of a random UUID.
// An empty key yields "transcription-job-{uuid}".
func JobName(outputKey string) string {
	id := uuid.New()
	if outputKey == "" {
		return "transcription-job-" + id.String()
	}
	base := outputKey
	if i := strings.LastIndex(base, "."); i >= 0 {
		base = base[:i]
	}
	hex := strings.ReplaceAll(id.String(), "-", "")
	return core.SanitizeName(base) + "-" + hex[:8]
}

// ResultKey is where a finished job's raw result is written.
func ResultKey(jobName string) string {
	return jobName + ".json"
}
