package output

import (
	"fmt"
	"io"
	"strconv"
	"sync"

	"cone-steer/internal/domain/entity"
	"cone-steer/internal/domain/port"
)

// LineEmitter writes one "Group_<id>;<timestamp µs>;<steering>" line per frame.
type LineEmitter struct {
	mu     sync.Mutex
	w      io.Writer
	prefix string
}

// NewLineEmitter creates an emitter tagging lines with group.
func NewLineEmitter(w io.Writer, group string) *LineEmitter {
	return &LineEmitter{w: w, prefix: "Group_" + group}
}

// Emit writes the line synchronously.
func (e *LineEmitter) Emit(result entity.SteeringResult) error {
	line := FormatLine(e.prefix, result)

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := io.WriteString(e.w, line); err != nil {
		return fmt.Errorf("write steering line: %w", err)
	}
	return nil
}

// FormatLine renders a result. The steering value uses six significant digits.
func FormatLine(prefix string, result entity.SteeringResult) string {
	return prefix + ";" + strconv.FormatInt(result.TimestampMicros(), 10) + ";" + strconv.FormatFloat(result.Steering, 'g', 6, 64) + "\n"
}

var _ port.ResultEmitter = (*LineEmitter)(nil)
