package credit

import (
	"fmt"
	"strings"
)

// CourseKey identifies a course run, e.g. "edX/DemoX/Demo_Course".
// The serialized form is what gets stored on every credit row.
type CourseKey struct {
	Org    string
	Number string
	Run    string
}

func (k CourseKey) String() string {
	return k.Org + "/" + k.Number + "/" + k.Run
}

// ParseCourseKey parses an "org/number/run" course identifier.
func ParseCourseKey(raw string) (CourseKey, error) {
	parts := strings.Split(raw, "/")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return CourseKey{}, fmt.Errorf("invalid course key: %q", raw)
	}
	return CourseKey{Org: parts[0], Number: parts[1], Run: parts[2]}, nil
}
