package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// ParseDay resolves the artifact date stamp. An empty expression or "today"
// is now; otherwise expr is either YYYY-MM-DD or an English phrase such as
// "yesterday" or "last friday".
func ParseDay(expr string, now time.Time) (time.Time, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" || strings.EqualFold(expr, "today") {
		return now, nil
	}

	if day, err := time.ParseInLocation("2006-01-02", expr, now.Location()); err == nil {
		return day, nil
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	r, err := w.Parse(expr, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", expr, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("invalid date %q", expr)
	}
	return r.Time, nil
}
