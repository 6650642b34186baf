package credit

import (
	"fmt"
	"regexp"
	"strconv"

	appErrors "github.com/noah-isme/uni-enroll-api/pkg/errors"
)

// Hours is the decomposition of the compact T(L-P) credit notation: total
// credits, lecture hours and practical hours.
type Hours struct {
	Total     int `db:"credit_total" json:"total"`
	Lecture   int `db:"credit_lecture" json:"lecture"`
	Practical int `db:"credit_practical" json:"practical"`
}

var notationPattern = regexp.MustCompile(`^(\d+)\((\d+)-(\d+)\)$`)

// Parse validates a T(L-P) notation string and returns its decomposition.
// The string must match the pattern exactly; partial parses are rejected.
func Parse(notation string) (Hours, error) {
	m := notationPattern.FindStringSubmatch(notation)
	if m == nil {
		return Hours{}, appErrors.Clone(appErrors.ErrMalformedNotation,
			fmt.Sprintf("credit notation %q does not match T(L-P)", notation))
	}

	total, err := strconv.Atoi(m[1])
	if err != nil {
		return Hours{}, appErrors.Clone(appErrors.ErrMalformedNotation,
			fmt.Sprintf("credit notation %q: total out of range", notation))
	}
	lecture, err := strconv.Atoi(m[2])
	if err != nil {
		return Hours{}, appErrors.Clone(appErrors.ErrMalformedNotation,
			fmt.Sprintf("credit notation %q: lecture hours out of range", notation))
	}
	practical, err := strconv.Atoi(m[3])
	if err != nil {
		return Hours{}, appErrors.Clone(appErrors.ErrMalformedNotation,
			fmt.Sprintf("credit notation %q: practical hours out of range", notation))
	}

	if lecture+practical > total {
		return Hours{}, appErrors.Clone(appErrors.ErrInconsistentHours,
			fmt.Sprintf("credit notation %q: %d+%d exceeds total %d", notation, lecture, practical, total))
	}

	return Hours{Total: total, Lecture: lecture, Practical: practical}, nil
}

// String renders the canonical notation. Parsing the result of String
// yields the same Hours value back.
func (h Hours) String() string {
	return fmt.Sprintf("%d(%d-%d)", h.Total, h.Lecture, h.Practical)
}
