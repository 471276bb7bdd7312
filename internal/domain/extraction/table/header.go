package table

import (
	"strings"

	"github.com/finatlas/statement-pipeline/internal/domain/extraction/columns"
)

// Anchor binds a column role to the horizontal coordinate of the header
// token that names it. At most one anchor exists per role.
type Anchor struct {
	Role columns.Role
	X    float64
}

// Header describes the detected header region of a reconstructed table.
// Split is true when the amount column title sits on the line below the
// rest of the header, in which case DataStart skips both lines.
type Header struct {
	RowIndex  int
	Split     bool
	DataStart int
	Anchors   []Anchor
}

// Anchor returns the anchor for a role, if one was detected.
func (h *Header) Anchor(role columns.Role) (Anchor, bool) {
	for _, a := range h.Anchors {
		if a.Role == role {
			return a, true
		}
	}
	return Anchor{}, false
}

// Header token classification. Process-date phrasing is checked before the
// generic date check so "Process Date" does not bind the date anchor.
func classifyHeaderToken(s string) (columns.Role, bool) {
	t := strings.ToLower(strings.TrimSpace(s))
	switch {
	case t == "":
		return "", false
	case strings.Contains(t, "process") && strings.Contains(t, "date"):
		return columns.RoleProcessDate, true
	case strings.Contains(t, "date"):
		return columns.RoleDate, true
	case strings.Contains(t, "balance"):
		return columns.RoleBalance, true
	case strings.Contains(t, "description"), strings.Contains(t, "details"),
		strings.Contains(t, "narrative"), strings.Contains(t, "particulars"),
		strings.Contains(t, "transaction") && !strings.Contains(t, "date"):
		return columns.RoleDescription, true
	case strings.Contains(t, "amount"), strings.Contains(t, "money in"),
		strings.Contains(t, "money out"), strings.Contains(t, "value"), t == "£":
		return columns.RoleAmount, true
	case strings.Contains(t, "debit"), strings.Contains(t, "paid out"):
		return columns.RoleDebit, true
	case strings.Contains(t, "credit"), strings.Contains(t, "paid in"):
		return columns.RoleCredit, true
	}
	return "", false
}

func isAmountHeaderToken(s string) bool {
	role, ok := classifyHeaderToken(s)
	return ok && (role == columns.RoleAmount || role == columns.RoleDebit || role == columns.RoleCredit)
}

// rowRoles classifies every fragment of a row, returning the anchors found
// in left-to-right order with first-wins deduplication per role.
func rowRoles(row Row) []Anchor {
	var anchors []Anchor
	seen := map[columns.Role]bool{}
	for _, it := range row.Items {
		role, ok := classifyHeaderToken(it.Text)
		if !ok || seen[role] {
			continue
		}
		seen[role] = true
		anchors = append(anchors, Anchor{Role: role, X: it.X})
	}
	return anchors
}

func hasRole(anchors []Anchor, role columns.Role) bool {
	for _, a := range anchors {
		if a.Role == role {
			return true
		}
	}
	return false
}

// DetectHeader scans rows in order for one carrying at least a date-like and
// a description-like title. If that row lacks an amount-like title but the
// following row carries one, the two rows jointly form a split header and
// data extraction begins two rows later.
func DetectHeader(rows []Row) (*Header, bool) {
	for i, row := range rows {
		anchors := rowRoles(row)
		if !hasRole(anchors, columns.RoleDate) || !hasRole(anchors, columns.RoleDescription) {
			continue
		}
		amountish := false
		for _, a := range anchors {
			if a.Role == columns.RoleAmount || a.Role == columns.RoleDebit || a.Role == columns.RoleCredit || a.Role == columns.RoleBalance {
				amountish = true
			}
		}
		if amountish {
			return &Header{RowIndex: i, DataStart: i + 1, Anchors: anchors}, true
		}
		if i+1 < len(rows) {
			if next := rowRoles(rows[i+1]); len(next) > 0 {
				joined := false
				for _, a := range next {
					if a.Role == columns.RoleAmount || a.Role == columns.RoleDebit || a.Role == columns.RoleCredit || a.Role == columns.RoleBalance {
						if !hasRole(anchors, a.Role) {
							anchors = append(anchors, a)
							joined = true
						}
					}
				}
				if joined {
					return &Header{RowIndex: i, Split: true, DataStart: i + 2, Anchors: anchors}, true
				}
			}
		}
	}
	return nil, false
}
