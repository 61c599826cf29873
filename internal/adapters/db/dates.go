// internal/adapters/db/dates.go
package db

import (
	"database/sql"

	"github.com/Bruizy/lego-flip-tracker/internal/core/domain"
)

// dateArg converts a domain date for a nullable DATE column. An absent date
// stores as NULL, never as a zero time.
func dateArg(d domain.Date) interface{} {
	if d.IsZero() {
		return nil
	}
	return d.Time()
}

// dateFrom converts a scanned nullable DATE back to a domain date.
func dateFrom(t sql.NullTime) domain.Date {
	if !t.Valid {
		return domain.Date{}
	}
	return domain.DateOf(t.Time)
}
