package repository

import (
	"errors"
	"strings"

	"github.com/Thejus-u/charity-forum/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern returns a lower-cased LIKE pattern matching term anywhere.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(term))) + "%"
}

var tagPunctuation = strings.NewReplacer(`"`, "", `[`, "", `]`, "", `,`, "", `\`, "")

// searchAny restricts db to rows where any of columns, or any element of the
// JSON tag list in tagColumn, contains term, ignoring case.
func searchAny(db *gorm.DB, term, tagColumn string, columns ...string) *gorm.DB {
	if strings.TrimSpace(term) == "" {
		return db
	}
	var conds []string
	var args []interface{}
	for _, col := range columns {
		conds = append(conds, "LOWER("+col+`) LIKE ? ESCAPE '\'`)
		args = append(args, containsPattern(term))
	}
	// tagColumn holds a JSON list; without its punctuation the term cannot
	// match the list syntax itself.
	if tag := tagPunctuation.Replace(term); tagColumn != "" && strings.TrimSpace(tag) != "" {
		conds = append(conds, "LOWER("+tagColumn+`) LIKE ? ESCAPE '\'`)
		args = append(args, containsPattern(tag))
	}
	if len(conds) == 0 {
		return db
	}
	return db.Where("("+strings.Join(conds, " OR ")+")", args...)
}

// orderBy appends ORDER BY for the column sortKey maps to. Unknown keys fall
// back to fallback; anything but "asc" sorts descending.
func orderBy(db *gorm.DB, columns map[string]string, sortKey, fallback, order string) *gorm.DB {
	col, ok := columns[sortKey]
	if !ok {
		col = columns[fallback]
	}
	return db.Order(clause.OrderByColumn{
		Column: clause.Column{Name: col, Raw: true},
		Desc:   !strings.EqualFold(order, "asc"),
	})
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}

func notFoundOr(err error, resource string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}
