package service

import (
	"strings"
	"time"

	"github.com/xby-111/bill/internal/util"

	"gorm.io/gorm"
)

// Filter holds the optional criteria of a list query. Empty fields impose no
// constraint; distinct criteria are AND-ed together.
type Filter struct {
	Keyword   string `form:"keyword"`
	StartDate string `form:"start_date"` // YYYY-MM-DD, inclusive
	EndDate   string `form:"end_date"`   // YYYY-MM-DD, inclusive
	Month     string `form:"month"`      // YYYY-MM
	Kind      string `form:"bill_type"`
	Worker    string `form:"worker"`
	Category  string `form:"category"`
	Skip      int    `form:"skip"`
	Limit     int    `form:"limit"`
}

// columnSet maps filter criteria onto the columns of one table. An empty
// column name disables the criterion for that table.
type columnSet struct {
	date     string
	kind     string
	worker   string
	category string
	keyword  []string
}

var (
	billColumns = columnSet{
		date:     "date",
		kind:     "bill_type",
		worker:   "worker",
		category: "category",
		keyword:  []string{"category", "worker", "note"},
	}
	expenseColumns = columnSet{
		date:    "date",
		kind:    "type",
		keyword: []string{"receiver", "project", "note"},
	}
)

const defaultOrder = "date DESC, id DESC"

// criteria is a Filter whose dates have been validated.
type criteria struct {
	keyword  string
	from     *time.Time // >=
	until    *time.Time // <
	kind     string
	worker   string
	category string
}

func (f Filter) compile() (criteria, error) {
	c := criteria{
		keyword:  strings.TrimSpace(f.Keyword),
		kind:     strings.TrimSpace(f.Kind),
		worker:   strings.TrimSpace(f.Worker),
		category: strings.TrimSpace(f.Category),
	}

	if s := strings.TrimSpace(f.StartDate); s != "" {
		t, err := util.ParseDate(s)
		if err != nil {
			return c, invalidf("Invalid start_date format. Use YYYY-MM-DD")
		}
		c.narrow(&t, nil)
	}
	if s := strings.TrimSpace(f.EndDate); s != "" {
		t, err := util.ParseDate(s)
		if err != nil {
			return c, invalidf("Invalid end_date format. Use YYYY-MM-DD")
		}
		// 结束日期按“当天结束”处理：< end+1 天
		next := t.AddDate(0, 0, 1)
		c.narrow(nil, &next)
	}
	if s := strings.TrimSpace(f.Month); s != "" {
		start, end, err := util.ParseMonth(s)
		if err != nil {
			return c, invalidf("Invalid month format. Use YYYY-MM")
		}
		c.narrow(&start, &end)
	}
	return c, nil
}

// narrow intersects the current date window with [from, until).
func (c *criteria) narrow(from, until *time.Time) {
	if from != nil && (c.from == nil || from.After(*c.from)) {
		c.from = from
	}
	if until != nil && (c.until == nil || until.Before(*c.until)) {
		c.until = until
	}
}

func likePattern(s string) string {
	return "%" + strings.ToLower(s) + "%"
}

func (c criteria) scope(cols columnSet) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if c.keyword != "" && len(cols.keyword) > 0 {
			parts := make([]string, 0, len(cols.keyword))
			args := make([]any, 0, len(cols.keyword))
			for _, col := range cols.keyword {
				parts = append(parts, "LOWER("+col+") LIKE ?")
				args = append(args, likePattern(c.keyword))
			}
			db = db.Where("("+strings.Join(parts, " OR ")+")", args...)
		}
		if c.from != nil {
			db = db.Where(cols.date+" >= ?", *c.from)
		}
		if c.until != nil {
			db = db.Where(cols.date+" < ?", *c.until)
		}
		if c.kind != "" && cols.kind != "" {
			db = db.Where(cols.kind+" = ?", c.kind)
		}
		if c.worker != "" && cols.worker != "" {
			db = db.Where("LOWER("+cols.worker+") LIKE ?", likePattern(c.worker))
		}
		if c.category != "" && cols.category != "" {
			db = db.Where("LOWER("+cols.category+") LIKE ?", likePattern(c.category))
		}
		return db
	}
}

// page resolves skip/limit. A non-positive limit falls back to defaultLimit,
// and no page is ever larger than maxLimit.
func (f Filter) page(defaultLimit, maxLimit int) (offset, limit int, err error) {
	if f.Skip < 0 {
		return 0, 0, invalidf("skip must not be negative")
	}
	limit = f.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return f.Skip, limit, nil
}

// query validates f and returns a scope applying its criteria, ordering and
// pagination for the given table.
func (f Filter) query(cols columnSet, defaultLimit, maxLimit int) (func(*gorm.DB) *gorm.DB, error) {
	c, err := f.compile()
	if err != nil {
		return nil, err
	}
	offset, limit, err := f.page(defaultLimit, maxLimit)
	if err != nil {
		return nil, err
	}
	where := c.scope(cols)
	return func(db *gorm.DB) *gorm.DB {
		return where(db).Order(defaultOrder).Offset(offset).Limit(limit)
	}, nil
}
