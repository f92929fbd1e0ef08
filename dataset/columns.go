package dataset

import "github.com/zintix-labs/ablab/errs"

// Columns 觀測表的欄式表示，用於快照檔與 HTTP 上傳。
type Columns struct {
	UserID         []string  `json:"user_id"`
	TestGroup      []string  `json:"test_group"`
	TotalSpend     []float64 `json:"total_spend"`
	TotalWinsSpend []float64 `json:"total_wins_spend"`
}

// ToColumns 轉為欄式表示
func (t *Table) ToColumns() *Columns {
	n := t.Len()
	c := &Columns{
		UserID:         make([]string, n),
		TestGroup:      make([]string, n),
		TotalSpend:     make([]float64, n),
		TotalWinsSpend: make([]float64, n),
	}
	for i, r := range t.Rows {
		c.UserID[i] = r.UserID
		c.TestGroup[i] = r.TestGroup
		c.TotalSpend[i] = r.TotalSpend
		c.TotalWinsSpend[i] = r.TotalWinsSpend
	}
	return c
}

// Table 欄式轉回觀測表，各欄長度必須一致。
func (c *Columns) Table() (*Table, error) {
	if c == nil {
		return nil, errs.NewWarn("nil columns")
	}
	n := len(c.UserID)
	if len(c.TestGroup) != n || len(c.TotalSpend) != n || len(c.TotalWinsSpend) != n {
		return nil, errs.Warnf("column length mismatch: %s=%d %s=%d %s=%d %s=%d",
			ColUserID, n, ColTestGroup, len(c.TestGroup),
			ColTotalSpend, len(c.TotalSpend), ColTotalWinsSpend, len(c.TotalWinsSpend))
	}
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{
			UserID:         c.UserID[i],
			TestGroup:      c.TestGroup[i],
			TotalSpend:     c.TotalSpend[i],
			TotalWinsSpend: c.TotalWinsSpend[i],
		}
	}
	return &Table{Rows: rows}, nil
}
