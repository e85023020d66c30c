package cmd

import (
	"fmt"
	"io"
)

// tableCount tracks one table while it is exported.
type tableCount struct {
	total   int
	done    int
	printed int
	every   int
}

// cliProgress prints export progress roughly every 5% of a table.
type cliProgress struct {
	out    io.Writer
	tables map[string]*tableCount
}

func newCLIProgress(out io.Writer) *cliProgress {
	return &cliProgress{out: out, tables: make(map[string]*tableCount)}
}

func (p *cliProgress) StartTable(table string, total int) {
	total = max(total, 0)
	every := 1000
	if total > 0 {
		every = min(max(total/20, 1), 1000)
	}
	p.tables[table] = &tableCount{total: total, every: every}
	fmt.Fprintf(p.out, "开始导出 %s (共 %d 行)\n", table, total)
}

func (p *cliProgress) Increment(table string, delta int) {
	tc, ok := p.tables[table]
	if !ok || delta <= 0 {
		return
	}
	tc.done += delta
	if tc.printed == 0 || tc.done == tc.total || tc.done-tc.printed >= tc.every {
		p.report(table, tc)
	}
}

func (p *cliProgress) FinishTable(table string) {
	tc, ok := p.tables[table]
	if !ok {
		return
	}
	delete(p.tables, table)
	if tc.done != tc.printed {
		p.report(table, tc)
	}
	if tc.total > 0 {
		fmt.Fprintf(p.out, "完成导出 %s: %d/%d 行\n", table, tc.done, tc.total)
		return
	}
	fmt.Fprintf(p.out, "完成导出 %s: %d 行\n", table, tc.done)
}

func (p *cliProgress) report(table string, tc *tableCount) {
	tc.printed = tc.done
	if tc.total > 0 {
		fmt.Fprintf(p.out, "导出进度 %s: %d/%d\n", table, tc.done, tc.total)
		return
	}
	fmt.Fprintf(p.out, "导出进度 %s: 已处理 %d 行\n", table, tc.done)
}
