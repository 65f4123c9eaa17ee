// Package query guards the raw SQL accepted by the admin report endpoint.
// Statements are parsed with the TiDB parser and rejected unless they are
// a single read-only SELECT (UNIONs of SELECTs included).
package query

import (
	"fmt"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver" // value expression driver
)

// EnsureReadOnly parses sql and returns an error unless it is a single
// read-only SELECT statement.
func EnsureReadOnly(sql string) error {
	p := parser.New()

	stmtNodes, _, err := p.Parse(sql, "", "")
	if err != nil {
		return fmt.Errorf("SQL parse error: %v", err)
	}

	if len(stmtNodes) != 1 {
		return fmt.Errorf("only single SQL statements are allowed")
	}

	switch stmt := stmtNodes[0].(type) {
	case *ast.SelectStmt:
		if stmt.SelectIntoOpt != nil {
			return fmt.Errorf("SELECT ... INTO is not allowed")
		}
		if stmt.LockInfo != nil && stmt.LockInfo.LockType != ast.SelectLockNone {
			return fmt.Errorf("locking SELECT is not allowed")
		}
		return nil
	case *ast.SetOprStmt:
		// UNION / INTERSECT / EXCEPT over SELECTs.
		for _, sel := range stmt.SelectList.Selects {
			inner, ok := sel.(*ast.SelectStmt)
			if !ok {
				return fmt.Errorf("only SELECT statements are allowed")
			}
			if inner.SelectIntoOpt != nil {
				return fmt.Errorf("SELECT ... INTO is not allowed")
			}
			if inner.LockInfo != nil && inner.LockInfo.LockType != ast.SelectLockNone {
				return fmt.Errorf("locking SELECT is not allowed")
			}
		}
		return nil
	default:
		return fmt.Errorf("only SELECT statements are allowed")
	}
}
