package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnsureReadOnly(t *testing.T) {
	allowed := []string{
		"SELECT 1",
		"SELECT id, name FROM deals WHERE tenant_id = ? AND stage = 'won'",
		"SELECT stage, COUNT(*) FROM deals GROUP BY stage ORDER BY COUNT(*) DESC",
		"SELECT d.name FROM deals d JOIN companies c ON c.id = d.company_id",
		"SELECT name FROM companies UNION SELECT name FROM contacts",
		"SELECT * FROM (SELECT amount FROM payment_terms) t",
	}
	for _, sql := range allowed {
		assert.NoError(t, EnsureReadOnly(sql), sql)
	}

	rejected := []string{
		"",
		"DELETE FROM deals",
		"UPDATE deals SET stage = 'won'",
		"INSERT INTO deals (id) VALUES ('x')",
		"DROP TABLE deals",
		"SELECT 1; SELECT 2",
		"SELECT 1; DROP TABLE deals",
		"SELECT * FROM deals INTO OUTFILE '/tmp/x'",
		"SELECT * FROM deals FOR UPDATE",
		"(SELECT id FROM deals FOR UPDATE) UNION SELECT 1",
		"SELECT id FROM deals UNION (SELECT id FROM leads FOR UPDATE)",
		"CREATE TABLE x (id INT)",
		"not sql at all",
	}
	for _, sql := range rejected {
		assert.Error(t, EnsureReadOnly(sql), sql)
	}
}
