package migrations

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_OutboxOrderedBySequence(t *testing.T) {
	data, err := Migrations.ReadFile("00001_init.sql")
	require.NoError(t, err)
	sql := string(data)

	assert.Regexp(t, regexp.MustCompile(`(?m)^\s+seq\s+BIGSERIAL\s+NOT NULL,$`), sql)
	assert.Regexp(t, regexp.MustCompile(`idx_outbox_pending\s+ON\s+outbox_messages\(seq\)\s+WHERE\s+status\s*=\s*'pending'`), sql)
}
