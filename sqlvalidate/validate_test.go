//go:build integration

package sqlvalidate_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/singlestore-labs/okql"
	"github.com/singlestore-labs/okql/sqlvalidate"
)

// TestEmittedSqlIsAcceptedByRealEngine requires SQLVALIDATE_DSN and
// SQLVALIDATE_DRIVER to be set (see Validate). It is only built with the
// integration tag; built with the tag but without those variables, it
// fails rather than skipping.
func TestEmittedSqlIsAcceptedByRealEngine(t *testing.T) {
	sql, err := okql.KqlToSql("input.kql", "Users | project Name, Age | where Age > 18")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	require.NoError(t, sqlvalidate.Validate(ctx, sql))
}
