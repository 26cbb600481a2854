package okql_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/singlestore-labs/okql"
)

type goldenCase struct {
	Name  string `yaml:"name"`
	Kql   string `yaml:"kql"`
	Sql   string `yaml:"sql"`
	Error string `yaml:"error"`
}

func loadGoldenCases(t *testing.T) []goldenCase {
	t.Helper()
	raw, err := os.ReadFile("testdata/golden.yaml")
	require.NoError(t, err)

	var cases []goldenCase
	require.NoError(t, yaml.Unmarshal(raw, &cases))
	return cases
}

func TestGoldenFixtures(t *testing.T) {
	for _, tc := range loadGoldenCases(t) {
		t.Run(tc.Name, func(t *testing.T) {
			sql, err := okql.KqlToSql("input.kql", tc.Kql)
			if tc.Error != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.Error)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.Sql, sql)
		})
	}
}
