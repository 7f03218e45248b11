package compare

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"
)

var (
	srcOrders = TableIdentifier{Database: "ANALYTICS", Schema: "SRC", Table: "ORDERS"}
	tgtOrders = TableIdentifier{Database: "ANALYTICS", Schema: "TGT", Table: "ORDERS"}
)

func TestTableIdentifier_String(t *testing.T) {
	assert.Equal(t, "ANALYTICS.SRC.ORDERS", srcOrders.String())
	assert.Equal(t, "shop.orders", TableIdentifier{Schema: "shop", Table: "orders"}.String())
}

func TestCount_Rendering(t *testing.T) {
	tests := []struct {
		count Count
		text  string
		json  string
	}{
		{Known(42), "42", "42"},
		{Known(0), "0", "0"},
		{NotApplicable(), "N/A", `"N/A"`},
		{Failed(), "ERROR", `"ERROR"`},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.text, tt.count.String())

			data, err := json.Marshal(tt.count)
			require.NoError(t, err)
			assert.JSONEq(t, tt.json, string(data))

			var back Count
			require.NoError(t, json.Unmarshal(data, &back))
			assert.Equal(t, tt.count, back)
		})
	}
}

func TestCount_UnmarshalRejectsGarbage(t *testing.T) {
	var c Count
	assert.Error(t, json.Unmarshal([]byte(`"lots"`), &c))
	assert.Error(t, json.Unmarshal([]byte(`1.5`), &c))
}

func TestCount_YAML(t *testing.T) {
	out, err := yaml.Marshal(map[string]Count{"a": Known(7), "b": NotApplicable()})
	require.NoError(t, err)
	assert.Equal(t, "a: 7\nb: N/A\n", string(out))
}

func TestCount_Value(t *testing.T) {
	n, ok := Known(3).Value()
	assert.True(t, ok)
	assert.Equal(t, int64(3), n)

	_, ok = Failed().Value()
	assert.False(t, ok)
}

func TestConstructors_HoldInvariants(t *testing.T) {
	match := Differences(srcOrders, tgtOrders, 10, 0, 0)
	assert.Equal(t, StatusMatch, match.Status)
	assert.True(t, match.Matched)
	assert.Equal(t, match.SourceRows, match.TargetRows)

	mismatch := Differences(srcOrders, tgtOrders, 10, 1, 0)
	assert.Equal(t, StatusMismatch, mismatch.Status)
	assert.False(t, mismatch.Matched)

	counts := CountMismatch(srcOrders, tgtOrders, 10, 9)
	assert.Equal(t, StatusCountMismatch, counts.Status)
	assert.Equal(t, NotApplicable(), counts.OnlyInSource)
	assert.Equal(t, NotApplicable(), counts.OnlyInTarget)
	assert.False(t, counts.Matched)

	only := SourceOnly(srcOrders, tgtOrders, Known(5))
	assert.Equal(t, StatusOnlyInSource, only.Status)
	assert.Equal(t, NotApplicable(), only.TargetRows)
	assert.Equal(t, NotApplicable(), only.OnlyInSource)

	failed := Failure(srcOrders, tgtOrders, errors.New("boom"))
	assert.Equal(t, StatusError, failed.Status)
	assert.Equal(t, "boom", failed.Error)
	for _, c := range []Count{failed.SourceRows, failed.TargetRows, failed.OnlyInSource, failed.OnlyInTarget} {
		assert.Equal(t, Failed(), c)
	}
}

func TestOutcome_Table(t *testing.T) {
	assert.Equal(t, "ORDERS", Differences(srcOrders, tgtOrders, 1, 0, 0).Table())

	renamed := tgtOrders
	renamed.Table = "ORDERS_V2"
	assert.Equal(t, "ORDERS->ORDERS_V2", Differences(srcOrders, renamed, 1, 0, 0).Table())
}

func TestOutcome_JSONOmitsEmptyError(t *testing.T) {
	data, err := json.Marshal(Differences(srcOrders, tgtOrders, 1, 0, 0))
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"error"`)
}
