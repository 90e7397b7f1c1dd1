package profit

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderIdentifier_UnmarshalJSON(t *testing.T) {
	var ids []OrderIdentifier
	require.NoError(t, json.Unmarshal([]byte(`["o-1", 1001, 42.5, ""]`), &ids))
	assert.Equal(t, []OrderIdentifier{"o-1", "1001", "42.5", ""}, ids)

	for _, in := range []string{`[null]`, `[true]`, `[{"id":1}]`} {
		t.Run(in, func(t *testing.T) {
			var got []OrderIdentifier
			assert.Error(t, json.Unmarshal([]byte(in), &got))
		})
	}
}

func TestOrderIdentifierStrings(t *testing.T) {
	assert.Nil(t, OrderIdentifierStrings(nil))
	assert.Equal(t, []string{}, OrderIdentifierStrings([]OrderIdentifier{}))
	assert.Equal(t, []string{"1001", "o-2"}, OrderIdentifierStrings([]OrderIdentifier{"1001", "o-2"}))
}
