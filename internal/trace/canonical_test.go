package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortedKeys(t *testing.T) {
	data, err := MarshalCanonical(map[string]any{
		"zebra": int64(1),
		"alpha": int64(2),
		"mango": int64(3),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"mango":3,"zebra":1}`, string(data))
}

func TestMarshalCanonical_NoHTMLEscaping(t *testing.T) {
	data, err := MarshalCanonical("<a> & </a>")
	require.NoError(t, err)
	assert.Equal(t, `"<a> & </a>"`, string(data))
}

func TestMarshalCanonical_NestedStructures(t *testing.T) {
	data, err := MarshalCanonical(map[string]any{
		"events": []any{
			map[string]any{"type": "ready", "seq": int64(3)},
		},
		"name": "run",
	})
	require.NoError(t, err)
	assert.Equal(t, `{"events":[{"seq":3,"type":"ready"}],"name":"run"}`, string(data))
}

func TestMarshalCanonical_Booleans(t *testing.T) {
	data, err := MarshalCanonical(map[string]any{"ok": true, "bad": false})
	require.NoError(t, err)
	assert.Equal(t, `{"bad":false,"ok":true}`, string(data))
}

func TestMarshalCanonical_FloatsForbidden(t *testing.T) {
	_, err := MarshalCanonical(map[string]any{"x": 1.5})
	assert.Error(t, err)
}

func TestMarshalCanonical_NullForbidden(t *testing.T) {
	_, err := MarshalCanonical(nil)
	assert.Error(t, err)

	_, err = MarshalCanonical(map[string]any{"x": nil})
	assert.Error(t, err)
}

func TestMarshalCanonical_UnsupportedType(t *testing.T) {
	_, err := MarshalCanonical(struct{}{})
	assert.Error(t, err)
}

func TestCompareKeysUTF16_SurrogateOrdering(t *testing.T) {
	// U+FF61 (halfwidth ideographic full stop) is a single UTF-16 code
	// unit 0xFF61; U+1F600 (emoji) encodes as a surrogate pair starting
	// 0xD83D. UTF-16 order puts the emoji first; UTF-8 byte order would
	// not.
	assert.Equal(t, 1, compareKeysUTF16("｡", "\U0001F600"))
	assert.Equal(t, -1, compareKeysUTF16("\U0001F600", "｡"))
	assert.Equal(t, 0, compareKeysUTF16("abc", "abc"))
	assert.Equal(t, -1, compareKeysUTF16("ab", "abc"))
}
