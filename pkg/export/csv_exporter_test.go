package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRender(t *testing.T) {
	data := Dataset{
		Headers: []string{"class", "day1_p1"},
		Rows: []map[string]string{
			{"class": "10A", "day1_p1": "math (T1)"},
			{"class": "10B"},
		},
	}
	out, err := NewCSVExporter().Render(data)
	require.NoError(t, err)
	assert.Equal(t, "class,day1_p1\n10A,math (T1)\n10B,\n", string(out))

	out, err = NewCSVExporter(WithComma(';')).Render(data)
	require.NoError(t, err)
	assert.Equal(t, "class;day1_p1\n10A;math (T1)\n10B;\n", string(out))
}

func TestCSVRenderRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}
